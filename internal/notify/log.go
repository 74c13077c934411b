package notify

import (
	"context"
	"fmt"
	"sync/atomic"

	"careercraft/internal/domain"

	"github.com/rs/zerolog"
)

// LogSender only writes the message to the log. Used when delivery is off.
type LogSender struct {
	logger *zerolog.Logger
	seq    atomic.Int64
}

func NewLogSender(logger *zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg domain.Message) (string, error) {
	id := fmt.Sprintf("log-%d", s.seq.Add(1))
	s.logger.Info().Str("message_id", id).Str("to", msg.To).Str("subject", msg.Subject).Msg("Notification delivery disabled, message logged")
	return id, nil
}
