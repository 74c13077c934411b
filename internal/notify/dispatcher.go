package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"careercraft/internal/domain"
	"careercraft/internal/metrics"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Job is one message on one channel.
type Job struct {
	Channel string
	Sender  domain.Sender
	Message domain.Message
}

// Dispatcher sends jobs in parallel, each under its own timeout. A failed
// job never cancels the others and is never retried.
type Dispatcher struct {
	timeout time.Duration
	logger  *zerolog.Logger
}

func NewDispatcher(timeout time.Duration, logger *zerolog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{timeout: timeout, logger: logger}
}

// Dispatch blocks until every job finished and returns the joined failures.
func (d *Dispatcher) Dispatch(ctx context.Context, jobs ...Job) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)

	for _, job := range jobs {
		job := job
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()

			id, err := job.Sender.Send(sendCtx, job.Message)
			metrics.IncNotification(job.Channel, err)
			if err != nil {
				d.logger.Error().Err(err).Str("channel", job.Channel).Str("to", job.Message.To).Msg("Notification failed")
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", job.Channel, err))
				mu.Unlock()
				return nil
			}
			d.logger.Info().Str("channel", job.Channel).Str("to", job.Message.To).Str("message_id", id).Msg("Notification sent")
			return nil
		})
	}

	_ = g.Wait()
	if len(errs) > 0 {
		return domain.Notification("notification delivery failed", errors.Join(errs...))
	}
	return nil
}
