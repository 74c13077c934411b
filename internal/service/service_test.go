package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"careercraft/internal/config"
	"careercraft/internal/database"
	"careercraft/internal/domain"
	"careercraft/internal/events"
	"careercraft/internal/notify"
	"careercraft/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testLogger = zerolog.New(io.Discard)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), &testLogger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func setupGateway(t *testing.T, embed ...string) (*storage.Gateway, string) {
	t.Helper()
	dir := t.TempDir()
	g, err := storage.NewGateway(config.StorageConfig{UploadsDir: dir, EmbedCategories: embed}, nil, &testLogger)
	require.NoError(t, err)
	return g, dir
}

// recordingSender keeps every message it was asked to send.
type recordingSender struct {
	mu   sync.Mutex
	sent []domain.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg domain.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, msg)
	return "id", nil
}

func (s *recordingSender) messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Message(nil), s.sent...)
}

func newTestNotifier(email, admin domain.Sender) *Notifier {
	return NewNotifier(notify.NewDispatcher(time.Second, &testLogger), email, admin, NotifierConfig{
		Brand:        "CareerCraft",
		MeetingLink:  "https://meet.example.com/cc",
		AdminAddress: "ops@careercraft.example",
	}, &testLogger)
}

// recordingBus captures published events.
type recordingBus struct {
	mu     sync.Mutex
	events []*events.Event
	bus    *events.EventBus
}

func newRecordingBus() *recordingBus {
	r := &recordingBus{bus: events.NewEventBus()}
	r.bus.Subscribe(events.AllEvents, func(e *events.Event) error {
		r.mu.Lock()
		r.events = append(r.events, e)
		r.mu.Unlock()
		return nil
	})
	return r
}

func (r *recordingBus) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func kindOf(t *testing.T, err error) domain.Kind {
	t.Helper()
	var de *domain.Error
	require.True(t, errors.As(err, &de), "expected *domain.Error, got %v", err)
	return de.Kind
}
