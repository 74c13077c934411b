package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"careercraft/internal/events"
	"careercraft/internal/logging"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrQueueFull is returned by Enqueue when the relay cannot keep up.
var ErrQueueFull = errors.New("event relay queue is full")

// Publisher delivers one event to an external broker.
type Publisher interface {
	Handle(event *events.Event) error
}

// deadLetter is what lands in Redis after the last failed attempt.
type deadLetter struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	Attempts  int             `json:"attempts"`
	Error     string          `json:"error"`
}

// EventRelay takes events off the request path and hands them to the
// broker in the background, retrying with backoff.
type EventRelay struct {
	publisher     Publisher
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan *events.Event
	deadLetterKey string
	logger        *zerolog.Logger
	wg            sync.WaitGroup
}

// NewEventRelay builds a relay; zero retry fields take defaults. redisClient may be nil,
// in which case dead letters are only logged.
func NewEventRelay(publisher Publisher, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *EventRelay {
	return &EventRelay{
		publisher:     publisher,
		redis:         redisClient,
		retryPolicy:   retry.withDefaults(),
		queue:         make(chan *events.Event, 256),
		deadLetterKey: "events:deadletter",
		logger:        logging.Component(logger, "event-relay"),
	}
}

// Enqueue is an events.EventHandler. It never blocks.
func (r *EventRelay) Enqueue(event *events.Event) error {
	select {
	case r.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the delivery loop. It runs until ctx is done, then makes
// one attempt at whatever is still queued.
func (r *EventRelay) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.run(ctx)
}

func (r *EventRelay) run(ctx context.Context) {
	defer r.wg.Done()

	r.logger.Info().Msg("event relay started")
	defer r.logger.Info().Msg("event relay stopped")

	for {
		select {
		case <-ctx.Done():
			r.drain()
			return
		case ev := <-r.queue:
			r.deliver(ctx, ev)
		}
	}
}

// Wait blocks until the loop started by Start has exited.
func (r *EventRelay) Wait() {
	r.wg.Wait()
}

func (r *EventRelay) drain() {
	for {
		select {
		case ev := <-r.queue:
			if err := r.publisher.Handle(ev); err != nil {
				r.pushDeadLetter(ev, 1, err)
			}
		default:
			return
		}
	}
}

func (r *EventRelay) deliver(ctx context.Context, ev *events.Event) {
	var err error
	for attempt := 1; attempt <= r.retryPolicy.MaxRetries; attempt++ {
		if err = r.publisher.Handle(ev); err == nil {
			return
		}
		if attempt == r.retryPolicy.MaxRetries {
			break
		}

		delay := r.retryPolicy.NextDelay(attempt)
		r.logger.Warn().Err(err).Str("event", ev.Type).Int("attempt", attempt).Dur("retry_in", delay).
			Msg("event publish failed")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			r.pushDeadLetter(ev, attempt, err)
			return
		case <-timer.C:
		}
	}
	r.pushDeadLetter(ev, r.retryPolicy.MaxRetries, err)
}

func (r *EventRelay) pushDeadLetter(ev *events.Event, attempts int, cause error) {
	r.logger.Error().Err(cause).Str("event", ev.Type).Int("attempts", attempts).Msg("event dropped to dead letter")
	if r.redis == nil {
		return
	}

	payload := json.RawMessage(ev.Payload)
	if !json.Valid(payload) {
		payload = nil
	}
	data, err := json.Marshal(deadLetter{
		Type:      ev.Type,
		Payload:   payload,
		CreatedAt: ev.CreatedAt,
		Attempts:  attempts,
		Error:     cause.Error(),
	})
	if err != nil {
		r.logger.Error().Err(err).Str("event", ev.Type).Msg("encode dead letter")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := r.redis.LPush(ctx, r.deadLetterKey, data).Err(); err != nil {
		r.logger.Error().Err(err).Str("event", ev.Type).Msg("dead letter push failed")
	}
}
