package service

import (
	"context"
	"sync"
	"time"

	"careercraft/internal/domain"
	"careercraft/internal/models"
	"careercraft/internal/notify"

	"github.com/rs/zerolog"
)

// NotifierConfig describes who receives what.
type NotifierConfig struct {
	Brand        string
	MeetingLink  string
	AdminAddress string
	AdminChannel string // email | telegram
}

// Notifier runs notification fan-outs detached from the request. Wait
// blocks until all started fan-outs finished.
type Notifier struct {
	dispatcher *notify.Dispatcher
	email      domain.Sender
	admin      domain.Sender
	cfg        NotifierConfig
	logger     *zerolog.Logger
	now        func() time.Time

	wg sync.WaitGroup
}

// NewNotifier builds a notifier. admin may be the same sender as email.
func NewNotifier(dispatcher *notify.Dispatcher, email, admin domain.Sender, cfg NotifierConfig, logger *zerolog.Logger) *Notifier {
	if cfg.AdminChannel == "" {
		cfg.AdminChannel = "email"
	}
	if cfg.Brand == "" {
		cfg.Brand = "CareerCraft"
	}
	return &Notifier{
		dispatcher: dispatcher,
		email:      email,
		admin:      admin,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// ConsultationBooked sends the confirmation and the operations notice in
// parallel. It returns immediately.
func (n *Notifier) ConsultationBooked(c models.Consultation) {
	if n == nil {
		return
	}

	var jobs []notify.Job
	if msg, err := notify.ConsultationConfirmation(&c, n.cfg.Brand, n.cfg.MeetingLink); err == nil {
		jobs = append(jobs, notify.Job{Channel: "email", Sender: n.email, Message: msg})
	} else {
		n.logger.Error().Err(err).Int64("consultation_id", c.ID).Msg("Failed to render confirmation")
	}
	if msg, err := notify.AdminConsultation(&c, n.cfg.AdminAddress); err == nil {
		jobs = append(jobs, notify.Job{Channel: n.cfg.AdminChannel, Sender: n.admin, Message: msg})
	} else {
		n.logger.Error().Err(err).Int64("consultation_id", c.ID).Msg("Failed to render admin notice")
	}

	n.detach(jobs, "consultation_id", c.ID)
}

// Registered sends the welcome email. It returns immediately.
func (n *Notifier) Registered(r models.Registration) {
	if n == nil {
		return
	}
	msg, err := notify.Welcome(&r, n.cfg.Brand, n.now())
	if err != nil {
		n.logger.Error().Err(err).Int64("registration_id", r.ID).Msg("Failed to render welcome email")
		return
	}
	n.detach([]notify.Job{{Channel: "email", Sender: n.email, Message: msg}}, "registration_id", r.ID)
}

func (n *Notifier) detach(jobs []notify.Job, idKey string, id int64) {
	if len(jobs) == 0 {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		// запрос уже завершен, поэтому свой контекст
		if err := n.dispatcher.Dispatch(context.Background(), jobs...); err != nil {
			n.logger.Warn().Err(err).Int64(idKey, id).Msg("Some notifications were not delivered")
		}
	}()
}

// Wait blocks until every detached fan-out has finished.
func (n *Notifier) Wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}
