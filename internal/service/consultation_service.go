package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"careercraft/internal/domain"
	"careercraft/internal/events"
	"careercraft/internal/metrics"
	"careercraft/internal/models"

	"github.com/rs/zerolog"
)

var (
	phonePattern = regexp.MustCompile(`^\d{10}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ConsultationRequest is an unvalidated booking submission.
type ConsultationRequest struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	MeetingDate string `json:"meeting_date"`
	MeetingTime string `json:"meeting_time"`
}

func (r ConsultationRequest) trimmed() ConsultationRequest {
	return ConsultationRequest{
		FullName:    strings.TrimSpace(r.FullName),
		Email:       strings.TrimSpace(r.Email),
		Phone:       strings.TrimSpace(r.Phone),
		MeetingDate: strings.TrimSpace(r.MeetingDate),
		MeetingTime: strings.TrimSpace(r.MeetingTime),
	}
}

type ConsultationService struct {
	repo     domain.ConsultationRepository
	eventBus domain.EventPublisher
	notifier *Notifier
	loc      *time.Location
	now      func() time.Time
	logger   *zerolog.Logger
}

func NewConsultationService(repo domain.ConsultationRepository, eventBus domain.EventPublisher, notifier *Notifier, loc *time.Location, logger *zerolog.Logger) *ConsultationService {
	if loc == nil {
		loc = time.UTC
	}
	return &ConsultationService{
		repo:     repo,
		eventBus: eventBus,
		notifier: notifier,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

// Validate checks a submission in a fixed order and stops at the first
// failure. It never touches the datastore.
func (s *ConsultationService) Validate(req ConsultationRequest) (*models.Consultation, error) {
	req = req.trimmed()

	if req.FullName == "" || req.Email == "" || req.Phone == "" || req.MeetingDate == "" || req.MeetingTime == "" {
		return nil, domain.Validation("All fields are required: full_name, email, phone, meeting_date, meeting_time")
	}
	if !phonePattern.MatchString(req.Phone) {
		return nil, domain.Validation("Phone number must be exactly 10 digits")
	}
	if !emailPattern.MatchString(req.Email) {
		return nil, domain.Validation("Please provide a valid email address")
	}

	date, err := models.ParseMeetingDate(req.MeetingDate, s.loc)
	if err != nil {
		return nil, domain.Validation("Meeting date must be in YYYY-MM-DD format")
	}
	today := models.StartOfDay(s.now().In(s.loc))
	if date.Before(today) {
		return nil, domain.Validation("Meeting date cannot be in the past")
	}

	return &models.Consultation{
		FullName:    req.FullName,
		Email:       req.Email,
		Phone:       req.Phone,
		MeetingDate: date,
		MeetingTime: req.MeetingTime,
		Status:      models.StatusPending,
	}, nil
}

// Submit validates and books a consultation. Notifications go out after
// the booking is committed and never affect the result.
func (s *ConsultationService) Submit(ctx context.Context, req ConsultationRequest) (*models.Consultation, error) {
	c, err := s.Validate(req)
	if err != nil {
		metrics.IncConsultation("invalid")
		return nil, err
	}

	if err := s.repo.CreateConsultation(ctx, c); err != nil {
		err = repoError(err, "consultation")
		switch domain.KindOf(err) {
		case domain.KindSlotConflict:
			metrics.IncConsultation("conflict")
			s.logger.Warn().Str("slot", c.Slot().String()).Msg("Time slot already booked")
		default:
			metrics.IncConsultation("error")
			s.logger.Error().Err(err).Str("slot", c.Slot().String()).Msg("Failed to create consultation")
		}
		return nil, err
	}

	metrics.IncConsultation("created")
	s.logger.Info().Int64("consultation_id", c.ID).Str("slot", c.Slot().String()).Msg("Consultation booked")

	s.publish(events.EventConsultationCreated, c, "")
	s.notifier.ConsultationBooked(*c)
	return c, nil
}

// UpdateStatus moves a consultation along its lifecycle.
func (s *ConsultationService) UpdateStatus(ctx context.Context, id int64, status string) (*models.Consultation, error) {
	status = strings.TrimSpace(status)
	if !models.IsValidStatus(status) {
		return nil, domain.Validationf("Invalid status. Must be one of: %s", strings.Join(models.Statuses(), ", "))
	}

	current, err := s.repo.GetConsultation(ctx, id)
	if err != nil {
		return nil, repoError(err, "consultation")
	}
	if !models.CanTransition(current.Status, status) {
		return nil, domain.Validationf("cannot change status from %s to %s", current.Status, status)
	}

	updated, err := s.repo.UpdateConsultationStatus(ctx, id, current.Status, status)
	if err != nil {
		return nil, repoError(err, "consultation")
	}

	s.logger.Info().Int64("consultation_id", id).Str("from", current.Status).Str("to", status).Msg("Consultation status updated")
	s.publish(events.EventConsultationStatusChanged, updated, current.Status)
	return updated, nil
}

func (s *ConsultationService) Get(ctx context.Context, id int64) (*models.Consultation, error) {
	c, err := s.repo.GetConsultation(ctx, id)
	if err != nil {
		return nil, repoError(err, "consultation")
	}
	return c, nil
}

// List returns all consultations, newest first.
func (s *ConsultationService) List(ctx context.Context) ([]*models.Consultation, error) {
	list, err := s.repo.ListConsultations(ctx)
	if err != nil {
		return nil, repoError(err, "consultations")
	}
	return list, nil
}

// Wait blocks until in-flight notifications are done.
func (s *ConsultationService) Wait() {
	s.notifier.Wait()
}

func (s *ConsultationService) publish(eventType string, c *models.Consultation, previous string) {
	if s.eventBus == nil {
		return
	}
	err := s.eventBus.PublishJSON(eventType, events.ConsultationPayload{
		ConsultationID: c.ID,
		FullName:       c.FullName,
		Email:          c.Email,
		MeetingDate:    c.MeetingDate.Format(models.DateLayout),
		MeetingTime:    c.MeetingTime,
		Status:         c.Status,
		PreviousStatus: previous,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("Failed to publish event")
	}
}
