package service

import (
	"context"
	"path/filepath"
	"strings"

	"careercraft/internal/domain"
	"careercraft/internal/events"
	"careercraft/internal/models"

	"github.com/rs/zerolog"
)

// Upload is a file received from a client.
type Upload struct {
	Data     []byte
	Filename string
	MimeType string
}

var cvTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

func cvMimeType(filename, declared string) string {
	if t, ok := cvTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return t
	}
	if declared != "" {
		return declared
	}
	return "application/octet-stream"
}

// RegistrationRequest is a sign-up with its CV.
type RegistrationRequest struct {
	FullName string
	Email    string
	Phone    string
	Roles    string
	CV       *Upload
}

type RegistrationService struct {
	repo     domain.RegistrationRepository
	store    domain.ArtifactStore
	eventBus domain.EventPublisher
	notifier *Notifier
	logger   *zerolog.Logger
}

func NewRegistrationService(repo domain.RegistrationRepository, store domain.ArtifactStore, eventBus domain.EventPublisher, notifier *Notifier, logger *zerolog.Logger) *RegistrationService {
	return &RegistrationService{repo: repo, store: store, eventBus: eventBus, notifier: notifier, logger: logger}
}

// Register stores the CV first and then the row. If the row cannot be
// written the stored CV is destroyed again.
func (s *RegistrationService) Register(ctx context.Context, req RegistrationRequest) (*models.Registration, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	if req.FullName == "" || req.Email == "" || req.CV == nil || len(req.CV.Data) == 0 {
		return nil, domain.Validation("Full name, email, and CV file are required")
	}
	if !emailPattern.MatchString(req.Email) {
		return nil, domain.Validation("Please provide a valid email address")
	}

	name := req.CV.Filename
	if filepath.Ext(name) == "" {
		name += ".pdf"
	}
	ref, err := s.store.Store(ctx, models.CategoryRegistrations, req.CV.Data, name, cvMimeType(name, req.CV.MimeType))
	if err != nil {
		return nil, err
	}

	r := &models.Registration{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    strings.TrimSpace(req.Phone),
		Roles:    strings.TrimSpace(req.Roles),
		CV:       ref,
	}
	if err := s.repo.CreateRegistration(ctx, r); err != nil {
		s.discard(ctx, ref)
		return nil, repoError(err, "registration")
	}

	s.logger.Info().Int64("registration_id", r.ID).Str("backend", string(ref.Kind)).Msg("Registration created")
	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(events.EventRegistrationCreated, events.RegistrationPayload{
			RegistrationID: r.ID, Email: r.Email, HasCV: true,
		}); err != nil {
			s.logger.Error().Err(err).Msg("Failed to publish event")
		}
	}
	s.notifier.Registered(*r)
	return r, nil
}

func (s *RegistrationService) Get(ctx context.Context, id int64) (*models.Registration, error) {
	r, err := s.repo.GetRegistration(ctx, id)
	if err != nil {
		return nil, repoError(err, "registration")
	}
	return r, nil
}

func (s *RegistrationService) List(ctx context.Context) ([]*models.Registration, error) {
	list, err := s.repo.ListRegistrations(ctx)
	if err != nil {
		return nil, repoError(err, "registrations")
	}
	return list, nil
}

// CV opens the registration's CV. The suggested name is "<full name>_CV<ext>".
func (s *RegistrationService) CV(ctx context.Context, id int64) (*domain.Download, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.CV == nil {
		return nil, domain.NotFound("CV file not found")
	}
	display := r.FullName
	if display == "" {
		display = "CV"
	}
	return s.store.Retrieve(ctx, r.CV, display+"_CV")
}

// Delete removes the registration and then its CV.
func (s *RegistrationService) Delete(ctx context.Context, id int64) error {
	r, err := s.repo.DeleteRegistration(ctx, id)
	if err != nil {
		return repoError(err, "registration")
	}
	if r.CV != nil {
		s.discard(ctx, r.CV)
	}
	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(events.EventRegistrationDeleted, events.RegistrationPayload{RegistrationID: id, Email: r.Email}); err != nil {
			s.logger.Error().Err(err).Int64("registration_id", id).Msg("Failed to publish event")
		}
	}
	return nil
}

// Wait blocks until in-flight welcome emails are done.
func (s *RegistrationService) Wait() {
	s.notifier.Wait()
}

func (s *RegistrationService) discard(ctx context.Context, ref *models.Artifact) {
	discardArtifact(ctx, s.store, ref, s.logger)
}

// discardArtifact destroys a blob best-effort.
func discardArtifact(ctx context.Context, store domain.ArtifactStore, ref *models.Artifact, logger *zerolog.Logger) {
	if err := store.Destroy(ctx, ref); err != nil {
		logger.Warn().Err(err).Str("kind", string(ref.Kind)).Str("location", ref.Location).
			Str("provider_id", ref.ProviderID).Msg("Failed to destroy artifact, blob left behind")
	}
}
