package service

import (
	"context"
	"strings"

	"careercraft/internal/domain"
	"careercraft/internal/events"
	"careercraft/internal/models"
	"careercraft/internal/storage"

	"github.com/rs/zerolog"
)

// ImageProcessor prepares an image before it is stored.
type ImageProcessor interface {
	Normalize(data []byte, filename, mimeType string) ([]byte, string, string, error)
}

// PartnerInput is a partner create or update. Logo is required on create.
type PartnerInput struct {
	Name string
	Logo *Upload
}

// StoryInput is a success story create or update. Image is required on create.
type StoryInput struct {
	Quote   string
	Name    string
	Role    string
	Company string
	Rating  *int
	Image   *Upload
}

// MediaService manages partners and success stories, the records that
// carry an image.
type MediaService struct {
	partners domain.PartnerRepository
	stories  domain.StoryRepository
	store    domain.ArtifactStore
	images   ImageProcessor
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewMediaService(partners domain.PartnerRepository, stories domain.StoryRepository, store domain.ArtifactStore, images ImageProcessor, eventBus domain.EventPublisher, logger *zerolog.Logger) *MediaService {
	return &MediaService{
		partners: partners,
		stories:  stories,
		store:    store,
		images:   images,
		eventBus: eventBus,
		logger:   logger,
	}
}

// storeImage checks, optionally re-encodes, and stores an image upload.
func (s *MediaService) storeImage(ctx context.Context, category string, up *Upload) (*models.Artifact, error) {
	mimeType, err := storage.CheckImage(up.Data, up.Filename)
	if err != nil {
		return nil, err
	}
	data, name := up.Data, up.Filename
	if s.images != nil {
		if data, name, mimeType, err = s.images.Normalize(data, name, mimeType); err != nil {
			return nil, err
		}
	}
	return s.store.Store(ctx, category, data, name, mimeType)
}

func (s *MediaService) CreatePartner(ctx context.Context, in PartnerInput) (*models.Partner, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Validation("Name required")
	}
	if in.Logo == nil || len(in.Logo.Data) == 0 {
		return nil, domain.Validation("Logo file is required")
	}

	logo, err := s.storeImage(ctx, models.CategoryPartners, in.Logo)
	if err != nil {
		return nil, err
	}
	p := &models.Partner{Name: name, Logo: logo}
	if err := s.partners.CreatePartner(ctx, p); err != nil {
		discardArtifact(ctx, s.store, logo, s.logger)
		return nil, repoError(err, "partner")
	}
	s.publish(events.EventPartnerChanged, p.ID, "created")
	return p, nil
}

func (s *MediaService) UpdatePartner(ctx context.Context, id int64, in PartnerInput) (*models.Partner, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Validation("Name required")
	}

	p := &models.Partner{ID: id, Name: name}
	if in.Logo != nil && len(in.Logo.Data) > 0 {
		logo, err := s.storeImage(ctx, models.CategoryPartners, in.Logo)
		if err != nil {
			return nil, err
		}
		p.Logo = logo
	}

	replaced, err := s.partners.UpdatePartner(ctx, p)
	if err != nil {
		if p.Logo != nil {
			discardArtifact(ctx, s.store, p.Logo, s.logger)
		}
		return nil, repoError(err, "partner")
	}
	if replaced != nil {
		discardArtifact(ctx, s.store, replaced, s.logger)
	}
	s.publish(events.EventPartnerChanged, id, "updated")
	return s.GetPartner(ctx, id)
}

func (s *MediaService) GetPartner(ctx context.Context, id int64) (*models.Partner, error) {
	p, err := s.partners.GetPartner(ctx, id)
	if err != nil {
		return nil, repoError(err, "partner")
	}
	return p, nil
}

func (s *MediaService) ListPartners(ctx context.Context) ([]*models.Partner, error) {
	list, err := s.partners.ListPartners(ctx)
	if err != nil {
		return nil, repoError(err, "partners")
	}
	return list, nil
}

func (s *MediaService) DeletePartner(ctx context.Context, id int64) error {
	p, err := s.partners.DeletePartner(ctx, id)
	if err != nil {
		return repoError(err, "partner")
	}
	if p.Logo != nil {
		discardArtifact(ctx, s.store, p.Logo, s.logger)
	}
	s.publish(events.EventPartnerChanged, id, "deleted")
	return nil
}

// PartnerLogo opens the logo, suggesting the partner name as file name.
func (s *MediaService) PartnerLogo(ctx context.Context, id int64) (*domain.Download, error) {
	p, err := s.GetPartner(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Logo == nil {
		return nil, domain.NotFound("logo not found")
	}
	return s.store.Retrieve(ctx, p.Logo, p.Name)
}

func validateStory(in *StoryInput) error {
	in.Quote = strings.TrimSpace(in.Quote)
	in.Name = strings.TrimSpace(in.Name)
	in.Role = strings.TrimSpace(in.Role)
	in.Company = strings.TrimSpace(in.Company)
	if in.Quote == "" || in.Name == "" {
		return domain.Validation("Quote and name are required")
	}
	if in.Rating != nil && (*in.Rating < 1 || *in.Rating > 5) {
		return domain.Validation("Rating must be between 1 and 5")
	}
	return nil
}

func (s *MediaService) CreateStory(ctx context.Context, in StoryInput) (*models.SuccessStory, error) {
	if err := validateStory(&in); err != nil {
		return nil, err
	}
	if in.Image == nil || len(in.Image.Data) == 0 {
		return nil, domain.Validation("Image file is required")
	}

	img, err := s.storeImage(ctx, models.CategorySuccessStories, in.Image)
	if err != nil {
		return nil, err
	}
	st := &models.SuccessStory{Quote: in.Quote, Name: in.Name, Role: in.Role, Company: in.Company, Rating: in.Rating, Image: img}
	if err := s.stories.CreateStory(ctx, st); err != nil {
		discardArtifact(ctx, s.store, img, s.logger)
		return nil, repoError(err, "success story")
	}
	s.publish(events.EventStoryChanged, st.ID, "created")
	return st, nil
}

func (s *MediaService) UpdateStory(ctx context.Context, id int64, in StoryInput) (*models.SuccessStory, error) {
	if err := validateStory(&in); err != nil {
		return nil, err
	}

	st := &models.SuccessStory{ID: id, Quote: in.Quote, Name: in.Name, Role: in.Role, Company: in.Company, Rating: in.Rating}
	if in.Image != nil && len(in.Image.Data) > 0 {
		img, err := s.storeImage(ctx, models.CategorySuccessStories, in.Image)
		if err != nil {
			return nil, err
		}
		st.Image = img
	}

	replaced, err := s.stories.UpdateStory(ctx, st)
	if err != nil {
		if st.Image != nil {
			discardArtifact(ctx, s.store, st.Image, s.logger)
		}
		return nil, repoError(err, "success story")
	}
	if replaced != nil {
		discardArtifact(ctx, s.store, replaced, s.logger)
	}
	s.publish(events.EventStoryChanged, id, "updated")
	return s.GetStory(ctx, id)
}

func (s *MediaService) GetStory(ctx context.Context, id int64) (*models.SuccessStory, error) {
	st, err := s.stories.GetStory(ctx, id)
	if err != nil {
		return nil, repoError(err, "success story")
	}
	return st, nil
}

func (s *MediaService) ListStories(ctx context.Context) ([]*models.SuccessStory, error) {
	list, err := s.stories.ListStories(ctx)
	if err != nil {
		return nil, repoError(err, "success stories")
	}
	return list, nil
}

func (s *MediaService) DeleteStory(ctx context.Context, id int64) error {
	st, err := s.stories.DeleteStory(ctx, id)
	if err != nil {
		return repoError(err, "success story")
	}
	if st.Image != nil {
		discardArtifact(ctx, s.store, st.Image, s.logger)
	}
	s.publish(events.EventStoryChanged, id, "deleted")
	return nil
}

func (s *MediaService) StoryImage(ctx context.Context, id int64) (*domain.Download, error) {
	st, err := s.GetStory(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.Image == nil {
		return nil, domain.NotFound("image not found")
	}
	return s.store.Retrieve(ctx, st.Image, st.Name)
}

func (s *MediaService) publish(eventType string, id int64, action string) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, events.ContentPayload{ID: id, Action: action}); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("Failed to publish event")
	}
}
