package service

import (
	"context"
	"strings"

	"careercraft/internal/domain"
	"careercraft/internal/models"

	"github.com/rs/zerolog"
)

// ContentService covers the plain text content: courses, FAQs and site stats.
type ContentService struct {
	repo   domain.ContentRepository
	logger *zerolog.Logger
}

func NewContentService(repo domain.ContentRepository, logger *zerolog.Logger) *ContentService {
	return &ContentService{repo: repo, logger: logger}
}

func normalizeCourse(c *models.Course) error {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return domain.Validation("Title required")
	}
	features := c.Features[:0]
	for _, f := range c.Features {
		if f = strings.TrimSpace(f); f != "" {
			features = append(features, f)
		}
	}
	c.Features = features
	return nil
}

func (s *ContentService) CreateCourse(ctx context.Context, c *models.Course) error {
	if err := normalizeCourse(c); err != nil {
		return err
	}
	return repoError(s.repo.CreateCourse(ctx, c), "course")
}

func (s *ContentService) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	c, err := s.repo.GetCourse(ctx, id)
	if err != nil {
		return nil, repoError(err, "course")
	}
	return c, nil
}

func (s *ContentService) ListCourses(ctx context.Context) ([]*models.Course, error) {
	list, err := s.repo.ListCourses(ctx)
	if err != nil {
		return nil, repoError(err, "courses")
	}
	return list, nil
}

func (s *ContentService) UpdateCourse(ctx context.Context, c *models.Course) error {
	if err := normalizeCourse(c); err != nil {
		return err
	}
	return repoError(s.repo.UpdateCourse(ctx, c), "course")
}

func (s *ContentService) DeleteCourse(ctx context.Context, id int64) error {
	return repoError(s.repo.DeleteCourse(ctx, id), "course")
}

func normalizeFAQ(f *models.FAQ) error {
	f.Question = strings.TrimSpace(f.Question)
	f.Answer = strings.TrimSpace(f.Answer)
	if f.Question == "" || f.Answer == "" {
		return domain.Validation("Question & Answer required")
	}
	return nil
}

func (s *ContentService) CreateFAQ(ctx context.Context, f *models.FAQ) error {
	if err := normalizeFAQ(f); err != nil {
		return err
	}
	return repoError(s.repo.CreateFAQ(ctx, f), "faq")
}

func (s *ContentService) GetFAQ(ctx context.Context, id int64) (*models.FAQ, error) {
	f, err := s.repo.GetFAQ(ctx, id)
	if err != nil {
		return nil, repoError(err, "faq")
	}
	return f, nil
}

func (s *ContentService) ListFAQs(ctx context.Context) ([]*models.FAQ, error) {
	list, err := s.repo.ListFAQs(ctx)
	if err != nil {
		return nil, repoError(err, "faqs")
	}
	return list, nil
}

func (s *ContentService) UpdateFAQ(ctx context.Context, f *models.FAQ) error {
	if err := normalizeFAQ(f); err != nil {
		return err
	}
	return repoError(s.repo.UpdateFAQ(ctx, f), "faq")
}

func (s *ContentService) DeleteFAQ(ctx context.Context, id int64) error {
	return repoError(s.repo.DeleteFAQ(ctx, id), "faq")
}

// SiteStats returns stored values merged over the defaults.
func (s *ContentService) SiteStats(ctx context.Context) (map[string]string, error) {
	stored, err := s.repo.GetSiteStats(ctx)
	if err != nil {
		return nil, repoError(err, "site stats")
	}
	return models.MergeSiteStats(stored), nil
}

// UpdateSiteStats saves the known keys and ignores the rest.
func (s *ContentService) UpdateSiteStats(ctx context.Context, values map[string]string) (map[string]string, error) {
	known := make(map[string]string, len(values))
	var ignored []string
	for k, v := range values {
		if !models.IsSiteStatKey(k) {
			ignored = append(ignored, k)
			continue
		}
		known[k] = strings.TrimSpace(v)
	}
	if len(ignored) > 0 {
		s.logger.Debug().Strs("keys", ignored).Msg("Ignoring unknown site stat keys")
	}
	if len(known) == 0 {
		return nil, domain.Validation("no known site stat keys in request")
	}
	if err := s.repo.SetSiteStats(ctx, known); err != nil {
		return nil, repoError(err, "site stats")
	}
	return s.SiteStats(ctx)
}
