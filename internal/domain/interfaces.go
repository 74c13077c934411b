package domain

import (
	"context"
	"io"
	"time"

	"careercraft/internal/models"
)

type ConsultationRepository interface {
	CreateConsultation(ctx context.Context, c *models.Consultation) error
	GetConsultation(ctx context.Context, id int64) (*models.Consultation, error)
	ListConsultations(ctx context.Context) ([]*models.Consultation, error)
	UpdateConsultationStatus(ctx context.Context, id int64, from, to string) (*models.Consultation, error)
}

type RegistrationRepository interface {
	CreateRegistration(ctx context.Context, r *models.Registration) error
	GetRegistration(ctx context.Context, id int64) (*models.Registration, error)
	ListRegistrations(ctx context.Context) ([]*models.Registration, error)
	DeleteRegistration(ctx context.Context, id int64) (*models.Registration, error)
}

type PartnerRepository interface {
	CreatePartner(ctx context.Context, p *models.Partner) error
	GetPartner(ctx context.Context, id int64) (*models.Partner, error)
	ListPartners(ctx context.Context) ([]*models.Partner, error)
	UpdatePartner(ctx context.Context, p *models.Partner) (replaced *models.Artifact, err error)
	DeletePartner(ctx context.Context, id int64) (*models.Partner, error)
}

type StoryRepository interface {
	CreateStory(ctx context.Context, s *models.SuccessStory) error
	GetStory(ctx context.Context, id int64) (*models.SuccessStory, error)
	ListStories(ctx context.Context) ([]*models.SuccessStory, error)
	UpdateStory(ctx context.Context, s *models.SuccessStory) (replaced *models.Artifact, err error)
	DeleteStory(ctx context.Context, id int64) (*models.SuccessStory, error)
}

type ContentRepository interface {
	CreateCourse(ctx context.Context, c *models.Course) error
	GetCourse(ctx context.Context, id int64) (*models.Course, error)
	ListCourses(ctx context.Context) ([]*models.Course, error)
	UpdateCourse(ctx context.Context, c *models.Course) error
	DeleteCourse(ctx context.Context, id int64) error

	CreateFAQ(ctx context.Context, f *models.FAQ) error
	GetFAQ(ctx context.Context, id int64) (*models.FAQ, error)
	ListFAQs(ctx context.Context) ([]*models.FAQ, error)
	UpdateFAQ(ctx context.Context, f *models.FAQ) error
	DeleteFAQ(ctx context.Context, id int64) error

	GetSiteStats(ctx context.Context) (map[string]string, error)
	SetSiteStats(ctx context.Context, values map[string]string) error
}

// Download is what a retrieval hands to the transport layer: either a body
// to stream or a URL to redirect to.
type Download struct {
	Body        io.ReadCloser
	Size        int64
	MimeType    string
	Filename    string
	RedirectURL string
}

type ArtifactStore interface {
	Store(ctx context.Context, category string, data []byte, originalName, mimeType string) (*models.Artifact, error)
	Retrieve(ctx context.Context, ref *models.Artifact, displayName string) (*Download, error)
	Destroy(ctx context.Context, ref *models.Artifact) error
}

// RemoteObject is the result of a remote upload.
type RemoteObject struct {
	URL string
	Key string
}

// ObjectStorage is the remote provider behind the artifact gateway.
type ObjectStorage interface {
	Upload(ctx context.Context, folder, name, mimeType string, body []byte) (RemoteObject, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Message is a single outbound notification.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) (messageID string, err error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Throttle counts submissions per key inside a fixed window.
type Throttle interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
