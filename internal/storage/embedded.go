package storage

import (
	"bytes"
	"context"
	"io"

	"careercraft/internal/domain"
	"careercraft/internal/models"
)

// embeddedBackend keeps the bytes in the artifact row itself.
type embeddedBackend struct{}

func (embeddedBackend) kind() models.ArtifactKind { return models.ArtifactEmbedded }

func (embeddedBackend) store(_ context.Context, _ string, data []byte, _, _ string) (*models.Artifact, error) {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &models.Artifact{Data: buf}, nil
}

func (embeddedBackend) open(_ context.Context, ref *models.Artifact) (*domain.Download, error) {
	if len(ref.Data) == 0 {
		return nil, domain.NotFound("file not found")
	}
	return &domain.Download{
		Body:     io.NopCloser(bytes.NewReader(ref.Data)),
		Size:     int64(len(ref.Data)),
		MimeType: ref.MimeType,
	}, nil
}

func (embeddedBackend) destroy(context.Context, *models.Artifact) error { return nil }
