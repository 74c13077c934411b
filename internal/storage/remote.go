package storage

import (
	"context"
	"errors"
	"fmt"

	"careercraft/internal/domain"
	"careercraft/internal/models"
)

// ErrNoObjectStorage means a remote reference cannot be served or removed
// because no object storage client is configured.
var ErrNoObjectStorage = errors.New("object storage client is not configured")

// remoteBackend delegates to object storage. Downloads either redirect to
// the public URL or stream through the provider.
type remoteBackend struct {
	objects domain.ObjectStorage
	proxy   bool
}

func (*remoteBackend) kind() models.ArtifactKind { return models.ArtifactRemote }

func (b *remoteBackend) store(ctx context.Context, category string, data []byte, originalName, mimeType string) (*models.Artifact, error) {
	if b.objects == nil {
		return nil, ErrNoObjectStorage
	}
	obj, err := b.objects.Upload(ctx, category, objectName(originalName), mimeType, data)
	if err != nil {
		return nil, fmt.Errorf("upload object: %w", err)
	}
	return &models.Artifact{Location: obj.URL, ProviderID: obj.Key}, nil
}

func (b *remoteBackend) open(ctx context.Context, ref *models.Artifact) (*domain.Download, error) {
	if !b.proxy {
		if ref.Location == "" {
			return nil, domain.NotFound("file not found")
		}
		return &domain.Download{RedirectURL: ref.Location, MimeType: ref.MimeType}, nil
	}

	if ref.ProviderID == "" {
		return nil, domain.NotFound("file not found")
	}
	if b.objects == nil {
		return nil, ErrNoObjectStorage
	}
	body, err := b.objects.Open(ctx, ref.ProviderID)
	if errors.Is(err, ErrObjectNotFound) {
		return nil, domain.NotFound("file not found")
	}
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}
	return &domain.Download{Body: body, Size: ref.Size, MimeType: ref.MimeType}, nil
}

func (b *remoteBackend) destroy(ctx context.Context, ref *models.Artifact) error {
	if ref.ProviderID == "" {
		return nil
	}
	if b.objects == nil {
		return ErrNoObjectStorage
	}
	err := b.objects.Delete(ctx, ref.ProviderID)
	if err == nil || errors.Is(err, ErrObjectNotFound) {
		return nil
	}
	return fmt.Errorf("delete object: %w", err)
}
