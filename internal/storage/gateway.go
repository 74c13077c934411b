package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"careercraft/internal/config"
	"careercraft/internal/domain"
	"careercraft/internal/metrics"
	"careercraft/internal/models"

	"github.com/rs/zerolog"
)

var (
	categoryPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)
	unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9.-]`)
)

// backend is one physical home for artifact bytes.
type backend interface {
	kind() models.ArtifactKind
	store(ctx context.Context, category string, data []byte, originalName, mimeType string) (*models.Artifact, error)
	open(ctx context.Context, ref *models.Artifact) (*domain.Download, error)
	destroy(ctx context.Context, ref *models.Artifact) error
}

// Gateway is the single store/retrieve/destroy entry point for uploaded files.
// The backend for a category is decided on first use and never changes.
type Gateway struct {
	embedded *embeddedBackend
	local    *localBackend
	remote   *remoteBackend

	useRemote bool
	embed     map[string]bool

	mu       sync.RWMutex
	selected map[string]backend

	logger *zerolog.Logger
}

// NewGateway wires the backends. objects may be nil when remote storage is off.
func NewGateway(cfg config.StorageConfig, objects domain.ObjectStorage, logger *zerolog.Logger) (*Gateway, error) {
	local, err := newLocalBackend(cfg.UploadsDir)
	if err != nil {
		return nil, err
	}

	g := &Gateway{
		embedded: &embeddedBackend{},
		local:    local,
		embed:    make(map[string]bool, len(cfg.EmbedCategories)),
		selected: make(map[string]backend),
		logger:   logger,
	}
	for _, c := range cfg.EmbedCategories {
		g.embed[c] = true
	}
	// remote backend is always present: old remote refs outlive the switch-off
	g.remote = &remoteBackend{objects: objects, proxy: cfg.Remote.Download == config.DownloadProxy}
	g.useRemote = objects != nil && cfg.Remote.Usable()

	for _, c := range []string{models.CategoryRegistrations, models.CategoryPartners, models.CategorySuccessStories} {
		g.backendFor(c)
	}
	return g, nil
}

// backendKind reports which kind of backend new artifacts of category go to.
func (g *Gateway) backendKind(category string) models.ArtifactKind {
	return g.backendFor(category).kind()
}

func (g *Gateway) backendFor(category string) backend {
	g.mu.RLock()
	b, ok := g.selected[category]
	g.mu.RUnlock()
	if ok {
		return b
	}

	switch {
	case g.useRemote:
		b = g.remote
	case g.embed[category]:
		b = g.embedded
	default:
		b = g.local
	}

	g.mu.Lock()
	if existing, ok := g.selected[category]; ok {
		b = existing
	} else {
		g.selected[category] = b
		g.logger.Info().Str("category", category).Str("backend", string(b.kind())).Msg("Artifact backend selected")
	}
	g.mu.Unlock()
	return b
}

// Store persists the payload and returns a reference the caller saves.
func (g *Gateway) Store(ctx context.Context, category string, data []byte, originalName, mimeType string) (*models.Artifact, error) {
	if !categoryPattern.MatchString(category) {
		return nil, domain.Validationf("invalid artifact category %q", category)
	}
	if len(data) == 0 {
		return nil, domain.Validation("uploaded file is empty")
	}

	b := g.backendFor(category)
	ref, err := b.store(ctx, category, data, originalName, mimeType)
	metrics.IncArtifact(string(b.kind()), "store", err)
	if err != nil {
		g.logger.Error().Err(err).Str("category", category).Str("backend", string(b.kind())).Msg("Failed to store artifact")
		return nil, domain.Storage("failed to store file", err)
	}

	ref.Category = category
	ref.Kind = b.kind()
	ref.Filename = originalName
	ref.MimeType = mimeType
	ref.Size = int64(len(data))
	ref.CreatedAt = time.Now()
	return ref, nil
}

// Retrieve resolves a stored reference by its recorded kind.
func (g *Gateway) Retrieve(ctx context.Context, ref *models.Artifact, displayName string) (*domain.Download, error) {
	if ref == nil {
		return nil, domain.NotFound("file not found")
	}
	b, err := g.backendOf(ref)
	if err != nil {
		return nil, err
	}

	dl, err := b.open(ctx, ref)
	if err != nil {
		metrics.IncArtifact(string(ref.Kind), "retrieve", err)
		if domain.KindOf(err) == domain.KindNotFound {
			return nil, err
		}
		g.logger.Error().Err(err).Int64("artifact_id", ref.ID).Str("backend", string(ref.Kind)).Msg("Failed to retrieve artifact")
		return nil, domain.Storage("failed to retrieve file", err)
	}
	metrics.IncArtifact(string(ref.Kind), "retrieve", nil)

	dl.Filename = DownloadName(displayName, ref.Filename)
	if dl.MimeType == "" {
		dl.MimeType = mimeFor(ref)
	}
	return dl, nil
}

// Destroy removes the bytes behind ref. Missing objects are not an error.
func (g *Gateway) Destroy(ctx context.Context, ref *models.Artifact) error {
	if ref == nil {
		return nil
	}
	b, err := g.backendOf(ref)
	if err != nil {
		return err
	}
	err = b.destroy(ctx, ref)
	metrics.IncArtifact(string(ref.Kind), "destroy", err)
	if err != nil {
		g.logger.Error().Err(err).Int64("artifact_id", ref.ID).Str("backend", string(ref.Kind)).
			Str("provider_id", ref.ProviderID).Msg("Failed to destroy artifact")
		return domain.Storage("failed to delete file", err)
	}
	return nil
}

func (g *Gateway) backendOf(ref *models.Artifact) (backend, error) {
	switch ref.Kind {
	case models.ArtifactEmbedded:
		return g.embedded, nil
	case models.ArtifactLocal:
		return g.local, nil
	case models.ArtifactRemote:
		return g.remote, nil
	default:
		return nil, domain.Storage("unknown artifact kind", fmt.Errorf("kind %q", ref.Kind))
	}
}

// DownloadName builds the suggested filename: the display name with unsafe
// characters replaced, plus the original extension.
func DownloadName(displayName, originalName string) string {
	display := strings.TrimSpace(displayName)
	if display == "" {
		return originalName
	}
	return unsafeNameChars.ReplaceAllString(display, "_") + strings.ToLower(filepath.Ext(originalName))
}

// objectName is <unix-millis>-<random hex><ext>.
func objectName(originalName string) string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), hex.EncodeToString(b), strings.ToLower(filepath.Ext(originalName)))
}
