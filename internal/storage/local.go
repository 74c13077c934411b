package storage

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"careercraft/internal/domain"
	"careercraft/internal/models"
)

// localBackend writes files under <root>/<category>/ and records the path
// relative to root.
type localBackend struct {
	root string
}

func newLocalBackend(root string) (*localBackend, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve uploads dir: %w", err)
	}
	return &localBackend{root: abs}, nil
}

func (*localBackend) kind() models.ArtifactKind { return models.ArtifactLocal }

func (b *localBackend) store(_ context.Context, category string, data []byte, originalName, _ string) (*models.Artifact, error) {
	dir := filepath.Join(b.root, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	name := objectName(originalName)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}
	return &models.Artifact{Location: path.Join(category, name)}, nil
}

func (b *localBackend) open(_ context.Context, ref *models.Artifact) (*domain.Download, error) {
	full, ok := b.resolve(ref.Location)
	if !ok {
		return nil, domain.NotFound("file not found")
	}

	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.NotFound("file not found")
	}
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat upload: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, domain.NotFound("file not found")
	}

	return &domain.Download{Body: f, Size: info.Size(), MimeType: ref.MimeType}, nil
}

func (b *localBackend) destroy(_ context.Context, ref *models.Artifact) error {
	full, ok := b.resolve(ref.Location)
	if !ok {
		return nil
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

// resolve maps a stored relative path to an absolute one and refuses
// anything that would land outside the uploads root.
func (b *localBackend) resolve(rel string) (string, bool) {
	if rel == "" || filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") {
		return "", false
	}
	full := filepath.Join(b.root, filepath.FromSlash(rel))
	within, err := filepath.Rel(b.root, full)
	if err != nil || within == "." || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}

func mimeFor(ref *models.Artifact) string {
	if ref.MimeType != "" {
		return ref.MimeType
	}
	name := ref.Filename
	if name == "" {
		name = ref.Location
	}
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		return t
	}
	return "application/octet-stream"
}
