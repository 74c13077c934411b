package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"careercraft/internal/models"
)

const artifactMetaColumns = `id, owner_type, owner_id, category, kind, filename, mime_type, size, location, provider_id, created_at`

// insertArtifact attaches a to its owner. The blob itself is already stored.
func (db *DB) insertArtifact(ctx context.Context, q querier, ownerType string, ownerID int64, a *models.Artifact) error {
	a.OwnerType = ownerType
	a.OwnerID = ownerID
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	var data interface{}
	if a.Kind == models.ArtifactEmbedded {
		data = a.Data
	}

	err := q.QueryRowContext(ctx, db.rebind(`INSERT INTO artifacts (
			owner_type, owner_id, category, kind, filename, mime_type, size, data, location, provider_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		a.OwnerType, a.OwnerID, a.Category, string(a.Kind), a.Filename, a.MimeType, a.Size,
		data, a.Location, a.ProviderID, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to insert artifact: %w", err)
	}
	return nil
}

// GetArtifact loads the newest artifact of an owner including embedded bytes.
func (db *DB) GetArtifact(ctx context.Context, ownerType string, ownerID int64) (*models.Artifact, error) {
	return db.ownerArtifact(ctx, db, ownerType, ownerID, true)
}

func (db *DB) ownerArtifact(ctx context.Context, q querier, ownerType string, ownerID int64, withData bool) (*models.Artifact, error) {
	cols := artifactMetaColumns
	if withData {
		cols += ", data"
	}
	row := q.QueryRowContext(ctx, db.rebind(`SELECT `+cols+` FROM artifacts
		WHERE owner_type = ? AND owner_id = ? ORDER BY id DESC LIMIT 1`), ownerType, ownerID)

	a, err := scanArtifact(row, withData)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}
	return a, nil
}

// ownerArtifacts maps owner id to its newest artifact, without bytes.
func (db *DB) ownerArtifacts(ctx context.Context, ownerType string) (map[int64]*models.Artifact, error) {
	rows, err := db.QueryContext(ctx, db.rebind(`SELECT `+artifactMetaColumns+` FROM artifacts
		WHERE owner_type = ? ORDER BY id`), ownerType)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]*models.Artifact)
	for rows.Next() {
		a, err := scanArtifact(rows, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		out[a.OwnerID] = a
	}
	return out, rows.Err()
}

// detachArtifacts removes the artifact rows of an owner and returns the
// newest one so the caller can destroy its blob.
func (db *DB) detachArtifacts(ctx context.Context, q querier, ownerType string, ownerID int64) (*models.Artifact, error) {
	old, err := db.ownerArtifact(ctx, q, ownerType, ownerID, false)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if _, err := q.ExecContext(ctx, db.rebind(`DELETE FROM artifacts WHERE owner_type = ? AND owner_id = ?`), ownerType, ownerID); err != nil {
		return nil, fmt.Errorf("failed to delete artifacts: %w", err)
	}
	return old, nil
}

// replaceArtifact swaps the owner's artifact for a and returns the old one.
func (db *DB) replaceArtifact(ctx context.Context, q querier, ownerType string, ownerID int64, a *models.Artifact) (*models.Artifact, error) {
	old, err := db.detachArtifacts(ctx, q, ownerType, ownerID)
	if err != nil {
		return nil, err
	}
	if err := db.insertArtifact(ctx, q, ownerType, ownerID, a); err != nil {
		return nil, err
	}
	return old, nil
}

func scanArtifact(row rowScanner, withData bool) (*models.Artifact, error) {
	var (
		a    models.Artifact
		kind string
	)
	dest := []interface{}{
		&a.ID, &a.OwnerType, &a.OwnerID, &a.Category, &kind, &a.Filename, &a.MimeType,
		&a.Size, &a.Location, &a.ProviderID, &a.CreatedAt,
	}
	if withData {
		dest = append(dest, &a.Data)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	a.Kind = models.ArtifactKind(kind)
	return &a, nil
}
