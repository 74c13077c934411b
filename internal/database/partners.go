package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"careercraft/internal/models"
)

func (db *DB) CreatePartner(ctx context.Context, p *models.Partner) error {
	now := time.Now()
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, db.rebind(`INSERT INTO partners (name, created_at) VALUES (?, ?) RETURNING id`),
			p.Name, now).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("failed to insert partner: %w", err)
		}
		if p.Logo != nil {
			return db.insertArtifact(ctx, tx, models.OwnerPartner, p.ID, p.Logo)
		}
		return nil
	})
	if err != nil {
		return err
	}
	p.CreatedAt = now
	return nil
}

func (db *DB) GetPartner(ctx context.Context, id int64) (*models.Partner, error) {
	p, err := db.getPartner(ctx, db, id)
	if err != nil {
		return nil, err
	}
	logo, err := db.GetArtifact(ctx, models.OwnerPartner, id)
	switch {
	case err == nil:
		p.Logo = logo
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}
	return p, nil
}

func (db *DB) getPartner(ctx context.Context, q querier, id int64) (*models.Partner, error) {
	var p models.Partner
	err := q.QueryRowContext(ctx, db.rebind(`SELECT id, name, created_at FROM partners WHERE id = ?`), id).
		Scan(&p.ID, &p.Name, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get partner %d: %w", id, err)
	}
	return &p, nil
}

func (db *DB) ListPartners(ctx context.Context) ([]*models.Partner, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, created_at FROM partners ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list partners: %w", err)
	}
	defer rows.Close()

	var out []*models.Partner
	for rows.Next() {
		var p models.Partner
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan partner: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logos, err := db.ownerArtifacts(ctx, models.OwnerPartner)
	if err != nil {
		return nil, err
	}
	for _, p := range out {
		p.Logo = logos[p.ID]
	}
	return out, nil
}

// UpdatePartner renames the partner. A Logo without an id is a new upload
// and replaces the current one, which is returned for cleanup.
func (db *DB) UpdatePartner(ctx context.Context, p *models.Partner) (*models.Artifact, error) {
	var replaced *models.Artifact
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, db.rebind(`UPDATE partners SET name = ? WHERE id = ?`), p.Name, p.ID)
		if err != nil {
			return fmt.Errorf("failed to update partner: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		if p.Logo != nil && p.Logo.ID == 0 {
			replaced, err = db.replaceArtifact(ctx, tx, models.OwnerPartner, p.ID, p.Logo)
			return err
		}
		return nil
	})
	return replaced, err
}

func (db *DB) DeletePartner(ctx context.Context, id int64) (*models.Partner, error) {
	var deleted *models.Partner
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		p, err := db.getPartner(ctx, tx, id)
		if err != nil {
			return err
		}
		if p.Logo, err = db.detachArtifacts(ctx, tx, models.OwnerPartner, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, db.rebind(`DELETE FROM partners WHERE id = ?`), id); err != nil {
			return fmt.Errorf("failed to delete partner: %w", err)
		}
		deleted = p
		return nil
	})
	return deleted, err
}
