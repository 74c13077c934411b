package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"careercraft/internal/models"
)

const registrationColumns = `id, full_name, email, phone, roles, created_at`

// CreateRegistration inserts the registration and its CV reference together.
func (db *DB) CreateRegistration(ctx context.Context, r *models.Registration) error {
	now := time.Now()
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, db.rebind(`INSERT INTO registrations (
				full_name, email, phone, roles, created_at
			) VALUES (?, ?, ?, ?, ?) RETURNING id`),
			r.FullName, r.Email, r.Phone, r.Roles, now,
		).Scan(&r.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateEmail
			}
			return fmt.Errorf("failed to insert registration: %w", err)
		}
		if r.CV != nil {
			return db.insertArtifact(ctx, tx, models.OwnerRegistration, r.ID, r.CV)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.CreatedAt = now
	return nil
}

func (db *DB) GetRegistration(ctx context.Context, id int64) (*models.Registration, error) {
	row := db.QueryRowContext(ctx, db.rebind(`SELECT `+registrationColumns+` FROM registrations WHERE id = ?`), id)
	r, err := scanRegistration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get registration %d: %w", id, err)
	}

	cv, err := db.GetArtifact(ctx, models.OwnerRegistration, id)
	switch {
	case err == nil:
		r.CV = cv
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}
	return r, nil
}

// ListRegistrations returns registrations newest first with CV metadata.
func (db *DB) ListRegistrations(ctx context.Context) ([]*models.Registration, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+registrationColumns+` FROM registrations ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	var out []*models.Registration
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cvs, err := db.ownerArtifacts(ctx, models.OwnerRegistration)
	if err != nil {
		return nil, err
	}
	for _, r := range out {
		r.CV = cvs[r.ID]
	}
	return out, nil
}

// DeleteRegistration removes the registration with its artifact rows and
// returns what was removed so the blob can be destroyed.
func (db *DB) DeleteRegistration(ctx context.Context, id int64) (*models.Registration, error) {
	var deleted *models.Registration
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, db.rebind(`SELECT `+registrationColumns+` FROM registrations WHERE id = ?`), id)
		r, err := scanRegistration(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get registration %d: %w", id, err)
		}
		if r.CV, err = db.detachArtifacts(ctx, tx, models.OwnerRegistration, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, db.rebind(`DELETE FROM registrations WHERE id = ?`), id); err != nil {
			return fmt.Errorf("failed to delete registration: %w", err)
		}
		deleted = r
		return nil
	})
	return deleted, err
}

func scanRegistration(row rowScanner) (*models.Registration, error) {
	var r models.Registration
	if err := row.Scan(&r.ID, &r.FullName, &r.Email, &r.Phone, &r.Roles, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}
