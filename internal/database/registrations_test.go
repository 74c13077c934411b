package database

import (
	"context"
	"testing"

	"careercraft/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddedCV(content string) *models.Artifact {
	return &models.Artifact{
		Category: models.CategoryRegistrations,
		Kind:     models.ArtifactEmbedded,
		Filename: "resume.pdf",
		MimeType: "application/pdf",
		Size:     int64(len(content)),
		Data:     []byte(content),
	}
}

func TestRegistrationLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := &models.Registration{
		FullName: "Ravi Kumar",
		Email:    "ravi@example.com",
		Phone:    "9123456780",
		Roles:    "backend,devops",
		CV:       embeddedCV("%PDF-1.4 ravi"),
	}
	require.NoError(t, db.CreateRegistration(ctx, r))
	assert.NotZero(t, r.ID)
	assert.NotZero(t, r.CV.ID)
	assert.Equal(t, models.OwnerRegistration, r.CV.OwnerType)

	got, err := db.GetRegistration(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CV)
	assert.Equal(t, models.ArtifactEmbedded, got.CV.Kind)
	assert.Equal(t, []byte("%PDF-1.4 ravi"), got.CV.Data)

	t.Run("DuplicateEmail", func(t *testing.T) {
		err := db.CreateRegistration(ctx, &models.Registration{FullName: "Other", Email: "ravi@example.com", Phone: "9000000000"})
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("ListOmitsBytes", func(t *testing.T) {
		require.NoError(t, db.CreateRegistration(ctx, &models.Registration{FullName: "No CV", Email: "nocv@example.com", Phone: "9000000001"}))

		list, err := db.ListRegistrations(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Nil(t, list[0].CV)
		require.NotNil(t, list[1].CV)
		assert.Empty(t, list[1].CV.Data)
		assert.Equal(t, "resume.pdf", list[1].CV.Filename)
	})

	t.Run("Delete", func(t *testing.T) {
		deleted, err := db.DeleteRegistration(ctx, r.ID)
		require.NoError(t, err)
		require.NotNil(t, deleted.CV)
		assert.Equal(t, r.CV.ID, deleted.CV.ID)

		_, err = db.GetRegistration(ctx, r.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = db.GetArtifact(ctx, models.OwnerRegistration, r.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = db.DeleteRegistration(ctx, r.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
