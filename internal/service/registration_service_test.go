package service

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"careercraft/internal/domain"
	"careercraft/internal/events"
	"careercraft/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return len(entries)
}

func cvRequest(email string) RegistrationRequest {
	return RegistrationRequest{
		FullName: "Asha Rao",
		Email:    email,
		Phone:    "9876543210",
		Roles:    "backend",
		CV:       &Upload{Data: []byte("%PDF-1.4 fake"), Filename: "resume.PDF", MimeType: "application/pdf"},
	}
}

func TestRegisterLocalCV(t *testing.T) {
	db := setupTestDB(t)
	store, uploads := setupGateway(t)
	email := &recordingSender{}
	bus := newRecordingBus()
	s := NewRegistrationService(db, store, bus.bus, newTestNotifier(email, email), &testLogger)
	ctx := context.Background()

	r, err := s.Register(ctx, cvRequest("asha@example.com"))
	require.NoError(t, err)
	assert.NotZero(t, r.ID)
	require.NotNil(t, r.CV)
	assert.Equal(t, models.ArtifactLocal, r.CV.Kind)
	assert.Equal(t, 1, countFiles(t, filepath.Join(uploads, models.CategoryRegistrations)))

	dl, err := s.CV(ctx, r.ID)
	require.NoError(t, err)
	defer dl.Body.Close()
	body, _ := io.ReadAll(dl.Body)
	assert.Equal(t, "%PDF-1.4 fake", string(body))
	assert.Equal(t, "application/pdf", dl.MimeType)
	assert.Equal(t, "Asha_Rao_CV.pdf", dl.Filename)

	s.Wait()
	msgs := email.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "asha@example.com", msgs[0].To)
	assert.Contains(t, msgs[0].HTML, "Asha Rao")
	assert.Equal(t, []string{events.EventRegistrationCreated}, bus.types())
}

func TestRegisterDuplicateEmailDiscardsCV(t *testing.T) {
	db := setupTestDB(t)
	store, uploads := setupGateway(t)
	s := NewRegistrationService(db, store, nil, nil, &testLogger)
	ctx := context.Background()

	_, err := s.Register(ctx, cvRequest("asha@example.com"))
	require.NoError(t, err)

	_, err = s.Register(ctx, cvRequest("asha@example.com"))
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, kindOf(t, err))
	assert.Contains(t, err.Error(), "Email already exists")

	assert.Equal(t, 1, countFiles(t, filepath.Join(uploads, models.CategoryRegistrations)))
}

func TestRegisterValidation(t *testing.T) {
	store, _ := setupGateway(t)
	s := NewRegistrationService(setupTestDB(t), store, nil, nil, &testLogger)
	ctx := context.Background()

	req := cvRequest("asha@example.com")
	req.CV = nil
	_, err := s.Register(ctx, req)
	assert.Equal(t, domain.KindValidation, kindOf(t, err))

	req = cvRequest("  ")
	_, err = s.Register(ctx, req)
	assert.Equal(t, domain.KindValidation, kindOf(t, err))

	req = cvRequest("not-an-email")
	_, err = s.Register(ctx, req)
	assert.Equal(t, domain.KindValidation, kindOf(t, err))
}

func TestRegisterEmbeddedCVAndDelete(t *testing.T) {
	db := setupTestDB(t)
	store, uploads := setupGateway(t, models.CategoryRegistrations)
	s := NewRegistrationService(db, store, nil, nil, &testLogger)
	ctx := context.Background()

	req := cvRequest("ravi@example.com")
	req.CV.Filename = "cv"
	r, err := s.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.ArtifactEmbedded, r.CV.Kind)
	assert.Equal(t, "cv.pdf", r.CV.Filename)
	assert.Equal(t, 0, countFiles(t, filepath.Join(uploads, models.CategoryRegistrations)))

	got, err := s.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 fake"), got.CV.Data)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, s.Delete(ctx, r.ID))
	_, err = s.Get(ctx, r.ID)
	assert.Equal(t, domain.KindNotFound, kindOf(t, err))

	err = s.Delete(ctx, r.ID)
	assert.Equal(t, domain.KindNotFound, kindOf(t, err))
}

func TestDeleteRegistrationRemovesLocalFile(t *testing.T) {
	db := setupTestDB(t)
	store, uploads := setupGateway(t)
	s := NewRegistrationService(db, store, nil, nil, &testLogger)
	ctx := context.Background()

	r, err := s.Register(ctx, cvRequest("asha@example.com"))
	require.NoError(t, err)
	require.Equal(t, 1, countFiles(t, filepath.Join(uploads, models.CategoryRegistrations)))

	require.NoError(t, s.Delete(ctx, r.ID))
	assert.Equal(t, 0, countFiles(t, filepath.Join(uploads, models.CategoryRegistrations)))
}

type failingBus struct{}

func (failingBus) PublishJSON(string, interface{}) error { return assert.AnError }

func TestDeleteRegistrationLogsPublishFailure(t *testing.T) {
	db := setupTestDB(t)
	store, _ := setupGateway(t)
	var logs bytes.Buffer
	logger := zerolog.New(&logs)
	s := NewRegistrationService(db, store, failingBus{}, nil, &logger)
	ctx := context.Background()

	r, err := s.Register(ctx, cvRequest("asha@example.com"))
	require.NoError(t, err)
	logs.Reset()

	require.NoError(t, s.Delete(ctx, r.ID))
	assert.Contains(t, logs.String(), "Failed to publish event")
	assert.Contains(t, logs.String(), `"registration_id":`)
}
