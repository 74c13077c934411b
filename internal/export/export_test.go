package export

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"careercraft/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestConsultations(t *testing.T) {
	created := time.Date(2026, 10, 15, 4, 30, 0, 0, time.UTC)
	list := []*models.Consultation{
		{
			ID: 2, FullName: "Asha Rao", Email: "asha@example.com", Phone: "9876543210",
			MeetingDate: time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), MeetingTime: "10:30 AM",
			Status: models.StatusConfirmed, CreatedAt: created, UpdatedAt: created,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Consultations(&buf, list, time.FixedZone("IST", 5*3600+1800)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Consultations"}, f.GetSheetList())
	rows, err := f.GetRows("Consultations")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Full name", rows[0][1])
	assert.Equal(t, "Asha Rao", rows[1][1])
	assert.Equal(t, "2026-10-20", rows[1][4])
	assert.Equal(t, "confirmed", rows[1][6])
	assert.Equal(t, "2026-10-15 10:00:00", rows[1][7])
}

func TestRegistrations(t *testing.T) {
	list := []*models.Registration{
		{ID: 1, FullName: "Ravi", Email: "ravi@example.com", CV: &models.Artifact{Filename: "cv.pdf", Kind: models.ArtifactLocal}},
		{ID: 2, FullName: "No CV", Email: "nocv@example.com"},
	}

	var buf bytes.Buffer
	require.NoError(t, Registrations(&buf, list, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Registrations")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "cv.pdf", rows[1][5])
	assert.Equal(t, "local", rows[1][6])
}

func TestSaveFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	path, err := SaveFile(dir, "consultations", now, func(w io.Writer) error {
		return Consultations(w, nil, nil)
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "consultations_20261015_090000.xlsx"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	_, err = SaveFile(dir, "broken", now, func(io.Writer) error { return assert.AnError })
	assert.ErrorIs(t, err, assert.AnError)
	_, statErr := os.Stat(filepath.Join(dir, "broken_20261015_090000.xlsx"))
	assert.True(t, os.IsNotExist(statErr))
}
