package service

import (
	"context"
	"testing"

	"careercraft/internal/domain"
	"careercraft/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourses(t *testing.T) {
	s := NewContentService(setupTestDB(t), &testLogger)
	ctx := context.Background()

	err := s.CreateCourse(ctx, &models.Course{Title: "  "})
	assert.Equal(t, domain.KindValidation, kindOf(t, err))

	c := &models.Course{Title: " Go Backend ", Level: "Beginner", Features: []string{"APIs", " ", " SQL "}}
	require.NoError(t, s.CreateCourse(ctx, c))
	assert.Equal(t, "Go Backend", c.Title)

	got, err := s.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"APIs", "SQL"}, got.Features)

	got.Duration = "12 weeks"
	require.NoError(t, s.UpdateCourse(ctx, got))

	list, err := s.ListCourses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "12 weeks", list[0].Duration)

	require.NoError(t, s.DeleteCourse(ctx, c.ID))
	assert.Equal(t, domain.KindNotFound, kindOf(t, s.DeleteCourse(ctx, c.ID)))
	_, err = s.GetCourse(ctx, c.ID)
	assert.Equal(t, domain.KindNotFound, kindOf(t, err))
}

func TestFAQs(t *testing.T) {
	s := NewContentService(setupTestDB(t), &testLogger)
	ctx := context.Background()

	err := s.CreateFAQ(ctx, &models.FAQ{Question: "Is it online?"})
	assert.Equal(t, domain.KindValidation, kindOf(t, err))

	f := &models.FAQ{Question: "Is it online?", Answer: "Yes"}
	require.NoError(t, s.CreateFAQ(ctx, f))

	f.Answer = "Yes, fully online"
	require.NoError(t, s.UpdateFAQ(ctx, f))

	got, err := s.GetFAQ(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "Yes, fully online", got.Answer)

	err = s.UpdateFAQ(ctx, &models.FAQ{ID: 999, Question: "q", Answer: "a"})
	assert.Equal(t, domain.KindNotFound, kindOf(t, err))

	list, err := s.ListFAQs(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteFAQ(ctx, f.ID))
}

func TestSiteStats(t *testing.T) {
	s := NewContentService(setupTestDB(t), &testLogger)
	ctx := context.Background()

	stats, err := s.SiteStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSiteStats, stats)

	var key string
	for k := range models.DefaultSiteStats {
		key = k
		break
	}

	stats, err = s.UpdateSiteStats(ctx, map[string]string{key: " 999+ ", "bogus_key": "1"})
	require.NoError(t, err)
	assert.Equal(t, "999+", stats[key])
	assert.NotContains(t, stats, "bogus_key")
	assert.Len(t, stats, len(models.DefaultSiteStats))

	_, err = s.UpdateSiteStats(ctx, map[string]string{"bogus_key": "1"})
	assert.Equal(t, domain.KindValidation, kindOf(t, err))
}
