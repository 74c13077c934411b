package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureListUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want featureList
	}{
		{name: "array", in: `["Mock interviews","Resume review"]`, want: featureList{"Mock interviews", "Resume review"}},
		{name: "comma string", in: `"Mock interviews,Resume review"`, want: featureList{"Mock interviews", "Resume review"}},
		{name: "empty string", in: `""`, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f featureList
			require.NoError(t, json.Unmarshal([]byte(tt.in), &f))
			assert.Equal(t, tt.want, f)
		})
	}

	var f featureList
	assert.Error(t, json.Unmarshal([]byte(`42`), &f))
}

func TestCourseCRUD(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.doJSON(t, http.MethodPost, "/api/courses", map[string]any{
		"icon":     "💼",
		"title":    "Interview Prep",
		"level":    "Beginner",
		"features": "Mock interviews, Resume review",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := int64(decodeBody[map[string]any](t, rec)["id"].(float64))

	rec = env.do(t, http.MethodGet, "/api/courses/"+itoa(id), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	course := decodeBody[map[string]any](t, rec)
	assert.Equal(t, []any{"Mock interviews", "Resume review"}, course["features"])

	rec = env.doJSON(t, http.MethodPut, "/api/courses/"+itoa(id), map[string]any{
		"title":    "Interview Prep Pro",
		"features": []string{"Mock interviews"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.doJSON(t, http.MethodPost, "/api/courses", map[string]any{"title": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Title required", decodeBody[errorBody](t, rec).Error)

	rec = env.doJSON(t, http.MethodPost, "/api/courses", map[string]any{"title": strings.Repeat("x", 201)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "title is too long", decodeBody[errorBody](t, rec).Error)

	rec = env.do(t, http.MethodGet, "/api/courses", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]map[string]any](t, rec), 1)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/api/courses/"+itoa(id), nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/courses/"+itoa(id), nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/courses/"+itoa(id), nil, nil).Code)
}

func TestFAQCRUD(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/faqs", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = env.doJSON(t, http.MethodPost, "/api/faqs", map[string]string{"question": "Is it online?"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Question & Answer required", decodeBody[errorBody](t, rec).Error)

	rec = env.doJSON(t, http.MethodPost, "/api/faqs", map[string]string{"question": "Is it online?", "answer": "Yes"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := int64(decodeBody[map[string]any](t, rec)["id"].(float64))

	rec = env.doJSON(t, http.MethodPut, "/api/faqs/"+itoa(id), map[string]string{"question": "Is it online?", "answer": "Yes, fully"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/faqs/"+itoa(id), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Yes, fully", decodeBody[map[string]any](t, rec)["answer"])

	rec = env.doJSON(t, http.MethodPut, "/api/faqs/999", map[string]string{"question": "q", "answer": "a"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/api/faqs/"+itoa(id), nil, nil).Code)
}

func TestSiteStats(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/site-stats", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	defaults := decodeBody[map[string]string](t, rec)
	require.Contains(t, defaults, "alumni_network")

	rec = env.doJSON(t, http.MethodPost, "/api/site-stats", map[string]any{"favourite_colour": "blue"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.doJSON(t, http.MethodPost, "/api/site-stats", map[string]any{
		"alumni_network": 1200,
		"unknown":        "ignored",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/site-stats", nil, nil)
	stats := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "1200", stats["alumni_network"])
	assert.NotContains(t, stats, "unknown")
	assert.Len(t, stats, len(defaults))
}
