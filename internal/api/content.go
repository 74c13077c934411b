package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"careercraft/internal/domain"
	"careercraft/internal/models"
)

// featureList accepts either a JSON array or a comma separated string.
type featureList []string

func (f *featureList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = list
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	if joined == "" {
		*f = nil
		return nil
	}
	*f = strings.Split(joined, ",")
	return nil
}

type courseRequest struct {
	Icon            string      `json:"icon" validate:"max=64"`
	Title           string      `json:"title" validate:"max=200"`
	Description     string      `json:"description" validate:"max=2000"`
	FullDescription string      `json:"full_description" validate:"max=20000"`
	Duration        string      `json:"duration" validate:"max=100"`
	Level           string      `json:"level" validate:"max=100"`
	Features        featureList `json:"features" validate:"max=50,dive,max=500"`
}

func (c courseRequest) model(id int64) *models.Course {
	return &models.Course{
		ID:              id,
		Icon:            c.Icon,
		Title:           c.Title,
		Description:     c.Description,
		FullDescription: c.FullDescription,
		Duration:        c.Duration,
		Level:           c.Level,
		Features:        c.Features,
	}
}

type faqRequest struct {
	Question string `json:"question" validate:"max=1000"`
	Answer   string `json:"answer" validate:"max=10000"`
}

func (s *HTTPServer) handleListCourses(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Content.ListCourses(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []*models.Course{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *HTTPServer) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.svc.Content.GetCourse(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *HTTPServer) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	c := req.model(0)
	if err := s.svc.Content.CreateCourse(r.Context(), c); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Course created!", "id": c.ID})
}

func (s *HTTPServer) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req courseRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.Content.UpdateCourse(r.Context(), req.model(id)); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Course updated!"})
}

func (s *HTTPServer) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.Content.DeleteCourse(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Course deleted!"})
}

func (s *HTTPServer) handleListFAQs(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Content.ListFAQs(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []*models.FAQ{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *HTTPServer) handleGetFAQ(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	f, err := s.svc.Content.GetFAQ(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *HTTPServer) handleCreateFAQ(w http.ResponseWriter, r *http.Request) {
	var req faqRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	f := &models.FAQ{Question: req.Question, Answer: req.Answer}
	if err := s.svc.Content.CreateFAQ(r.Context(), f); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "FAQ created!", "id": f.ID})
}

func (s *HTTPServer) handleUpdateFAQ(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req faqRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.Content.UpdateFAQ(r.Context(), &models.FAQ{ID: id, Question: req.Question, Answer: req.Answer}); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "FAQ updated!"})
}

func (s *HTTPServer) handleDeleteFAQ(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.Content.DeleteFAQ(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "FAQ deleted!"})
}

func (s *HTTPServer) handleGetSiteStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Content.SiteStats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *HTTPServer) handleUpdateSiteStats(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.fail(w, r, domain.Validation("invalid JSON body"))
		return
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			values[k] = val
		case float64, bool:
			values[k] = jsonScalar(val)
		}
	}

	stats, err := s.svc.Content.UpdateSiteStats(r.Context(), values)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Site stats updated!", "stats": stats})
}

func jsonScalar(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}
