package api

import (
	"bytes"
	"fmt"
	"net/http"

	"careercraft/internal/domain"
	"careercraft/internal/export"
	"careercraft/internal/models"
	"careercraft/internal/service"
)

type consultationCreated struct {
	Success        bool                `json:"success"`
	Message        string              `json:"message"`
	ID             int64               `json:"id"`
	ConsultationID int64               `json:"consultation_id"`
	Status         string              `json:"status"`
	Details        consultationDetails `json:"details"`
}

type consultationDetails struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	MeetingDate string `json:"meeting_date"`
	MeetingTime string `json:"meeting_time"`
	Status      string `json:"status"`
}

type statusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

func (s *HTTPServer) handleCreateConsultation(w http.ResponseWriter, r *http.Request) {
	var req service.ConsultationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	c, err := s.svc.Consultations.Submit(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, consultationCreated{
		Success:        true,
		Message:        "Consultation booked successfully! A confirmation email has been sent.",
		ID:             c.ID,
		ConsultationID: c.ID,
		Status:         c.Status,
		Details: consultationDetails{
			FullName:    c.FullName,
			Email:       c.Email,
			MeetingDate: c.MeetingDate.Format(models.DateLayout),
			MeetingTime: c.MeetingTime,
			Status:      c.Status,
		},
	})
}

func (s *HTTPServer) handleListConsultations(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Consultations.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []*models.Consultation{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *HTTPServer) handleGetConsultation(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.svc.Consultations.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *HTTPServer) handleUpdateConsultationStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req statusUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	c, err := s.svc.Consultations.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"message":         fmt.Sprintf("Consultation status updated to %s", c.Status),
		"id":              c.ID,
		"consultation_id": c.ID,
		"status":          c.Status,
	})
}

func (s *HTTPServer) handleExportConsultations(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Consultations.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.Consultations(&buf, list, s.cfg.App.Location()); err != nil {
		s.fail(w, r, domain.Persistence("export consultations", err))
		return
	}
	s.writeSpreadsheet(w, "consultations", &buf)
}

func (s *HTTPServer) writeSpreadsheet(w http.ResponseWriter, prefix string, buf *bytes.Buffer) {
	name := fmt.Sprintf("%s_%s.xlsx", prefix, s.now().In(s.cfg.App.Location()).Format("20060102_150405"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
