package api

import (
	"bytes"
	"net/http"

	"careercraft/internal/domain"
	"careercraft/internal/export"
	"careercraft/internal/models"
	"careercraft/internal/service"
)

// registrationView adds the CV descriptor to a registration.
type registrationView struct {
	*models.Registration
	CV *models.Descriptor `json:"cv,omitempty"`
}

func newRegistrationView(reg *models.Registration) registrationView {
	v := registrationView{Registration: reg}
	if reg.CV != nil {
		d := reg.CV.Descriptor()
		v.CV = &d
	}
	return v
}

func (s *HTTPServer) handleCreateRegistration(w http.ResponseWriter, r *http.Request) {
	if err := s.parseMultipart(w, r); err != nil {
		s.fail(w, r, err)
		return
	}
	cv, err := s.formFile(r, "cv")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	reg, err := s.svc.Registrations.Register(r.Context(), service.RegistrationRequest{
		FullName: formValue(r, "fullName", "full_name"),
		Email:    formValue(r, "email"),
		Phone:    formValue(r, "phone"),
		Roles:    formValue(r, "roles", "role"),
		CV:       cv,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	view := newRegistrationView(reg)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Registration successful",
		"id":      reg.ID,
		"cv":      view.CV,
	})
}

func (s *HTTPServer) handleListRegistrations(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Registrations.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	views := make([]registrationView, 0, len(list))
	for _, reg := range list {
		views = append(views, newRegistrationView(reg))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *HTTPServer) handleGetRegistration(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	reg, err := s.svc.Registrations.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRegistrationView(reg))
}

func (s *HTTPServer) handleDownloadCV(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	dl, err := s.svc.Registrations.CV(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	serveDownload(w, r, dl, false)
}

func (s *HTTPServer) handleDeleteRegistration(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.Registrations.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Registration deleted"})
}

func (s *HTTPServer) handleExportRegistrations(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Registrations.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.Registrations(&buf, list, s.cfg.App.Location()); err != nil {
		s.fail(w, r, domain.Persistence("export registrations", err))
		return
	}
	s.writeSpreadsheet(w, "registrations", &buf)
}
