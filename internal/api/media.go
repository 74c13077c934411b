package api

import (
	"fmt"
	"net/http"
	"strconv"

	"careercraft/internal/domain"
	"careercraft/internal/models"
	"careercraft/internal/service"
)

type partnerView struct {
	*models.Partner
	Logo    *models.Descriptor `json:"logo,omitempty"`
	LogoURL string             `json:"logo_url,omitempty"`
}

func newPartnerView(p *models.Partner) partnerView {
	v := partnerView{Partner: p}
	if p.Logo != nil {
		d := p.Logo.Descriptor()
		v.Logo = &d
		v.LogoURL = fmt.Sprintf("/api/partners/%d/logo", p.ID)
	}
	return v
}

type storyView struct {
	*models.SuccessStory
	Image    *models.Descriptor `json:"image,omitempty"`
	ImageURL string             `json:"image_url,omitempty"`
}

func newStoryView(st *models.SuccessStory) storyView {
	v := storyView{SuccessStory: st}
	if st.Image != nil {
		d := st.Image.Descriptor()
		v.Image = &d
		v.ImageURL = fmt.Sprintf("/api/success-stories/%d/image", st.ID)
	}
	return v
}

func (s *HTTPServer) handleListPartners(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Media.ListPartners(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	views := make([]partnerView, 0, len(list))
	for _, p := range list {
		views = append(views, newPartnerView(p))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *HTTPServer) handlePartnerLogo(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	dl, err := s.svc.Media.PartnerLogo(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	serveDownload(w, r, dl, true)
}

func (s *HTTPServer) partnerInput(w http.ResponseWriter, r *http.Request) (service.PartnerInput, error) {
	if err := s.parseMultipart(w, r); err != nil {
		return service.PartnerInput{}, err
	}
	logo, err := s.formFile(r, "logo")
	if err != nil {
		return service.PartnerInput{}, err
	}
	return service.PartnerInput{Name: formValue(r, "name"), Logo: logo}, nil
}

func (s *HTTPServer) handleCreatePartner(w http.ResponseWriter, r *http.Request) {
	in, err := s.partnerInput(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.svc.Media.CreatePartner(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newPartnerView(p))
}

func (s *HTTPServer) handleUpdatePartner(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	in, err := s.partnerInput(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.svc.Media.UpdatePartner(r.Context(), id, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPartnerView(p))
}

func (s *HTTPServer) handleDeletePartner(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.Media.DeletePartner(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Partner deleted!"})
}

func (s *HTTPServer) handleListStories(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Media.ListStories(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	views := make([]storyView, 0, len(list))
	for _, st := range list {
		views = append(views, newStoryView(st))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *HTTPServer) handleGetStory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	st, err := s.svc.Media.GetStory(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStoryView(st))
}

func (s *HTTPServer) handleStoryImage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	dl, err := s.svc.Media.StoryImage(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	serveDownload(w, r, dl, true)
}

func (s *HTTPServer) storyInput(w http.ResponseWriter, r *http.Request) (service.StoryInput, error) {
	if err := s.parseMultipart(w, r); err != nil {
		return service.StoryInput{}, err
	}
	image, err := s.formFile(r, "image")
	if err != nil {
		return service.StoryInput{}, err
	}
	in := service.StoryInput{
		Quote:   formValue(r, "quote"),
		Name:    formValue(r, "name"),
		Role:    formValue(r, "role"),
		Company: formValue(r, "company"),
		Image:   image,
	}
	if raw := formValue(r, "rating"); raw != "" {
		rating, err := strconv.Atoi(raw)
		if err != nil {
			return service.StoryInput{}, domain.Validation("Rating must be a number between 1 and 5")
		}
		in.Rating = &rating
	}
	return in, nil
}

func (s *HTTPServer) handleCreateStory(w http.ResponseWriter, r *http.Request) {
	in, err := s.storyInput(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	st, err := s.svc.Media.CreateStory(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newStoryView(st))
}

func (s *HTTPServer) handleUpdateStory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	in, err := s.storyInput(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	st, err := s.svc.Media.UpdateStory(r.Context(), id, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStoryView(st))
}

func (s *HTTPServer) handleDeleteStory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.Media.DeleteStory(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Story deleted!"})
}
