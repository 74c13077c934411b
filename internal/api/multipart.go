package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"careercraft/internal/domain"
	"careercraft/internal/service"
)

// multipartOverhead leaves room for the text fields next to the file.
const multipartOverhead = 1 << 20

// parseMultipart bounds the body and parses the form. JSON bodies are
// accepted too when a handler has no file to receive.
func (s *HTTPServer) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.Validationf("File too large, limit is %d MB", s.maxUpload>>20)
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return domain.Validation("expected multipart/form-data body")
		}
		return domain.Validation("invalid multipart body")
	}
	return nil
}

// formFile returns the named upload, or nil when the field is absent.
func (s *HTTPServer) formFile(r *http.Request, field string) (*service.Upload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, domain.Validationf("invalid %s upload", field)
	}
	defer file.Close()

	if header.Size > s.maxUpload {
		return nil, domain.Validationf("File too large, limit is %d MB", s.maxUpload>>20)
	}
	data, err := io.ReadAll(io.LimitReader(file, s.maxUpload+1))
	if err != nil {
		return nil, domain.Validationf("failed to read %s upload", field)
	}
	if int64(len(data)) > s.maxUpload {
		return nil, domain.Validationf("File too large, limit is %d MB", s.maxUpload>>20)
	}
	return &service.Upload{
		Data:     data,
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
	}, nil
}

// formValue returns the first non-empty value among the given field names.
func formValue(r *http.Request, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(r.FormValue(name)); v != "" {
			return v
		}
	}
	return ""
}
