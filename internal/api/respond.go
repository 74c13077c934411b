package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"careercraft/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, code domain.Kind, message string) {
	writeJSON(w, statusCode, errorBody{Error: message, Code: string(code)})
}

// writeDomainError maps err to its status. Internal details are logged and
// replaced with a generic message.
func writeDomainError(w http.ResponseWriter, r *http.Request, logger *zerolog.Logger, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		de = domain.Persistence("unexpected error", err)
	}

	if !de.Kind.Public() {
		logger.Error().Err(err).Str("request_id", requestIDFrom(r.Context())).
			Str("kind", string(de.Kind)).Msg("Request failed")
		writeError(w, de.Status(), de.Kind, genericMessage(de.Kind))
		return
	}
	writeError(w, de.Status(), de.Kind, de.Message)
}

func genericMessage(k domain.Kind) string {
	switch k {
	case domain.KindStorage:
		return "File storage is temporarily unavailable"
	default:
		return "Internal server error"
	}
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validation("invalid id")
	}
	return id, nil
}

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// decodeJSON reads a JSON body and runs struct validation on it.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Validation("request body is empty")
		}
		return domain.Validation("invalid JSON body")
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.Validation("invalid request")
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return domain.Validationf("%s is required", fe.Field())
	case "max":
		return domain.Validationf("%s is too long", fe.Field())
	case "min":
		return domain.Validationf("%s is too short", fe.Field())
	default:
		return domain.Validationf("%s is invalid", fe.Field())
	}
}

// serveDownload streams the artifact or redirects to it.
func serveDownload(w http.ResponseWriter, r *http.Request, dl *domain.Download, inline bool) {
	if dl.RedirectURL != "" {
		http.Redirect(w, r, dl.RedirectURL, http.StatusFound)
		return
	}
	defer dl.Body.Close()

	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", dl.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, dl.Filename))
	if dl.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(dl.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, dl.Body)
}
