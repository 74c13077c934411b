package api

import (
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"strings"

	"careercraft/internal/config"

	"github.com/rs/zerolog"
)

const (
	apiKeyHeaderDefault   = "x-api-key"
	apiExtraHeaderDefault = "x-api-extra"
	clientKeyUnknown      = "unknown"

	PermConsultations = "admin:consultations"
	PermRegistrations = "admin:registrations"
	PermContent       = "admin:content"
)

var (
	errMissingHeaders   = errors.New("missing api key headers")
	errInvalidKey       = errors.New("invalid api key")
	errInvalidExtra     = errors.New("invalid extra header")
	errPermissionDenied = errors.New("permission denied")
)

// HTTPAuth checks the API key pair and per-key permissions on admin routes.
type HTTPAuth struct {
	cfg     config.APIAuthConfig
	clients map[string]config.APIClientKey
	logger  *zerolog.Logger
}

func NewHTTPAuth(cfg config.APIAuthConfig, logger *zerolog.Logger) *HTTPAuth {
	m := make(map[string]config.APIClientKey, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		m[k.Key] = k
	}
	return &HTTPAuth{cfg: cfg, clients: m, logger: logger}
}

// Require only lets through clients holding perm. With auth disabled every
// request passes.
func (a *HTTPAuth) Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			client, err := a.checkAuth(r, perm)
			if err != nil {
				statusCode := http.StatusUnauthorized
				if errors.Is(err, errPermissionDenied) {
					statusCode = http.StatusForbidden
				}
				a.logger.Warn().Err(err).Str("path", r.URL.Path).Str("remote", clientIP(r)).Msg("Admin request rejected")
				writeError(w, statusCode, "unauthorized", err.Error())
				return
			}

			a.logger.Debug().Str("client", client.Name).Str("path", r.URL.Path).Msg("Admin request")
			next.ServeHTTP(w, r)
		})
	}
}

func (a *HTTPAuth) checkAuth(r *http.Request, perm string) (config.APIClientKey, error) {
	apiKey := strings.TrimSpace(r.Header.Get(headerOr(a.cfg.HeaderAPIKey, apiKeyHeaderDefault)))
	extra := strings.TrimSpace(r.Header.Get(headerOr(a.cfg.HeaderExtra, apiExtraHeaderDefault)))
	if apiKey == "" || extra == "" {
		return config.APIClientKey{}, errMissingHeaders
	}

	client, ok := a.clients[apiKey]
	if !ok {
		return config.APIClientKey{}, errInvalidKey
	}
	if subtle.ConstantTimeCompare([]byte(client.Extra), []byte(extra)) != 1 {
		return config.APIClientKey{}, errInvalidExtra
	}

	// If permissions list is empty, treat as allow-all.
	if len(client.Permissions) == 0 {
		return client, nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == perm {
			return client, nil
		}
	}
	return client, errPermissionDenied
}

// clientKey identifies the caller for rate limiting: the API key when
// present, otherwise the client address.
func clientKey(r *http.Request, keyHeader string) string {
	if apiKey := strings.TrimSpace(r.Header.Get(headerOr(keyHeader, apiKeyHeaderDefault))); apiKey != "" {
		return apiKey
	}
	return clientIP(r)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return clientKeyUnknown
}

func headerOr(h, def string) string {
	if h = strings.TrimSpace(h); h != "" {
		return h
	}
	return def
}
