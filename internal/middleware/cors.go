package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig holds CORS configuration options.
type CORSConfig struct {
	// AllowedOrigins lists exact origins ("https://app.example.com") or
	// subdomain patterns ("*.example.com"). Empty denies every cross-origin call.
	AllowedOrigins []string

	AllowedMethods []string
	AllowedHeaders []string
	// ExposedHeaders are readable by browser scripts on cross-origin responses.
	ExposedHeaders []string

	// AllowCredentials must not be combined with pattern origins from untrusted
	// domains.
	AllowCredentials bool

	// MaxAge caches preflight results, in seconds. Zero omits the header.
	MaxAge int
}

// DefaultCORSConfig returns the settings for the task API with no allowed origins.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{
			"Location",
			RequestIDHeader,
			"Retry-After",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
		},
		MaxAge: 86400,
	}
}

// originPolicy decides which origins may call the API.
type originPolicy struct {
	exact    map[string]struct{}
	suffixes []string // ".example.com" for "*.example.com"
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{exact: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		origin = strings.ToLower(strings.TrimSpace(origin))
		if suffix, ok := strings.CutPrefix(origin, "*"); ok && strings.HasPrefix(suffix, ".") {
			p.suffixes = append(p.suffixes, suffix)
			continue
		}
		p.exact[origin] = struct{}{}
	}
	return p
}

func (p originPolicy) allows(origin string) bool {
	origin = strings.ToLower(origin)
	if _, ok := p.exact[origin]; ok {
		return true
	}
	// Only the host is matched against patterns: scheme://sub.example.com.
	_, host, ok := strings.Cut(origin, "://")
	if !ok {
		return false
	}
	for _, suffix := range p.suffixes {
		if sub, found := strings.CutSuffix(host, suffix); found && sub != "" {
			return true
		}
	}
	return false
}

// CORS answers preflight requests and adds CORS headers for allowed origins.
// Responses to other origins carry no CORS headers, so browsers discard them.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	policy := newOriginPolicy(cfg.AllowedOrigins)
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	exposed := strings.Join(cfg.ExposedHeaders, ", ")
	maxAge := ""
	if cfg.MaxAge > 0 {
		maxAge = strconv.Itoa(cfg.MaxAge)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			requested := r.Header.Get("Access-Control-Request-Method")
			preflight := r.Method == http.MethodOptions && requested != ""

			h := w.Header()
			h.Add("Vary", "Origin")

			if !policy.allows(origin) {
				if preflight {
					writeError(w, http.StatusForbidden, "Origin not allowed")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			h.Set("Access-Control-Allow-Origin", origin)
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if !preflight {
				if exposed != "" {
					h.Set("Access-Control-Expose-Headers", exposed)
				}
				next.ServeHTTP(w, r)
				return
			}

			if !slices.Contains(cfg.AllowedMethods, strings.ToUpper(requested)) {
				writeError(w, http.StatusForbidden, "Method not allowed for cross-origin requests")
				return
			}
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			if maxAge != "" {
				h.Set("Access-Control-Max-Age", maxAge)
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
