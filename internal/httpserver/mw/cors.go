package mw

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/clipsort/internal/logger"
	"github.com/MrSnakeDoc/clipsort/internal/utils"
)

// CORS admits cross-origin requests only from pages served by an allowed
// host, and echoes that origin back. Requests carrying any other Origin
// are refused with 403 before they reach a handler. Requests without an
// Origin header pass untouched.
//
// With an empty allowedHosts only the server's own origin is accepted.
func CORS(allowedHosts []string, log logger.Logger) func(http.Handler) http.Handler {
	patterns := utils.HostPatterns(allowedHosts)

	allowed := func(r *http.Request, origin string) bool {
		if len(patterns) > 0 {
			return utils.OriginAllowed(origin, patterns)
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host != "" && strings.EqualFold(u.Host, r.Host)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			if !allowed(r, origin) {
				log.Warn("request from disallowed origin",
					logger.String("origin", origin),
					logger.String("path", r.URL.Path))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}

			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Expose-Headers", "Content-Range, Content-Length, Accept-Ranges")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", "GET, HEAD, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, Range")
				h.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
