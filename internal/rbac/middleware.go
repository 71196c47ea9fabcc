package rbac

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/estribo-center/estribo/internal/shared"
)

// Middleware wires authorization guards for HTTP handlers. Denials are
// a uniform redirect to the login page with a flash; whether the actor
// was anonymous or merely unauthorized is not surfaced.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

const deniedFlash = "Necesitás iniciar sesión con los permisos adecuados"

// RequireAny ensures the current principal holds at least one of the
// required permissions before the wrapped handler runs.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(normalized) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principalID, ok := m.currentPrincipalID(r)
			if !ok {
				m.deny(w, r)
				return
			}
			granted, err := m.Service.HasAny(r.Context(), principalID, normalized...)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("rbac require any", slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !granted {
				m.deny(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: deniedFlash})
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

func (m Middleware) currentPrincipalID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("rbac parse principal id", slog.String("value", raw))
		}
		return 0, false
	}
	return id, true
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		unique[p] = struct{}{}
	}
	normalized := make([]string, 0, len(unique))
	for p := range unique {
		normalized = append(normalized, p)
	}
	return normalized
}
