package storefront

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	SessionCookie = "sf_session"
	SessionHeader = "X-Cart-Session"

	sessionMaxAge = 30 * 24 * 60 * 60
)

// sessionID returns the caller's cart session. The header wins over the
// cookie so that non-browser clients can carry a session explicitly. A
// missing or malformed id is replaced by a fresh one, which is set as a
// cookie and echoed in the header.
func sessionID(w http.ResponseWriter, r *http.Request) string {
	if id, ok := parseSession(r.Header.Get(SessionHeader)); ok {
		return id
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		if id, ok := parseSession(c.Value); ok {
			return id
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set(SessionHeader, id)
	return id
}

func parseSession(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return u.String(), true
}
