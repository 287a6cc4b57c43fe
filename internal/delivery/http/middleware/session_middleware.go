package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const (
	SessionIDKey contextKey = "session_id"

	SessionCookieName = "medhead_session"
)

// SessionMiddleware identifies the visitor by a cookie, issuing one when missing
type SessionMiddleware struct {
	ttl    time.Duration
	secure bool
}

func NewSessionMiddleware(ttl time.Duration, secure bool) *SessionMiddleware {
	return &SessionMiddleware{ttl: ttl, secure: secure}
}

func (m *SessionMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := uuid.Nil
		if cookie, err := r.Cookie(SessionCookieName); err == nil {
			if parsed, err := uuid.Parse(cookie.Value); err == nil {
				sessionID = parsed
			}
		}
		if sessionID == uuid.Nil {
			sessionID = uuid.New()
		}

		// re-issued on every request so the cookie follows the state TTL
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookieName,
			Value:    sessionID.String(),
			Path:     "/",
			MaxAge:   int(m.ttl.Seconds()),
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})

		ctx := context.WithValue(r.Context(), SessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSessionIDFromContext extracts the session ID from context
func GetSessionIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	sessionID, ok := ctx.Value(SessionIDKey).(uuid.UUID)
	return sessionID, ok
}
