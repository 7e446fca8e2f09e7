package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/francoabl/HuertoHogar/internal/checkout"
	"github.com/francoabl/HuertoHogar/internal/domain"
)

type contextKey string

const sessionKey contextKey = "session"

const sessionCookie = "sid"

// SessionMiddleware pins every browser to a stable session id via cookie.
// The id keys all durable per-session state, so guests get one too.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sid string
		if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
			sid = c.Value
		} else {
			sid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		sess := checkout.Session{
			ID:    sid,
			Token: bearerToken(r),
			Customer: domain.Customer{
				Name:  r.Header.Get("X-User-Name"),
				Email: r.Header.Get("X-User-Email"),
			},
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func sessionFromContext(ctx context.Context) checkout.Session {
	if sess, ok := ctx.Value(sessionKey).(checkout.Session); ok {
		return sess
	}
	return checkout.Session{}
}
