package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// CookieName holds the browser identity.
const CookieName = "mifoto_sid"

const cookieMaxAge = 365 * 24 * time.Hour

type contextKey string

const browserIDContextKey contextKey = "browserID"

// browserMiddleware assigns every browser a stable random identity. Stored
// values and the session are keyed by it.
func (r *Router) browserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := ""
		if c, err := req.Cookie(CookieName); err == nil {
			if parsed, err := uuid.Parse(c.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   int(cookieMaxAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			r.logger.Debug("issued browser identity", "browser_id", id)
		}
		ctx := context.WithValue(req.Context(), browserIDContextKey, id)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

func getBrowserID(ctx context.Context) string {
	if v := ctx.Value(browserIDContextKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
