// middlewares/auth_middleware.go
package middlewares

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// SubjectKey is where the token subject is stored on the gin context.
const SubjectKey = "subject"

// SessionCookie carries the dashboard token.
const SessionCookie = "foodwagen_session"

// ErrSubjectMissing is returned for valid tokens without a subject.
var ErrSubjectMissing = errors.New("subject claim missing")

// ParseToken checks an HS256 token signed with secret and returns its
// subject. Tokens must carry an expiry.
func ParseToken(secret, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrSubjectMissing
	}
	return sub, nil
}

// AuthMiddleware requires an HS256 bearer token signed with secret. With an
// empty secret every request passes, which keeps local setups open.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		sub, err := ParseToken(secret, strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(SubjectKey, sub)
		c.Next()
	}
}

// SessionSubject returns the subject of the dashboard session cookie, or ""
// when there is no valid session.
func SessionSubject(c *gin.Context, secret string) string {
	if secret == "" {
		return ""
	}
	raw, err := c.Cookie(SessionCookie)
	if err != nil || raw == "" {
		return ""
	}
	sub, err := ParseToken(secret, raw)
	if err != nil {
		return ""
	}
	return sub
}

// DashboardAuthMiddleware guards the HTML form posts. It accepts the
// session cookie or a bearer token and rejects posts from another origin.
// With an empty secret every request passes.
func DashboardAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		if !sameOrigin(c.Request) {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		sub := SessionSubject(c, secret)
		if sub == "" {
			if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
				sub, _ = ParseToken(secret, strings.TrimPrefix(h, "Bearer "))
			}
		}
		if sub == "" {
			c.Abort()
			c.String(http.StatusUnauthorized, "Sign in to change food items.")
			return
		}
		c.Set(SubjectKey, sub)
		c.Next()
	}
}

// sameOrigin reports whether a browser post came from this host. Requests
// without Origin or Referer are not from a browser form and pass.
func sameOrigin(r *http.Request) bool {
	src := r.Header.Get("Origin")
	if src == "" {
		src = r.Header.Get("Referer")
	}
	if src == "" {
		return true
	}
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
