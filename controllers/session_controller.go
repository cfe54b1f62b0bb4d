package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/clock"

	"foodwagen/middlewares"
)

// SessionController trades an API token for a dashboard session cookie.
type SessionController struct {
	Secret string
	Clock  clock.Clock
}

func NewSessionController(secret string, clk clock.Clock) *SessionController {
	if clk == nil {
		clk = clock.WallClock
	}
	return &SessionController{Secret: secret, Clock: clk}
}

// POST /session  token=<jwt>
func (sc *SessionController) SignIn(c *gin.Context) {
	raw := strings.TrimSpace(c.PostForm("token"))
	if _, err := middlewares.ParseToken(sc.Secret, raw); err != nil {
		c.String(http.StatusUnauthorized, "Invalid token.")
		return
	}
	maxAge := 0
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err == nil && claims.ExpiresAt != nil {
		maxAge = int(claims.ExpiresAt.Sub(sc.Clock.Now()) / time.Second)
	}
	setSessionCookie(c, raw, maxAge)
	c.Redirect(http.StatusSeeOther, "/")
}

// POST /session/delete
func (sc *SessionController) SignOut(c *gin.Context) {
	setSessionCookie(c, "", -1)
	c.Redirect(http.StatusSeeOther, "/")
}

func setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middlewares.SessionCookie, value, maxAge, "/", "", c.Request.TLS != nil, true)
}
