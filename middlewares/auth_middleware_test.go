package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"foodwagen/middlewares"
	"foodwagen/utils"
)

type authSuite struct{}

var _ = gc.Suite(&authSuite{})

func (s *authSuite) serve(secret, header string) *httptest.ResponseRecorder {
	r := gin.New()
	r.Use(middlewares.AuthMiddleware(secret))
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(middlewares.SubjectKey))
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func (s *authSuite) TestOpenWithoutSecret(c *gc.C) {
	rec := s.serve("", "")
	c.Assert(rec.Code, gc.Equals, http.StatusOK)
}

func (s *authSuite) TestMissingHeader(c *gc.C) {
	rec := s.serve("s3cret", "")
	c.Assert(rec.Code, gc.Equals, http.StatusUnauthorized)
	c.Assert(rec.Body.String(), jc.Contains, "Authorization header required")
}

func (s *authSuite) TestValidToken(c *gc.C) {
	token, err := utils.GenerateJWT("ops", "s3cret", time.Hour)
	c.Assert(err, jc.ErrorIsNil)
	rec := s.serve("s3cret", "Bearer "+token)
	c.Assert(rec.Code, gc.Equals, http.StatusOK)
	c.Assert(rec.Body.String(), gc.Equals, "ops")
}

func (s *authSuite) TestWrongSecret(c *gc.C) {
	token, err := utils.GenerateJWT("ops", "other", time.Hour)
	c.Assert(err, jc.ErrorIsNil)
	rec := s.serve("s3cret", "Bearer "+token)
	c.Assert(rec.Code, gc.Equals, http.StatusUnauthorized)
}

func (s *authSuite) TestExpiredToken(c *gc.C) {
	token, err := utils.GenerateJWT("ops", "s3cret", -time.Minute)
	c.Assert(err, jc.ErrorIsNil)
	rec := s.serve("s3cret", "Bearer "+token)
	c.Assert(rec.Code, gc.Equals, http.StatusUnauthorized)
}

func (s *authSuite) TestTokenWithoutExpiry(c *gc.C) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "ops"}).SignedString([]byte("s3cret"))
	c.Assert(err, jc.ErrorIsNil)
	rec := s.serve("s3cret", "Bearer "+signed)
	c.Assert(rec.Code, gc.Equals, http.StatusUnauthorized)
}

func (s *authSuite) TestTokenWithoutSubject(c *gc.C) {
	signed, err := utils.GenerateJWT("", "s3cret", time.Hour)
	c.Assert(err, jc.ErrorIsNil)
	rec := s.serve("s3cret", "Bearer "+signed)
	c.Assert(rec.Code, gc.Equals, http.StatusUnauthorized)
	c.Assert(rec.Body.String(), jc.Contains, "subject claim missing")
}

func (s *authSuite) serveDashboard(secret string, prepare func(*http.Request)) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/foods", middlewares.DashboardAuthMiddleware(secret), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(middlewares.SubjectKey))
	})
	req := httptest.NewRequest(http.MethodPost, "/foods", nil)
	if prepare != nil {
		prepare(req)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func (s *authSuite) TestDashboardOpenWithoutSecret(c *gc.C) {
	rec := s.serveDashboard("", nil)
	c.Assert(rec.Code, gc.Equals, http.StatusOK)
}

func (s *authSuite) TestDashboardNeedsSession(c *gc.C) {
	rec := s.serveDashboard("s3cret", nil)
	c.Assert(rec.Code, gc.Equals, http.StatusUnauthorized)

	rec = s.serveDashboard("s3cret", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: middlewares.SessionCookie, Value: "garbage"})
	})
	c.Assert(rec.Code, gc.Equals, http.StatusUnauthorized)
}

func (s *authSuite) TestDashboardSessionCookie(c *gc.C) {
	token, err := utils.GenerateJWT("ops", "s3cret", time.Hour)
	c.Assert(err, jc.ErrorIsNil)
	rec := s.serveDashboard("s3cret", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: middlewares.SessionCookie, Value: token})
		r.Header.Set("Referer", "http://example.com/?q=pasta")
	})
	c.Assert(rec.Code, gc.Equals, http.StatusOK)
	c.Assert(rec.Body.String(), gc.Equals, "ops")
}

func (s *authSuite) TestDashboardBearerToken(c *gc.C) {
	token, err := utils.GenerateJWT("ci", "s3cret", time.Hour)
	c.Assert(err, jc.ErrorIsNil)
	rec := s.serveDashboard("s3cret", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	c.Assert(rec.Code, gc.Equals, http.StatusOK)
	c.Assert(rec.Body.String(), gc.Equals, "ci")
}

func (s *authSuite) TestDashboardRejectsCrossOrigin(c *gc.C) {
	token, err := utils.GenerateJWT("ops", "s3cret", time.Hour)
	c.Assert(err, jc.ErrorIsNil)
	rec := s.serveDashboard("s3cret", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: middlewares.SessionCookie, Value: token})
		r.Header.Set("Origin", "https://elsewhere.test")
	})
	c.Assert(rec.Code, gc.Equals, http.StatusForbidden)
}

func (s *authSuite) TestParseToken(c *gc.C) {
	token, err := utils.GenerateJWT("ops", "s3cret", time.Hour)
	c.Assert(err, jc.ErrorIsNil)
	sub, err := middlewares.ParseToken("s3cret", token)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(sub, gc.Equals, "ops")

	_, err = middlewares.ParseToken("other", token)
	c.Assert(err, gc.ErrorMatches, "invalid token")
}
