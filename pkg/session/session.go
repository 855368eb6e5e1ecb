// Package session keeps per-browser state (the logged in username and
// pending flash notices) in a signed cookie.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	CookieName = "session"
	contextKey = "session"

	Success = "success"
	Error   = "error"
	Info    = "info"
)

type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

type claims struct {
	User    string  `json:"user,omitempty"`
	Flashes []Flash `json:"flashes,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session cookies
type Manager struct {
	secret []byte
	maxAge time.Duration
	secure bool
}

func NewManager(secret string, maxAge time.Duration, secure bool) *Manager {
	return &Manager{
		secret: []byte(secret),
		maxAge: maxAge,
		secure: secure,
	}
}

type state struct {
	m    *Manager
	data claims
}

// Middleware decodes the session cookie and makes it available to the
// helpers in this package. Invalid or expired cookies are treated as an
// empty session.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := &state{m: m}

		if raw, err := c.Cookie(CookieName); err == nil && raw != "" {
			data, err := m.decode(raw)
			if err != nil {
				zap.L().Debug("Discarding invalid session cookie", zap.Error(err))
			} else {
				s.data = *data
			}
		}

		c.Set(contextKey, s)
		c.Next()
	}
}

func (m *Manager) encode(data claims) (string, error) {
	now := time.Now()
	data.IssuedAt = jwt.NewNumericDate(now)
	data.ExpiresAt = jwt.NewNumericDate(now.Add(m.maxAge))

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, data)
	return t.SignedString(m.secret)
}

func (m *Manager) decode(raw string) (*claims, error) {
	var data claims

	token, err := jwt.ParseWithClaims(raw, &data, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("session token invalid")
	}

	return &data, nil
}

func get(c *gin.Context) *state {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}

	s, _ := v.(*state)
	return s
}

// User returns the username the session is authenticated as
func User(c *gin.Context) (string, bool) {
	s := get(c)
	if s == nil || s.data.User == "" {
		return "", false
	}

	return s.data.User, true
}

// SetUser marks the session as authenticated under username
func SetUser(c *gin.Context, username string) {
	if s := get(c); s != nil {
		s.data.User = username
		s.save(c)
	}
}

// Logout removes the username from the session. Pending flashes are kept.
func Logout(c *gin.Context) {
	if s := get(c); s != nil {
		s.data.User = ""
		s.save(c)
	}
}

// AddFlash queues a notice to be shown on the next rendered page
func AddFlash(c *gin.Context, category, message string) {
	if s := get(c); s != nil {
		s.data.Flashes = append(s.data.Flashes, Flash{Category: category, Message: message})
		s.save(c)
	}
}

// Flashes returns and clears all pending notices
func Flashes(c *gin.Context) []Flash {
	s := get(c)
	if s == nil || len(s.data.Flashes) == 0 {
		return nil
	}

	f := s.data.Flashes
	s.data.Flashes = nil
	s.save(c)

	return f
}

// save writes the session cookie, replacing one set earlier during the
// same request. Headers can't change once the body is being written.
func (s *state) save(c *gin.Context) {
	if c.Writer.Written() {
		zap.L().Warn("Session changed after the response was written")
		return
	}

	cookie := &http.Cookie{
		Name:     CookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.m.secure,
		SameSite: http.SameSiteLaxMode,
	}

	if s.data.User == "" && len(s.data.Flashes) == 0 {
		cookie.MaxAge = -1
	} else {
		value, err := s.m.encode(s.data)
		if err != nil {
			zap.L().Error("Failed to sign session cookie", zap.Error(err))
			return
		}

		cookie.Value = value
		cookie.MaxAge = int(s.m.maxAge.Seconds())
	}

	h := c.Writer.Header()
	prefix := fmt.Sprintf("%s=", CookieName)

	var kept []string
	for _, v := range h.Values("Set-Cookie") {
		if !strings.HasPrefix(v, prefix) {
			kept = append(kept, v)
		}
	}

	h.Del("Set-Cookie")
	for _, v := range kept {
		h.Add("Set-Cookie", v)
	}

	http.SetCookie(c.Writer, cookie)
}
