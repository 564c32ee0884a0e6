// Package identity resolves the request's viewer from a signed session token.
package identity

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/UnendingLoop/PhotoBlur/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

const DefaultCookie = "photoblur_session"

var ErrInvalidToken = errors.New("invalid session token")

// Claims - стандартные поля + идентификатор пользователя
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

type Provider struct {
	secret    []byte
	cookie    string
	loginURL  string
	logoutURL string
	now       func() time.Time
}

func NewProvider(secret, cookie, loginURL, logoutURL string) *Provider {
	if cookie == "" {
		cookie = DefaultCookie
	}
	if loginURL == "" {
		loginURL = "/login"
	}
	if logoutURL == "" {
		logoutURL = "/logout"
	}
	return &Provider{
		secret:    []byte(secret),
		cookie:    cookie,
		loginURL:  loginURL,
		logoutURL: logoutURL,
		now:       time.Now,
	}
}

func (p *Provider) CookieName() string { return p.cookie }

// CurrentUser never fails: a missing or bad token is just an anonymous viewer.
func (p *Provider) CurrentUser(r *http.Request) model.Viewer {
	raw := tokenFromRequest(r, p.cookie)
	if raw == "" {
		return model.Anonymous{LoginURL: p.loginURL}
	}

	userID, err := p.Verify(raw)
	if err != nil {
		return model.Anonymous{LoginURL: p.loginURL}
	}

	return model.Authenticated{ID: userID, LogoutURL: p.logoutURL}
}

func (p *Provider) IssueToken(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("empty user id")
	}
	now := p.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	})

	return token.SignedString(p.secret)
}

func (p *Provider) Verify(raw string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now))
	if err != nil {
		return "", err
	}

	if !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}

func tokenFromRequest(r *http.Request, cookie string) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if t, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(t)
		}
	}
	if c, err := r.Cookie(cookie); err == nil {
		return c.Value
	}
	return ""
}
