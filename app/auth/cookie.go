package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/vibast-solutions/ms-go-console/config"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var ErrInvalidCookie = errors.New("invalid session cookie")

// SessionCookie is the payload sealed into the session cookie.
type SessionCookie struct {
	AccessToken  string `json:"a"`
	RefreshToken string `json:"r"`
}

type CookieService struct {
	name   string
	domain string
	secure bool
	maxAge time.Duration
	key    [32]byte
}

func NewCookieService(cfg config.SessionConfig) *CookieService {
	return &CookieService{
		name:   cfg.CookieName,
		domain: cfg.CookieDomain,
		secure: cfg.CookieSecure,
		maxAge: cfg.RefreshTTL,
		key:    sha256.Sum256([]byte(cfg.Secret)),
	}
}

func (s *CookieService) Name() string {
	return s.name
}

func (s *CookieService) Seal(session SessionCookie) (string, error) {
	payload, err := json.Marshal(session)
	if err != nil {
		return "", err
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", err
	}

	sealed := secretbox.Seal(nonce[:], payload, &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (s *CookieService) Unseal(value string) (*SessionCookie, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, ErrInvalidCookie
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return nil, ErrInvalidCookie
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	payload, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, ErrInvalidCookie
	}

	var session SessionCookie
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, ErrInvalidCookie
	}
	return &session, nil
}

// Read returns the unsealed session cookie of the request.
func (s *CookieService) Read(c echo.Context) (*SessionCookie, error) {
	cookie, err := c.Cookie(s.name)
	if err != nil || cookie.Value == "" {
		return nil, ErrInvalidCookie
	}
	return s.Unseal(cookie.Value)
}

func (s *CookieService) Set(c echo.Context, session SessionCookie) error {
	value, err := s.Seal(session)
	if err != nil {
		return err
	}
	c.SetCookie(s.cookie(value, int(s.maxAge.Seconds())))
	return nil
}

func (s *CookieService) Delete(c echo.Context) {
	c.SetCookie(s.cookie("", -1))
}

func (s *CookieService) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.name,
		Value:    value,
		Path:     "/",
		Domain:   s.domain,
		MaxAge:   maxAge,
		Secure:   s.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
