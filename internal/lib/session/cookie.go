package session

import (
	"net/http"
	"time"
)

// CookieOptions — параметры cookie, в которой клиент хранит токен.
type CookieOptions struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// NewCookie собирает cookie с токеном: HttpOnly, SameSite=Lax, Path=/, MaxAge=TTL.
func NewCookie(opts CookieOptions, value string) *http.Cookie {
	return &http.Cookie{
		Name:     opts.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(opts.TTL / time.Second),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredCookie собирает cookie, удаляющую сессию на клиенте.
func ExpiredCookie(opts CookieOptions) *http.Cookie {
	return &http.Cookie{
		Name:     opts.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// FromRequest возвращает токен из cookie или пустую строку.
func FromRequest(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
