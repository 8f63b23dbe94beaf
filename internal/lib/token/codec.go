// Package token реализует компактный формат подписанного токена:
// три сегмента base64url (header.payload.signature), подпись HMAC-SHA256.
//
// Формат совместим с JWT HS256, но сборка и разбор сегментов выполняются
// вручную, чтобы полностью контролировать состав полезной нагрузки.
package token

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed возвращается, если сегмент не удаётся декодировать из base64url или JSON.
var ErrMalformed = errors.New("malformed token segment")

// Header — фиксированный заголовок токена.
type Header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// DefaultHeader — единственный поддерживаемый заголовок, алгоритм не согласовывается.
var DefaultHeader = Header{Alg: "HS256", Typ: "JWT"}

var segmentEncoding = base64.RawURLEncoding

// EncodeSegment сериализует значение в JSON и кодирует его в base64url без паддинга.
func EncodeSegment(v any) (string, error) {
	const op = "token.EncodeSegment"
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return segmentEncoding.EncodeToString(raw), nil
}

// DecodeSegment декодирует сегмент base64url и разбирает JSON в v.
func DecodeSegment(seg string, v any) error {
	const op = "token.DecodeSegment"
	raw, err := segmentEncoding.DecodeString(seg)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrMalformed, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrMalformed, err)
	}
	return nil
}

// Sign вычисляет HMAC-SHA256 от data и возвращает подпись в base64url.
func Sign(data string, secret []byte) (string, error) {
	const op = "token.Sign"
	sig, err := jwt.SigningMethodHS256.Sign(data, secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return segmentEncoding.EncodeToString(sig), nil
}

// Verify пересчитывает подпись и сравнивает её за постоянное время.
func Verify(data, signature string, secret []byte) bool {
	sig, err := segmentEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	return jwt.SigningMethodHS256.Verify(data, sig, secret) == nil
}
