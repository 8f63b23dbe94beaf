package token

import (
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Email string `json:"email"`
	Exp   int64  `json:"exp"`
}

func TestEncodeDecodeSegment(t *testing.T) {
	tests := []struct {
		name  string
		value samplePayload
	}{
		{name: "simple", value: samplePayload{Email: "a@b.com", Exp: 1700000000}},
		// символы, которые в обычном base64 дают '+' и '/'
		{name: "url unsafe bytes", value: samplePayload{Email: "??>>~~", Exp: 1}},
		{name: "empty", value: samplePayload{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg, err := EncodeSegment(tt.value)
			require.NoError(t, err)
			assert.NotContains(t, seg, "=")
			assert.NotContains(t, seg, "+")
			assert.NotContains(t, seg, "/")

			var got samplePayload
			require.NoError(t, DecodeSegment(seg, &got))
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestDecodeSegment_Malformed(t *testing.T) {
	tests := []struct {
		name string
		seg  string
	}{
		{name: "not base64", seg: "!!!"},
		{name: "padded base64", seg: "e30="},
		{name: "not json", seg: "bm90LWpzb24"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out map[string]any
			err := DecodeSegment(tt.seg, &out)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestSignVerify(t *testing.T) {
	secret := []byte("test_secret_key_1234567890")

	sig, err := Sign("header.payload", secret)
	require.NoError(t, err)
	assert.NotEmpty(t, sig)

	assert.True(t, Verify("header.payload", sig, secret))
	assert.False(t, Verify("header.payloaD", sig, secret))
	assert.False(t, Verify("header.payload", sig, []byte("other_secret")))
	assert.False(t, Verify("header.payload", sig+"x", secret))
	assert.False(t, Verify("header.payload", "", secret))
}

func TestTokenIsStandardHS256(t *testing.T) {
	secret := []byte("interop_secret")

	header, err := EncodeSegment(DefaultHeader)
	require.NoError(t, err)
	body, err := EncodeSegment(samplePayload{Email: "a@b.com", Exp: 4102444800})
	require.NoError(t, err)
	sig, err := Sign(header+"."+body, secret)
	require.NoError(t, err)

	raw := strings.Join([]string{header, body, sig}, ".")

	parsed, err := jwt.Parse(raw, func(_ *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	assert.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "a@b.com", claims["email"])
}
