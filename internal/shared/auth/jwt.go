// Package auth signs and verifies the HS256 tokens that identify back-office staff.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// RoleStaff grants access to the back-office endpoints.
const RoleStaff = "staff"

// DefaultTTL is the lifetime of tokens signed without an explicit expiry.
const DefaultTTL = 12 * time.Hour

// clockSkew tolerates small differences between the signer's and verifier's clocks.
const clockSkew = time.Minute

var (
	ErrInvalidToken  = errors.New("invalid token")
	errMissingSecret = errors.New("jwt secret not configured")
)

// Claims represents the identity of a staff member contained in a JWT.
type Claims struct {
	Sub   string `json:"sub"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
	Exp   int64  `json:"exp,omitempty"`
	Iat   int64  `json:"iat,omitempty"`
}

// IsStaff reports whether the claims carry the staff role.
func (c Claims) IsStaff() bool {
	return c.Role == RoleStaff
}

type header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

var hs256 = header{Alg: "HS256", Typ: "JWT"}

var nowUnix = func() int64 { return time.Now().UTC().Unix() }

// SignJWT signs claims with the JWT_SECRET key. Missing iat and exp are filled in.
func SignJWT(claims Claims) (string, error) {
	secret, err := secretKey()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(claims.Sub) == "" {
		return "", errors.New("sub is required")
	}

	now := nowUnix()
	if claims.Iat == 0 {
		claims.Iat = now
	}
	if claims.Exp == 0 {
		claims.Exp = claims.Iat + int64(DefaultTTL/time.Second)
	}

	head, err := encodeSegment(hs256)
	if err != nil {
		return "", err
	}
	body, err := encodeSegment(claims)
	if err != nil {
		return "", err
	}
	input := head + "." + body
	return input + "." + sign(input, secret), nil
}

// VerifyJWT checks the signature, algorithm and lifetime of token and returns its claims.
// Every failure is reported as ErrInvalidToken.
func VerifyJWT(token string) (Claims, error) {
	secret, err := secretKey()
	if err != nil {
		return Claims{}, err
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, ErrInvalidToken
	}
	input := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(sign(input, secret))) {
		return Claims{}, ErrInvalidToken
	}

	var head header
	if err := decodeSegment(parts[0], &head); err != nil || head.Alg != hs256.Alg {
		return Claims{}, ErrInvalidToken
	}
	var claims Claims
	if err := decodeSegment(parts[1], &claims); err != nil {
		return Claims{}, ErrInvalidToken
	}
	if claims.Sub == "" {
		return Claims{}, ErrInvalidToken
	}

	now := nowUnix()
	skew := int64(clockSkew / time.Second)
	if claims.Exp > 0 && now > claims.Exp {
		return Claims{}, ErrInvalidToken
	}
	if claims.Iat > now+skew {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func encodeSegment(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodeSegment(segment string, v any) error {
	raw, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func sign(input string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(input))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// secretKey reads JWT_SECRET. Outside production an unset secret falls back to a
// fixed development key.
func secretKey() ([]byte, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret != "" {
		return []byte(secret), nil
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ENV"))) {
	case "production", "prod":
		return nil, fmt.Errorf("%w: JWT_SECRET required in production", errMissingSecret)
	}
	return []byte("dev-secret"), nil
}
