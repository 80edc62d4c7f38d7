package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestSignAndVerifyStaffToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := SignJWT(Claims{Sub: "staff-1", Email: "front@mindspace.example", Role: RoleStaff})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	claims, err := VerifyJWT(token)
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Sub != "staff-1" || !claims.IsStaff() {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.Exp-claims.Iat != int64(DefaultTTL.Seconds()) {
		t.Fatalf("expected default ttl, got %d", claims.Exp-claims.Iat)
	}
}

func TestVerifyRejectsTamperedAndExpiredTokens(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := SignJWT(Claims{Sub: "staff-1", Role: RoleStaff})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	if _, err := VerifyJWT(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}

	prev := nowUnix
	nowUnix = func() int64 { return 1_000 }
	expired, err := SignJWT(Claims{Sub: "staff-1", Exp: 1_500})
	nowUnix = func() int64 { return 2_000 }
	defer func() { nowUnix = prev }()
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	if _, err := VerifyJWT(expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestSecretRequiredInProduction(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")

	if _, err := SignJWT(Claims{Sub: "staff-1"}); err == nil {
		t.Fatalf("expected missing secret error in production")
	}
}

func TestVerifyRejectsForeignAlgorithmAndFutureIssue(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	secret := []byte("test-secret")

	forge := func(h header, c Claims) string {
		head, _ := encodeSegment(h)
		body, _ := encodeSegment(c)
		input := head + "." + body
		return input + "." + sign(input, secret)
	}

	if _, err := VerifyJWT(forge(header{Alg: "none", Typ: "JWT"}, Claims{Sub: "staff-1"})); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for alg none, got %v", err)
	}

	prev := nowUnix
	nowUnix = func() int64 { return 10_000 }
	defer func() { nowUnix = prev }()

	future := forge(hs256, Claims{Sub: "staff-1", Iat: 10_000 + 3600})
	if _, err := VerifyJWT(future); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for token issued in the future, got %v", err)
	}
	skewed := forge(hs256, Claims{Sub: "staff-1", Iat: 10_030})
	if _, err := VerifyJWT(skewed); err != nil {
		t.Fatalf("expected small clock skew to be tolerated, got %v", err)
	}
}

func TestSignRequiresSubject(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	if _, err := SignJWT(Claims{Sub: "  ", Role: RoleStaff}); err == nil {
		t.Fatalf("expected error without sub")
	}
}
