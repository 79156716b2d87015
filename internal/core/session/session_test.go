package session

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/tjtransit/rutas/internal/core/domain"
)

// makeToken builds an unsigned three-segment token with the given claims.
// The gate never verifies signatures, so a dummy one is enough.
func makeToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	enc := func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return base64.RawURLEncoding.EncodeToString(b)
	}
	header := map[string]any{"alg": "HS256", "typ": "JWT"}
	return enc(header) + "." + enc(claims) + ".c2lnbmF0dXJl"
}

var now = time.Unix(1_700_000_000, 0)

func TestDecodePayload_Undecodable(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"opaque":        "some-opaque-session-id",
		"two segments":  "aGVhZGVy.cGF5bG9hZA",
		"bad base64":    "!!!.???.###",
		"payload not json": "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.bm90anNvbg.c2ln",
	}
	for name, token := range cases {
		if _, ok := DecodePayload(token); ok {
			t.Errorf("%s: expected undecodable, got ok", name)
		}
	}
}

func TestDecodePayload_Valid(t *testing.T) {
	token := makeToken(t, map[string]any{"sub": "u1", "exp": 123.0})
	claims, ok := DecodePayload(token)
	if !ok {
		t.Fatal("expected decodable token")
	}
	if claims["sub"] != "u1" {
		t.Errorf("sub = %v", claims["sub"])
	}
}

func TestIsTokenExpired(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		expired bool
	}{
		{"expired one second ago", makeToken(t, map[string]any{"exp": now.Unix() - 1}), true},
		{"expires exactly now", makeToken(t, map[string]any{"exp": now.Unix()}), true},
		{"expires in an hour", makeToken(t, map[string]any{"exp": now.Unix() + 3600}), false},
		{"no exp claim", makeToken(t, map[string]any{"sub": "u1"}), false},
		{"undecodable defers to backend", "opaque-token", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTokenExpired(tt.token, now); got != tt.expired {
				t.Errorf("IsTokenExpired = %v, want %v", got, tt.expired)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	live := makeToken(t, map[string]any{"exp": now.Unix() + 3600})
	dead := makeToken(t, map[string]any{"exp": now.Unix() - 1})

	if !IsValid(live, now) {
		t.Error("live token should be valid")
	}
	if IsValid(dead, now) {
		t.Error("expired token should be invalid")
	}
	if IsValid("", now) {
		t.Error("missing token should be invalid")
	}

	// Repeated queries on an expired token must keep answering the same;
	// validity is a pure read with no state transition behind it.
	for i := 0; i < 3; i++ {
		if IsValid(dead, now) {
			t.Fatal("validity flipped between calls")
		}
	}
}

func TestHasAccessToRoute(t *testing.T) {
	withList := &domain.User{Role: &domain.Role{Name: "editor", Routes: []string{"/home"}}}
	if HasAccessToRoute(withList, "/admin-proposals") {
		t.Error("allow-list user reached a route outside the list")
	}
	if !HasAccessToRoute(withList, "/home") {
		t.Error("allow-list user denied a listed route")
	}

	// No role structure at all: fail-open, access granted.
	bare := &domain.User{Email: "x@example.com"}
	if !HasAccessToRoute(bare, "/admin-proposals") {
		t.Error("user without role data should fall open to granted")
	}

	// String-shaped role (no allow-list) also falls open.
	stringRole := &domain.User{Role: &domain.Role{Name: "viewer"}}
	if !HasAccessToRoute(stringRole, "/anything") {
		t.Error("role without allow-list should fall open to granted")
	}

	if HasAccessToRoute(nil, "/home") {
		t.Error("nil user must be denied")
	}

	// Empty-but-present allow-list denies everything; it is distinct from
	// an absent one.
	emptyList := &domain.User{Role: &domain.Role{Name: "none", Routes: []string{}}}
	if HasAccessToRoute(emptyList, "/home") {
		t.Error("empty allow-list should deny")
	}
}

func TestIsAdmin(t *testing.T) {
	tests := []struct {
		name  string
		user  *domain.User
		admin bool
	}{
		{"nil user", nil, false},
		{"no role", &domain.User{}, false},
		{"plain admin role", &domain.User{Role: &domain.Role{Name: "admin"}}, true},
		{"super admin display name", &domain.User{Role: &domain.Role{ID: "r9", Name: "SUPER ADMINISTRADOR"}}, true},
		{"admin by identifier", &domain.User{Role: &domain.Role{ID: "admin", Name: "Administrador"}}, true},
		{"regular role", &domain.User{Role: &domain.Role{Name: "editor"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAdmin(tt.user); got != tt.admin {
				t.Errorf("IsAdmin = %v, want %v", got, tt.admin)
			}
		})
	}
}

func TestRoleUnmarshal_StringAndObject(t *testing.T) {
	var u domain.User
	if err := json.Unmarshal([]byte(`{"email":"a@b.c","role":"admin"}`), &u); err != nil {
		t.Fatal(err)
	}
	if u.Role == nil || u.Role.Name != "admin" || u.Role.HasAllowList() {
		t.Errorf("string role decoded wrong: %+v", u.Role)
	}

	var u2 domain.User
	raw := `{"email":"a@b.c","role":{"id":"r1","name":"editor","routes":["/home"]}}`
	if err := json.Unmarshal([]byte(raw), &u2); err != nil {
		t.Fatal(err)
	}
	if !u2.Role.HasAllowList() || !u2.Role.Allows("/home") {
		t.Errorf("object role decoded wrong: %+v", u2.Role)
	}
}

func TestDecodeAuthResponse(t *testing.T) {
	flat := []byte(`{"token":"t1","user":{"email":"a@b.c"}}`)
	resp, err := DecodeAuthResponse(flat)
	if err != nil {
		t.Fatalf("flat shape: %v", err)
	}
	if resp.Token != "t1" || resp.User.Email != "a@b.c" {
		t.Errorf("flat shape decoded wrong: %+v", resp)
	}

	nested := []byte(`{"data":{"token":"t2","user":{"email":"d@e.f"}}}`)
	resp, err = DecodeAuthResponse(nested)
	if err != nil {
		t.Fatalf("nested shape: %v", err)
	}
	if resp.Token != "t2" || resp.User.Email != "d@e.f" {
		t.Errorf("nested shape decoded wrong: %+v", resp)
	}

	if _, err := DecodeAuthResponse([]byte(`{"token":"only"}`)); err == nil {
		t.Error("token without user must fail: the pair is atomic")
	}
	if _, err := DecodeAuthResponse([]byte(`not json`)); err == nil {
		t.Error("malformed body must fail")
	}
}
