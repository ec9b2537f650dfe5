package auth

import (
	"testing"
	"time"
)

func testSecret() []byte {
	return []byte("0123456789abcdef0123456789abcdef")
}

func TestManagerRejectsShortSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewManager([]byte("too-short"), time.Hour); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	manager, err := NewManager(testSecret(), time.Hour)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}

	token, err := manager.GenerateToken(42, "alice")
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	claims, err := manager.Parse(token)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if claims.UID != 42 {
		t.Fatalf("expected uid 42, got %d", claims.UID)
	}
	if claims.Subject != "alice" {
		t.Fatalf("expected subject alice, got %q", claims.Subject)
	}

	uid, ok := manager.ParseCallerID(token)
	if !ok || uid != 42 {
		t.Fatalf("ParseCallerID = (%d, %v), want (42, true)", uid, ok)
	}
}

func TestParseCallerIDNeverErrors(t *testing.T) {
	t.Parallel()

	manager, err := NewManager(testSecret(), time.Hour)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if uid, ok := manager.ParseCallerID(token); ok || uid != 0 {
			t.Fatalf("ParseCallerID(%q) = (%d, %v), want (0, false)", token, uid, ok)
		}
	}
}

func TestExpiredTokenIsRejected(t *testing.T) {
	t.Parallel()

	manager, err := NewManager(testSecret(), time.Hour)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	manager.ttl = -time.Minute

	token, err := manager.GenerateToken(7, "bob")
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	if _, ok := manager.ParseCallerID(token); ok {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestTokenFromOtherSecretIsRejected(t *testing.T) {
	t.Parallel()

	first, _ := NewManager(testSecret(), time.Hour)
	second, _ := NewManager([]byte("ffffffffffffffffffffffffffffffff"), time.Hour)

	token, err := first.GenerateToken(9, "carol")
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	if _, ok := second.ParseCallerID(token); ok {
		t.Fatal("token signed with a different secret must not verify")
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	if token, ok := BearerToken("Bearer abc.def.ghi"); !ok || token != "abc.def.ghi" {
		t.Fatalf("BearerToken = (%q, %v)", token, ok)
	}
	if _, ok := BearerToken("Basic dXNlcg=="); ok {
		t.Fatal("non-bearer header must not parse")
	}
	if _, ok := BearerToken(""); ok {
		t.Fatal("empty header must not parse")
	}
}
