package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_Hash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("123456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(hash, "$2a$") {
		t.Errorf("hash should start with $2a$, got: %s", hash)
	}
}

func TestBcryptHasher_HashUnique(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash1, _ := h.Hash("123456")
	hash2, _ := h.Hash("123456")

	if hash1 == hash2 {
		t.Error("two hashes of the same password should differ (random salt)")
	}
}

func TestBcryptHasher_Verify(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct-password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ok, err := h.Verify("correct-password", hash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected matching password to verify")
	}

	ok, err = h.Verify("wrong-password", hash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected non-matching password to fail verification")
	}
}

func TestBcryptHasher_VerifyInvalidHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	_, err := h.Verify("password", "not-a-bcrypt-hash")
	if err == nil {
		t.Error("expected error for malformed hash")
	}
}

func TestNewBcryptHasher_CostClamping(t *testing.T) {
	tests := []struct {
		name string
		cost int
		want int
	}{
		{"zero selects default", 0, DefaultCost},
		{"below minimum", 2, bcrypt.MinCost},
		{"above maximum", 99, bcrypt.MaxCost},
		{"in range", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewBcryptHasher(tt.cost)
			if h.cost != tt.want {
				t.Errorf("expected cost %d, got %d", tt.want, h.cost)
			}
		})
	}
}
