package password

import "testing"

func TestHashAndCheck(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "hunter22" {
		t.Fatal("hash must not equal the plain password")
	}
	if !CheckPasswordHash("hunter22", hash) {
		t.Fatal("expected password to match its hash")
	}
	if CheckPasswordHash("hunter23", hash) {
		t.Fatal("expected wrong password to be rejected")
	}
}
