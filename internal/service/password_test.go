package service

import (
	"errors"
	"strings"
	"testing"
)

var testArgon = ArgonParams{Memory: 1024, Time: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32}

func TestHashPasswordRoundTrip(t *testing.T) {
	encoded, err := HashPassword(testArgon, "s3cret!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(encoded, "argon2id$v=19$m=1024,t=1,p=1$") {
		t.Errorf("unexpected encoding: %s", encoded)
	}

	ok, err := VerifyPassword("s3cret!", encoded)
	if err != nil || !ok {
		t.Errorf("VerifyPassword(correct) = %v, %v", ok, err)
	}
	ok, err = VerifyPassword("s3cret?", encoded)
	if err != nil || ok {
		t.Errorf("VerifyPassword(wrong) = %v, %v", ok, err)
	}
}

func TestHashPasswordUsesFreshSalt(t *testing.T) {
	a, _ := HashPassword(testArgon, "same")
	b, _ := HashPassword(testArgon, "same")
	if a == b {
		t.Error("two hashes of the same password should differ")
	}
}

func TestVerifyPasswordRejectsMalformed(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plaintext",
		"bcrypt$2a$10$abc",
		"argon2id$v=19$m=1024,t=1,p=1$onlysalt",
		"argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
		"argon2id$v=19$m=1024,t=0,p=1$c2FsdA$a2V5",
		"argon2id$v=19$m=1024,t=1,p=1$!!!$a2V5",
		"argon2id$m=1024,t=1,p=1$c2FsdA$a2V5",
		"argon2id$v=x$m=1024,t=1,p=1$c2FsdA$a2V5",
	} {
		if _, err := VerifyPassword("pw", encoded); !errors.Is(err, ErrInvalidHash) {
			t.Errorf("VerifyPassword(%q) error = %v, want ErrInvalidHash", encoded, err)
		}
	}
}

func TestVerifyPasswordRejectsOtherVersion(t *testing.T) {
	encoded, err := HashPassword(testArgon, "s3cret!")
	if err != nil {
		t.Fatal(err)
	}
	// v=16 is Argon2 1.0.
	old := strings.Replace(encoded, "$v=19$", "$v=16$", 1)
	if old == encoded {
		t.Fatalf("encoding carries no version: %s", encoded)
	}
	if _, err := VerifyPassword("s3cret!", old); !errors.Is(err, ErrInvalidHash) {
		t.Errorf("VerifyPassword(v=16) error = %v, want ErrInvalidHash", err)
	}
}
