package auth

import (
	"errors"
	"testing"
	"time"
)

func TestVerifyValidToken(t *testing.T) {
	token, err := Sign("secret", time.Minute)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	v := NewVerifier("secret")
	if err := v.Verify(token); err != nil {
		t.Errorf("Expected valid token to verify, got %v", err)
	}
}

func TestVerifyMissingToken(t *testing.T) {
	v := NewVerifier("secret")
	if err := v.Verify(""); !errors.Is(err, ErrMissingToken) {
		t.Errorf("Expected ErrMissingToken, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	token, err := Sign("other-secret", time.Minute)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	v := NewVerifier("secret")
	if err := v.Verify(token); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	token, err := Sign("secret", -time.Minute)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	v := NewVerifier("secret")
	if err := v.Verify(token); !errors.Is(err, ErrExpired) {
		t.Errorf("Expected ErrExpired, got %v", err)
	}
}

func TestVerifyGarbageToken(t *testing.T) {
	v := NewVerifier("secret")
	if err := v.Verify("not-a-token"); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Expected ErrInvalidSignature for garbage input, got %v", err)
	}
}
