package utils

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestGenerateAndParse(t *testing.T) {
	tok, err := GenerateJWT("scheduler", "operator", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ParseJWT(tok, testSecret)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.Subject != "scheduler" || claims.Role != "operator" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tok, err := GenerateJWT("scheduler", "operator", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if _, err := ParseJWT(tok, "other"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got=%v", err)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	tok, err := GenerateJWT("scheduler", "operator", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if _, err := ParseJWT(tok, testSecret); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got=%v", err)
	}
}
