package handler

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/choafros/jdm-vault/internal/core/domain"
)

func TestValidator(t *testing.T) {
	v := NewValidator()

	if err := v.Validate(&credentialsRequest{Username: "alice", Password: "pw"}); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	if err := v.Validate(&credentialsRequest{Username: "alice"}); !errors.Is(err, domain.ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}

	err := v.Validate(&credentialsRequest{Username: "alice", Password: strings.Repeat("x", 73)})
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
	if msg, _ := he.Message.(string); !strings.Contains(msg, "password") {
		t.Fatalf("expected message naming password, got %v", he.Message)
	}
}

func TestValidator_PasswordLimitIsBytes(t *testing.T) {
	v := NewValidator()

	// 25 runes, 75 bytes.
	euros := strings.Repeat("€", 25)
	err := v.Validate(&credentialsRequest{Username: "alice", Password: euros})
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}

	// 24 runes, 72 bytes.
	if err := v.Validate(&credentialsRequest{Username: "alice", Password: strings.Repeat("€", 24)}); err != nil {
		t.Fatalf("expected 72 bytes to pass, got %v", err)
	}
}
