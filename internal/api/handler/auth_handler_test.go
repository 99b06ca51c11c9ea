package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/choafros/jdm-vault/internal/core/domain"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, username, password string) (*domain.User, error)
	loginFn    func(ctx context.Context, username, password string) (string, error)
}

func (s *stubAuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	return s.registerFn(ctx, username, password)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (string, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) EnsureAdmin(context.Context, string, string) error { return nil }

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	stub := &stubAuthService{
		registerFn: func(_ context.Context, username, password string) (*domain.User, error) {
			if username != "alice" || password != "pw123" {
				t.Fatalf("unexpected args: %q %q", username, password)
			}
			return &domain.User{
				ID:           "u1",
				Username:     username,
				PasswordHash: "$2a$10$secret",
				Role:         domain.RoleUser,
				CreatedAt:    created,
			}, nil
		},
	}
	h := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/register", `{"username":"alice","password":"pw123"}`), rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["id"] != "u1" || resp["username"] != "alice" || resp["role"] != "user" {
		t.Fatalf("unexpected body: %v", resp)
	}
	if _, ok := resp["password_hash"]; ok {
		t.Fatalf("password hash leaked: %v", resp)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Fatalf("hash material in body: %s", rec.Body.String())
	}
}

func TestAuthHandler_Register_FormEncoded(t *testing.T) {
	e := newTestEcho()
	var got string
	stub := &stubAuthService{
		registerFn: func(_ context.Context, username, _ string) (*domain.User, error) {
			got = username
			return &domain.User{ID: "u1", Username: username, Role: domain.RoleUser}, nil
		},
	}
	h := NewAuthHandler(stub)

	form := url.Values{"username": {"bob"}, "password": {"pw"}}
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()

	if err := h.Register(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got != "bob" {
		t.Fatalf("expected bob, got %q", got)
	}
}

func TestAuthHandler_Register_MissingField(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(context.Context, string, string) (*domain.User, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub)

	for _, body := range []string{`{"username":"alice"}`, `{"password":"pw"}`, `{}`} {
		rec := httptest.NewRecorder()
		err := h.Register(e.NewContext(jsonRequest(http.MethodPost, "/register", body), rec))
		if !errors.Is(err, domain.ErrMissingField) {
			t.Fatalf("body %s: expected ErrMissingField, got %v", body, err)
		}
	}
}

func TestAuthHandler_Register_PropagatesDuplicate(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(context.Context, string, string) (*domain.User, error) {
			return nil, domain.ErrDuplicateUsername
		},
	}
	h := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	err := h.Register(e.NewContext(jsonRequest(http.MethodPost, "/register", `{"username":"alice","password":"pw"}`), rec))
	if !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{})

	rec := httptest.NewRecorder()
	err := h.Register(e.NewContext(jsonRequest(http.MethodPost, "/register", `{"username":`), rec))

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(_ context.Context, username, password string) (string, error) {
			if username != "alice" || password != "pw123" {
				t.Fatalf("unexpected args: %q %q", username, password)
			}
			return "signed.token.value", nil
		},
	}
	h := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	if err := h.Login(e.NewContext(jsonRequest(http.MethodPost, "/login", `{"username":"alice","password":"pw123"}`), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "signed.token.value" {
		t.Fatalf("unexpected token %q", resp.Token)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (string, error) {
			return "", domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	err := h.Login(e.NewContext(jsonRequest(http.MethodPost, "/login", `{"username":"alice","password":"nope"}`), rec))
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Login_MissingField(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{})

	rec := httptest.NewRecorder()
	err := h.Login(e.NewContext(jsonRequest(http.MethodPost, "/login", `{"username":"alice"}`), rec))
	if !errors.Is(err, domain.ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}
