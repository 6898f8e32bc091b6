package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"credvault/internal/account/models"
	"credvault/internal/account/service"
	"credvault/internal/account/store"
	jwttoken "credvault/internal/jwt_token"
	id "credvault/pkg/domain"
	"credvault/pkg/platform/middleware/auth"
	"credvault/pkg/platform/middleware/metadata"
	"credvault/pkg/platform/sentinel"
	"credvault/pkg/secrets"
)

type HandlerSuite struct {
	suite.Suite
	router http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwt := jwttoken.NewJWTService("test-signing-key", "credvault", time.Hour)
	svc := service.New(store.NewInMemory(), secrets.NewHasher(bcrypt.MinCost), jwt, service.WithLogger(logger))

	h := New(svc, logger)
	r := chi.NewRouter()
	r.Use(metadata.NewMiddleware().Handler)
	h.RegisterPublic(r)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(jwttoken.NewJWTServiceAdapter(jwt), logger))
		h.Register(r)
	})
	s.router = r
}

func (s *HandlerSuite) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) signup(body string) SessionResponse {
	rec := s.do(http.MethodPost, "/accounts", body, "")
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var resp SessionResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (s *HandlerSuite) TestSignupResponseOmitsPassword() {
	rec := s.do(http.MethodPost, "/accounts", `{"name":"Ada","email":"ada@x.io","password":"hunter22"}`, "")
	s.Require().Equal(http.StatusCreated, rec.Code)

	body := rec.Body.String()
	s.NotContains(strings.ToLower(body), "password")
	s.NotContains(body, "$2a$")
	s.NotContains(body, "hunter22")

	var resp SessionResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.NotEmpty(resp.Token)
	s.Equal("individual", resp.Account.Role)
	s.Equal("ada@x.io", resp.Account.Email)
}

func (s *HandlerSuite) TestSignupValidation() {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing name", `{"email":"a@x.io","password":"pw"}`, "name is required"},
		{"missing password", `{"name":"A","email":"a@x.io"}`, "password is required"},
		{"malformed email", `{"name":"A","email":"nope","password":"pw"}`, "email must be a valid email"},
		{"unknown role", `{"name":"A","email":"a@x.io","password":"pw","role":"admin"}`, "role must be one of"},
		{"password over bcrypt limit", `{"name":"A","email":"a@x.io","password":"` + strings.Repeat("p", 73) + `"}`, "password exceeds max length"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.do(http.MethodPost, "/accounts", tt.body, "")
			s.Equal(http.StatusBadRequest, rec.Code)
			s.Contains(rec.Body.String(), tt.want)
		})
	}

	rec := s.do(http.MethodPost, "/accounts", `{not json`, "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestDuplicateSignup() {
	s.signup(`{"name":"Ada","email":"ada@x.io","password":"pw"}`)

	rec := s.do(http.MethodPost, "/accounts", `{"name":"Other","email":"ada@x.io","password":"pw2"}`, "")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "an account with this email already exists")
}

func (s *HandlerSuite) TestConcurrentDuplicateSignup() {
	var wg sync.WaitGroup
	codes := make(chan int, 2)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes <- s.do(http.MethodPost, "/accounts", `{"name":"Ada","email":"same@x.io","password":"pw"}`, "").Code
		}()
	}
	wg.Wait()
	close(codes)

	counts := map[int]int{}
	for c := range codes {
		counts[c]++
	}
	s.Equal(1, counts[http.StatusCreated])
	s.Equal(1, counts[http.StatusBadRequest])
}

func (s *HandlerSuite) TestLogin() {
	s.signup(`{"name":"Ada","email":"ada@x.io","password":"pw"}`)

	s.Run("success", func() {
		rec := s.do(http.MethodPost, "/sessions", `{"email":"ada@x.io","password":"pw"}`, "")
		s.Require().Equal(http.StatusOK, rec.Code)
		var resp SessionResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.NotEmpty(resp.Token)
		s.Require().NotNil(resp.Account.LastLogin)
		s.Contains(resp.Account.LastLoginDevice, "Firefox")
	})

	s.Run("wrong password and unknown email look the same", func() {
		wrong := s.do(http.MethodPost, "/sessions", `{"email":"ada@x.io","password":"bad"}`, "")
		unknown := s.do(http.MethodPost, "/sessions", `{"email":"ghost@x.io","password":"pw"}`, "")
		s.Equal(http.StatusUnauthorized, wrong.Code)
		s.Equal(http.StatusUnauthorized, unknown.Code)
		s.JSONEq(wrong.Body.String(), unknown.Body.String())
	})

	s.Run("missing fields", func() {
		rec := s.do(http.MethodPost, "/sessions", `{"email":"ada@x.io"}`, "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestMe() {
	session := s.signup(`{"name":"Ada","email":"ada@x.io","password":"pw"}`)

	rec := s.do(http.MethodGet, "/me", "", session.Token)
	s.Require().Equal(http.StatusOK, rec.Code)
	var resp MeResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(session.Account.ID, resp.Account.ID)
	s.NotContains(rec.Body.String(), "password")

	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/me", "", "").Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/me", "", "garbage").Code)
}

func (s *HandlerSuite) TestMeForDeletedAccountIsNotFound() {
	other := jwttoken.NewJWTService("test-signing-key", "credvault", time.Hour)
	token, err := other.IssueToken(s.T().Context(), id.NewAccountID(), id.RoleIndividual)
	s.Require().NoError(err)

	rec := s.do(http.MethodGet, "/me", "", token)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestVerifyUser() {
	s.signup(`{"name":"Ada Lovelace","email":"ada@x.io","password":"pw"}`)

	rec := s.do(http.MethodPost, "/verify-user", `{"name":"ADA LOVELACE"}`, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"success":true,"name":"Ada Lovelace","email":"ada@x.io"}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/verify-user", `{"name":"Ada"}`, "")
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/verify-user", `{}`, "")
	s.Equal(http.StatusNotFound, rec.Code)
}

// unreachableStore fails every email lookup as if the database were down.
type unreachableStore struct {
	*store.InMemory
}

func (unreachableStore) FindByEmail(context.Context, string) (*models.Account, error) {
	return nil, sentinel.ErrUnavailable
}

func (s *HandlerSuite) TestLoginWithStoreDownLooksLikeBadCredentials() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwt := jwttoken.NewJWTService("test-signing-key", "credvault", time.Hour)
	svc := service.New(unreachableStore{store.NewInMemory()}, secrets.NewHasher(bcrypt.MinCost), jwt, service.WithLogger(logger))
	r := chi.NewRouter()
	New(svc, logger).RegisterPublic(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"email":"ada@x.io","password":"pw"}`)))

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.JSONEq(`{"error":"unauthorized","error_description":"invalid email or password"}`, rec.Body.String())
}
