package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	accountmodels "credvault/internal/account/models"
	certmodels "credvault/internal/certificate/models"
	certservice "credvault/internal/certificate/service"
	certstore "credvault/internal/certificate/store"
	"credvault/internal/share/service"
	"credvault/internal/share/store"
	id "credvault/pkg/domain"
	dErrors "credvault/pkg/domain-errors"
	"credvault/pkg/platform/middleware/auth"
)

type accountDirectory map[id.AccountID]*accountmodels.Account

func (d accountDirectory) GetAccount(_ context.Context, accountID id.AccountID) (*accountmodels.Account, error) {
	if a, ok := d[accountID]; ok {
		return a, nil
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
}

// tokenValidator treats the bearer token as the caller's account id.
type tokenValidator struct {
	mock.Mock
}

func (m *tokenValidator) ValidateToken(token string) (*auth.Claims, error) {
	args := m.Called(token)
	if c, ok := args.Get(0).(*auth.Claims); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *tokenValidator) allow(accounts ...*accountmodels.Account) {
	for _, a := range accounts {
		m.On("ValidateToken", a.ID.String()).
			Return(&auth.Claims{AccountID: a.ID.String(), Role: string(a.Role)}, nil).
			Maybe()
	}
}

type HandlerSuite struct {
	suite.Suite
	router   http.Handler
	certs    *certstore.InMemory
	holder   *accountmodels.Account
	employer *accountmodels.Account
	stranger *accountmodels.Account
	cert     *certmodels.Certificate
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	mit := &accountmodels.Account{ID: id.NewAccountID(), Name: "MIT", Email: "reg@mit.edu", Role: id.RoleInstitution}
	s.holder = &accountmodels.Account{ID: id.NewAccountID(), Name: "Ada", Email: "a@x.com", Role: id.RoleIndividual}
	s.employer = &accountmodels.Account{ID: id.NewAccountID(), Name: "Corp", Email: "hr@corp.io", Role: id.RoleIndividual}
	s.stranger = &accountmodels.Account{ID: id.NewAccountID(), Name: "Eve", Email: "eve@x.com", Role: id.RoleIndividual}
	dir := accountDirectory{mit.ID: mit, s.holder.ID: s.holder, s.employer.ID: s.employer, s.stranger.ID: s.stranger}

	s.certs = certstore.NewInMemory()
	cert, err := certmodels.NewCertificate(id.NewCertificateID(), "B.Tech", mit.ID, "MIT", "Ada", "a@x.com", nil, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.certs.Create(context.Background(), cert))
	s.cert = cert

	logger := slog.New(slog.DiscardHandler)
	certs := certservice.New(s.certs, dir, certservice.WithLogger(logger))
	h := New(service.New(store.NewInMemory(s.certs), dir, certs, service.WithLogger(logger)), logger)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		validator := &tokenValidator{}
		validator.allow(s.holder, s.employer, s.stranger)
		r.Use(auth.RequireAuth(validator, logger))
		h.Register(r)
	})
	s.router = r
}

func (s *HandlerSuite) do(method, path, body string, caller *accountmodels.Account) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if caller != nil {
		req.Header.Set("Authorization", "Bearer "+caller.ID.String())
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestShareThenList() {
	rec := s.do(http.MethodPost, "/shares", `{"certificateId":"`+s.cert.ID.String()+`","recipientEmail":"hr@corp.io"}`, s.holder)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var env ShareEnvelope
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env))
	s.Equal("Certificate shared", env.Message)
	s.Equal("a@x.com", env.Share.SharedByEmail)
	s.Nil(env.Share.ExpiresAt)

	rec = s.do(http.MethodGet, "/shares/mine", "", s.employer)
	s.Require().Equal(http.StatusOK, rec.Code)
	var list SharedListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &list))
	s.Require().Len(list.Shares, 1)
	got := list.Shares[0]
	s.Equal(s.cert.ID.String(), got.ID)
	s.Equal(env.Share.ID, got.ShareID)
	s.Equal("MIT", got.Issuer)
	s.Equal("Ada", got.Recipient)
	s.Equal("verified", got.Status)
	s.Nil(got.FileData)

	var raw map[string][]map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &raw))
	s.Contains(raw["shares"][0], "fileData")
}

func (s *HandlerSuite) TestEmptyListIsArray() {
	rec := s.do(http.MethodGet, "/shares/mine", "", s.employer)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"shares":[]}`, rec.Body.String())
}

func (s *HandlerSuite) TestCreateErrors() {
	cases := []struct {
		name   string
		body   string
		caller *accountmodels.Account
		status int
	}{
		{"unauthenticated", `{"certificateId":"` + s.cert.ID.String() + `","recipientEmail":"hr@corp.io"}`, nil, http.StatusUnauthorized},
		{"bad email", `{"certificateId":"` + s.cert.ID.String() + `","recipientEmail":"nope"}`, s.holder, http.StatusBadRequest},
		{"bad id", `{"certificateId":"123","recipientEmail":"hr@corp.io"}`, s.holder, http.StatusBadRequest},
		{"past expiry", `{"certificateId":"` + s.cert.ID.String() + `","recipientEmail":"hr@corp.io","expiresAt":"2001-01-01T00:00:00Z"}`, s.holder, http.StatusBadRequest},
		{"not owner", `{"certificateId":"` + s.cert.ID.String() + `","recipientEmail":"hr@corp.io"}`, s.stranger, http.StatusForbidden},
		{"unknown certificate", `{"certificateId":"` + id.NewCertificateID().String() + `","recipientEmail":"hr@corp.io"}`, s.holder, http.StatusNotFound},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			rec := s.do(http.MethodPost, "/shares", tc.body, tc.caller)
			s.Equal(tc.status, rec.Code, rec.Body.String())
		})
	}
}
