package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	accountmodels "credvault/internal/account/models"
	"credvault/internal/certrequest/service"
	"credvault/internal/certrequest/store"
	id "credvault/pkg/domain"
	dErrors "credvault/pkg/domain-errors"
	"credvault/pkg/requestcontext"
)

const callerHeader = "X-Test-Account"

type directory []*accountmodels.Account

func (d directory) GetAccount(_ context.Context, accountID id.AccountID) (*accountmodels.Account, error) {
	for _, a := range d {
		if a.ID == accountID {
			return a, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
}

func (d directory) ResolveInstitution(_ context.Context, name string) (*accountmodels.Account, error) {
	for _, a := range d {
		if a.Name == name && a.IsInstitution() {
			return a, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeValidation, "unknown institution")
}

func asCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if accountID, err := id.ParseAccountID(r.Header.Get(callerHeader)); err == nil {
			r = r.WithContext(requestcontext.WithAccount(r.Context(), accountID, id.RoleIndividual))
		}
		next.ServeHTTP(w, r)
	})
}

type HandlerSuite struct {
	suite.Suite
	router http.Handler
	mit    *accountmodels.Account
	holder *accountmodels.Account
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.mit = &accountmodels.Account{ID: id.NewAccountID(), Name: "MIT", Email: "reg@mit.edu", Role: id.RoleInstitution}
	s.holder = &accountmodels.Account{ID: id.NewAccountID(), Name: "Ada", Email: "a@x.com", Role: id.RoleIndividual}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(service.New(store.NewInMemory(), directory{s.mit, s.holder}, service.WithLogger(logger)), logger)
	r := chi.NewRouter()
	r.Use(asCaller)
	h.Register(r)
	s.router = r
}

func (s *HandlerSuite) do(method, path, body string, caller *accountmodels.Account) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(callerHeader, caller.ID.String())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestRequestLifecycle() {
	rec := s.do(http.MethodPost, "/requests", `{"title":"Transcript","institutionName":"MIT"}`, s.holder)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var created RequestEnvelope
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &created))
	s.Equal("sent", created.Request.Status)
	s.Equal("a@x.com", created.Request.RecipientEmail)
	path := "/requests/" + created.Request.ID

	rec = s.do(http.MethodGet, "/requests/for-institution", "", s.mit)
	var forMIT RequestListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &forMIT))
	s.Len(forMIT.Requests, 1)

	s.Equal(http.StatusBadRequest, s.do(http.MethodPut, path, `{"status":"cancelled"}`, s.mit).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodPut, path, `{"status":"approved"}`, s.holder).Code)

	rec = s.do(http.MethodPut, path, `{"status":"approved"}`, s.mit)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"message":"Request approved"`)

	s.Equal(http.StatusConflict, s.do(http.MethodPut, path, `{"status":"rejected"}`, s.mit).Code)

	rec = s.do(http.MethodGet, "/requests/mine", "", s.holder)
	var mine RequestListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &mine))
	s.Require().Len(mine.Requests, 1)
	s.Equal("approved", mine.Requests[0].Status)
}

func (s *HandlerSuite) TestCreateValidation() {
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/requests", `{"institutionName":"MIT"}`, s.holder).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/requests", `{"title":"T","institutionName":"Unknown U"}`, s.holder).Code)
}

func (s *HandlerSuite) TestSetStatusErrors() {
	s.Equal(http.StatusBadRequest, s.do(http.MethodPut, "/requests/not-an-id", `{"status":"approved"}`, s.mit).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodPut, "/requests/"+id.NewRequestID().String(), `{"status":"approved"}`, s.mit).Code)
}
