package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"credvault/internal/account/models"
	"credvault/internal/account/service/mocks"
	"credvault/internal/account/store"
	id "credvault/pkg/domain"
	dErrors "credvault/pkg/domain-errors"
	"credvault/pkg/platform/sentinel"
	"credvault/pkg/requestcontext"
	"credvault/pkg/secrets"
)

const firefoxLinux = "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0"

type AccountServiceSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	tokens  *mocks.MockTokenIssuer
	store   *store.InMemory
	service *Service
	ctx     context.Context
	now     time.Time
}

func TestAccountServiceSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceSuite))
}

func (s *AccountServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.tokens = mocks.NewMockTokenIssuer(s.ctrl)
	s.tokens.EXPECT().IssueToken(gomock.Any(), gomock.Any(), gomock.Any()).Return("token", nil).AnyTimes()
	s.store = store.NewInMemory()
	s.service = New(s.store, secrets.NewHasher(bcrypt.MinCost), s.tokens,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.now = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *AccountServiceSuite) signup(name, email, role string) *models.Account {
	a, _, err := s.service.Signup(s.ctx, SignupCommand{Name: name, Email: email, Password: "pw-" + name, Role: role})
	s.Require().NoError(err)
	return a
}

func (s *AccountServiceSuite) TestSignup() {
	s.Run("defaults role and wallet", func() {
		a, token, err := s.service.Signup(s.ctx, SignupCommand{Name: "Ada", Email: "ada@x.io", Password: "secret"})
		s.Require().NoError(err)
		s.Equal("token", token)
		s.Equal(id.RoleIndividual, a.Role)
		s.True(strings.HasPrefix(a.WalletID, "0x"))
		s.Len(a.WalletID, 42)
		s.NotEqual("secret", a.PasswordHash)
		s.Equal(s.now, a.CreatedAt)
	})

	s.Run("keeps supplied wallet", func() {
		a, _, err := s.service.Signup(s.ctx, SignupCommand{Name: "MIT", Email: "reg@mit.edu", Password: "pw", Role: "institution", WalletID: "0xabc"})
		s.Require().NoError(err)
		s.Equal("0xabc", a.WalletID)
		s.Equal(id.RoleInstitution, a.Role)
	})

	s.Run("missing fields", func() {
		_, _, err := s.service.Signup(s.ctx, SignupCommand{Name: "Ada", Email: "", Password: "pw"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("invalid role", func() {
		_, _, err := s.service.Signup(s.ctx, SignupCommand{Name: "Ada", Email: "r@x.io", Password: "pw", Role: "admin"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("duplicate email", func() {
		_, _, err := s.service.Signup(s.ctx, SignupCommand{Name: "Other", Email: "ada@x.io", Password: "pw"})
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateKey))
		s.Equal("an account with this email already exists", err.Error())
	})
}

func (s *AccountServiceSuite) TestConcurrentSignupOneWinner() {
	const attempts = 16
	var wg sync.WaitGroup
	var ok, dup atomic.Int32
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.service.Signup(s.ctx, SignupCommand{Name: "Racer", Email: "race@x.io", Password: "pw"})
			switch {
			case err == nil:
				ok.Add(1)
			case dErrors.HasCode(err, dErrors.CodeDuplicateKey):
				dup.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), ok.Load())
	s.Equal(int32(attempts-1), dup.Load())
}

func (s *AccountServiceSuite) TestLogin() {
	a := s.signup("Ada", "ada@x.io", "")

	s.Run("success records device", func() {
		got, token, err := s.service.Login(s.ctx, LoginCommand{Email: "ada@x.io", Password: "pw-Ada", UserAgent: firefoxLinux})
		s.Require().NoError(err)
		s.Equal("token", token)
		s.Equal(a.ID, got.ID)
		s.Require().NotNil(got.LastLogin)
		s.Equal(s.now, *got.LastLogin)
		s.Contains(got.LastLoginDevice, "Firefox")

		stored, err := s.store.FindByID(s.ctx, a.ID)
		s.Require().NoError(err)
		s.Equal(got.LastLoginDevice, stored.LastLoginDevice)
	})

	s.Run("unknown email and wrong password are indistinguishable", func() {
		_, _, unknown := s.service.Login(s.ctx, LoginCommand{Email: "nobody@x.io", Password: "pw-Ada"})
		_, _, wrong := s.service.Login(s.ctx, LoginCommand{Email: "ada@x.io", Password: "nope"})
		s.Require().Error(unknown)
		s.Require().Error(wrong)
		s.Equal(unknown.Error(), wrong.Error())
		s.Equal(dErrors.CodeOf(unknown), dErrors.CodeOf(wrong))
		s.True(dErrors.HasCode(unknown, dErrors.CodeUnauthorized))
	})

	s.Run("email is case sensitive", func() {
		_, _, err := s.service.Login(s.ctx, LoginCommand{Email: "ADA@x.io", Password: "pw-Ada"})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("missing fields", func() {
		_, _, err := s.service.Login(s.ctx, LoginCommand{Email: "ada@x.io"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *AccountServiceSuite) TestMe() {
	a := s.signup("Ada", "ada@x.io", "")
	got, err := s.service.Me(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(a.Email, got.Email)

	_, err = s.service.Me(s.ctx, id.NewAccountID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *AccountServiceSuite) TestVerifyUser() {
	s.signup("Ada Lovelace", "ada@x.io", "")

	got, err := s.service.VerifyUser(s.ctx, "ada lovelace")
	s.Require().NoError(err)
	s.Equal("ada@x.io", got.Email)

	_, err = s.service.VerifyUser(s.ctx, "Ada")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.VerifyUser(s.ctx, "  ")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *AccountServiceSuite) TestResolveInstitution() {
	mit := s.signup("MIT", "reg@mit.edu", "institution")
	s.signup("Stanford", "a@stanford.edu", "institution")
	s.signup("Stanford", "b@stanford.edu", "institution")
	s.signup("Harvard", "someone@x.io", "individual")

	got, err := s.service.ResolveInstitution(s.ctx, "MIT")
	s.Require().NoError(err)
	s.Equal(mit.ID, got.ID)

	_, err = s.service.ResolveInstitution(s.ctx, "Stanford")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Contains(err.Error(), "ambiguous")

	_, err = s.service.ResolveInstitution(s.ctx, "Harvard")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.ResolveInstitution(s.ctx, "mit")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation), "institution names match exactly")
}

// AccountServiceMockSuite drives the service against mocked collaborators.
type AccountServiceMockSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	store   *mocks.MockStore
	hasher  *mocks.MockPasswordHasher
	tokens  *mocks.MockTokenIssuer
	service *Service
}

func TestAccountServiceMockSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceMockSuite))
}

func (s *AccountServiceMockSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.hasher = mocks.NewMockPasswordHasher(s.ctrl)
	s.tokens = mocks.NewMockTokenIssuer(s.ctrl)
	s.service = New(s.store, s.hasher, s.tokens,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithStoreTimeout(time.Second),
	)
}

func (s *AccountServiceMockSuite) TestUnknownEmailBurnsHash() {
	s.store.EXPECT().FindByEmail(gomock.Any(), "ghost@x.io").Return(nil, sentinel.ErrNotFound)
	s.hasher.EXPECT().BurnCompare("pw").Times(1)

	_, _, err := s.service.Login(context.Background(), LoginCommand{Email: "ghost@x.io", Password: "pw"})
	s.Equal("invalid email or password", err.Error())
}

func (s *AccountServiceMockSuite) TestLoginHidesInternalFailures() {
	s.Run("store unavailable", func() {
		s.store.EXPECT().FindByEmail(gomock.Any(), "ada@x.io").Return(nil, sentinel.ErrUnavailable)
		s.hasher.EXPECT().BurnCompare("pw").Times(1)

		_, _, err := s.service.Login(context.Background(), LoginCommand{Email: "ada@x.io", Password: "pw"})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal("invalid email or password", err.Error())
	})

	s.Run("token issue fails", func() {
		account := &models.Account{ID: id.NewAccountID(), Email: "ada@x.io", PasswordHash: "hash", Role: id.RoleIndividual}
		s.store.EXPECT().FindByEmail(gomock.Any(), "ada@x.io").Return(account, nil)
		s.hasher.EXPECT().Verify("pw", "hash").Return(nil)
		s.store.EXPECT().UpdateLastLogin(gomock.Any(), account.ID, gomock.Any(), gomock.Any()).Return(nil)
		s.tokens.EXPECT().IssueToken(gomock.Any(), account.ID, id.RoleIndividual).Return("", errors.New("signing key missing"))

		_, token, err := s.service.Login(context.Background(), LoginCommand{Email: "ada@x.io", Password: "pw"})
		s.Empty(token)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *AccountServiceMockSuite) TestStoreCallsCarryDeadline() {
	s.store.EXPECT().FindByID(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ id.AccountID) (*models.Account, error) {
			_, ok := ctx.Deadline()
			s.True(ok)
			return nil, context.DeadlineExceeded
		})

	_, err := s.service.Me(context.Background(), id.NewAccountID())
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *AccountServiceMockSuite) TestCreateFailureIsInternal() {
	s.hasher.EXPECT().Hash("pw").Return("hash", nil)
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	_, _, err := s.service.Signup(context.Background(), SignupCommand{Name: "Ada", Email: "ada@x.io", Password: "pw"})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *AccountServiceMockSuite) TestVerifyUserHidesStoreErrors() {
	s.store.EXPECT().FindByNameFold(gomock.Any(), "Ada").Return(nil, sentinel.ErrUnavailable)

	_, err := s.service.VerifyUser(context.Background(), "Ada")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *AccountServiceMockSuite) TestLastLoginFailureDoesNotBlockLogin() {
	account := &models.Account{ID: id.NewAccountID(), Email: "ada@x.io", PasswordHash: "hash", Role: id.RoleIndividual}
	s.store.EXPECT().FindByEmail(gomock.Any(), "ada@x.io").Return(account, nil)
	s.hasher.EXPECT().Verify("pw", "hash").Return(nil)
	s.store.EXPECT().UpdateLastLogin(gomock.Any(), account.ID, gomock.Any(), gomock.Any()).Return(sentinel.ErrUnavailable)
	s.tokens.EXPECT().IssueToken(gomock.Any(), account.ID, id.RoleIndividual).Return("t", nil)

	got, token, err := s.service.Login(context.Background(), LoginCommand{Email: "ada@x.io", Password: "pw"})
	s.Require().NoError(err)
	s.Equal("t", token)
	s.Nil(got.LastLogin)
}
