package otp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"credvault/internal/notify"
	"credvault/pkg/platform/keylock"
	"credvault/pkg/platform/sentinel"
)

const (
	defaultIssuer    = "CredVault"
	defaultSecretTTL = 10 * time.Minute
	codePeriod       = 30
)

// SecretStore keeps one TOTP secret per email until it expires.
type SecretStore interface {
	Get(ctx context.Context, email string) (string, error)
	Put(ctx context.Context, email, secret string, ttl time.Duration) error
	Delete(ctx context.Context, email string) error
}

// TOTPVerifier derives codes from a per-email secret. A secret is consumed on
// the first successful check so a code cannot be replayed.
type TOTPVerifier struct {
	secrets   SecretStore
	notifier  notify.Notifier
	issuer    string
	secretTTL time.Duration
	now       func() time.Time
	locks     *keylock.Striped
	logger    *slog.Logger
}

type TOTPOption func(*TOTPVerifier)

func WithIssuer(issuer string) TOTPOption {
	return func(v *TOTPVerifier) {
		if issuer != "" {
			v.issuer = issuer
		}
	}
}

func WithSecretTTL(ttl time.Duration) TOTPOption {
	return func(v *TOTPVerifier) {
		if ttl > 0 {
			v.secretTTL = ttl
		}
	}
}

func WithClock(now func() time.Time) TOTPOption {
	return func(v *TOTPVerifier) {
		if now != nil {
			v.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) TOTPOption {
	return func(v *TOTPVerifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

func NewTOTPVerifier(secrets SecretStore, notifier notify.Notifier, opts ...TOTPOption) *TOTPVerifier {
	v := &TOTPVerifier{
		secrets:   secrets,
		notifier:  notifier,
		issuer:    defaultIssuer,
		secretTTL: defaultSecretTTL,
		now:       time.Now,
		locks:     keylock.New(0),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.notifier == nil {
		v.notifier = notify.Nop{}
	}
	return v
}

var validateOpts = totp.ValidateOpts{
	Period:    codePeriod,
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// Send reuses a live secret for the address or mints a new one, then delivers
// the current code.
func (v *TOTPVerifier) Send(ctx context.Context, email string) error {
	key := normalizeEmail(email)
	var code string
	err := v.locks.Do(key, func() error {
		secret, err := v.secrets.Get(ctx, key)
		if errors.Is(err, sentinel.ErrNotFound) {
			generated, genErr := totp.Generate(totp.GenerateOpts{
				Issuer:      v.issuer,
				AccountName: key,
				Period:      codePeriod,
				Digits:      otp.DigitsSix,
				Algorithm:   otp.AlgorithmSHA1,
			})
			if genErr != nil {
				return fmt.Errorf("generate totp secret: %w", genErr)
			}
			secret = generated.Secret()
			if err := v.secrets.Put(ctx, key, secret, v.secretTTL); err != nil {
				return fmt.Errorf("store totp secret: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("load totp secret: %w", err)
		}

		code, err = totp.GenerateCodeCustom(secret, v.now(), validateOpts)
		if err != nil {
			return fmt.Errorf("generate totp code: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	v.notifier.Notify(ctx, codeMessage(email, code))
	return nil
}

// Verify accepts the code for the current period or one period either side.
func (v *TOTPVerifier) Verify(ctx context.Context, email, code string) (bool, error) {
	key := normalizeEmail(email)
	var ok bool
	err := v.locks.Do(key, func() error {
		secret, err := v.secrets.Get(ctx, key)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load totp secret: %w", err)
		}

		ok, err = totp.ValidateCustom(code, secret, v.now(), validateOpts)
		if err != nil {
			v.logger.DebugContext(ctx, "malformed one-time code", "error", err)
			ok = false
			return nil
		}
		if ok {
			if err := v.secrets.Delete(ctx, key); err != nil {
				return fmt.Errorf("consume totp secret: %w", err)
			}
		}
		return nil
	})
	return ok, err
}
