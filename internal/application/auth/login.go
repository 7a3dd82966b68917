package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/expensa/internal/application/ports"
	"github.com/amirhosseinghanipour/expensa/internal/domain"
	domerrors "github.com/amirhosseinghanipour/expensa/internal/domain/errors"
)

type LoginInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Identity   *domain.Identity
	Credential domain.Credential
}

// Login authenticates an email and password. Unknown email and wrong password are
// indistinguishable: both return ErrInvalidCredentials after one hash verification.
type Login struct {
	registry ports.TenantRegistry
	hasher   ports.PasswordHasher
	sessions ports.SessionIssuer
	lockout  ports.LoginLockoutStore
	validate *validator.Validate
	log      zerolog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewLogin builds the login use case. lockout may be nil.
func NewLogin(registry ports.TenantRegistry, hasher ports.PasswordHasher, sessions ports.SessionIssuer, lockout ports.LoginLockoutStore, log zerolog.Logger) *Login {
	return &Login{
		registry: registry,
		hasher:   hasher,
		sessions: sessions,
		lockout:  lockout,
		validate: newValidator(),
		log:      log.With().Str("component", "login").Logger(),
	}
}

func (uc *Login) Execute(ctx context.Context, input LoginInput) (*LoginResult, error) {
	input.Email = normalizeEmail(input.Email)
	if err := validate(uc.validate, &input); err != nil {
		return nil, err
	}
	if uc.lockout != nil {
		if locked, retryAfter := uc.lockout.IsLocked(ctx, input.Email); locked {
			return nil, &domerrors.LockedError{RetryAfterSeconds: retryAfter}
		}
	}

	identity, err := uc.registry.GetIdentityByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if identity == nil {
		uc.hasher.Verify(input.Password, uc.dummy())
		uc.fail(ctx, input.Email)
		return nil, domerrors.ErrInvalidCredentials
	}
	if !uc.hasher.Verify(input.Password, identity.PasswordHash) {
		uc.fail(ctx, input.Email)
		return nil, domerrors.ErrInvalidCredentials
	}
	if uc.lockout != nil {
		uc.lockout.RecordSuccess(ctx, input.Email)
	}

	cred, err := uc.sessions.Issue(identity.Principal())
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &LoginResult{Identity: identity, Credential: cred}, nil
}

func (uc *Login) fail(ctx context.Context, email string) {
	if uc.lockout != nil {
		uc.lockout.RecordFailure(ctx, email)
	}
}

// dummy returns a real hash to verify against when the email is unknown.
func (uc *Login) dummy() string {
	uc.dummyOnce.Do(func() {
		h, err := uc.hasher.Hash("expensa-login-timing-equalizer")
		if err != nil {
			uc.log.Warn().Err(err).Msg("dummy hash unavailable")
			return
		}
		uc.dummyHash = h
	})
	return uc.dummyHash
}
