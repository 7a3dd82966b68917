package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/expensa/internal/application/ports"
	"github.com/amirhosseinghanipour/expensa/internal/domain"
	domerrors "github.com/amirhosseinghanipour/expensa/internal/domain/errors"
)

// SignUpInput is the signup payload.
type SignUpInput struct {
	CompanyName string `json:"companyName" validate:"required,min=2"`
	Country     string `json:"country" validate:"required,min=2"`
	Currency    string `json:"currency" validate:"required,min=3"`
	Name        string `json:"name" validate:"required,min=2"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
}

type SignUpResult struct {
	Identity   *domain.Identity
	Tenant     *domain.Tenant
	Credential domain.Credential
	// Bootstrapped is true when this signup created the first tenant.
	Bootstrapped bool
}

// SignUp creates an identity and decides, atomically, whether it bootstraps the first
// tenant as ADMINISTRATOR or joins the existing tenant as MEMBER.
type SignUp struct {
	registry ports.TenantRegistry
	hasher   ports.PasswordHasher
	sessions ports.SessionIssuer
	validate *validator.Validate
	backOff  func() backoff.BackOff
	now      func() time.Time
	log      zerolog.Logger
}

func NewSignUp(registry ports.TenantRegistry, hasher ports.PasswordHasher, sessions ports.SessionIssuer, log zerolog.Logger) *SignUp {
	return &SignUp{
		registry: registry,
		hasher:   hasher,
		sessions: sessions,
		validate: newValidator(),
		backOff:  conflictBackOff,
		now:      time.Now,
		log:      log.With().Str("component", "signup").Logger(),
	}
}

// conflictBackOff spaces the single retry after a transaction conflict.
func conflictBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxInterval = 250 * time.Millisecond
	return bo
}

func (uc *SignUp) Execute(ctx context.Context, input SignUpInput) (*SignUpResult, error) {
	input.CompanyName = strings.TrimSpace(input.CompanyName)
	input.Country = strings.TrimSpace(input.Country)
	input.Currency = strings.ToUpper(strings.TrimSpace(input.Currency))
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	if err := validate(uc.validate, &input); err != nil {
		return nil, err
	}

	existing, err := uc.registry.GetIdentityByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return nil, domerrors.ErrEmailTaken
	}

	hash, err := uc.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	attempt := 0
	result, err := backoff.Retry(ctx, func() (*SignUpResult, error) {
		attempt++
		res, err := uc.decide(ctx, input, hash)
		if errors.Is(err, domerrors.ErrTransactionConflict) {
			uc.log.Warn().Err(err).Int("attempt", attempt).Msg("bootstrap transaction conflict")
			return nil, err
		}
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return res, nil
	}, backoff.WithBackOff(uc.backOff()), backoff.WithMaxTries(2))
	if err != nil {
		if errors.Is(err, domerrors.ErrInconsistentState) {
			uc.log.Error().Err(err).Msg("tenant registry is inconsistent")
		}
		return nil, err
	}

	cred, err := uc.sessions.Issue(result.Identity.Principal())
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	result.Credential = cred
	return result, nil
}

// decide runs the bootstrap decision inside one registry transaction.
func (uc *SignUp) decide(ctx context.Context, input SignUpInput, passwordHash string) (*SignUpResult, error) {
	res := &SignUpResult{}
	err := uc.registry.RunInTx(ctx, func(tx ports.RegistryTx) error {
		now := uc.now()
		n, err := tx.CountTenants(ctx)
		if err != nil {
			return err
		}
		role := domain.RoleMember
		var tenant *domain.Tenant
		if n == 0 {
			tenant = &domain.Tenant{
				ID:        domain.NewTenantID(uuid.New()),
				Name:      input.CompanyName,
				Country:   input.Country,
				Currency:  input.Currency,
				CreatedAt: now,
			}
			if err := tx.CreateTenant(ctx, tenant); err != nil {
				return err
			}
			role = domain.RoleAdministrator
		} else {
			tenant, err = tx.FirstTenant(ctx)
			if err != nil {
				return err
			}
			if tenant == nil {
				return fmt.Errorf("tenant count %d: %w", n, domerrors.ErrInconsistentState)
			}
		}
		identity := &domain.Identity{
			ID:           domain.NewIdentityID(uuid.New()),
			TenantID:     tenant.ID,
			Name:         input.Name,
			Email:        input.Email,
			PasswordHash: passwordHash,
			Role:         role,
			CreatedAt:    now,
		}
		if err := tx.CreateIdentity(ctx, identity); err != nil {
			return err
		}
		res.Identity = identity
		res.Tenant = tenant
		res.Bootstrapped = role == domain.RoleAdministrator
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
