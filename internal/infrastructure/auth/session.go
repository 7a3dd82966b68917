package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/expensa/internal/application/ports"
	"github.com/amirhosseinghanipour/expensa/internal/domain"
	domerrors "github.com/amirhosseinghanipour/expensa/internal/domain/errors"
)

// DefaultSessionTTL applies when SessionConfig.TTL is zero.
const DefaultSessionTTL = 15 * time.Minute

// SessionConfig is the immutable configuration of a SessionSigner.
type SessionConfig struct {
	Key    SigningKey
	TTL    time.Duration
	Issuer string
	// Now overrides the clock (tests).
	Now func() time.Time
}

// SessionSigner implements ports.SessionIssuer and ports.SessionVerifier with HS256.
type SessionSigner struct {
	key    []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	log    zerolog.Logger
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Role     string `json:"role"`
	TenantID string `json:"tenant_id"`
}

// NewSessionSigner returns an error when the key was never initialised.
func NewSessionSigner(cfg SessionConfig, log zerolog.Logger) (*SessionSigner, error) {
	if len(cfg.Key.b) < MinSigningKeyLength {
		return nil, errors.New("session signer requires a signing key")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &SessionSigner{
		key:    cfg.Key.b,
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    cfg.Now,
		log:    log.With().Str("component", "session").Logger(),
	}, nil
}

// TTL is the lifetime of issued credentials.
func (s *SessionSigner) TTL() time.Duration { return s.ttl }

func (s *SessionSigner) Issue(p domain.Principal) (domain.Credential, error) {
	if !p.Role.Valid() {
		return domain.Credential{}, fmt.Errorf("issue session: invalid role %s", p.Role)
	}
	now := s.now()
	exp := now.Add(s.ttl)
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   p.IdentityID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role:     p.Role.String(),
		TenantID: p.TenantID.String(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("sign session: %w", err)
	}
	return domain.Credential{
		Token:     token,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Verify checks algorithm, signature (constant-time HMAC compare) and expiry. A
// credential is rejected at or after its expiry instant. The reason is logged, never returned.
func (s *SessionSigner) Verify(token string) (domain.Principal, error) {
	p, err := s.parse(token)
	if err != nil {
		s.log.Debug().Err(err).Msg("session rejected")
		return domain.Principal{}, domerrors.ErrTokenInvalid
	}
	return p, nil
}

func (s *SessionSigner) parse(token string) (domain.Principal, error) {
	if token == "" {
		return domain.Principal{}, errors.New("empty token")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	}, opts...)
	if err != nil {
		return domain.Principal{}, err
	}
	if !parsed.Valid {
		return domain.Principal{}, errors.New("token not valid")
	}
	if !s.now().Before(claims.ExpiresAt.Time) {
		return domain.Principal{}, jwt.ErrTokenExpired
	}
	identityID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("subject: %w", err)
	}
	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("tenant_id: %w", err)
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Principal{}, err
	}
	return domain.Principal{
		IdentityID: domain.NewIdentityID(identityID),
		Role:       role,
		TenantID:   domain.NewTenantID(tenantID),
	}, nil
}

var (
	_ ports.SessionIssuer   = (*SessionSigner)(nil)
	_ ports.SessionVerifier = (*SessionSigner)(nil)
)
