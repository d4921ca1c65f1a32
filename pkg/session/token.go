package session

import (
	"errors"
	"time"

	"chamber122/pkg/config"
	"chamber122/pkg/security"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken = errors.New("session: invalid token")
	ErrRevoked      = errors.New("session: token revoked")
)

type customClaims struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

type TokenIssuer struct {
	key    []byte
	issuer string
	ttl    time.Duration
	signer jose.Signer
	now    func() time.Time
}

// NewTokenIssuer signs HS256 tokens with SESSION.SECRET. When no secret is
// configured a random one is generated, which logs every session out on
// restart.
func NewTokenIssuer(cfg *config.Config) (*TokenIssuer, error) {
	key := []byte(cfg.Session.Secret)
	if len(key) < 32 {
		if cfg.AppEnv == "production" {
			return nil, errors.New("session: SESSION.SECRET must be at least 32 bytes")
		}
		zap.L().Warn("SESSION.SECRET missing or short, using an ephemeral key")
		b, err := security.GenerateRandomBytes(32)
		if err != nil {
			return nil, err
		}
		key = b
	}

	ttl := cfg.Session.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}

	sig, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, err
	}

	return &TokenIssuer{
		key:    key,
		issuer: cfg.Session.Issuer,
		ttl:    ttl,
		signer: sig,
		now:    time.Now,
	}, nil
}

func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

// Issue returns a signed token for the user and the principal it encodes.
func (t *TokenIssuer) Issue(userID, email string, role Role) (string, *Principal, error) {
	now := t.now()
	p := &Principal{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(t.ttl),
	}

	claims := jwt.Claims{
		ID:        p.TokenID,
		Subject:   userID,
		Issuer:    t.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Expiry:    jwt.NewNumericDate(p.ExpiresAt),
	}

	raw, err := jwt.Signed(t.signer).Claims(claims).Claims(customClaims{Email: email, Role: role}).Serialize()
	if err != nil {
		return "", nil, err
	}
	return raw, p, nil
}

// Parse verifies signature, issuer and expiry and returns the principal.
func (t *TokenIssuer) Parse(raw string) (*Principal, error) {
	tok, err := jwt.ParseSigned(raw, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return nil, ErrInvalidToken
	}

	var claims jwt.Claims
	var custom customClaims
	if err := tok.Claims(t.key, &claims, &custom); err != nil {
		return nil, ErrInvalidToken
	}

	if err := claims.ValidateWithLeeway(jwt.Expected{Issuer: t.issuer, Time: t.now()}, time.Minute); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	p := &Principal{
		UserID:  claims.Subject,
		Email:   custom.Email,
		Role:    custom.Role,
		TokenID: claims.ID,
	}
	if claims.Expiry != nil {
		p.ExpiresAt = claims.Expiry.Time()
	}
	return p, nil
}
