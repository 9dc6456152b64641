// Package auth turns HS256 bearer tokens into editorial identities.
// Token issuance lives outside this module.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-editorial/internal/domain"
	"github.com/goliatone/go-editorial/internal/identity"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken indicates a missing, malformed, expired or unverifiable token.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrSecretRequired indicates the verifier was built without a signing secret.
	ErrSecretRequired = errors.New("auth: secret required")
)

// TextCodeUnauthenticated is surfaced to API clients for every token failure.
const TextCodeUnauthenticated = "UNAUTHENTICATED"

// Config controls token verification.
type Config struct {
	Secret []byte
	// Issuer and Audience are only enforced when set.
	Issuer   string
	Audience string
	// Leeway tolerates clock skew on exp and nbf.
	Leeway time.Duration
	Now    func() time.Time
}

// Claims is the token payload: the registered claims plus the editorial role.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Verifier validates bearer tokens.
type Verifier struct {
	cfg    Config
	parser *jwt.Parser
}

// NewVerifier builds a verifier for HS256 tokens.
func NewVerifier(cfg Config) (*Verifier, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrSecretRequired
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(cfg.Now),
	}
	if cfg.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(cfg.Leeway))
	}
	if issuer := strings.TrimSpace(cfg.Issuer); issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience := strings.TrimSpace(cfg.Audience); audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return &Verifier{cfg: cfg, parser: jwt.NewParser(opts...)}, nil
}

// Verify parses the raw token and returns the caller identity it carries.
func (v *Verifier) Verify(raw string) (identity.Context, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return identity.Context{}, invalidToken("token required", nil)
	}

	var claims Claims
	if _, err := v.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.cfg.Secret, nil
	}); err != nil {
		return identity.Context{}, invalidToken(describe(err), err)
	}

	subject, err := uuid.Parse(strings.TrimSpace(claims.Subject))
	if err != nil || subject == uuid.Nil {
		return identity.Context{}, invalidToken("token subject must be a uuid", err)
	}
	role, ok := domain.ParseRole(claims.Role)
	if !ok {
		return identity.Context{}, invalidToken("token role is not recognised", nil).
			WithMetadata(map[string]any{"role": claims.Role})
	}
	return identity.Context{SubjectID: subject, Role: role}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// MissingTokenError is returned to callers that send no credentials.
func MissingTokenError() error {
	return invalidToken("bearer token required", nil)
}

func invalidToken(message string, cause error) *goerrors.Error {
	err := goerrors.Wrap(ErrInvalidToken, goerrors.CategoryAuth, message).
		WithTextCode(TextCodeUnauthenticated)
	if cause != nil {
		err = err.WithMetadata(map[string]any{"cause": cause.Error()})
	}
	return err
}

func describe(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return "token not valid yet"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return "token signature invalid"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return "token issuer mismatch"
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return "token audience mismatch"
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return "token missing required claim"
	default:
		return "token malformed"
	}
}
