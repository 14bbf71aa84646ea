package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"voice-gateway/internal/apperr"
	"voice-gateway/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// SigningConfig is the key material an Issuer signs with. It is opaque to
// this package beyond presence checks.
type SigningConfig struct {
	AccountSID   string
	APIKeySID    string
	APIKeySecret string

	// OutgoingApplicationSID is the application placed calls are routed through.
	OutgoingApplicationSID string

	TTL time.Duration
}

func SigningConfigFrom(tw config.TwilioConfig, ttl time.Duration) SigningConfig {
	return SigningConfig{
		AccountSID:             tw.AccountSID,
		APIKeySID:              tw.APIKeySID,
		APIKeySecret:           tw.APIKeySecret,
		OutgoingApplicationSID: tw.TwiMLAppSID,
		TTL:                    ttl,
	}
}

// Issuer mints voice access tokens for browser clients.
//
// Every credential carries one voice grant that can both place and receive
// calls. Nothing is stored; validity is the token's own signature and expiry.
type Issuer struct {
	cfg    SigningConfig
	method jwt.SigningMethod
}

// NewIssuer never fails: missing key material surfaces on Issue so the
// process can start without provider credentials.
func NewIssuer(cfg SigningConfig) *Issuer {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &Issuer{cfg: cfg, method: jwt.SigningMethodHS256}
}

// Credential is a signed access token bound to one identity.
type Credential struct {
	Token     string
	Identity  string
	Grant     VoiceGrant
	ExpiresAt time.Time
}

/* ===================== ISSUE ===================== */

func (i *Issuer) Issue(now time.Time, identity string) (Credential, error) {
	if identity == "" {
		return Credential{}, apperr.Validation("identity required")
	}
	if err := i.cfg.validate(); err != nil {
		return Credential{}, apperr.Signing(err)
	}

	grant := VoiceGrant{
		Incoming: &IncomingGrant{Allow: true},
		Outgoing: &OutgoingGrant{ApplicationSID: i.cfg.OutgoingApplicationSID},
	}
	exp := now.Add(i.cfg.TTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        i.cfg.APIKeySID + "-" + strconv.FormatInt(now.Unix(), 10),
			Issuer:    i.cfg.APIKeySID,
			Subject:   i.cfg.AccountSID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Grants: Grants{Identity: identity, Voice: &grant},
	}

	t := jwt.NewWithClaims(i.method, claims)
	t.Header["cty"] = contentType

	signed, err := t.SignedString([]byte(i.cfg.APIKeySecret))
	if err != nil {
		return Credential{}, apperr.Signing(err)
	}

	return Credential{Token: signed, Identity: identity, Grant: grant, ExpiresAt: exp}, nil
}

/* ===================== VERIFY ===================== */

// Verify checks a token minted by this issuer and returns its claims. The
// gateway itself never needs this at runtime; the provider validates tokens.
func (i *Issuer) Verify(tokenString string, now time.Time) (Claims, error) {
	if err := i.cfg.validate(); err != nil {
		return Claims{}, apperr.Signing(err)
	}

	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30*time.Second), // clock skew tolerance
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(i.cfg.APIKeySID),
		jwt.WithSubject(i.cfg.AccountSID),
	)

	tok, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return []byte(i.cfg.APIKeySecret), nil
	})
	if err != nil {
		return Claims{}, err
	}
	if cty, _ := tok.Header["cty"].(string); cty != contentType {
		return Claims{}, errors.New("unexpected token content type")
	}
	if claims.Grants.Identity == "" {
		return Claims{}, errors.New("identity missing")
	}
	if claims.Grants.Voice == nil {
		return Claims{}, errors.New("voice grant missing")
	}
	return claims, nil
}

func (c SigningConfig) validate() error {
	var missing []string
	if c.AccountSID == "" {
		missing = append(missing, "account sid")
	}
	if c.APIKeySID == "" {
		missing = append(missing, "api key sid")
	}
	if c.APIKeySecret == "" {
		missing = append(missing, "api key secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("signing config missing: %s", strings.Join(missing, ", "))
	}
	return nil
}
