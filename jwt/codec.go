package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token type claim values.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Algorithm selects the signing scheme.
type Algorithm string

const (
	// AlgHS256 signs with a symmetric secret.
	AlgHS256 Algorithm = "hs256"
	// AlgEd25519 signs with an Ed25519 key pair.
	AlgEd25519 Algorithm = "ed25519"
)

var (
	// ErrInvalidToken covers malformed structure, bad signatures, and any
	// claim violation other than expiry.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpired means the signature verified but exp is in the past.
	ErrExpired = errors.New("token expired")
)

// Config is the immutable key/claim configuration for a [Codec].
//
// VerifyKeys is an ordered list of trusted verification keys, newest
// first. When empty, verification uses the signing key (HS256) or
// PublicKey (Ed25519). The signing key is always the newest key; older
// entries exist only so tokens issued before a rotation keep verifying.
type Config struct {
	Algorithm  Algorithm
	SigningKey []byte
	PublicKey  []byte
	VerifyKeys [][]byte
	Issuer     string
	Leeway     time.Duration
}

// Claims is the full claim set carried by engine tokens. Domain claims
// are omitted when empty, so refresh tokens stay compact.
type Claims struct {
	Type        string   `json:"type"`
	Role        string   `json:"role,omitempty"`
	RoleID      string   `json:"role_id,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	Rotation    string   `json:"rotation,omitempty"`
	DeviceID    string   `json:"device_id,omitempty"`
	jwt.RegisteredClaims
}

// Extra carries the optional domain claims for [Codec.Issue].
type Extra struct {
	Role        string
	RoleID      string
	Permissions []string
	Rotation    string
	DeviceID    string
}

// Codec issues and verifies tokens. Safe for concurrent use.
type Codec struct {
	config     Config
	signKey    any
	verifyKeys []any
}

// NewCodec validates the configuration, parses all key material once, and
// returns an immutable codec.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	c := &Codec{config: cfg}

	switch cfg.Algorithm {
	case AlgHS256:
		if len(cfg.SigningKey) == 0 {
			return nil, errors.New("hs256 requires a signing key")
		}
		c.signKey = cfg.SigningKey
		for i, key := range cfg.VerifyKeys {
			if len(key) == 0 {
				return nil, fmt.Errorf("verify key %d is empty", i)
			}
			c.verifyKeys = append(c.verifyKeys, key)
		}
		if len(c.verifyKeys) == 0 {
			c.verifyKeys = []any{cfg.SigningKey}
		}
	case AlgEd25519:
		priv, err := parseEdPrivateKey(cfg.SigningKey)
		if err != nil {
			return nil, err
		}
		c.signKey = priv
		for i, key := range cfg.VerifyKeys {
			pub, err := parseEdPublicKey(key)
			if err != nil {
				return nil, fmt.Errorf("verify key %d: %w", i, err)
			}
			c.verifyKeys = append(c.verifyKeys, pub)
		}
		if len(c.verifyKeys) == 0 {
			if len(cfg.PublicKey) == 0 {
				return nil, errors.New("ed25519 requires a public key or verify key list")
			}
			pub, err := parseEdPublicKey(cfg.PublicKey)
			if err != nil {
				return nil, err
			}
			c.verifyKeys = []any{pub}
		}
	default:
		return nil, errors.New("unsupported signing algorithm")
	}

	return c, nil
}

// Issue mints a signed token for subject with the given lifetime and type
// claim. A unique jti is generated per call. The returned claims are
// exactly what was signed.
func (c *Codec) Issue(subject string, ttl time.Duration, tokenType string, extra Extra) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		Type:        tokenType,
		Role:        extra.Role,
		RoleID:      extra.RoleID,
		Permissions: extra.Permissions,
		Rotation:    extra.Rotation,
		DeviceID:    extra.DeviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
			Issuer:    c.config.Issuer,
		},
	}

	signed, err := jwt.NewWithClaims(c.method(), claims).SignedString(c.signKey)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Decode verifies signature and expiry and returns the claims. Each
// trusted verification key is tried in order; a verified-but-expired
// token fails with [ErrExpired], everything else with [ErrInvalidToken].
// No partial claims are ever returned on failure.
func (c *Codec) Decode(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method().Alg()}),
		jwt.WithExpirationRequired(),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}
	parser := jwt.NewParser(options...)

	for _, key := range c.verifyKeys {
		verifyKey := key
		token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
			return verifyKey, nil
		})
		switch {
		case err == nil:
			claims, ok := token.Claims.(*Claims)
			if !ok || !token.Valid {
				return nil, ErrInvalidToken
			}
			return claims, nil
		case errors.Is(err, jwt.ErrTokenExpired):
			// Signature checked out for this key; the token is genuinely
			// stale rather than forged.
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			continue // try the next trusted key
		default:
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	return nil, ErrInvalidToken
}

func (c *Codec) method() jwt.SigningMethod {
	if c.config.Algorithm == AlgEd25519 {
		return jwt.SigningMethodEdDSA
	}
	return jwt.SigningMethodHS256
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	priv, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return priv, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	pub, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return pub, nil
}
