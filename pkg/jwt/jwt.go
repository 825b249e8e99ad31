package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenNotYetValid = errors.New("token not yet valid")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidKey       = errors.New("invalid key")
)

// Roles carried in the role claim
const (
	RolePartnership = "partnership"
	RoleAdmin       = "admin"
)

// Claims represents JWT claims
type Claims struct {
	// Custom claims
	UserID        string `json:"user_id,omitempty"`
	PartnershipID string `json:"partnership_id,omitempty"`
	Role          string `json:"role,omitempty"` // partnership, admin

	jwtlib.RegisteredClaims
}

// IsAdmin returns true if the claims indicate admin role
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// Service handles JWT operations
type Service struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	expiration time.Duration
	now        func() time.Time
}

// Config holds JWT service configuration
type Config struct {
	PrivateKeyPath string
	PublicKeyPath  string
	Issuer         string
	ExpirationMins int
}

// NewService creates a new JWT service. With only a public key the service
// can validate but not sign.
func NewService(cfg Config) (*Service, error) {
	var privateKey *rsa.PrivateKey
	var publicKey *rsa.PublicKey
	var err error

	if cfg.PrivateKeyPath != "" {
		privateKey, err = loadPrivateKey(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load private key: %w", err)
		}
		publicKey = &privateKey.PublicKey
	}

	if cfg.PublicKeyPath != "" && publicKey == nil {
		publicKey, err = loadPublicKey(cfg.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load public key: %w", err)
		}
	}

	return &Service{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     cfg.Issuer,
		expiration: time.Duration(cfg.ExpirationMins) * time.Minute,
		now:        time.Now,
	}, nil
}

// NewTestService creates a JWT service with in-memory keys for testing
func NewTestService(privateKey *rsa.PrivateKey, issuer string, expiration time.Duration) *Service {
	return &Service{
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
		issuer:     issuer,
		expiration: expiration,
		now:        time.Now,
	}
}

// GenerateKeyPair generates a new RSA key pair and saves it to files
func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}

	privateKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})
	if err := os.WriteFile(privateKeyPath, privateKeyPEM, 0600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}

	publicKeyBytes, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to marshal public key: %w", err)
	}
	publicKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicKeyBytes,
	})
	if err := os.WriteFile(publicKeyPath, publicKeyPEM, 0644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}

	return nil
}

// Sign creates a signed RS256 token. Issuer, issued-at and not-before are
// always set; expiry defaults to the configured expiration.
func (s *Service) Sign(claims Claims) (string, error) {
	if s.privateKey == nil {
		return "", ErrInvalidKey
	}

	now := s.now()
	claims.Issuer = s.issuer
	claims.IssuedAt = jwtlib.NewNumericDate(now)
	claims.NotBefore = jwtlib.NewNumericDate(now)
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwtlib.NewNumericDate(now.Add(s.expiration))
	}

	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, &claims).SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign: %w", err)
	}
	return token, nil
}

// Validate verifies the signature, time window and issuer of a token and
// returns its claims
func (s *Service) Validate(tokenString string) (*Claims, error) {
	if s.publicKey == nil {
		return nil, ErrInvalidKey
	}

	parser := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodRS256.Alg()}),
		jwtlib.WithIssuer(s.issuer),
		jwtlib.WithTimeFunc(s.now),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenString, &claims, func(*jwtlib.Token) (interface{}, error) {
		return s.publicKey, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwtlib.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwtlib.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		case errors.Is(err, jwtlib.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidToken
		}
	}
	return &claims, nil
}

// GetExpiration returns the token expiration duration
func (s *Service) GetExpiration() time.Duration {
	return s.expiration
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return jwtlib.ParseRSAPrivateKeyFromPEM(data)
}

func loadPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return jwtlib.ParseRSAPublicKeyFromPEM(data)
}
