// FilePath: internal/deviceauth/deviceauth.go

// Package deviceauth mints and verifies the signed credentials devices use to
// submit readings. Credentials are symmetric-key (HMAC-SHA256) JWTs binding a
// public device identifier to an owner; they are never persisted, so a lost
// token means re-provisioning and revocation means rotating the secret.
package deviceauth

import (
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/terrasense/hub/internal/errors"
)

const DefaultTokenTTL = 10 * 365 * 24 * time.Hour

// Claims is the device credential claim set: the registered claims plus the
// public device identifier the token is bound to. Subject carries the owner id.
type Claims struct {
	jwt.RegisteredClaims
	DeviceID string `json:"device_id"`
}

// Signer issues and verifies device credentials against a shared secret.
type Signer struct {
	secret   []byte
	issuer   string
	tokenTTL time.Duration
}

func NewSigner(secret, issuer string, tokenTTL time.Duration) *Signer {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &Signer{
		secret:   []byte(secret),
		issuer:   issuer,
		tokenTTL: tokenTTL,
	}
}

// Mint creates a signed credential binding deviceID to ownerID. The returned
// string is the only copy; it is handed to the caller exactly once.
func (s *Signer) Mint(deviceID, ownerID string) (string, error) {
	if deviceID == "" || ownerID == "" {
		return "", errors.NewInternalError("device id and owner id are required to mint a credential", nil)
	}

	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   ownerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		DeviceID: deviceID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.NewInternalError("failed to sign device credential", err)
	}
	return signed, nil
}

// Verify checks the signature, expiry and issuer of a credential and returns
// its claims. Any failure is an authentication error; the identifier-match
// check against the claimed device id is the caller's concern and maps to
// authorization instead.
func (s *Signer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, stderrors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, errors.NewAuthError("invalid device credential", err)
	}

	if claims.DeviceID == "" {
		return nil, errors.NewAuthError("device credential carries no device id", nil)
	}
	return claims, nil
}
