// Package signature issues and validates the access tokens embedded in
// signing links. A token is scoped to one procedure and one signer; the
// 7-day lifetime matches the procedure's own expiry.
package signature

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenLifetime is how long a signing link stays valid.
const TokenLifetime = 7 * 24 * time.Hour

// Claims carried by a signature access token.
type Claims struct {
	jwt.RegisteredClaims
	ProspectID  string `json:"prospect_id"`
	SignerEmail string `json:"signer_email"`
}

// TokenManager signs and validates procedure access tokens with a tenant
// secret (HS256).
type TokenManager struct {
	secret []byte
	clock  func() time.Time
}

// NewTokenManager creates a TokenManager. The secret must be non-empty.
func NewTokenManager(secret []byte) (*TokenManager, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("signature: secret de signature manquant")
	}
	return &TokenManager{secret: secret, clock: time.Now}, nil
}

// WithClock overrides the clock for testing.
func (tm *TokenManager) WithClock(clock func() time.Time) *TokenManager {
	tm.clock = clock
	return tm
}

// Issue creates a signed access token for one procedure and signer.
func (tm *TokenManager) Issue(procedureID, prospectID, signerEmail string) (string, error) {
	now := tm.clock().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   procedureID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
			Issuer:    "veltia/signature",
			Audience:  jwt.ClaimStrings{"veltia.signing"},
		},
		ProspectID:  prospectID,
		SignerEmail: signerEmail,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Validate parses a token and checks it belongs to the given procedure.
func (tm *TokenManager) Validate(tokenString, procedureID string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("méthode de signature inattendue: %v", t.Header["alg"])
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.clock))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	if claims.Subject != procedureID {
		return nil, fmt.Errorf("jeton émis pour une autre procédure")
	}
	return claims, nil
}
