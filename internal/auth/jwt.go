package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims represents the claims in our JWT token
type JWTClaims struct {
	CitizenID string `json:"citizen_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator issues and validates citizen session tokens. The login
// flow behind it is simulated; the token only scopes a browser session.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an authenticator with the given signing secret
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// GenerateCitizenToken generates a JWT token for a citizen session
func (a *Authenticator) GenerateCitizenToken(citizenID string) (string, error) {
	claims := &JWTClaims{
		CitizenID: citizenID,
		Role:      "citizen",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ValidateToken validates a JWT token and returns the claims
func (a *Authenticator) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrInvalidKey
}
