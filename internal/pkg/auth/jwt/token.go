package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"

	"chatlink/internal/app/user"
)

const (
	// AccessExpiration is the lifetime of access tokens.
	AccessExpiration = 24 * time.Hour

	// RefreshExpiration is the lifetime of refresh tokens.
	RefreshExpiration = 48 * time.Hour

	// TokenIssuer identifies tokens minted by this server.
	TokenIssuer = "chatlink"
)

var (
	ErrTokenMissing  = errors.New("token missing")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenInvalid  = errors.New("token invalid")
	ErrTokenWrongUse = errors.New("token kind not accepted here")
)

// GenerateToken signs payload with HS256. Expiry, issue time and issuer are overwritten;
// a jti already present on the payload is preserved.
func GenerateToken(payload *Payload, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	payload.StandardClaims = jwt.StandardClaims{
		Id:        payload.StandardClaims.Id,
		Subject:   payload.StandardClaims.Subject,
		ExpiresAt: now.Add(duration).Unix(),
		IssuedAt:  now.Unix(),
		Issuer:    TokenIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)

	return token.SignedString([]byte(secretKey))
}

// ParseToken verifies the signature and time claims of tokenString.
// Expired tokens yield ErrTokenExpired, anything else unacceptable yields ErrTokenInvalid.
func ParseToken(tokenString string, secretKey string) (*Payload, error) {
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if !token.Valid || claims.Issuer != TokenIssuer || claims.ID <= 0 {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// Identity converts the payload into the identity value used by the gateway.
func (p *Payload) Identity() user.Identity {
	return user.Identity{
		ID:       p.ID,
		Username: p.Username,
		Role:     p.Role,
	}
}

// Verifier validates access tokens presented on realtime connections.
type Verifier struct {
	secret string
}

// NewVerifier returns a Verifier for tokens signed with secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// VerifyToken returns the identity asserted by an access token.
func (v *Verifier) VerifyToken(token string) (user.Identity, error) {
	payload, err := ParseToken(token, v.secret)
	if err != nil {
		return user.Identity{}, err
	}

	if payload.Kind != KindAccess {
		return user.Identity{}, ErrTokenWrongUse
	}

	return payload.Identity(), nil
}
