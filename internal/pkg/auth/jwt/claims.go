/*
Package jwt issues and verifies the HMAC-signed access and refresh tokens used by the
HTTP API and by the realtime gateway handshake.
*/
package jwt

import "github.com/golang-jwt/jwt"

// Token kinds. Access and refresh tokens are signed with different secrets and a token of
// one kind is never accepted where the other is expected.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Payload is the claim set carried by every chatlink token.
type Payload struct {
	// StandardClaims carries exp, iat, iss and, for refresh tokens, the jti used for revocation.
	jwt.StandardClaims

	// ID is the numeric user id.
	ID int64 `json:"id"`

	Username string `json:"username"`

	Role string `json:"role"`

	// Kind is KindAccess or KindRefresh.
	Kind string `json:"kind"`
}
