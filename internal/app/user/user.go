/*
Package user holds the identity values passed between the auth layer, the realtime
gateway and clients.
*/
package user

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the public profile of an account as sent over the wire.
type User struct {
	ID int64 `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Username is the unique handle used to sign in and to search for people.
	Username string `json:"username"`

	Avatar string `json:"avatar,omitempty"`
}

// Identity is what a verified access token asserts about its bearer.
// It is immutable for the lifetime of a connection.
type Identity struct {
	ID       int64
	Username string
	Role     string
}

// DisplayName returns the best label available for the identity.
func (i Identity) DisplayName() string {
	if i.Username != "" {
		return i.Username
	}
	return "user"
}
