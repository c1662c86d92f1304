package auth

import "github.com/golang-jwt/jwt/v5"

// CartSessionClaims is the token handed to storefront clients. The subject is
// the cart-session ID keying the persisted slot.
type CartSessionClaims struct {
	UserID string `json:"uid,omitempty"`
	jwt.RegisteredClaims
}

// SessionID returns the cart-session ID carried in the subject.
func (c *CartSessionClaims) SessionID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}
