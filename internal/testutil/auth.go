package testutil

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Defaults applied by NewTestServer when the environment does not
// provide auth settings.
const (
	TestJWTSecret     = "testutil-jwt-secret"
	TestInternalToken = "testutil-internal-token"
)

// SignTestToken issues an HS256 access token for the given user,
// matching the claims the auth middleware expects.
func SignTestToken(secret string, userID uuid.UUID, email string, ttl time.Duration) string {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID.String(),
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		panic(fmt.Sprintf("testutil: sign token: %v", err))
	}
	return signed
}

// AuthHeader formats a token as a bearer Authorization header value.
func AuthHeader(token string) string {
	return "Bearer " + token
}
