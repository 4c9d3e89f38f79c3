package jwt_test

import (
	"testing"

	jwtutil "booklend/util/jwt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func parse(token, secret string) (*jwt.Token, error) {
	return jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
}

func TestIssue(t *testing.T) {
	token, err := jwtutil.Issue("s3cret", 42, "member", 1)
	require.NoError(t, err)

	parsed, err := parse(token, "s3cret")
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	mc, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	require.EqualValues(t, 42, mc["sub"])
	require.Equal(t, "member", mc["role"])

	_, err = parse(token, "wrong-secret")
	require.Error(t, err)

	expired, err := jwtutil.Issue("s3cret", 42, "member", -1)
	require.NoError(t, err)
	_, err = parse(expired, "s3cret")
	require.Error(t, err)
}
