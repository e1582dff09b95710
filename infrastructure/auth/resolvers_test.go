package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graph-engine/pkg/auth"
)

const testSecret = "resolver-test-secret"

func requestWithAuth(header string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/v2/graph/traversal", nil)
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	return r
}

func TestJWTResolver(t *testing.T) {
	resolver, err := NewJWTResolver(auth.JWTConfig{
		SecretKey: testSecret,
		Issuer:    "graph-engine",
		Audience:  []string{"graph-api"},
	})
	require.NoError(t, err)

	gen, err := auth.NewJWTGenerator(auth.JWTGeneratorConfig{
		SecretKey: testSecret,
		Issuer:    "graph-engine",
		Audience:  []string{"graph-api"},
	})
	require.NoError(t, err)
	token, err := gen.GenerateToken("user-42", "u42@example.com", []string{"analyst"})
	require.NoError(t, err)

	other, err := auth.NewJWTGenerator(auth.JWTGeneratorConfig{SecretKey: "another-secret", Issuer: "graph-engine", Audience: []string{"graph-api"}})
	require.NoError(t, err)
	forged, err := other.GenerateToken("user-42", "", nil)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		user, err := resolver.CurrentUser(requestWithAuth("Bearer " + token))
		require.NoError(t, err)
		assert.Equal(t, "user-42", user.ID)
		assert.Equal(t, "u42@example.com", user.Email)
		assert.Equal(t, []string{"analyst"}, user.Roles)
	})

	t.Run("lowercase scheme", func(t *testing.T) {
		user, err := resolver.CurrentUser(requestWithAuth("bearer " + token))
		require.NoError(t, err)
		assert.Equal(t, "user-42", user.ID)
	})

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "empty token", header: "Bearer "},
		{name: "garbage token", header: "Bearer not.a.jwt"},
		{name: "wrong signature", header: "Bearer " + forged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := resolver.CurrentUser(requestWithAuth(tt.header))
			assert.Error(t, err)
			assert.Nil(t, user)
		})
	}
}

func TestNewJWTResolver_RequiresSecret(t *testing.T) {
	_, err := NewJWTResolver(auth.JWTConfig{Issuer: "graph-engine"})
	assert.Error(t, err)
}

func TestSupabaseResolver(t *testing.T) {
	resolver := NewSupabaseResolverWithVerifier(func(token string) (*auth.User, error) {
		switch token {
		case "good":
			return &auth.User{ID: "sb-user", Email: "sb@example.com"}, nil
		case "anonymous":
			return &auth.User{}, nil
		default:
			return nil, errors.New("invalid JWT")
		}
	})

	user, err := resolver.CurrentUser(requestWithAuth("Bearer good"))
	require.NoError(t, err)
	assert.Equal(t, "sb-user", user.ID)

	_, err = resolver.CurrentUser(requestWithAuth("Bearer bad"))
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = resolver.CurrentUser(requestWithAuth("Bearer anonymous"))
	assert.ErrorIs(t, err, auth.ErrInvalidClaims)

	_, err = resolver.CurrentUser(requestWithAuth(""))
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func proxiedRequest(t *testing.T, authorizer *events.APIGatewayV2HTTPRequestContextAuthorizerDescription) *http.Request {
	t.Helper()
	accessor := core.RequestAccessorV2{}
	r, err := accessor.EventToRequestWithContext(context.Background(), events.APIGatewayV2HTTPRequest{
		RawPath: "/functions/graphTraversal",
		Body:    "{}",
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			Authorizer: authorizer,
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method: http.MethodPost,
				Path:   "/functions/graphTraversal",
			},
		},
	})
	require.NoError(t, err)
	return r
}

func TestGatewayResolver(t *testing.T) {
	resolver := NewGatewayResolver()

	t.Run("jwt authorizer", func(t *testing.T) {
		r := proxiedRequest(t, &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{
			JWT: &events.APIGatewayV2HTTPRequestContextAuthorizerJWTDescription{
				Claims: map[string]string{"sub": "gw-user", "email": "gw@example.com"},
			},
		})
		user, err := resolver.CurrentUser(r)
		require.NoError(t, err)
		assert.Equal(t, "gw-user", user.ID)
		assert.Equal(t, "gw@example.com", user.Email)
	})

	t.Run("lambda authorizer", func(t *testing.T) {
		r := proxiedRequest(t, &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{
			Lambda: map[string]interface{}{"sub": "lambda-user"},
		})
		user, err := resolver.CurrentUser(r)
		require.NoError(t, err)
		assert.Equal(t, "lambda-user", user.ID)
	})

	t.Run("authorizer without subject", func(t *testing.T) {
		r := proxiedRequest(t, &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{
			Lambda: map[string]interface{}{"scope": "read"},
		})
		_, err := resolver.CurrentUser(r)
		assert.ErrorIs(t, err, auth.ErrInvalidClaims)
	})

	t.Run("not proxied", func(t *testing.T) {
		_, err := resolver.CurrentUser(requestWithAuth("Bearer whatever"))
		assert.ErrorIs(t, err, ErrNoCredentials)
	})
}
