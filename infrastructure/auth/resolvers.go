package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/supabase-community/supabase-go"

	"graph-engine/pkg/auth"
)

// ErrNoCredentials is returned when a request carries nothing to authenticate with.
var ErrNoCredentials = errors.New("no credentials")

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoCredentials
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", auth.ErrInvalidToken
	}
	return strings.TrimSpace(token), nil
}

// JWTResolver authenticates requests with locally verified JWTs.
type JWTResolver struct {
	validator *auth.JWTValidator
}

// NewJWTResolver creates a resolver for tokens verified with config (HS256 secret or RS256 key).
func NewJWTResolver(config auth.JWTConfig) (*JWTResolver, error) {
	validator, err := auth.NewJWTValidator(config)
	if err != nil {
		return nil, err
	}
	return &JWTResolver{validator: validator}, nil
}

// CurrentUser implements the HTTP layer's user resolver
func (j *JWTResolver) CurrentUser(r *http.Request) (*auth.User, error) {
	token, err := bearerToken(r)
	if err != nil {
		return nil, err
	}

	claims, err := j.validator.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	return &auth.User{ID: claims.UserID, Email: claims.Email, Roles: claims.Roles}, nil
}

// TokenVerifier asks an identity provider who owns token.
type TokenVerifier func(token string) (*auth.User, error)

// SupabaseResolver authenticates requests with Supabase access tokens.
type SupabaseResolver struct {
	verify TokenVerifier
}

// NewSupabaseResolver creates a resolver backed by the Supabase auth API of the project at url.
func NewSupabaseResolver(url, key string) (*SupabaseResolver, error) {
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}

	return NewSupabaseResolverWithVerifier(func(token string) (*auth.User, error) {
		resp, err := client.Auth.WithToken(token).GetUser()
		if err != nil {
			return nil, err
		}
		return &auth.User{ID: resp.ID.String(), Email: resp.Email, Roles: []string{resp.Role}}, nil
	}), nil
}

// NewSupabaseResolverWithVerifier creates a resolver around an arbitrary verifier.
func NewSupabaseResolverWithVerifier(verify TokenVerifier) *SupabaseResolver {
	return &SupabaseResolver{verify: verify}
}

// CurrentUser implements the HTTP layer's user resolver
func (s *SupabaseResolver) CurrentUser(r *http.Request) (*auth.User, error) {
	token, err := bearerToken(r)
	if err != nil {
		return nil, err
	}

	user, err := s.verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}
	if user == nil || user.ID == "" {
		return nil, auth.ErrInvalidClaims
	}
	return user, nil
}

// GatewayResolver trusts the identity API Gateway attached to the proxied event.
// It only works behind the Lambda adapter, which stores the request context.
type GatewayResolver struct{}

// NewGatewayResolver creates a gateway resolver
func NewGatewayResolver() *GatewayResolver {
	return &GatewayResolver{}
}

// CurrentUser implements the HTTP layer's user resolver
func (GatewayResolver) CurrentUser(r *http.Request) (*auth.User, error) {
	proxyCtx, ok := core.GetAPIGatewayV2ContextFromContext(r.Context())
	if !ok || proxyCtx.Authorizer == nil {
		return nil, ErrNoCredentials
	}

	if jwt := proxyCtx.Authorizer.JWT; jwt != nil {
		if sub := jwt.Claims["sub"]; sub != "" {
			return &auth.User{ID: sub, Email: jwt.Claims["email"]}, nil
		}
	}

	if sub, ok := proxyCtx.Authorizer.Lambda["sub"].(string); ok && sub != "" {
		email, _ := proxyCtx.Authorizer.Lambda["email"].(string)
		return &auth.User{ID: sub, Email: email}, nil
	}

	return nil, auth.ErrInvalidClaims
}
