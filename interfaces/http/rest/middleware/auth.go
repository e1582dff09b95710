package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"graph-engine/pkg/auth"
	pkgerrors "graph-engine/pkg/errors"
)

// UserResolver identifies the caller of a request.
type UserResolver interface {
	CurrentUser(r *http.Request) (*auth.User, error)
}

// Authenticate rejects requests without a resolvable user with 401 and stores the user in the
// request context otherwise. Resolver errors are logged, never returned to the caller.
func Authenticate(resolver UserResolver, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolver.CurrentUser(r)
			if err != nil || user == nil || user.ID == "" {
				logger.Debug("Authentication failed",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				errorHandler.Handle(w, r, pkgerrors.NewUnauthorizedError("").WithCause(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.SetUserInContext(r.Context(), user)))
		})
	}
}
