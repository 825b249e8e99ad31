package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/forgo/accord/internal/model"
	"github.com/forgo/accord/pkg/jwt"
)

// TokenValidator validates bearer tokens. *jwt.Service satisfies it.
type TokenValidator interface {
	Validate(token string) (*jwt.Claims, error)
}

// Auth returns a middleware that validates JWT tokens and puts the acting
// partnership, user and claims in the request context
func Auth(validator TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, problem := bearerToken(r)
			if problem != nil {
				problem.WriteJSON(w)
				return
			}

			claims, err := validator.Validate(token)
			if err != nil {
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					model.NewUnauthorizedError("token expired").WriteJSON(w)
				case errors.Is(err, jwt.ErrInvalidSignature):
					model.NewUnauthorizedError("invalid token signature").WriteJSON(w)
				default:
					model.NewUnauthorizedError("invalid token").WriteJSON(w)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// RequirePartnership rejects authenticated requests whose token does not
// name a partnership
func RequirePartnership(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetPartnershipID(r.Context()) == "" {
			model.NewForbiddenError("token does not act for a partnership").WriteJSON(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminOnly rejects requests whose token lacks the admin role. It must run
// after Auth.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r.Context())
		if claims == nil {
			model.NewUnauthorizedError("authentication required").WriteJSON(w)
			return
		}
		if !claims.IsAdmin() {
			model.NewForbiddenError("admin role required").WriteJSON(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, *model.ProblemDetails) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", model.NewUnauthorizedError("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", model.NewUnauthorizedError("invalid authorization header format")
	}
	return strings.TrimSpace(parts[1]), nil
}

func withClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, PartnershipIDKey, claims.PartnershipID)
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetUserID extracts the user ID from context
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// GetPartnershipID extracts the acting partnership from context
func GetPartnershipID(ctx context.Context) string {
	if id, ok := ctx.Value(PartnershipIDKey).(string); ok {
		return id
	}
	return ""
}

// GetClaims extracts the JWT claims from context
func GetClaims(ctx context.Context) *jwt.Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*jwt.Claims); ok {
		return claims
	}
	return nil
}
