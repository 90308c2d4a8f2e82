package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"clinic-booking/internal/data/entity"
	"clinic-booking/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Claims is the session token issued by the identity provider.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

var ErrInvalidToken = errors.New("invalid token")

// SignToken mints an HS256 token for p. Production tokens come from the
// identity provider; this serves the token command and tests.
func SignToken(cfg utils.JWTConfig, p entity.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID.String(),
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: string(p.Role),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
}

// ParseToken verifies signature, expiry and issuer and returns the caller.
func ParseToken(cfg utils.JWTConfig, tokenStr string) (entity.Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return entity.Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return entity.Principal{}, fmt.Errorf("%w: subject %q", ErrInvalidToken, claims.Subject)
	}
	p := entity.Principal{ID: id, Role: entity.Role(claims.Role)}
	if !p.Valid() {
		return entity.Principal{}, fmt.Errorf("%w: role %q", ErrInvalidToken, claims.Role)
	}
	return p, nil
}

// Auth verifies the bearer token and stores the principal on the context.
func Auth(cfg utils.JWTConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}
			token := strings.TrimSpace(parts[1])

			principal, err := ParseToken(cfg, token)
			if err != nil {
				logger.Warn("Rejected token",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := utils.SetPrincipalContext(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers whose role is not listed. Must run after Auth.
func RequireRole(logger *zap.Logger, roles ...entity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := utils.GetPrincipalFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			for _, role := range roles {
				if principal.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Warn("Role check failed",
				zap.String("caller_id", principal.ID.String()),
				zap.String("role", string(principal.Role)),
				zap.String("path", r.URL.Path))
			utils.ResponseForbidden(w, "Insufficient role for this resource")
		})
	}
}
