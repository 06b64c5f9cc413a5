package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	adapter "github.com/gwatts/gin-adapter"
)

// JWKSCacheTTL is how long signing keys are cached before being refetched.
const JWKSCacheTTL = 5 * time.Minute

// Auth0 validates RS256 access tokens issued by the tenant at domain for audience.
func Auth0(domain, audience string, logger *slog.Logger) (gin.HandlerFunc, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid auth0 domain %q: %w", domain, err)
	}

	provider := jwks.NewCachingProvider(issuerURL, JWKSCacheTTL)
	v, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("setting up jwt validator: %w", err)
	}

	mw := jwtmiddleware.New(v.ValidateToken,
		jwtmiddleware.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.DebugContext(r.Context(), "rejected access token", slog.Any("error", err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(gin.H{"code": "UNAUTHORIZED", "message": "Authentication required"})
		}),
	)
	return adapter.Wrap(mw.CheckJWT), nil
}

// Subject extracts the user ID (sub claim) from the validated token, if any.
func Subject(c *gin.Context) (string, bool) {
	claims, ok := c.Request.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
	if !ok {
		return "", false
	}
	return claims.RegisteredClaims.Subject, true
}
