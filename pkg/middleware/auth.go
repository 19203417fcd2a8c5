package middleware

import (
	"abclisting/pkg/logger"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	ViewerIDKey     contextKey = "viewer_id"
	ViewerClaimsKey contextKey = "viewer_claims"
)

var ErrMissingToken = errors.New("missing bearer token")

// ViewerClaims is the session token issued after sign-in. Subject is the
// user id.
type ViewerClaims struct {
	Name    string `json:"name,omitempty"`
	Avatar  string `json:"avatar,omitempty"`
	Contact string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs claims with HS256. cmd/token uses it for local sessions.
func IssueToken(secret string, claims ViewerClaims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseToken(secret string, raw string) (*ViewerClaims, error) {
	claims := &ViewerClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", jwt.ErrTokenInvalidClaims)
	}
	return claims, nil
}

// Authenticate rejects requests without a valid bearer token. Requests
// matching a public rule are served without one, though a valid token still
// identifies the viewer. A rule is a path, optionally prefixed by a method
// ("GET /api/v1/listings") and optionally ending in "*" for a prefix match.
func Authenticate(secret string, log *logger.Logger, public ...string) func(http.Handler) http.Handler {
	rules := make([]publicRule, 0, len(public))
	for _, p := range public {
		rules = append(rules, parsePublicRule(p))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			raw, err := bearerToken(r)
			if err == nil {
				var claims *ViewerClaims
				claims, err = ParseToken(secret, raw)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), claims)))
					return
				}
			}

			if isPublic(rules, r) {
				next.ServeHTTP(w, r)
				return
			}

			log.Warn("Authentication failed",
				"request_id", GetRequestID(r.Context()),
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"error", err,
			)
			w.Header().Set("WWW-Authenticate", `Bearer realm="abclisting"`)
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Viewer cannot be found")
		})
	}
}

type publicRule struct {
	method string
	path   string
	prefix bool
}

func parsePublicRule(rule string) publicRule {
	var pr publicRule
	if method, path, found := strings.Cut(rule, " "); found {
		pr.method = method
		rule = strings.TrimSpace(path)
	}
	pr.path, pr.prefix = strings.CutSuffix(rule, "*")
	return pr
}

func isPublic(rules []publicRule, r *http.Request) bool {
	for _, rule := range rules {
		if rule.method != "" && rule.method != r.Method {
			continue
		}
		if rule.prefix && strings.HasPrefix(r.URL.Path, rule.path) {
			return true
		}
		if !rule.prefix && r.URL.Path == rule.path {
			return true
		}
	}
	return false
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(raw) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(raw), nil
}

func WithViewer(ctx context.Context, claims *ViewerClaims) context.Context {
	ctx = context.WithValue(ctx, ViewerIDKey, claims.Subject)
	return context.WithValue(ctx, ViewerClaimsKey, claims)
}

// GetViewerID returns the authenticated user id, or "".
func GetViewerID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(ViewerIDKey).(string); ok {
		return id
	}
	return ""
}

func GetViewerClaims(ctx context.Context) (*ViewerClaims, bool) {
	if ctx == nil {
		return nil, false
	}
	claims, ok := ctx.Value(ViewerClaimsKey).(*ViewerClaims)
	return claims, ok
}
