package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminRole is the role claim admin routes require.
const AdminRole = "admin"

type actorKey struct{}

// ActorFromContext returns the token subject stored by AdminAuth.Require
// or AdminAuth.RequireUser.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}

// AdminAuth guards admin routes with an HS256 bearer token carrying role=admin.
type AdminAuth struct {
	secret []byte
}

// NewAdminAuth returns a guard for secret. An empty secret lets every request through.
func NewAdminAuth(secret []byte) *AdminAuth {
	return &AdminAuth{secret: secret}
}

// Enabled reports whether tokens are checked.
func (a *AdminAuth) Enabled() bool { return len(a.secret) > 0 }

// Require wraps next with the admin token check.
func (a *AdminAuth) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, AdminRole)))
			return
		}
		actor, err := a.verify(r.Header.Get("Authorization"))
		if err != nil {
			a.deny(w, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
	}
}

// RequireUser wraps a per-user route. The token subject must match the
// {user} path value unless the token carries the admin role.
func (a *AdminAuth) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next(w, r)
			return
		}
		sub, role, err := a.parse(r.Header.Get("Authorization"))
		if err == nil && role != AdminRole && sub != strings.TrimSpace(r.PathValue("user")) {
			err = fmt.Errorf("%w: token is for another user", ErrForbidden)
		}
		if err != nil {
			a.deny(w, err)
			return
		}
		if sub == "" {
			sub = role
		}
		next(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, sub)))
	}
}

func (a *AdminAuth) deny(w http.ResponseWriter, err error) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="hangout"`)
	status := http.StatusUnauthorized
	code := "unauthorized"
	if errors.Is(err, ErrForbidden) {
		status, code = http.StatusForbidden, "forbidden"
	}
	writeError(w, status, code, err)
}

func (a *AdminAuth) verify(header string) (string, error) {
	sub, role, err := a.parse(header)
	if err != nil {
		return "", err
	}
	if role != AdminRole {
		return "", ErrForbidden
	}
	if sub == "" {
		sub = AdminRole
	}
	return sub, nil
}

func (a *AdminAuth) parse(header string) (sub, role string, err error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", "", ErrUnauthorized
	}
	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	role, _ = claims["role"].(string)
	sub, _ = claims.GetSubject()
	return sub, role, nil
}

// IssueToken signs an HS256 token for subject with the given role.
func IssueToken(secret []byte, subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
