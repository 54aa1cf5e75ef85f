package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AnonymousActor is the identity attached to requests without a usable
// bearer token. Identity extraction exists for audit attribution only; the
// credential service owns authentication and authorization decisions.
const AnonymousActor = "anonymous"

// Actor is the authenticated identity extracted from a bearer token.
type Actor struct {
	Subject  string
	Username string
	Role     string
}

// Identity returns the actor's audit-facing identity string.
func (a Actor) Identity() string {
	if a.Username != "" {
		return a.Username
	}
	if a.Subject != "" {
		return a.Subject
	}
	return AnonymousActor
}

type actorKey struct{}

// IdentityClaims are the bearer-token claims conntrace reads.
type IdentityClaims struct {
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Identity extracts the actor from an Authorization: Bearer token when one
// is present and verifiable with the shared secret. Requests without a
// usable token proceed as anonymous; this middleware never rejects.
func Identity(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := Actor{}

			if raw := bearerToken(r); raw != "" && len(key) > 0 {
				claims := &IdentityClaims{}
				token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
					return key, nil
				}, jwt.WithValidMethods([]string{"HS256"}))
				if err == nil && token.Valid {
					actor = Actor{
						Subject:  claims.Subject,
						Username: claims.Username,
						Role:     claims.Role,
					}
				}
			}

			ctx := context.WithValue(r.Context(), actorKey{}, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetActor retrieves the actor from the context. Returns a zero Actor
// (anonymous identity) if none was attached.
func GetActor(ctx context.Context) Actor {
	if a, ok := ctx.Value(actorKey{}).(Actor); ok {
		return a
	}
	return Actor{}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
