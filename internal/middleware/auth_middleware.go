package middleware

import (
	"errors"
	"net/http"
	"strings"

	"notes-server/pkg/jwt"
	"notes-server/pkg/response"

	"github.com/rs/zerolog"
)

var (
	ErrMissingToken = errors.New("access token is required")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Identity is what the gate resolved from a verified token.
type Identity struct {
	UserID string
}

// AuthedHandlerFunc is a handler that only runs for authenticated requests.
type AuthedHandlerFunc func(w http.ResponseWriter, r *http.Request, identity Identity)

type TokenVerifier interface {
	Verify(token string) (*jwt.Claims, error)
}

type Gate struct {
	verifier TokenVerifier
}

func NewGate(verifier TokenVerifier) *Gate {
	return &Gate{verifier: verifier}
}

// Require wraps next so it only runs with a valid bearer token from the
// Authorization header. A missing token is answered with 401, a token that
// fails verification with 403.
func (g *Gate) Require(next AuthedHandlerFunc) http.HandlerFunc {
	return g.wrap(next, false)
}

// RequireWithQueryToken also accepts the token as a "token" query parameter,
// for clients such as browsers opening a WebSocket that cannot set headers.
func (g *Gate) RequireWithQueryToken(next AuthedHandlerFunc) http.HandlerFunc {
	return g.wrap(next, true)
}

func (g *Gate) wrap(next AuthedHandlerFunc, allowQuery bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		token := BearerToken(r)
		if token == "" && allowQuery {
			token = r.URL.Query().Get("token")
		}

		identity, err := g.Authenticate(token)
		switch {
		case errors.Is(err, ErrMissingToken):
			response.Unauthorized(w, "Access token is required")
			return
		case err != nil:
			response.Forbidden(w, "Invalid or expired token")
			return
		}

		setRequestUser(r.Context(), identity.UserID)
		ctx := zerolog.Ctx(r.Context()).With().
			Str("user_id", identity.UserID).
			Logger().
			WithContext(r.Context())
		next(w, r.WithContext(ctx), identity)
	}
}

// Authenticate verifies a raw token. Expired and malformed tokens both
// yield ErrInvalidToken.
func (g *Gate) Authenticate(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrMissingToken
	}

	claims, err := g.verifier.Verify(token)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	return Identity{UserID: claims.UserID}, nil
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header,
// or "" when the header is absent, uses another scheme, or carries no token.
func BearerToken(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if authHeader == "" {
		return ""
	}

	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}
