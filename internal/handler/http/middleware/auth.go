package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/openlab-hq/labops-backend-go/internal/handler/http/response"
)

// AuthRequired rejects requests without a verified access token. Token
// verification itself runs in jwtauth.Verifier upstream; this enforces
// presence and the access token type.
func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.Unauthorized(w, "Missing access token")
				return
			}

			tokenType, ok := claims["type"].(string)
			if !ok || tokenType != "access" {
				response.Unauthorized(w, "Invalid token type")
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}

// Identity returns the authenticated user's id and role from the request's
// verified claims
func Identity(r *http.Request) (userID, role string, ok bool) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return "", "", false
	}
	userID, uok := claims["user_id"].(string)
	role, rok := claims["role"].(string)
	return userID, role, uok && rok
}
