package jwt

import (
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/openlab-hq/labops-backend-go/internal/domain/user"
)

// Service validates and issues session tokens. Token issuance normally lives
// with the identity service; GenerateAccessToken exists for that service and
// for tests.
type Service interface {
	GenerateAccessToken(userID string, email string, role user.Role) (token string, expiresAt int64, err error)
	ValidateSession(tokenString string) (userID string, role user.Role, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	secretKey        string
	accessExpiration string
	tokenAuth        *jwtauth.JWTAuth
}

func NewJWTService(secretKey string, accessExpiration string) Service {
	return &JWTService{
		secretKey:        secretKey,
		accessExpiration: accessExpiration,
		tokenAuth:        jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) GenerateAccessToken(userID string, email string, role user.Role) (string, int64, error) {
	expDuration, err := time.ParseDuration(j.accessExpiration)
	if err != nil {
		return "", 0, err
	}
	expiresAt := time.Now().Add(expDuration).Unix()

	claims := map[string]interface{}{
		"user_id": userID,
		"email":   email,
		"role":    string(role),
		"type":    "access",
		"iat":     time.Now().Unix(),
		"exp":     expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	if err != nil {
		return "", 0, fmt.Errorf("encode access token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateSession verifies a session credential and returns the bound
// identity. Used by the realtime hub's authenticate handshake.
func (j *JWTService) ValidateSession(tokenString string) (string, user.Role, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return "", "", fmt.Errorf("verify session token: %w", err)
	}

	tokenType, _ := token.Get("type")
	if tokenType != "access" {
		return "", "", fmt.Errorf("unexpected token type")
	}

	userIDClaim, ok := token.Get("user_id")
	if !ok {
		return "", "", fmt.Errorf("session token missing user_id")
	}
	userID, ok := userIDClaim.(string)
	if !ok || userID == "" {
		return "", "", fmt.Errorf("session token missing user_id")
	}

	roleClaim, _ := token.Get("role")
	roleStr, _ := roleClaim.(string)
	role := user.Role(roleStr)
	if !role.IsValid() {
		return "", "", fmt.Errorf("session token carries unknown role %q", roleStr)
	}

	return userID, role, nil
}
