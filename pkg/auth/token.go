package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/solsticehq/beacon-messaging/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// ServiceClaims is the typed JWT presented by internal callers of the
// messaging API (checkout, support desk, account service, ...).
type ServiceClaims struct {
	ServiceName string `json:"service_name"`
	jwt.RegisteredClaims
}

// MintServiceToken issues a signed JWT identifying an internal caller.
func MintServiceToken(cfg config.JWTConfig, now time.Time, serviceName string) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if strings.TrimSpace(serviceName) == "" {
		return "", fmt.Errorf("service name is required")
	}
	expMinutes := cfg.ExpirationMinutes
	if expMinutes <= 0 {
		return "", fmt.Errorf("jwt expiration minutes must be positive")
	}

	claims := ServiceClaims{
		ServiceName: serviceName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseServiceToken validates the JWT string and returns typed claims.
func ParseServiceToken(cfg config.JWTConfig, tokenString string) (*ServiceClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &ServiceClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing jwt: %w", err)
	}
	if strings.TrimSpace(claims.ServiceName) == "" {
		return nil, fmt.Errorf("token missing service name")
	}
	return claims, nil
}
