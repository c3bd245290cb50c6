package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"ecommerce-checkout/internal/dto"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	userIDKey = "user_id"
	roleKey   = "role"

	RoleAdmin = "admin"
)

type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// RequireSignIn accepts `Authorization: Bearer <token>` signed with HS256 and
// puts the subject and role on the echo context.
func RequireSignIn(secret, issuer string) echo.MiddlewareFunc {
	key := []byte(secret)

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return c.JSON(http.StatusUnauthorized, dto.Fail("Unauthorized", errors.New("missing bearer token")))
			}

			claims := &Claims{}
			_, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
				return key, nil
			})
			if err == nil && claims.Subject == "" {
				err = errors.New("token has no subject")
			}
			if err != nil {
				return c.JSON(http.StatusUnauthorized, dto.Fail("Unauthorized", err))
			}

			c.Set(userIDKey, claims.Subject)
			c.Set(roleKey, claims.Role)
			return next(c)
		}
	}
}

// AdminOnly must run after RequireSignIn.
func AdminOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if role, _ := c.Get(roleKey).(string); role != RoleAdmin {
				return c.JSON(http.StatusForbidden, dto.Fail("Admin access required", nil))
			}
			return next(c)
		}
	}
}

func UserID(c echo.Context) string {
	userID, _ := c.Get(userIDKey).(string)
	return userID
}

// IssueToken signs a token RequireSignIn will accept.
func IssueToken(secret, issuer, userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}
