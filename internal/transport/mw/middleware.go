package mw

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"vn.io.arda/notify/internal/domain"
	"vn.io.arda/notify/internal/messages"
)

// Okapi request headers.
const (
	HeaderTenant    = "X-Okapi-Tenant"
	HeaderToken     = "X-Okapi-Token"
	HeaderUserID    = "X-Okapi-User-Id"
	HeaderRequestID = "X-Okapi-Request-Id"
	HeaderURL       = "X-Okapi-Url"
)

const contextKey = "requestContext"

// Options configures OkapiContext.
type Options struct {
	// DefaultURL is used when the request carries no X-Okapi-Url header.
	DefaultURL string
	// DefaultLang is used when the request carries no lang query parameter.
	DefaultLang string
	// JWTSecret, when set, makes the token's HMAC signature mandatory for deriving identity.
	JWTSecret string
}

// OkapiContext builds the typed domain.RequestContext from the Okapi headers and stores it in
// echo.Context for downstream handlers. The tenant header is mandatory.
func OkapiContext(opts Options) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			lang := opts.DefaultLang
			if l := c.QueryParam("lang"); l != "" {
				if !messages.ValidLang(l) {
					return c.String(http.StatusBadRequest, messages.Get(opts.DefaultLang, messages.InvalidLang, l))
				}
				lang = strings.ToLower(l)
			}

			tenant := req.Header.Get(HeaderTenant)
			if tenant == "" {
				return c.String(http.StatusBadRequest, messages.Get(lang, messages.NoTenant))
			}

			token := req.Header.Get(HeaderToken)
			if token == "" {
				if auth := req.Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
					token = strings.TrimPrefix(auth, "Bearer ")
				}
			}

			userID := req.Header.Get(HeaderUserID)
			if userID == "" && token != "" {
				id, err := userIDFromToken(token, opts.JWTSecret)
				if err != nil {
					log.Warn().Err(err).Str("tenant", tenant).Msg("token rejected")
					return c.String(http.StatusUnauthorized, messages.Get(lang, messages.InvalidToken))
				}
				userID = id
			}

			requestID := req.Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = c.Response().Header().Get(echo.HeaderXRequestID)
			}

			baseURL := req.Header.Get(HeaderURL)
			if baseURL == "" {
				baseURL = opts.DefaultURL
			}

			c.Set(contextKey, domain.RequestContext{
				Tenant:    tenant,
				UserID:    userID,
				Token:     token,
				RequestID: requestID,
				BaseURL:   baseURL,
				Lang:      lang,
			})
			return next(c)
		}
	}
}

// RequestContext returns the context stored by OkapiContext.
func RequestContext(c echo.Context) domain.RequestContext {
	rc, _ := c.Get(contextKey).(domain.RequestContext)
	return rc
}

// userIDFromToken reads the caller id from the "user_id" claim, falling back to "sub".
// Without a secret the token is only decoded; tokens that cannot be decoded yield no identity.
func userIDFromToken(tokenStr, secret string) (string, error) {
	claims := jwt.MapClaims{}
	if secret == "" {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
			return "", nil
		}
	} else {
		_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil {
			return "", fmt.Errorf("verify token: %w", err)
		}
	}

	if id, ok := claims["user_id"].(string); ok && id != "" {
		return id, nil
	}
	sub, _ := claims["sub"].(string)
	return sub, nil
}
