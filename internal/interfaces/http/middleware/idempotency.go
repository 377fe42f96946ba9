package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openledger/backend/internal/domain/shared"
	"github.com/openledger/backend/internal/interfaces/http/dto"
)

// IdempotencyKeyHeader is the request header carrying the client-chosen key.
const IdempotencyKeyHeader = "Idempotency-Key"

// IdempotencyConfig holds configuration for the idempotency middleware.
type IdempotencyConfig struct {
	// Store tracks which keys have been consumed.
	Store shared.IdempotencyStore
	// TTL is how long a consumed key blocks replays.
	TTL time.Duration
	// RequireKey rejects mutating requests that carry no Idempotency-Key header.
	// When false, requests without a key pass through unchecked.
	RequireKey bool
	// Logger for middleware logging (optional).
	Logger *zap.Logger
}

// DefaultIdempotencyConfig returns idempotency middleware defaults.
func DefaultIdempotencyConfig(store shared.IdempotencyStore) IdempotencyConfig {
	return IdempotencyConfig{
		Store:      store,
		TTL:        24 * time.Hour,
		RequireKey: false,
	}
}

// Idempotency returns middleware that deduplicates mutating requests by
// their Idempotency-Key header. Keys are scoped per tenant and route so
// different tenants (or different endpoints) can reuse the same key.
//
// The first request with a given key proceeds; replays within the TTL are
// rejected with 409. GET, HEAD and OPTIONS requests always pass through.
// Store failures fail open: blocking all writes because Redis is down is
// worse than the occasional duplicate.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			if cfg.RequireKey {
				requestID := getRequestIDFromContext(c)
				c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
					dto.ErrCodeIdempotencyKeyMissing,
					"Idempotency-Key header is required for this operation",
					requestID,
				))
				return
			}
			c.Next()
			return
		}

		if cfg.Store == nil {
			c.Next()
			return
		}

		scopedKey := idempotencyScope(c, key)
		fresh, err := cfg.Store.MarkProcessed(c.Request.Context(), scopedKey, cfg.TTL)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("Idempotency store unavailable, allowing request",
					zap.String("key", key),
					zap.String("path", c.Request.URL.Path),
					zap.Error(err),
				)
			}
			c.Next()
			return
		}

		if !fresh {
			if cfg.Logger != nil {
				cfg.Logger.Info("Duplicate request rejected",
					zap.String("key", key),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
				)
			}
			requestID := getRequestIDFromContext(c)
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeIdempotencyConflict,
				"A request with this idempotency key was already processed",
				requestID,
			))
			return
		}

		c.Next()
	}
}

// idempotencyScope builds the store key from tenant, method, route and the
// client key. Tenant comes from the JWT claims when present so keys cannot
// collide across tenants.
func idempotencyScope(c *gin.Context, key string) string {
	tenantID := GetJWTTenantID(c)
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return "http:" + tenantID + ":" + c.Request.Method + ":" + route + ":" + key
}
