package middleware

import (
	"cascade"
	"cascade/internal/api/models"
	"cascade/internal/api/repo"
	"cascade/pkg"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const apiKeyContextKey = "apiKey"

// ApiKeyMiddleware authenticates ingestion callers via the X-API-Key header
// and applies a per-company fixed-window rate limit.
func ApiKeyMiddleware(cfg cascade.AppConfig) gin.HandlerFunc {
	apiKeyRepo := repo.NewApiKeyRepository()

	return func(c *gin.Context) {
		rawKey := c.GetHeader("X-API-Key")
		if rawKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "X-API-Key header required"})
			c.Abort()
			return
		}

		hash := sha256.Sum256([]byte(rawKey))
		key, err := apiKeyRepo.FindActiveByHash(hex.EncodeToString(hash[:]))
		if err != nil {
			cascade.Logger.Error().Err(err).Msg("Error looking up API key")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
			c.Abort()
			return
		}
		if key == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			c.Abort()
			return
		}

		allowed, err := pkg.RateLimitAllow(
			"ratelimit:ingest:"+key.CompanyID,
			cfg.CascadeConfig.IngestRateLimitPerMinute,
			time.Minute,
		)
		if err != nil {
			cascade.Logger.Error().Err(err).Str("companyId", key.CompanyID).Msg("Error checking rate limit")
		} else if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			c.Abort()
			return
		}

		if err := apiKeyRepo.TouchLastUsed(key.ID); err != nil {
			cascade.Logger.Error().Err(err).Uint("apiKeyId", key.ID).Msg("Error touching API key")
		}

		c.Set(apiKeyContextKey, key)
		c.Next()
	}
}

// ApiKeyFromContext returns the authenticated API key set by
// ApiKeyMiddleware, or nil when absent.
func ApiKeyFromContext(c *gin.Context) *models.ApiKey {
	value, exists := c.Get(apiKeyContextKey)
	if !exists {
		return nil
	}
	key, _ := value.(*models.ApiKey)
	return key
}
