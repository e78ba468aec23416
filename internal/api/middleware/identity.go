package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/andresuchdata/stocksense/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	// HeaderUserID carries the user resolved by the upstream auth gateway.
	HeaderUserID = "X-User-ID"

	requestIDKey = "request_id"
	callerKey    = "caller"
)

// RequestID propagates an incoming X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// RequireCaller rejects requests without a positive numeric X-User-ID.
func RequireCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + HeaderUserID + " header"})
			return
		}

		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid " + HeaderUserID + " header"})
			return
		}

		c.Set(callerKey, domain.Caller{UserID: userID, Subject: "user_" + raw})
		c.Next()
	}
}

// CallerFrom returns the caller set by RequireCaller.
func CallerFrom(c *gin.Context) (domain.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return domain.Caller{}, false
	}
	caller, ok := v.(domain.Caller)
	return caller, ok
}
