package middleware

import (
	"context"
	"time"

	"noxscan/database"
	"noxscan/models"

	"github.com/gin-gonic/gin"
)

// AuditLogMiddleware records mutating API requests to MongoDB.
func AuditLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Reads are not audited.
		if c.Request.Method == "GET" {
			c.Next()
			return
		}

		startTime := time.Now()

		c.Next()

		entry := models.AuditLog{
			Action:    c.Request.Method,
			Path:      c.Request.URL.Path,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Status:    c.Writer.Status(),
			CreatedAt: startTime,
		}

		// Save asynchronously so logging never slows a scan request.
		go saveAuditLog(entry)
	}
}

func saveAuditLog(entry models.AuditLog) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	collection := database.GetCollection(models.CollectionAuditLogs)
	_, _ = collection.InsertOne(ctx, entry)
}
