package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
)

// GzipRequest transparently decompresses request bodies sent with
// Content-Encoding: gzip, as the agent's delivery client does for log
// batches. Non-gzip requests pass through untouched.
func GzipRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Content-Encoding") != "gzip" {
			c.Next()
			return
		}

		zr, err := gzip.NewReader(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed gzip body"})
			c.Abort()
			return
		}
		defer zr.Close()

		c.Request.Body = zr
		c.Request.Header.Del("Content-Encoding")
		c.Request.ContentLength = -1
		c.Next()
	}
}
