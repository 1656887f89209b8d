// Package middleware provides the gin middleware of the catalog API.
package middleware

import (
	"compress/gzip"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amaumene/gocatalog/pkg/logger"
	"github.com/amaumene/gocatalog/pkg/security"
)

type gzipResponseWriter struct {
	gin.ResponseWriter
	gzipWriter *gzip.Writer
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	return w.gzipWriter.Write(data)
}

func (w *gzipResponseWriter) WriteString(s string) (int, error) {
	return w.gzipWriter.Write([]byte(s))
}

func (w *gzipResponseWriter) WriteHeader(code int) {
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(code)
}

func Gzip() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		c.Header("Content-Encoding", "gzip")
		c.Header("Vary", "Accept-Encoding")

		gzipWriter := gzip.NewWriter(c.Writer)
		defer gzipWriter.Close()

		c.Writer = &gzipResponseWriter{
			ResponseWriter: c.Writer,
			gzipWriter:     gzipWriter,
		}

		c.Next()
	}
}

func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func Logger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		clientIP := c.ClientIP()
		method := c.Request.Method
		statusCode := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		switch {
		case statusCode >= 500:
			log.Errorf("%s %s %d %v %s", clientIP, method, statusCode, latency, path)
		case statusCode >= 400:
			log.Warnf("%s %s %d %v %s", clientIP, method, statusCode, latency, path)
		default:
			log.Infof("%s %s %d %v %s", clientIP, method, statusCode, latency, path)
		}
	}
}

// BearerAuth rejects requests whose Authorization header does not carry token. An empty
// token disables the check.
func BearerAuth(token string, log logger.Logger) gin.HandlerFunc {
	if token == "" {
		log.Warn("[Auth] API_TOKEN is empty, the API is open to anyone")
		return func(c *gin.Context) { c.Next() }
	}

	validator := security.NewAPIKeyValidator()
	return func(c *gin.Context) {
		given, ok := validator.ParseBearer(c.GetHeader("Authorization"))
		switch {
		case !ok:
			abort(c, http.StatusUnauthorized, "UnauthorizedError", "Missing or invalid credentials")
		case !validator.SecureCompare(given, token):
			log.Warnf("[Auth] rejected token %s from %s", validator.MaskAPIKey(given), c.ClientIP())
			abort(c, http.StatusUnauthorized, "UnauthorizedError", "Missing or invalid credentials")
		default:
			c.Next()
		}
	}
}

func abort(c *gin.Context, status int, name, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"data": nil,
		"error": gin.H{
			"status":  status,
			"name":    name,
			"message": message,
			"details": gin.H{},
		},
	})
}
