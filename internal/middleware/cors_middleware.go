package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowHeaders = "Content-Type, Authorization, Accept, Origin, Cache-Control, X-Requested-With, X-Api-Key, X-Request-Id"
	corsAllowMethods = "GET, POST, PUT, OPTIONS"
)

// CORSMiddleware allows the admin dashboard hosts to call the API from a
// browser. Hosts are compared without scheme and default port, e.g.
// "admin.example.com" also matches "https://admin.example.com:443".
func CORSMiddleware(hosts []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			allowed[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		origin := requestOrigin(c.Request)
		if _, ok := allowed[hostOf(origin)]; ok && origin != "" {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Max-Age", "86400")
			h.Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requestOrigin prefers the Origin header and falls back to the Referer's
// scheme and host.
func requestOrigin(r *http.Request) string {
	if origin := strings.TrimSuffix(strings.TrimSpace(r.Header.Get("Origin")), "/"); origin != "" {
		return origin
	}
	ref, err := url.Parse(r.Header.Get("Referer"))
	if err != nil || ref.Scheme == "" || ref.Host == "" {
		return ""
	}
	return ref.Scheme + "://" + ref.Host
}

func hostOf(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	if h, port, ok := strings.Cut(host, ":"); ok && (port == "443" || port == "80") {
		return h
	}
	return host
}
