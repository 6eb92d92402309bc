package common

import (
	"strings"

	"github.com/gin-gonic/gin"

	"gemini-relay/internal/oauth"
)

// CallerCredential extracts the caller-supplied token from the request, in
// the order Gemini-native clients send it: Authorization bearer, then the
// x-goog-api-key header, then the key query parameter. Returns nil when the
// request carries none; the server-level token fallback handles that case.
func CallerCredential(c *gin.Context) *oauth.Credentials {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")); token != "" {
			return &oauth.Credentials{AccessToken: token}
		}
	}
	if key := strings.TrimSpace(c.GetHeader("x-goog-api-key")); key != "" {
		return &oauth.Credentials{AccessToken: key}
	}
	if key := strings.TrimSpace(c.Query("key")); key != "" {
		return &oauth.Credentials{AccessToken: key}
	}
	return nil
}

// ProjectOverride reads the caller's project pin, if any.
func ProjectOverride(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader("x-goog-user-project"))
}
