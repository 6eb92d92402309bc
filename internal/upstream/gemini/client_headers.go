package gemini

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// generateGeminiCLIUserAgent creates a User-Agent string matching the
// gemini-cli client fingerprint.
func generateGeminiCLIUserAgent() string {
	return fmt.Sprintf("GeminiCLI/1.0.0 (%s; %s)", runtime.GOOS, runtime.GOARCH)
}

// applyDefaultHeaders centralizes default header logic for upstream calls.
func (c *Client) applyDefaultHeaders(req *http.Request, bearer string) {
	req.Header.Set("Content-Type", "application/json")
	if strings.Contains(req.URL.RawQuery, "alt=sse") {
		req.Header.Set("Accept", "text/event-stream")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("User-Agent", generateGeminiCLIUserAgent())

	gv := strings.TrimPrefix(runtime.Version(), "go")
	if gv == "" {
		gv = "unknown"
	}
	req.Header.Set("X-Goog-Api-Client", "gl-go/"+gv)
	req.Header.Set("Client-Metadata", "ideType=IDE_UNSPECIFIED,platform=PLATFORM_UNSPECIFIED,pluginType=GEMINI")

	if req.Header.Get("X-Goog-User-Project") == "" {
		if c.credentials != nil && strings.TrimSpace(c.credentials.ProjectID) != "" {
			req.Header.Set("X-Goog-User-Project", strings.TrimSpace(c.credentials.ProjectID))
		} else if strings.TrimSpace(c.cfg.GoogleProjectID) != "" {
			req.Header.Set("X-Goog-User-Project", strings.TrimSpace(c.cfg.GoogleProjectID))
		}
	}
}
