package gemini

// API path constants for the Code Assist upstream. The two actions differ
// only by path suffix and the alt=sse query flag.
const (
	// PathGenerate is the endpoint for one-shot generation.
	PathGenerate = "/v1internal:generateContent"

	// PathStreamGenerate is the endpoint for SSE streaming generation.
	PathStreamGenerate = "/v1internal:streamGenerateContent?alt=sse"
)
