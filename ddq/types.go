package ddq

import "github.com/fabfab/ddq-agent/llm"

// Request is one DDQ question with optional prior conversation turns and
// an optional document template name.
type Request struct {
	Prompt   string
	History  []llm.Message
	Template string
}

// Response holds the pipeline output for a single request. The answer is
// owned by the request; nothing is cached or shared across requests.
type Response struct {
	Answer      string
	Sources     []string
	DocumentURL string
}
