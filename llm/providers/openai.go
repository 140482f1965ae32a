package providers

import (
	"net/http"
	"os"

	"github.com/c360studio/reqflow/llm"
)

const openAIDefaultURL = "https://api.openai.com/v1"

// OpenAIProvider targets hosted OpenAI or OpenRouter. It shares the chat
// completions wire format with OllamaProvider but differs in default URL
// and auth.
type OpenAIProvider struct {
	OllamaProvider
}

func init() {
	llm.RegisterProvider(&OpenAIProvider{})
}

// Name returns the provider identifier.
func (o *OpenAIProvider) Name() string {
	return "openai"
}

// BuildURL constructs the hosted chat completions endpoint.
func (o *OpenAIProvider) BuildURL(baseURL string) string {
	if baseURL == "" {
		baseURL = openAIDefaultURL
	}
	return chatCompletionsURL(baseURL)
}

// SetHeaders adds bearer auth plus the attribution headers OpenRouter
// expects when routed through it.
func (o *OpenAIProvider) SetHeaders(req *http.Request) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	if siteURL := os.Getenv("OPENROUTER_SITE_URL"); siteURL != "" {
		req.Header.Set("HTTP-Referer", siteURL)
	}
	if siteName := os.Getenv("OPENROUTER_SITE_NAME"); siteName != "" {
		req.Header.Set("X-Title", siteName)
	}
}
