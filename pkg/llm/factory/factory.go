package factory

import (
	"fmt"

	"ppm-intake-be/pkg/llm"
	"ppm-intake-be/pkg/llm/ollama"
	"ppm-intake-be/pkg/llm/openaicompat"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "openai":
		// Ollama also serves the OpenAI surface under /v1
		if baseURL != "" {
			baseURL = baseURL + "/v1"
		}
		return openaicompat.NewProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
