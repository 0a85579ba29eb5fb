package factory

import (
	"testing"

	"ppm-intake-be/pkg/llm/ollama"
	"ppm-intake-be/pkg/llm/openaicompat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	p, err := NewLLMProvider("ollama", "gemma3:4b", "", "")
	require.NoError(t, err)
	o, ok := p.(*ollama.OllamaProvider)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:11434", o.BaseURL)

	p, err = NewLLMProvider("openai", "gemma3:4b", "http://ollama:11434", "")
	require.NoError(t, err)
	assert.IsType(t, &openaicompat.Provider{}, p)

	_, err = NewLLMProvider("gemini", "x", "", "")
	assert.Error(t, err)
}
