package embedding

import (
	"fmt"

	"github.com/credencehq/credence/internal/domain"
)

// Supported providers. The mock provider keeps similarity checks and
// duplicate detection hermetic in tests and local development.
const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// NewClient builds the embedding client that backs the similarity
// oracle and the belief duplicate search.
func NewClient(provider, apiKey string) (domain.EmbeddingClient, error) {
	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("openai embedding provider requires an api key")
		}
		return NewOpenAIClient(apiKey), nil
	case ProviderMock:
		return NewMockClient(), nil
	}
	return nil, fmt.Errorf("unknown embedding provider %q (want %s or %s)", provider, ProviderOpenAI, ProviderMock)
}
