package intent

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/dinefind/core/internal/config"
	"github.com/dinefind/core/internal/pkg/llm"
)

func newTestService(t *testing.T, endpoint string) *Service {
	t.Helper()
	cfg := &config.AppConfig{
		Pipeline: config.PipelineConfig{
			GateTimeoutMS:       2000,
			FullIntentTimeoutMS: 2000,
			FilterTimeoutMS:     2000,
			ProviderTimeoutMS:   2000,
			GateConfidence:      0.85,
		},
		Model: config.ModelConfig{
			Provider:        "openai-compatible",
			APIKey:          "test-key",
			Endpoint:        endpoint,
			Name:            "test-model",
			MaxOutputTokens: 512,
		},
		Locale: config.LocaleConfig{Region: "IL", Language: "he", Timezone: "Asia/Jerusalem"},
	}
	return NewService(cfg, llm.New(cfg.Model, zap.NewNop()))
}

// modelServer returns a chat-completions stub that always answers with
// the given JSON content.
func modelServer(t *testing.T, content interface{}) *httptest.Server {
	t.Helper()
	raw, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("marshal stub content: %v", err)
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := json.Marshal(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": string(raw)}},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5},
		})
		fmt.Fprint(w, string(body))
	}))
}
