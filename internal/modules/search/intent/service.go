// Package intent holds the model-backed query understanding stages: the
// fast gate classifier, the route selector with its parameter mappers,
// and the two filter extractors. Stage functions return data; pipeline
// lifecycle logging stays with the orchestrator.
package intent

import (
	"strings"

	"github.com/dinefind/core/internal/config"
	"github.com/dinefind/core/internal/pkg/llm"
)

// Service runs the intent stages against the configured model.
type Service struct {
	cfg *config.AppConfig
	llm *llm.Client
}

func NewService(cfg *config.AppConfig, client *llm.Client) *Service {
	return &Service{cfg: cfg, llm: client}
}

// gateModel prefers the dedicated fast gate model when configured.
func (s *Service) gateModel() string {
	if name := strings.TrimSpace(s.cfg.Model.GateName); name != "" {
		return name
	}
	return s.cfg.Model.Name
}
