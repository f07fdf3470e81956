package agent

import (
	"fmt"
	"strings"

	"github.com/hupe1980/archon/core"
	"github.com/hupe1980/archon/model"
)

// ValidateConfig checks an AgentConfig against the binding registry. It
// fails closed: any violation rejects the config before it is persisted or
// an executor is built.
//
// Rejected when: name is empty; the model binding is missing, unknown or
// disabled; the system prompt lacks the context slot; TopK is outside
// [MinTopK, MaxTopK]; ScoreThreshold is outside [0, 1].
func ValidateConfig(cfg core.AgentConfig, models *model.Registry) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return core.NewValidationError("name", "name must not be empty")
	}
	if cfg.ModelBindingID == "" {
		return core.NewValidationError("model_binding_id", "a model binding is required")
	}
	if !models.Enabled(cfg.ModelBindingID) {
		return core.NewValidationError("model_binding_id",
			fmt.Sprintf("model binding '%s' is unknown or disabled", cfg.ModelBindingID))
	}
	if _, err := core.NewPromptTemplate(cfg.SystemPrompt); err != nil {
		return err
	}
	if cfg.Retrieval.TopK < core.MinTopK || cfg.Retrieval.TopK > core.MaxTopK {
		return core.NewValidationError("retrieval.top_k",
			fmt.Sprintf("top_k must be within [%d, %d]", core.MinTopK, core.MaxTopK))
	}
	if cfg.Retrieval.ScoreThreshold < 0 || cfg.Retrieval.ScoreThreshold > 1 {
		return core.NewValidationError("retrieval.score_threshold", "score_threshold must be within [0, 1]")
	}
	return nil
}
