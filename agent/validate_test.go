package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/archon/core"
	"github.com/hupe1980/archon/internal/testutil"
	"github.com/hupe1980/archon/model"
)

func TestValidateConfig(t *testing.T) {
	models := testutil.Models(model.NewMock("m", "mock"))

	tests := []struct {
		name      string
		mutate    func(cfg *core.AgentConfig)
		wantField string
	}{
		{name: "valid", mutate: func(*core.AgentConfig) {}},
		{
			name:      "empty name",
			mutate:    func(cfg *core.AgentConfig) { cfg.Name = "  " },
			wantField: "name",
		},
		{
			name:      "missing binding",
			mutate:    func(cfg *core.AgentConfig) { cfg.ModelBindingID = "" },
			wantField: "model_binding_id",
		},
		{
			name:      "unknown binding",
			mutate:    func(cfg *core.AgentConfig) { cfg.ModelBindingID = "ghost" },
			wantField: "model_binding_id",
		},
		{
			name:      "prompt without context slot",
			mutate:    func(cfg *core.AgentConfig) { cfg.SystemPrompt = "no slot here" },
			wantField: "system_prompt",
		},
		{
			name:      "top_k too small",
			mutate:    func(cfg *core.AgentConfig) { cfg.Retrieval.TopK = 0 },
			wantField: "retrieval.top_k",
		},
		{
			name:      "top_k too large",
			mutate:    func(cfg *core.AgentConfig) { cfg.Retrieval.TopK = 21 },
			wantField: "retrieval.top_k",
		},
		{
			name:      "threshold below range",
			mutate:    func(cfg *core.AgentConfig) { cfg.Retrieval.ScoreThreshold = -0.1 },
			wantField: "retrieval.score_threshold",
		},
		{
			name:      "threshold above range",
			mutate:    func(cfg *core.AgentConfig) { cfg.Retrieval.ScoreThreshold = 1.1 },
			wantField: "retrieval.score_threshold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testutil.AgentConfig("candidate")
			tt.mutate(&cfg)

			err := ValidateConfig(cfg, models)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestValidateConfigDisabledBinding(t *testing.T) {
	models := testutil.Models(model.NewMock("m", "mock"))
	models.SetEnabled(testutil.BindingID, false)

	err := ValidateConfig(testutil.AgentConfig("candidate"), models)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "model_binding_id", verr.Field)
	assert.Contains(t, verr.Message, "disabled")
}
