package llm

import (
	"os"
	"strconv"
)

// TaskType identifies the kind of LLM task being performed.
type TaskType string

const (
	TaskDiagnose     TaskType = "diagnose"
	TaskReport       TaskType = "report"
	TaskReportRepair TaskType = "report_repair"
)

// TaskConfig holds per-task LLM parameters.
type TaskConfig struct {
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutMs   int     `yaml:"timeout_ms"` // overrides global if > 0
}

// LLMConfig holds all configuration for the LLM subsystem.
type LLMConfig struct {
	Enabled    bool
	LogCalls   bool
	Endpoint   string
	Model      string
	TimeoutMs  int
	MaxRetries int
	Tasks      map[TaskType]TaskConfig
}

// DefaultConfig returns an LLMConfig with sensible defaults.
// LLM is disabled by default, which routes every turn to the checklist.
func DefaultConfig() LLMConfig {
	return LLMConfig{
		Enabled:    false,
		LogCalls:   false,
		Endpoint:   "http://localhost:11434",
		Model:      "llama3.2",
		TimeoutMs:  15000,
		MaxRetries: 0,
		Tasks: map[TaskType]TaskConfig{
			TaskDiagnose:     {Temperature: 0.2, MaxTokens: 1024, TimeoutMs: 15000},
			TaskReport:       {Temperature: 0.1, MaxTokens: 2048, TimeoutMs: 30000},
			TaskReportRepair: {Temperature: 0.0, MaxTokens: 2048, TimeoutMs: 30000},
		},
	}
}

// LoadConfig returns the defaults with environment overrides applied.
func LoadConfig() LLMConfig {
	cfg := DefaultConfig()
	ApplyEnv(&cfg)
	return cfg
}

// ApplyEnv overlays RVDESK_LLM_* environment variables onto cfg. Unset or
// malformed values leave the existing setting in place.
func ApplyEnv(cfg *LLMConfig) {
	if v := os.Getenv("RVDESK_LLM_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Enabled = b
		}
	}
	if v := os.Getenv("RVDESK_LLM_LOG_CALLS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.LogCalls = b
		}
	}
	if v := os.Getenv("RVDESK_LLM_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("RVDESK_LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("RVDESK_LLM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	if v := os.Getenv("RVDESK_LLM_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}

	applyTaskTimeoutEnv(cfg, TaskDiagnose, "RVDESK_LLM_DIAGNOSE_TIMEOUT_MS")
	applyTaskTimeoutEnv(cfg, TaskReport, "RVDESK_LLM_REPORT_TIMEOUT_MS")
	applyTaskTimeoutEnv(cfg, TaskReportRepair, "RVDESK_LLM_REPORT_REPAIR_TIMEOUT_MS")
}

// TaskTimeout returns the effective timeout for a given task type.
// Uses the task-specific timeout if set, otherwise the global timeout.
func (c LLMConfig) TaskTimeout(task TaskType) int {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return tc.TimeoutMs
	}
	return c.TimeoutMs
}

func applyTaskTimeoutEnv(cfg *LLMConfig, task TaskType, envName string) {
	v := os.Getenv(envName)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return
	}
	if cfg.Tasks == nil {
		cfg.Tasks = map[TaskType]TaskConfig{}
	}
	tc := cfg.Tasks[task]
	tc.TimeoutMs = n
	cfg.Tasks[task] = tc
}
