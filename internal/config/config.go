package config

// Config is the top-level application configuration.
type Config struct {
	Agent          AgentConfig `json:"agent"`
	LLM            LLMConfig   `json:"llm"`
	FallbackLLM    *LLMConfig  `json:"fallback_llm,omitempty"`
	Jira           JiraConfig  `json:"jira"`
	SetupCompleted bool        `json:"setup_completed"`
}

// AgentConfig bounds the agentic loop.
type AgentConfig struct {
	SystemPrompt       string  `json:"system_prompt"`
	MaxIterations      int     `json:"max_iterations"`
	BulkThreshold      int     `json:"bulk_threshold"`
	MaxTokens          int     `json:"max_tokens"`
	Temperature        float64 `json:"temperature"`
	ConfirmTimeoutSecs int     `json:"confirm_timeout_secs"`
}

// LLMConfig selects and configures a model backend.
type LLMConfig struct {
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	APIKey      string `json:"api_key,omitempty"`
	BaseURL     string `json:"base_url,omitempty"`
	TimeoutSecs int    `json:"timeout_secs"`
}

// JiraConfig holds connection settings for the ticketing service.
type JiraConfig struct {
	BaseURL     string `json:"base_url"`
	Email       string `json:"email"`
	APIToken    string `json:"api_token,omitempty"`
	TimeoutSecs int    `json:"timeout_secs"`
}
