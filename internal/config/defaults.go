package config

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Agent: AgentConfig{
			SystemPrompt:       "You are the automation assistant inside a Jira desktop client. Be precise, act only through the provided tools, and never invent issue keys.",
			MaxIterations:      5,
			BulkThreshold:      5,
			MaxTokens:          4096,
			Temperature:        0.2,
			ConfirmTimeoutSecs: 300,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			TimeoutSecs: 120,
		},
		Jira: JiraConfig{
			TimeoutSecs: 30,
		},
		SetupCompleted: false,
	}
}
