package llm

import "context"

// Invoker adapts a Provider to the single prompt-in, text-out call the
// agent loop makes each iteration. The loop rebuilds the whole prompt from
// current state every time, so each invocation is one user message.
type Invoker struct {
	provider     Provider
	systemPrompt string
	maxTokens    int
	temperature  float64
}

// NewInvoker wraps a provider with fixed generation settings.
func NewInvoker(provider Provider, systemPrompt string, maxTokens int, temperature float64) *Invoker {
	return &Invoker{
		provider:     provider,
		systemPrompt: systemPrompt,
		maxTokens:    maxTokens,
		temperature:  temperature,
	}
}

// Invoke sends the prompt and returns the raw reply text.
func (i *Invoker) Invoke(ctx context.Context, prompt string) (string, error) {
	resp, err := i.provider.Chat(ctx, &ChatRequest{
		Messages:     []Message{{Role: "user", Content: prompt}},
		MaxTokens:    i.maxTokens,
		Temperature:  i.temperature,
		SystemPrompt: i.systemPrompt,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
