package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"jirapilot/internal/agent"
	"jirapilot/internal/config"
	"jirapilot/internal/eventbus"
	"jirapilot/internal/jira"
	"jirapilot/internal/llm"
	"jirapilot/internal/memory"
	"jirapilot/internal/security"
	"jirapilot/internal/tool"
)

const (
	keyringPlaceholder  = "[keyring]"
	secretNameLLMKey    = "llm_api_key"
	secretNameJiraToken = "jira_api_token"

	// The desktop UI drives a single conversation.
	defaultConversation = "desktop"
)

// App struct holds the application state and exposes methods to the frontend.
type App struct {
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex // protects cfg, agent, jiraClient
	cfg       *config.Config
	cfgLoader *config.Loader
	bus       *eventbus.Bus
	agent     *agent.Agent
	jiraClt   *jira.Client
	archive   memory.Archive
	keyStore  *security.KeyStore

	viewMu sync.RWMutex // protects viewState
	view   agent.Snapshot

	confirmMu sync.Mutex
	pending   map[string]chan bool // confirmation id -> decision
}

// NewApp creates a new App application struct.
func NewApp() *App {
	return &App{
		bus:     eventbus.New(),
		pending: make(map[string]chan bool),
	}
}

// startup is called when the Wails app starts.
func (a *App) startup(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	a.ctx = ctx
	a.cancel = cancel

	// Load config
	loader, err := config.NewLoader()
	if err != nil {
		log.Printf("failed to create config loader: %v", err)
		return
	}
	a.cfgLoader = loader

	cfg, err := loader.Load()
	if err != nil {
		log.Printf("failed to load config: %v", err)
		cfg = config.Defaults()
	}
	a.cfg = cfg

	// Initialize secure key store
	ks, err := security.NewKeyStore(nil)
	if err != nil {
		log.Printf("warning: failed to create key store: %v (secrets will stay in config file)", err)
	}
	a.keyStore = ks

	// Resolve secrets from Keychain (or migrate plaintext → Keychain)
	a.resolveSecrets()

	// Initialize turn archive (SQLite)
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("failed to get home directory: %v", err)
		return
	}
	dbPath := filepath.Join(home, ".jirapilot", "history.db")
	archive, err := memory.NewSQLiteArchive(dbPath)
	if err != nil {
		log.Printf("failed to initialize turn archive: %v", err)
		return
	}
	a.archive = archive

	// If setup is completed, initialize the agent
	if cfg.SetupCompleted {
		a.initAgent()
	}
}

// shutdown is called when the app is closing.
func (a *App) shutdown(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	if a.archive != nil {
		a.archive.Close()
	}
}

func (a *App) initAgent() {
	if a.cfg.LLM.APIKey == "" && a.cfg.LLM.Provider != "local" {
		log.Println("LLM API key not configured, skipping agent init")
		return
	}
	if a.cfg.Jira.BaseURL == "" {
		log.Println("Jira URL not configured, skipping agent init")
		return
	}

	client, err := jira.NewClient(jira.Config{
		BaseURL:     a.cfg.Jira.BaseURL,
		Email:       a.cfg.Jira.Email,
		APIToken:    a.cfg.Jira.APIToken,
		TimeoutSecs: a.cfg.Jira.TimeoutSecs,
	})
	if err != nil {
		log.Printf("failed to create Jira client: %v", err)
		return
	}

	// Create LLM provider
	provider, err := llm.NewProvider(a.cfg.LLM)
	if err != nil {
		log.Printf("failed to create LLM provider: %v", err)
		return
	}

	// Add fallback if configured
	if a.cfg.FallbackLLM != nil && a.cfg.FallbackLLM.APIKey != "" {
		fallback, err := llm.NewProvider(*a.cfg.FallbackLLM)
		if err == nil {
			provider = llm.NewFallbackProvider(provider, fallback)
		}
	}

	catalog := tool.NewCatalog()
	for _, t := range []tool.Tool{
		tool.NewSearchIssuesTool(client),
		tool.NewGetIssueTool(client),
		tool.NewUpdateIssueTool(client),
		tool.NewAssignIssueTool(client),
		tool.NewCommentIssueTool(client),
		tool.NewTransitionIssueTool(client),
		tool.NewDeleteIssueTool(client),
	} {
		if err := catalog.Register(t); err != nil {
			log.Printf("failed to register tool: %v", err)
			return
		}
	}

	invoker := llm.NewInvoker(provider, a.cfg.Agent.SystemPrompt, a.cfg.Agent.MaxTokens, a.cfg.Agent.Temperature)

	ag := agent.New(
		agent.Config{
			MaxIterations: a.cfg.Agent.MaxIterations,
			BulkThreshold: a.cfg.Agent.BulkThreshold,
		},
		catalog,
		invoker,
		busSink{bus: a.bus},
		a, // Confirmer
		a, // StateProvider
	)

	a.mu.Lock()
	a.agent = ag
	a.jiraClt = client
	a.mu.Unlock()

	log.Println("Agent initialized")
}

// busSink forwards agent progress onto the event bus for the UI.
type busSink struct {
	bus *eventbus.Bus
}

func (s busSink) Emit(kind agent.ProgressKind, message string) {
	s.bus.Publish(eventbus.TopicProgress, map[string]string{
		"kind":    string(kind),
		"message": message,
	})
}

// Snapshot implements agent.StateProvider with the last view state the
// frontend pushed.
func (a *App) Snapshot() agent.Snapshot {
	a.viewMu.RLock()
	defer a.viewMu.RUnlock()
	return a.view
}

// RequestConfirmation implements agent.Confirmer. It publishes a request to
// the UI and blocks until the user decides, the turn is cancelled, or the
// configured timeout elapses (a timeout counts as declined).
func (a *App) RequestConfirmation(ctx context.Context, reason, detail string) (bool, error) {
	id := uuid.New().String()
	decision := make(chan bool, 1)

	a.confirmMu.Lock()
	a.pending[id] = decision
	a.confirmMu.Unlock()
	defer func() {
		a.confirmMu.Lock()
		delete(a.pending, id)
		a.confirmMu.Unlock()
	}()

	a.bus.Publish(eventbus.TopicConfirmationRequest, map[string]string{
		"id":     id,
		"reason": reason,
		"detail": detail,
	})

	timeout := time.Duration(a.confirmTimeoutSecs()) * time.Second
	select {
	case approved := <-decision:
		return approved, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-time.After(timeout):
		log.Printf("[app] confirmation %s timed out, treating as declined", id)
		return false, nil
	}
}

func (a *App) confirmTimeoutSecs() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.cfg != nil && a.cfg.Agent.ConfirmTimeoutSecs > 0 {
		return a.cfg.Agent.ConfirmTimeoutSecs
	}
	return 300
}

// resolveSecrets loads secrets from Keychain into in-memory config.
// On first run, migrates plaintext secrets from config.json to Keychain.
func (a *App) resolveSecrets() {
	if a.keyStore == nil {
		return
	}

	migrated := false

	// LLM API Key
	switch {
	case a.cfg.LLM.APIKey == keyringPlaceholder:
		if val, err := a.keyStore.Get(secretNameLLMKey); err == nil {
			a.cfg.LLM.APIKey = val
		} else {
			log.Printf("warning: failed to read LLM key from keyring: %v", err)
		}
	case a.cfg.LLM.APIKey != "":
		if err := a.keyStore.Set(secretNameLLMKey, a.cfg.LLM.APIKey); err == nil {
			migrated = true
			log.Println("Migrated LLM API key to secure storage")
		}
	}

	// Jira API token
	switch {
	case a.cfg.Jira.APIToken == keyringPlaceholder:
		if val, err := a.keyStore.Get(secretNameJiraToken); err == nil {
			a.cfg.Jira.APIToken = val
		} else {
			log.Printf("warning: failed to read Jira token from keyring: %v", err)
		}
	case a.cfg.Jira.APIToken != "":
		if err := a.keyStore.Set(secretNameJiraToken, a.cfg.Jira.APIToken); err == nil {
			migrated = true
			log.Println("Migrated Jira API token to secure storage")
		}
	}

	// Rewrite config.json with placeholders instead of real keys
	if migrated {
		if err := a.saveConfig(); err != nil {
			log.Printf("warning: failed to save config after secret migration: %v", err)
		}
	}
}

// saveConfig writes config to disk with secrets replaced by [keyring]
// placeholders. In-memory a.cfg always retains real keys; only the file
// gets placeholders.
func (a *App) saveConfig() error {
	if a.keyStore == nil {
		return a.cfgLoader.Save(a.cfg)
	}

	if a.cfg.LLM.APIKey != "" && a.cfg.LLM.APIKey != keyringPlaceholder {
		if err := a.keyStore.Set(secretNameLLMKey, a.cfg.LLM.APIKey); err != nil {
			log.Printf("warning: failed to store LLM key in keyring: %v", err)
			return a.cfgLoader.Save(a.cfg) // fallback: save plaintext
		}
	}
	if a.cfg.Jira.APIToken != "" && a.cfg.Jira.APIToken != keyringPlaceholder {
		if err := a.keyStore.Set(secretNameJiraToken, a.cfg.Jira.APIToken); err != nil {
			log.Printf("warning: failed to store Jira token in keyring: %v", err)
			return a.cfgLoader.Save(a.cfg)
		}
	}

	// Shallow copy with placeholders for disk
	cfgForDisk := *a.cfg
	if cfgForDisk.LLM.APIKey != "" {
		cfgForDisk.LLM.APIKey = keyringPlaceholder
	}
	if cfgForDisk.Jira.APIToken != "" {
		cfgForDisk.Jira.APIToken = keyringPlaceholder
	}

	return a.cfgLoader.Save(&cfgForDisk)
}

// --- Wails Bindings (exposed to frontend) ---

// IsSetupCompleted returns whether the initial setup has been done.
func (a *App) IsSetupCompleted() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg != nil && a.cfg.SetupCompleted
}

// GetConfig returns the current config (with masked secrets).
func (a *App) GetConfig() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.cfg == nil {
		return nil
	}
	return map[string]any{
		"provider":         a.cfg.LLM.Provider,
		"model":            a.cfg.LLM.Model,
		"api_key_masked":   security.MaskKey(a.cfg.LLM.APIKey),
		"base_url":         a.cfg.LLM.BaseURL,
		"jira_url":         a.cfg.Jira.BaseURL,
		"jira_email":       a.cfg.Jira.Email,
		"jira_token_masked": security.MaskKey(a.cfg.Jira.APIToken),
		"max_iterations":   a.cfg.Agent.MaxIterations,
		"bulk_threshold":   a.cfg.Agent.BulkThreshold,
		"setup_completed":  a.cfg.SetupCompleted,
	}
}

// SaveLLMConfig saves LLM provider settings.
func (a *App) SaveLLMConfig(provider, apiKey, model, baseURL string) error {
	if baseURL != "" {
		if err := validateBaseURL(baseURL); err != nil {
			return err
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg.LLM.Provider = provider
	if apiKey != "" {
		a.cfg.LLM.APIKey = apiKey
	}
	if model != "" {
		a.cfg.LLM.Model = model
	}
	a.cfg.LLM.BaseURL = baseURL
	return a.saveConfig()
}

// SaveJiraConfig saves Jira connection settings.
func (a *App) SaveJiraConfig(baseURL, email, apiToken string) error {
	if err := validateBaseURL(baseURL); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg.Jira.BaseURL = baseURL
	a.cfg.Jira.Email = email
	if apiToken != "" {
		a.cfg.Jira.APIToken = apiToken
	}
	return a.saveConfig()
}

// SaveAgentConfig saves loop bounds.
func (a *App) SaveAgentConfig(maxIterations, bulkThreshold int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if maxIterations > 0 {
		a.cfg.Agent.MaxIterations = maxIterations
	}
	if bulkThreshold > 0 {
		a.cfg.Agent.BulkThreshold = bulkThreshold
	}
	return a.saveConfig()
}

// CompleteSetup marks setup as done and initializes the agent.
func (a *App) CompleteSetup() error {
	a.mu.Lock()
	a.cfg.SetupCompleted = true
	if err := a.saveConfig(); err != nil {
		a.mu.Unlock()
		return err
	}
	a.mu.Unlock()
	a.initAgent()
	return nil
}

// TestJiraConnection verifies credentials by fetching the current user.
func (a *App) TestJiraConnection(baseURL, email, apiToken string) string {
	if err := validateBaseURL(baseURL); err != nil {
		return "Error: " + err.Error()
	}
	client, err := jira.NewClient(jira.Config{
		BaseURL:  baseURL,
		Email:    email,
		APIToken: apiToken,
	})
	if err != nil {
		return "Error: " + err.Error()
	}
	if _, err := client.Myself(a.ctx); err != nil {
		return "Connection failed: " + err.Error()
	}
	return "OK"
}

// TestLLMConnection tests the LLM connection with the given settings.
func (a *App) TestLLMConnection(provider, apiKey, model, baseURL string) string {
	if baseURL != "" {
		if err := validateBaseURL(baseURL); err != nil {
			return "Error: " + err.Error()
		}
	}
	p, err := llm.NewProvider(config.LLMConfig{
		Provider: provider,
		APIKey:   apiKey,
		Model:    model,
		BaseURL:  baseURL,
	})
	if err != nil {
		return "Error: " + err.Error()
	}
	_, err = p.Chat(a.ctx, &llm.ChatRequest{
		Messages:  []llm.Message{{Role: "user", Content: "ping"}},
		MaxTokens: 8,
	})
	if err != nil {
		return "Connection failed: " + err.Error()
	}
	return "OK"
}

// RunGoal runs one agentic turn for the given natural-language goal and
// returns its result. A second goal while one is running is rejected.
func (a *App) RunGoal(goal string) (*agent.TurnResult, error) {
	a.mu.RLock()
	ag := a.agent
	a.mu.RUnlock()
	if ag == nil {
		return nil, fmt.Errorf("agent not initialized, complete setup first")
	}

	a.bus.Publish(eventbus.TopicTurnStarted, map[string]string{"goal": goal})

	result, err := ag.RunGoal(a.ctx, defaultConversation, goal)
	if result != nil {
		a.archiveTurn(result)
		a.bus.Publish(eventbus.TopicTurnFinished, result)
	}
	if err != nil {
		a.bus.Publish(eventbus.TopicError, err.Error())
	}
	return result, err
}

// CancelGoal requests a clean stop of the running turn.
func (a *App) CancelGoal() bool {
	a.mu.RLock()
	ag := a.agent
	a.mu.RUnlock()
	if ag == nil {
		return false
	}
	return ag.Cancel(defaultConversation)
}

// IsBusy reports whether a turn is currently running.
func (a *App) IsBusy() bool {
	a.mu.RLock()
	ag := a.agent
	a.mu.RUnlock()
	return ag != nil && ag.Busy(defaultConversation)
}

// ResolveConfirmation delivers the user's decision for a pending
// confirmation request.
func (a *App) ResolveConfirmation(id string, approved bool) {
	a.confirmMu.Lock()
	decision, ok := a.pending[id]
	a.confirmMu.Unlock()
	if !ok {
		log.Printf("[app] confirmation %s not pending, ignoring", id)
		return
	}
	select {
	case decision <- approved:
	default:
	}
}

// UpdateViewState records what the user currently sees and has selected.
// The frontend calls this whenever selection, filters or the visible issue
// list change.
func (a *App) UpdateViewState(snap agent.Snapshot) {
	a.viewMu.Lock()
	a.view = snap
	a.viewMu.Unlock()
	a.bus.Publish(eventbus.TopicViewStateChanged, nil)
}

// ListTurns returns recent archived turns for the history view.
func (a *App) ListTurns(limit int) ([]memory.TurnRecord, error) {
	if a.archive == nil {
		return nil, fmt.Errorf("archive not initialized")
	}
	return a.archive.ListTurns(a.ctx, defaultConversation, limit)
}

func (a *App) archiveTurn(result *agent.TurnResult) {
	if a.archive == nil {
		return
	}
	historyJSON := ""
	if len(result.History) > 0 {
		if data, err := json.Marshal(result.History); err == nil {
			historyJSON = string(data)
		} else {
			log.Printf("[app] failed to marshal turn history: %v", err)
		}
	}
	rec := memory.TurnRecord{
		ID:             result.ID,
		ConversationID: defaultConversation,
		Goal:           result.Goal,
		Status:         string(result.Status),
		Summary:        result.Summary,
		Iterations:     result.Iterations,
		HistoryJSON:    historyJSON,
	}
	if err := a.archive.SaveTurn(a.ctx, rec); err != nil {
		log.Printf("[app] failed to archive turn %s: %v", result.ID, err)
	}
}

// validateBaseURL checks that a base URL is valid and uses http/https scheme.
func validateBaseURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("base URL must use http or https scheme, got: %s", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("base URL must have a host")
	}
	return nil
}
