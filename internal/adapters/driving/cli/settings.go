package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

var settingsPing bool

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the vector index, AI providers, mail transport and
server options. Values are stored in ~/.helpdesk/config.toml; environment
variables (and a local .env file) override them without being saved.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one configuration value",
	Long: `Stores a value by dot key, for example:

  helpdesk settings set llm.model anthropic/claude-3.5-sonnet
  helpdesk settings set agent.max_steps 8
  helpdesk settings set server.allowed_origins https://app.example.com,https://admin.example.com`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm <provider> [model]",
	Short: "Configure the reply model",
	Long: `Select the language model used to compose replies. Providers:
openrouter, openai, anthropic, gemini, ollama. The API key is read
from the terminal without echo when the provider needs one.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsLLM,
}

var settingsVectorCmd = &cobra.Command{
	Use:   "vector <provider> [url]",
	Short: "Configure the vector index",
	Long: `Select the vector index. Providers: upstash (URL and token required),
qdrant (URL, optional API key, needs an embedding provider) and memory.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsVector,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the configuration is complete",
	RunE:  runSettingsValidate,
}

func init() {
	settingsValidateCmd.Flags().BoolVar(&settingsPing, "ping", false, "also contact the model and embedding providers")
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsLLMCmd, settingsVectorCmd, settingsValidateCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	st := stylesFor(cmd.OutOrStdout())
	st.section(cmd, "Current Settings")
	cmd.Println()

	cmd.Println("[Vector Index]")
	cmd.Printf("  Provider: %s\n", settings.Vector.Provider.Description())
	cmd.Printf("  URL: %s\n", orUnset(settings.Vector.URL))
	cmd.Printf("  Token: %s\n", maskOrUnset(settings.Vector.Token))
	if settings.Vector.Provider == domain.VectorProviderQdrant {
		cmd.Printf("  Collection: %s\n", settings.Vector.Collection)
	}
	cmd.Printf("  Status: %s\n", status(st, settings.Vector.IsConfigured()))
	cmd.Println()

	if settings.Vector.Provider == domain.VectorProviderQdrant || settings.Embedding.Provider != "" {
		cmd.Println("[Embedding]")
		cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
		cmd.Printf("  Model: %s\n", settings.Embedding.Model)
		if settings.Embedding.Provider.IsLocal() {
			cmd.Printf("  Base URL: %s\n", orUnset(settings.Embedding.BaseURL))
		}
		if settings.Embedding.Provider.RequiresAPIKey() {
			cmd.Printf("  API Key: %s\n", maskOrUnset(settings.Embedding.APIKey))
		}
		cmd.Printf("  Status: %s\n", status(st, settings.Embedding.IsConfigured()))
		cmd.Println()
	}

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	if settings.LLM.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", maskOrUnset(settings.LLM.APIKey))
	}
	cmd.Printf("  Temperature: %.2f, max tokens: %d\n", settings.LLM.Temperature, settings.LLM.MaxTokens)
	cmd.Printf("  Status: %s\n", status(st, settings.LLM.IsConfigured()))
	cmd.Println()

	cmd.Println("[Mail]")
	cmd.Printf("  Domain: %s\n", settings.Mail.HelpdeskDomain)
	cmd.Printf("  API Key: %s\n", maskOrUnset(settings.Mail.APIKey))
	cmd.Printf("  Webhook Secret: %s\n", maskOrUnset(settings.Mail.WebhookSecret))
	cmd.Printf("  Rate limit: %.1f req/s\n", settings.Mail.RequestsPerSecond)
	cmd.Printf("  Status: %s\n", status(st, settings.Mail.IsConfigured()))
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.Server.Addr)
	if len(settings.Server.AllowedOrigins) > 0 {
		cmd.Printf("  Allowed origins: %s\n", strings.Join(settings.Server.AllowedOrigins, ", "))
	}
	cmd.Printf("  Tenant database: %s\n", orUnset(settings.Storage.TenantDBPath))
	ledger := "in-memory"
	if settings.Storage.RedisAddr != "" {
		ledger = "redis " + settings.Storage.RedisAddr
	}
	cmd.Printf("  Reply ledger: %s\n", ledger)
	cmd.Println()

	cmd.Println("[Agent]")
	cmd.Printf("  Max steps: %d\n", settings.Agent.MaxSteps)
	cmd.Printf("  Dedup TTL: %s\n", settings.Agent.DedupTTL)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Println(st.warning(fmt.Sprintf("Warning: %v", err)))
		cmd.Println("Run 'helpdesk settings llm' or 'helpdesk settings vector' to fix configuration issues.")
	} else {
		cmd.Println(st.success("Configuration is valid."))
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("%s updated\n", args[0])
	return nil
}

func runSettingsLLM(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	provider := domain.AIProvider(strings.ToLower(args[0]))
	var model string
	if len(args) > 1 {
		model = args[1]
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Printf("API key for %s (leave empty to keep the current one): ", provider.Description())
		apiKey = readPassword(cmd.InOrStdin())
		cmd.Println()
	}

	if err := settingsService.SetLLMProvider(provider, model, apiKey); err != nil {
		return err
	}
	cmd.Printf("LLM provider set to %s\n", provider.Description())
	return nil
}

func runSettingsVector(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	provider := domain.VectorProvider(strings.ToLower(args[0]))
	var url string
	if len(args) > 1 {
		url = args[1]
	}

	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid vector provider: %s", domain.ErrInvalidInput, provider)
	}

	var token string
	if provider != domain.VectorProviderMemory {
		cmd.Print("Token (leave empty to keep the current one): ")
		token = readPassword(cmd.InOrStdin())
		cmd.Println()
	}

	if err := settingsService.SetVectorProvider(provider, url, token); err != nil {
		return err
	}
	cmd.Printf("Vector index set to %s\n", provider.Description())
	return nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	st := stylesFor(cmd.OutOrStdout())
	if err := settingsService.Validate(); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			cmd.Println(st.failure("  x " + line))
		}
		return errors.New("configuration is incomplete")
	}
	if settingsPing && validateProvider != nil {
		if err := validateProvider(cmd); err != nil {
			return err
		}
	}
	cmd.Println(st.success("Configuration is valid."))
	return nil
}

func status(st styles, ok bool) string {
	if ok {
		return st.success("configured")
	}
	return st.warning("not configured")
}

func orUnset(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}

func maskOrUnset(key string) string {
	if key == "" {
		return "(not set)"
	}
	return maskAPIKey(key)
}

// readPassword reads one line without echo when in is a terminal.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	reader := bufio.NewReader(in)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
