package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure segmentation, retrieval, ingestion limits, AI providers
and other options.

Use subcommands to change a single key or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long: `Set a single setting. Run 'ragify settings keys' for the list of keys.

Examples:
  ragify settings set segment.size 800
  ragify settings set ingest.allowed_types pdf,txt
  ragify settings set llm.provider openai`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		for _, key := range services.SettingKeys() {
			cmd.Println(key)
		}
		return nil
	},
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to choose the embedding and LLM providers.`,
	RunE:  runSettingsWizard,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}

	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Segment]")
	cmd.Printf("  Size: %d\n", settings.Segment.Size)
	cmd.Printf("  Overlap: %d\n", settings.Segment.Overlap)
	cmd.Printf("  Strategy: %s\n", settings.Segment.Strategy)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	cmd.Println()

	cmd.Println("[Ingest]")
	types := make([]string, len(settings.Ingest.AllowedTypes))
	for i, ft := range settings.Ingest.AllowedTypes {
		types[i] = ft.String()
	}
	cmd.Printf("  Allowed types: %s\n", strings.Join(types, ", "))
	cmd.Printf("  Max video URLs: %d\n", settings.Ingest.MaxVideoURLs)
	cmd.Printf("  Max web URLs: %d\n", settings.Ingest.MaxWebURLs)
	cmd.Printf("  Transcript language: %s\n", settings.Ingest.TranscriptLanguage)
	cmd.Printf("  Fetch timeout: %s\n", settings.Ingest.FetchTimeout)
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Sessions: %s\n", settings.Storage.DataDir)
	cmd.Printf("  Uploads: %s\n", settings.Storage.UploadsDir)
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())
	cmd.Printf("  Batch size: %d\n", settings.Embedding.BatchSize)
	cmd.Println()

	cmd.Println("[LLM]")
	printProvider(cmd, settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.BaseURL, settings.LLM.APIKey, settings.LLM.IsConfigured())
	cmd.Printf("  Temperature: %.2f\n", settings.LLM.Temperature)
	cmd.Println()

	cmd.Println("[Resilience]")
	cmd.Printf("  Max retries: %d\n", settings.Resilience.MaxRetries)
	cmd.Printf("  Backoff: %s\n", settings.Resilience.Backoff)
	cmd.Println()

	if !settings.Embedding.IsConfigured() || !settings.LLM.IsConfigured() {
		cmd.Println("Warning: a provider is not configured.")
		cmd.Println("Run 'ragify settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printProvider(cmd *cobra.Command, p domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	cmd.Printf("  Provider: %s\n", p.Description())
	cmd.Printf("  Model: %s\n", model)
	if baseURL != "" {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if p.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set, export %s)\n", p.APIKeyEnv())
		}
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}

	if err := svc.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s\n", args[0])
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}

	cmd.Println("ragify Settings Wizard")
	cmd.Println("======================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Embedding Provider")
	cmd.Println("--------------------------")
	if err := configureProvider(cmd, reader, svc, "embedding",
		domain.AllEmbeddingProviders(), domain.DefaultEmbeddingModels()); err != nil {
		return err
	}

	cmd.Println("Step 2: LLM Provider")
	cmd.Println("--------------------")
	if err := configureProvider(cmd, reader, svc, "llm",
		domain.AllLLMProviders(), domain.DefaultLLMModels()); err != nil {
		return err
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	settings, err := svc.Get()
	if err != nil {
		cmd.Printf("Warning: %v\n", err)
		return nil
	}
	if settings.Embedding.IsConfigured() && settings.LLM.IsConfigured() {
		cmd.Println("All settings are valid and saved.")
	} else {
		cmd.Println("Warning: a provider still needs an API key.")
	}
	return nil
}

// configureProvider asks for the provider, model and API key of one
// section ("embedding" or "llm") and stores them.
func configureProvider(
	cmd *cobra.Command,
	reader *bufio.Reader,
	svc settingsSetter,
	section string,
	providers []domain.AIProvider,
	defaults map[domain.AIProvider]string,
) error {
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	selected := providers[idx-1]

	if err := svc.Set(section+".provider", selected.String()); err != nil {
		return fmt.Errorf("failed to set %s provider: %w", section, err)
	}

	defaultModel := defaults[selected]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	if model := readLine(reader); model != "" && model != defaultModel {
		if err := svc.Set(section+".model", model); err != nil {
			return fmt.Errorf("failed to set %s model: %w", section, err)
		}
	}

	if selected.RequiresAPIKey() {
		if env := selected.APIKeyEnv(); os.Getenv(env) != "" {
			cmd.Printf("Using API key from %s.\n", env)
		} else {
			cmd.Print("Enter API key: ")
			apiKey := readPassword(cmd, reader)
			cmd.Println()
			if apiKey == "" {
				return errors.New("API key is required for this provider")
			}
			if err := svc.Set(section+".api_key", apiKey); err != nil {
				return fmt.Errorf("failed to set %s API key: %w", section, err)
			}
		}
	}

	cmd.Printf("%s provider configured: %s\n\n", section, selected.Description())
	return nil
}

type settingsSetter interface {
	Set(key, value string) error
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo from a terminal, or a plain line otherwise.
func readPassword(cmd *cobra.Command, reader *bufio.Reader) string {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
