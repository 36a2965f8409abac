package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change the store, embedding, index, ingest and search settings kept
in ~/.docsearch/config.toml. DOCSEARCH_* environment variables override the file.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one setting",
	Long: `Set one setting by its dotted key, for example:

  docsearch settings set store.backend qdrant
  docsearch settings set store.uri https://cluster.example:6333
  docsearch settings set store.token -

A value of "-" is read from the terminal without echo.
Run 'docsearch settings keys' for the full list.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Revert one setting to its default",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsUnset,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate settings and reach the embedding provider",
	Args:  cobra.NoArgs,
	RunE:  runSettingsCheck,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Choose the store backend and embedding provider step by step.`,
	Args:  cobra.NoArgs,
	RunE:  runSettingsWizard,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsUnsetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
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

	heading(cmd, "Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Store]")
	cmd.Printf("  Backend: %s\n", settings.Store.Backend.Description())
	if settings.Store.Backend.IsRemote() {
		cmd.Printf("  URI: %s\n", orUnset(settings.Store.URI))
		cmd.Printf("  Token: %s\n", maskOrUnset(settings.Store.Token))
		cmd.Printf("  Wait for ack: %t\n", settings.Store.WaitForAck)
	} else if settings.Store.DataDir != "" {
		cmd.Printf("  Data dir: %s\n", settings.Store.DataDir)
	}
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", orDefault(settings.Embedding.Model, domain.DefaultEmbeddingModels()[settings.Embedding.Provider]))
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", maskOrUnset(settings.Embedding.APIKey))
	}
	if settings.Embedding.Dimensions > 0 {
		cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	} else {
		cmd.Printf("  Dimensions: model default\n")
	}
	cmd.Println()

	cmd.Println("[Index]")
	cmd.Printf("  Kind: %s\n", settings.Index.Kind)
	cmd.Printf("  Metric: %s\n", settings.Index.Metric)
	if settings.Index.Kind == domain.IndexIVFFlat {
		cmd.Printf("  NList: %d\n", settings.Index.NList)
		cmd.Printf("  NProbe: %d\n", settings.Index.NProbe)
	}
	cmd.Println()

	cmd.Println("[Ingest]")
	cmd.Printf("  Insert interval: %s\n", settings.Ingest.InsertInterval)
	cmd.Printf("  Workers: %d\n", settings.Ingest.Workers)
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  Top K: %d\n", settings.Search.TopK)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("%s %v\n", color.YellowString("Warning:"), err)
		cmd.Println("Run 'docsearch settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsUnset(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Unset(args[0]); err != nil {
		return fmt.Errorf("failed to unset %s: %w", args[0], err)
	}
	cmd.Printf("%s reset to default\n", args[0])
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if value == "-" {
		cmd.Printf("Enter %s: ", key)
		value = readPassword(cmd.InOrStdin(), bufio.NewReader(cmd.InOrStdin()))
		cmd.Println()
	}

	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	shown := value
	if isSecretKey(key) {
		shown = maskAPIKey(value)
	}
	cmd.Printf("%s = %s\n", key, shown)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Validate(); err != nil {
		return err
	}
	cmd.Println("Settings are valid.")

	cmd.Print("Reaching embedding provider... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Println(color.RedString("FAILED"))
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println(color.GreenString("OK"))
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	heading(cmd, "docsearch setup")
	cmd.Println()

	if err := configureStore(cmd, reader); err != nil {
		return err
	}
	cmd.Println()
	if err := configureEmbeddingProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Settings saved.")
	return nil
}

func configureStore(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Store Backend")
	backends := domain.AllStoreBackends()
	for i, b := range backends {
		cmd.Printf("  %d. %s\n", i+1, b.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	backend := backends[parseChoice(readLine(reader), len(backends), 1)-1]

	if backend.IsRemote() {
		cmd.Print("Enter cluster URI: ")
		uri := readLine(reader)
		if uri == "" {
			return errors.New("a cluster URI is required for this backend")
		}
		if err := settingsService.Set("store.uri", uri); err != nil {
			return err
		}

		cmd.Print("Enter API token (empty for none): ")
		token := readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if token != "" {
			if err := settingsService.Set("store.token", token); err != nil {
				return err
			}
		}
	}

	if err := settingsService.Set("store.backend", backend.String()); err != nil {
		return fmt.Errorf("failed to configure store: %w", err)
	}
	cmd.Printf("Store configured: %s\n", backend.Description())
	return nil
}

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	provider := providers[parseChoice(readLine(reader), len(providers), 1)-1]

	defaultModel := domain.DefaultEmbeddingModels()[provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := orDefault(readLine(reader), defaultModel)

	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey := readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
		if err := settingsService.Set("embedding.api_key", apiKey); err != nil {
			return err
		}
	}

	if err := settingsService.Set("embedding.provider", provider.String()); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}
	if err := settingsService.Set("embedding.model", model); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n", provider.Description(), model)
	return nil
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

// readPassword reads without echo when in is a terminal and otherwise
// reads a plain line from reader, which must wrap in.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
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

func maskOrUnset(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	return maskAPIKey(secret)
}

func orUnset(s string) string {
	return orDefault(s, "(not set)")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// isSecretKey reports whether a settings key holds a credential.
func isSecretKey(key string) bool {
	return strings.HasSuffix(key, ".token") || strings.HasSuffix(key, ".api_key")
}
