package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/kaivue/flowscript/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize flowc configuration interactively",
	Long: `Guides you through setting up flowc configuration step by step.
Creates a config file with conversion defaults and cache settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	cfg := config.DefaultConfig()

	// === SECTION 1: Conversion defaults ===
	namespace := cfg.Namespace
	functionName := cfg.FunctionName
	indentChoice := strconv.Itoa(cfg.Indent)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Default namespace for converted functions").
				Description("Applied when a script is converted without an explicit namespace").
				Placeholder("optional").
				Value(&namespace),
			huh.NewInput().
				Title("Default function name").
				Placeholder("eventHandler").
				Value(&functionName),
			huh.NewSelect[string]().
				Title("JSON indentation").
				Options(
					huh.NewOption("2 spaces", "2"),
					huh.NewOption("4 spaces", "4"),
				).
				Value(&indentChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 2: Conversion cache ===
	cacheEnabled := cfg.CacheEnabled
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Conversion cache").
				Description("Reuse results for unchanged scripts across runs?").
				Affirmative("Enable").
				Negative("Disable").
				Value(&cacheEnabled),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	cachePath := cfg.CachePath
	if cacheEnabled {
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Cache file path").
					Placeholder(cfg.CachePath).
					Value(&cachePath),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
	}

	// === SECTION 3: Config location ===
	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Global (~/.flowc/config.yaml)", "global"),
					huh.NewOption("Project (./.flowc/config.yaml)", "project"),
				).
				Value(&saveLocationChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	var configPath string
	if saveLocationChoice == "global" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("getting home directory: %w", err)
		}
		configPath = filepath.Join(home, ".flowc", "config.yaml")
	} else {
		configPath = ".flowc/config.yaml"
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	// === Build config struct ===
	cfg.Namespace = namespace
	cfg.FunctionName = functionName
	if indent, err := strconv.Atoi(indentChoice); err == nil {
		cfg.Indent = indent
	}
	cfg.CacheEnabled = cacheEnabled
	if cachePath != "" {
		cfg.CachePath = cachePath
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// Show config preview
	fmt.Println("\n=== Configuration Preview ===")
	fmt.Printf("Config path: %s\n", configPath)
	if cfg.Namespace != "" {
		fmt.Printf("Namespace: %s\n", cfg.Namespace)
	}
	fmt.Printf("Function name: %s\n", cfg.FunctionName)
	fmt.Printf("Indent: %d\n", cfg.Indent)
	if cfg.CacheEnabled {
		fmt.Printf("Cache: enabled (%s)\n", cfg.CachePath)
	} else {
		fmt.Println("Cache: disabled")
	}
	fmt.Println("================================")

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Configuration saved to: %s\n", configPath)

	return nil
}

func init() {
	RootCmd.AddCommand(initCmd)
}
