package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kaivue/flowscript/internal/config"
	"github.com/kaivue/flowscript/internal/log"
	"github.com/kaivue/flowscript/pkg/cache"
	"github.com/kaivue/flowscript/pkg/converter"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert a handler script to a function definition",
	Long: `Parses a handler script and emits the equivalent flow function
definition as JSON. Reads from stdin when no file is given or the file is "-".`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		source, inputPath, err := readSource(args)
		if err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("name")
		namespace, _ := cmd.Flags().GetString("namespace")
		output, _ := cmd.Flags().GetString("output")
		noCache, _ := cmd.Flags().GetBool("no-cache")
		indent, _ := cmd.Flags().GetInt("indent")

		if name == "" {
			name = functionNameFor(inputPath, cfg)
		}
		if namespace == "" {
			namespace = cfg.Namespace
		}
		if !cmd.Flags().Changed("indent") {
			indent = cfg.Indent
		}

		opts := converter.Options{FunctionName: name, Namespace: namespace}
		logger := log.Default()
		if cfg.Verbose {
			logger.SetLevel(log.DebugLevel)
		}

		var store *cache.ConversionStore
		if cfg.CacheEnabled && !noCache {
			store = cache.NewConversionStore(cache.ConversionCacheOptions{
				MaxEntries: cfg.CacheMaxEntries,
			}, cfg.CachePath)
			if err := store.Load(); err != nil {
				logger.Warn("could not load conversion cache", "path", cfg.CachePath, "error", err)
			}
		}

		result := convertWithCache(source, opts, store)
		if store != nil {
			if err := store.Save(); err != nil {
				logger.Warn("could not save conversion cache", "path", cfg.CachePath, "error", err)
			}
		}

		for _, w := range result.Warnings {
			logger.Warn(w)
		}
		for _, e := range result.Errors {
			logger.Error(e)
		}

		rendered, err := renderDefinitionJSON(result, indent)
		if err != nil {
			return err
		}

		if err := writeOutput(output, rendered); err != nil {
			return err
		}

		if len(result.Errors) > 0 {
			return fmt.Errorf("conversion finished with %d error(s)", len(result.Errors))
		}
		return nil
	},
}

func init() {
	convertCmd.Flags().StringP("name", "n", "", "Function name for the generated definition")
	convertCmd.Flags().String("namespace", "", "Namespace for the generated definition")
	convertCmd.Flags().StringP("output", "o", "", "Write output to a file instead of stdout")
	convertCmd.Flags().Int("indent", 2, "JSON indentation width")
	convertCmd.Flags().Bool("no-cache", false, "Bypass the conversion cache")
}

// readSource reads handler source from the file argument, or stdin when the
// argument is missing or "-". It returns the source and the input path ("" for
// stdin).
func readSource(args []string) (string, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "", nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), args[0], nil
}

// functionNameFor derives the function name from the input file base name,
// falling back to the configured default for stdin input.
func functionNameFor(inputPath string, cfg *config.Config) string {
	if inputPath == "" {
		return cfg.FunctionName
	}
	base := filepath.Base(inputPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" {
		return cfg.FunctionName
	}
	return name
}

// convertWithCache converts source, consulting the store first when one is
// given.
func convertWithCache(source string, opts converter.Options, store *cache.ConversionStore) *converter.Result {
	conv := converter.New()
	if store == nil {
		return conv.Convert(source, opts)
	}

	key := cache.ConversionKey(source, opts)
	if cached, found := store.Get(key); found {
		return cached
	}

	result := conv.Convert(source, opts)
	if err := store.Set(key, result); err != nil {
		log.Default().Debug("could not cache conversion result", "error", err)
	}
	return result
}

// renderDefinitionJSON renders the converted definition as indented JSON.
func renderDefinitionJSON(result *converter.Result, indent int) (string, error) {
	data, err := jsonMarshalIndent(result.Function, indent)
	if err != nil {
		return "", fmt.Errorf("encoding function definition: %w", err)
	}
	return data, nil
}

// jsonMarshalIndent renders v as JSON indented with the given number of
// spaces.
func jsonMarshalIndent(v interface{}, indent int) (string, error) {
	data, err := json.MarshalIndent(v, "", strings.Repeat(" ", indent))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// writeOutput writes content to the output path, or stdout when the path is
// empty.
func writeOutput(path, content string) error {
	if path == "" {
		fmt.Println(content)
		return nil
	}
	if err := os.WriteFile(path, []byte(content+"\n"), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
