package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/kaivue/flowscript/internal/config"
	"github.com/kaivue/flowscript/internal/log"
	"github.com/kaivue/flowscript/internal/scanner"
	"github.com/kaivue/flowscript/pkg/cache"
	"github.com/kaivue/flowscript/pkg/converter"
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch [dir]",
	Short: "Convert every handler script under a directory",
	Long: `Walks a directory for handler scripts and converts each to a flow
function definition, written next to the source file (or into --out-dir) with
a .json extension. Scripts with conversion errors are reported and skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) > 0 {
			root = args[0]
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		outDir, _ := cmd.Flags().GetString("out-dir")
		workers, _ := cmd.Flags().GetInt("workers")
		noCache, _ := cmd.Flags().GetBool("no-cache")
		if workers <= 0 {
			workers = runtime.NumCPU()
		}

		logger := log.Default()
		if cfg.Verbose {
			logger.SetLevel(log.DebugLevel)
		}

		files, err := scanner.ScanScripts(root, cfg.Extensions)
		if err != nil {
			return fmt.Errorf("scanning %s: %w", root, err)
		}
		if len(files) == 0 {
			logger.Info("no handler scripts found", "dir", root)
			return nil
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

		spinner := log.NewProgressSpinner(fmt.Sprintf("Converting %d scripts...", len(files)))
		spinner.Start()

		var (
			mu        sync.Mutex
			converted int
			failed    []string
			diags     []string
		)

		jobs := make(chan scanner.FileInfo)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for f := range jobs {
					result, err := convertScript(f, cfg, store)
					mu.Lock()
					if err != nil {
						failed = append(failed, fmt.Sprintf("%s: %v", f.Path, err))
					} else {
						converted++
						for _, w := range result.Warnings {
							diags = append(diags, fmt.Sprintf("%s: %s", f.Path, w))
						}
					}
					spinner.Message(fmt.Sprintf("Converted %d/%d scripts...", converted, len(files)))
					mu.Unlock()

					if err == nil {
						if werr := writeDefinition(root, outDir, f, result, cfg.Indent); werr != nil {
							mu.Lock()
							failed = append(failed, fmt.Sprintf("%s: %v", f.Path, werr))
							converted--
							mu.Unlock()
						}
					}
				}
			}()
		}

		for _, f := range files {
			jobs <- f
		}
		close(jobs)
		wg.Wait()
		spinner.Stop()

		if store != nil {
			if err := store.Save(); err != nil {
				logger.Warn("could not save conversion cache", "path", cfg.CachePath, "error", err)
			}
			stats := store.Stats()
			logger.Debug("conversion cache", "hits", stats.HitCount, "misses", stats.MissCount)
		}

		for _, d := range diags {
			logger.Warn(d)
		}
		for _, f := range failed {
			logger.Error(f)
		}
		logger.Info("batch conversion done", "converted", converted, "failed", len(failed))

		if len(failed) > 0 {
			return fmt.Errorf("%d script(s) failed to convert", len(failed))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().String("out-dir", "", "Directory for generated definitions (default: next to each script)")
	batchCmd.Flags().Int("workers", 0, "Number of conversion workers (default: number of CPUs)")
	batchCmd.Flags().Bool("no-cache", false, "Bypass the conversion cache")
}

// convertScript converts one scanned script file. A result carrying errors is
// reported as a failure.
func convertScript(f scanner.FileInfo, cfg *config.Config, store *cache.ConversionStore) (*converter.Result, error) {
	data, err := os.ReadFile(f.FullPath)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}

	base := filepath.Base(f.Path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" {
		name = cfg.FunctionName
	}

	opts := converter.Options{FunctionName: name, Namespace: cfg.Namespace}
	result := convertWithCache(string(data), opts, store)
	if len(result.Errors) > 0 {
		return result, fmt.Errorf("conversion errors: %s", strings.Join(result.Errors, "; "))
	}
	return result, nil
}

// writeDefinition writes the converted definition alongside the script, or
// mirrored under outDir when set.
func writeDefinition(root, outDir string, f scanner.FileInfo, result *converter.Result, indent int) error {
	relJSON := strings.TrimSuffix(f.Path, filepath.Ext(f.Path)) + ".json"

	var target string
	if outDir == "" {
		target = strings.TrimSuffix(f.FullPath, filepath.Ext(f.FullPath)) + ".json"
	} else {
		target = filepath.Join(outDir, filepath.FromSlash(relJSON))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	rendered, err := renderDefinitionJSON(result, indent)
	if err != nil {
		return err
	}
	if err := os.WriteFile(target, []byte(rendered+"\n"), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	return nil
}
