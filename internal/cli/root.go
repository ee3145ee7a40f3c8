package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"lexrag/config"
	"lexrag/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	verbose bool
	logger  logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "lexrag",
	Short: "Korean legal QA over a judgment corpus and the national precedent API",
	Long: `lexrag builds a vector index of Korean court judgments and answers legal
questions with context from the index and from the law.go.kr precedent API.

Example usage:
  lexrag convert                       # PDF -> raw text
  lexrag preprocess                    # raw text -> chunk files
  lexrag index                         # chunk files -> vector index
  lexrag ask -q "전세 보증금을 못 받았어요"  # answer a question
  lexrag serve                         # HTTP API`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		// A missing .env is fine; keys may come from the environment.
		_ = godotenv.Load(filepath.Join(rootDir, ".env"))

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		resolvePaths(cfg, rootDir)

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.NewLogger(logging.LogConfig{Level: level, Format: cfg.Logging.Format})
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./lexrag.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "project directory (default is current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// resolvePaths anchors relative data paths at the project directory.
func resolvePaths(c *config.Config, dir string) {
	c.Corpus.JudgementsDir = config.ResolvePath(dir, c.Corpus.JudgementsDir)
	c.Corpus.RawDir = config.ResolvePath(dir, c.Corpus.RawDir)
	c.Corpus.PrepDir = config.ResolvePath(dir, c.Corpus.PrepDir)
	c.Index.Path = config.ResolvePath(dir, c.Index.Path)
	c.Pack.DebugDumpDir = config.ResolvePath(dir, c.Pack.DebugDumpDir)
	c.LLM.SystemPromptFile = config.ResolvePath(dir, c.LLM.SystemPromptFile)
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

// selectLawTypes returns the configured law types named in args, or all of
// them when args is empty.
func selectLawTypes(c *config.Config, args []string) ([]config.LawType, error) {
	if len(args) == 0 {
		return c.Corpus.LawTypes, nil
	}
	out := make([]config.LawType, 0, len(args))
	for _, name := range args {
		lt, ok := c.Corpus.LawType(name)
		if !ok {
			return nil, fmt.Errorf("unknown law type %q (configured: %s)", name, strings.Join(c.Corpus.LawNames(), ", "))
		}
		out = append(out, lt)
	}
	return out, nil
}
