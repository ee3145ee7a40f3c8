package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"lexrag/config"
	"lexrag/internal/adapter/corpus"
	"lexrag/internal/adapter/fs"
	"lexrag/internal/usecase"
)

var (
	convertDiscover bool
	convertFresh    bool
)

var convertCmd = &cobra.Command{
	Use:   "convert [law...]",
	Short: "Extract raw text from judgment PDFs",
	Long: `Extract the configured page range of each "{law}_판례.pdf" into
"{law}_판례_raw.txt". Raw files of other law types are kept unless
--fresh empties the raw text directory first.

Examples:
  lexrag convert              # all configured law types
  lexrag convert 민법 형법
  lexrag convert --discover   # law types found next to the PDFs
  lexrag convert --fresh      # start from an empty raw directory`,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().BoolVar(&convertDiscover, "discover", false, "convert every *_판례.pdf found, not only configured law types")
	convertCmd.Flags().BoolVar(&convertFresh, "fresh", false, "empty the raw text directory before converting")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	lawTypes, err := selectLawTypes(cfg, args)
	if err != nil {
		return err
	}
	if convertDiscover {
		lawTypes, err = discoverLawTypes(cfg)
		if err != nil {
			return err
		}
	}
	if len(lawTypes) == 0 {
		fmt.Println("No law types to convert.")
		return nil
	}

	bar := newProgressBar(len(lawTypes), "Converting")
	uc := usecase.NewConvertUseCase(corpus.NewPDFExtractor(), cfg.Corpus, logger.Named("convert"))
	result, err := uc.Convert(cmd.Context(), lawTypes, convertFresh, func(lawType string) {
		bar.Describe(fmt.Sprintf("[cyan]Converting[reset] %s", lawType))
		_ = bar.Add(1)
	})
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	fmt.Printf("\nConversion complete:\n")
	fmt.Printf("  Converted: %d %v\n", len(result.Converted), result.Converted)
	if len(result.Skipped) > 0 {
		fmt.Printf("  Skipped:   %d %v (PDF not found)\n", len(result.Skipped), result.Skipped)
	}
	fmt.Printf("\nRaw texts stored at: %s\n", cfg.Corpus.RawDir)
	return nil
}

// discoverLawTypes lists PDFs on disk, keeping configured page ranges for
// known law types.
func discoverLawTypes(cfg *config.Config) ([]config.LawType, error) {
	names, err := fs.DiscoverLawTypes(cfg.Corpus.JudgementsDir, "_판례.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", cfg.Corpus.JudgementsDir, err)
	}
	out := make([]config.LawType, 0, len(names))
	for _, name := range names {
		lt, ok := cfg.Corpus.LawType(name)
		if !ok {
			lt = config.LawType{Name: name, StartPage: 1}
		}
		out = append(out, lt)
	}
	return out, nil
}
