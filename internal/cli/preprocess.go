package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"lexrag/internal/adapter/corpus"
	"lexrag/internal/usecase"
)

var preprocessFresh bool

var preprocessCmd = &cobra.Command{
	Use:   "preprocess [law...]",
	Short: "Clean raw texts and split them into per-case chunk files",
	Long: `Normalize "{law}_판례_raw.txt" into "{law}_판례_prep.txt".
Only the listed law types are rewritten; --fresh empties the prep
directory first.

Examples:
  lexrag preprocess
  lexrag preprocess 민법
  lexrag preprocess --fresh`,
	Args:  cobra.ArbitraryArgs,
	RunE:  runPreprocess,
}

func init() {
	rootCmd.AddCommand(preprocessCmd)
	preprocessCmd.Flags().BoolVar(&preprocessFresh, "fresh", false, "empty the prep directory before preprocessing")
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	lawTypes, err := selectLawTypes(cfg, args)
	if err != nil {
		return err
	}
	if err := corpus.ValidatePatterns(cfg.Corpus.ExtraNoisePatterns); err != nil {
		return err
	}

	normalizer := corpus.NewNormalizer(
		corpus.WithPatches(usecase.PatchesFor(cfg.Corpus)),
		corpus.WithExtraNoise(cfg.Corpus.ExtraNoisePatterns),
		corpus.WithUnicodeNFC(cfg.Corpus.NormalizeUnicode),
	)
	uc := usecase.NewPreprocessUseCase(normalizer, cfg.Corpus, logger.Named("preprocess"))

	results, err := uc.Preprocess(cmd.Context(), lawTypes, preprocessFresh)
	if err != nil {
		return fmt.Errorf("preprocessing failed: %w", err)
	}

	fmt.Printf("Preprocessing complete:\n")
	for _, r := range results {
		switch {
		case r.Skipped:
			fmt.Printf("  %-10s skipped (raw text not found)\n", r.LawType)
		case r.Mismatch():
			fmt.Printf("  %-10s %4d chunks (expected %d)\n", r.LawType, r.Segments, r.Expected)
		default:
			fmt.Printf("  %-10s %4d chunks\n", r.LawType, r.Segments)
		}
	}
	fmt.Printf("\nChunk files stored at: %s\n", cfg.Corpus.PrepDir)
	return nil
}
