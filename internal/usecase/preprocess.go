package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"lexrag/config"
	"lexrag/internal/adapter/corpus"
	fsadapter "lexrag/internal/adapter/fs"
	"lexrag/internal/logging"
)

// PreprocessUseCase normalizes raw text files into chunk files.
type PreprocessUseCase struct {
	normalizer *corpus.Normalizer
	corpus     config.CorpusConfig
	logger     logging.Logger
}

func NewPreprocessUseCase(normalizer *corpus.Normalizer, corpusCfg config.CorpusConfig, logger logging.Logger) *PreprocessUseCase {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &PreprocessUseCase{normalizer: normalizer, corpus: corpusCfg, logger: logger}
}

// PreprocessResult reports the segment count of one law type.
type PreprocessResult struct {
	LawType  string
	Segments int
	Expected int
	Skipped  bool
}

// Mismatch reports whether an expected count was configured and missed.
func (r PreprocessResult) Mismatch() bool {
	return !r.Skipped && r.Expected > 0 && r.Segments != r.Expected
}

// Preprocess cleans and splits each raw file into "{law}_판례_prep.txt".
// Only the listed law types' chunk files are rewritten unless fresh is set,
// in which case the prep directory is emptied first. Missing raw files are
// logged and skipped, leaving any existing chunk file in place; a segment
// count differing from the expected count is only a warning.
func (u *PreprocessUseCase) Preprocess(ctx context.Context, lawTypes []config.LawType, fresh bool) ([]PreprocessResult, error) {
	if err := prepareDir(u.corpus.PrepDir, fresh); err != nil {
		return nil, fmt.Errorf("failed to prepare prep directory: %w", err)
	}

	results := make([]PreprocessResult, 0, len(lawTypes))
	for _, lt := range lawTypes {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := PreprocessResult{LawType: lt.Name, Expected: lt.ExpectedCases}

		src := u.corpus.RawPath(lt.Name)
		raw, err := fsadapter.ReadFile(src)
		if errors.Is(err, fs.ErrNotExist) {
			u.logger.Warn("raw text not found", logging.String("law_type", lt.Name), logging.String("path", src))
			res.Skipped = true
			results = append(results, res)
			continue
		}
		if err != nil {
			return results, fmt.Errorf("failed to read %s: %w", src, err)
		}

		segments := u.normalizer.Normalize(lt.Name, raw)
		if err := corpus.WriteChunkFile(u.corpus.PrepPath(lt.Name), segments); err != nil {
			return results, err
		}
		res.Segments = len(segments)

		if res.Mismatch() {
			u.logger.Warn("chunk count does not match expected case count",
				logging.String("law_type", lt.Name),
				logging.Int("chunks", res.Segments),
				logging.Int("expected", res.Expected))
		}
		u.logger.Info("preprocessed", logging.String("law_type", lt.Name), logging.Int("chunks", res.Segments))
		results = append(results, res)
	}
	return results, nil
}

// PatchesFor converts configured line patches into normalizer patches.
func PatchesFor(c config.CorpusConfig) []corpus.Patch {
	patches := make([]corpus.Patch, 0, len(c.Patches))
	for _, p := range c.Patches {
		patches = append(patches, corpus.Patch{LawType: p.LawType, Line: p.Line, Append: p.Append})
	}
	return patches
}

// prepareDir makes sure dir exists and, when fresh, removes the files in it.
func prepareDir(dir string, fresh bool) error {
	if fresh {
		return fsadapter.CleanDir(dir)
	}
	return os.MkdirAll(dir, 0755)
}
