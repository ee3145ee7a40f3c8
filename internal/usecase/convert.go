package usecase

import (
	"context"
	"fmt"
	"os"

	"lexrag/config"
	"lexrag/internal/logging"
)

// PageExtractor pulls plain text out of a page range of a document.
type PageExtractor interface {
	ExtractPages(path string, start, end int) (string, error)
}

// ConvertUseCase turns each law type's judgment PDF into a raw text file.
type ConvertUseCase struct {
	extractor PageExtractor
	corpus    config.CorpusConfig
	logger    logging.Logger
}

func NewConvertUseCase(extractor PageExtractor, corpus config.CorpusConfig, logger logging.Logger) *ConvertUseCase {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ConvertUseCase{extractor: extractor, corpus: corpus, logger: logger}
}

// ConvertResult lists which law types were written and which were skipped.
type ConvertResult struct {
	Converted []string
	Skipped   []string
}

// Convert writes "{law}_판례_raw.txt" for every listed law type whose PDF
// exists. With fresh set the raw directory is emptied first; otherwise other
// law types' raw files are left alone. A missing PDF is logged and skipped.
func (u *ConvertUseCase) Convert(ctx context.Context, lawTypes []config.LawType, fresh bool, progress func(lawType string)) (*ConvertResult, error) {
	if err := prepareDir(u.corpus.RawDir, fresh); err != nil {
		return nil, fmt.Errorf("failed to prepare raw directory: %w", err)
	}

	result := &ConvertResult{}
	for _, lt := range lawTypes {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if progress != nil {
			progress(lt.Name)
		}

		src := u.corpus.PDFPath(lt.Name)
		if _, err := os.Stat(src); err != nil {
			u.logger.Warn("source PDF not found", logging.String("law_type", lt.Name), logging.String("path", src))
			result.Skipped = append(result.Skipped, lt.Name)
			continue
		}

		text, err := u.extractor.ExtractPages(src, lt.StartPage, lt.EndPage)
		if err != nil {
			return result, fmt.Errorf("failed to extract %s: %w", src, err)
		}

		dst := u.corpus.RawPath(lt.Name)
		if err := os.WriteFile(dst, []byte(text), 0644); err != nil {
			return result, fmt.Errorf("failed to write %s: %w", dst, err)
		}
		u.logger.Info("converted PDF", logging.String("law_type", lt.Name), logging.Int("chars", len([]rune(text))))
		result.Converted = append(result.Converted, lt.Name)
	}
	return result, nil
}
