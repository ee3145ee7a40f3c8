package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"lexrag/config"
	"lexrag/internal/adapter/corpus"
	"lexrag/internal/domain"
	"lexrag/internal/logging"
	"lexrag/internal/metrics"
)

// DocumentIndex is the text-level collection the index builder writes to.
type DocumentIndex interface {
	Add(ctx context.Context, documents []string, metadatas []map[string]string, ids []string) error
	Delete(ctx context.Context, where map[string]string) (int, error)
	Count(ctx context.Context) (int, error)
}

// IndexUseCase loads parsed judgments into the vector collection.
type IndexUseCase struct {
	index       DocumentIndex
	corpus      config.CorpusConfig
	publicRatio float64
	metrics     *metrics.Metrics
	logger      logging.Logger
}

// NewIndexUseCase creates an index builder. publicRatio in (0, 1) splits each
// law type into public and private partitions; 0 disables partitions.
func NewIndexUseCase(
	index DocumentIndex,
	corpusCfg config.CorpusConfig,
	publicRatio float64,
	m *metrics.Metrics,
	logger logging.Logger,
) *IndexUseCase {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &IndexUseCase{
		index:       index,
		corpus:      corpusCfg,
		publicRatio: publicRatio,
		metrics:     m,
		logger:      logger,
	}
}

// IndexResult contains the results of indexing one law type.
type IndexResult struct {
	LawType  string
	Chunks   int
	Added    int
	Deleted  int
	Expected int
	Skipped  bool
	Duration time.Duration
}

// AddLaw parses chunks and stores those with content under ids
// "{lawType}_{offset+i+1}". It returns the number stored.
func (u *IndexUseCase) AddLaw(ctx context.Context, lawType string, chunks []string, offset int) (int, error) {
	return u.addLaw(ctx, lawType, "", chunks, offset)
}

func (u *IndexUseCase) addLaw(ctx context.Context, lawType, partition string, chunks []string, offset int) (int, error) {
	docs := make([]string, 0, len(chunks))
	metas := make([]map[string]string, 0, len(chunks))
	ids := make([]string, 0, len(chunks))

	for i, chunk := range chunks {
		rec := corpus.ParseChunk(chunk)
		if !rec.HasContent() {
			continue
		}
		id := fmt.Sprintf("%s_%d", lawType, offset+i+1)
		if rec.CaseNumber == "" {
			u.logger.Warn("chunk has no case number line", logging.String("id", id), logging.String("title", rec.Title))
		}

		meta := map[string]string{
			domain.MetaLawType:    lawType,
			domain.MetaTitle:      rec.Title,
			domain.MetaCaseNumber: rec.CaseNumber,
			domain.MetaRationale:  rec.Rationale,
		}
		if partition != "" {
			meta[domain.MetaPartition] = partition
		}

		docs = append(docs, rec.Content)
		metas = append(metas, meta)
		ids = append(ids, id)
	}

	if len(docs) == 0 {
		return 0, nil
	}
	if err := u.index.Add(ctx, docs, metas, ids); err != nil {
		return 0, fmt.Errorf("failed to index %s: %w", lawType, err)
	}
	return len(docs), nil
}

// Rebuild replaces every listed law type: once its prep file is read, all of
// its documents are deleted before the chunks are added. Law types whose prep
// file is missing are skipped untouched. Callers must hold exclusive
// access to the index for the duration.
func (u *IndexUseCase) Rebuild(ctx context.Context, lawTypes []config.LawType, progress func(IndexResult)) ([]IndexResult, error) {
	defer u.metrics.ObserveStage(metrics.StageRebuild, time.Now())

	results := make([]IndexResult, 0, len(lawTypes))
	for _, lt := range lawTypes {
		res, err := u.rebuildLaw(ctx, lt)
		if err != nil {
			return results, err
		}
		if progress != nil {
			progress(res)
		}
		results = append(results, res)
	}
	return results, nil
}

func (u *IndexUseCase) rebuildLaw(ctx context.Context, lt config.LawType) (IndexResult, error) {
	start := time.Now()
	res := IndexResult{LawType: lt.Name, Expected: lt.ExpectedCases}

	// A law type without a chunk file keeps its indexed documents.
	path := u.corpus.PrepPath(lt.Name)
	chunks, err := corpus.ReadChunkFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		u.logger.Warn("preprocessed file not found, keeping indexed documents",
			logging.String("law_type", lt.Name), logging.String("path", path))
		res.Skipped = true
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("failed to read %s: %w", path, err)
	}
	res.Chunks = len(chunks)

	deleted, err := u.index.Delete(ctx, map[string]string{domain.MetaLawType: lt.Name})
	if err != nil {
		return res, fmt.Errorf("failed to delete %s: %w", lt.Name, err)
	}
	res.Deleted = deleted

	if lt.ExpectedCases > 0 && len(chunks) != lt.ExpectedCases {
		u.logger.Warn("chunk count does not match expected case count",
			logging.String("law_type", lt.Name),
			logging.Int("chunks", len(chunks)),
			logging.Int("expected", lt.ExpectedCases))
	}

	if u.publicRatio > 0 {
		split := PublicSplit(len(chunks), u.publicRatio)
		pub, err := u.addLaw(ctx, lt.Name, domain.PartitionPublic, chunks[:split], 0)
		if err != nil {
			return res, err
		}
		priv, err := u.addLaw(ctx, lt.Name, domain.PartitionPrivate, chunks[split:], split)
		if err != nil {
			return res, err
		}
		res.Added = pub + priv
	} else {
		added, err := u.AddLaw(ctx, lt.Name, chunks, 0)
		if err != nil {
			return res, err
		}
		res.Added = added
	}

	res.Duration = time.Since(start)
	u.metrics.SetIndexed(lt.Name, res.Added)
	u.logger.Info("indexed law type",
		logging.String("law_type", lt.Name),
		logging.Int("added", res.Added),
		logging.Int("chunks", res.Chunks),
		logging.Int("deleted", res.Deleted),
		logging.Duration("duration", res.Duration))
	return res, nil
}

// PublicSplit returns how many leading chunks of n go to the public
// partition: int(n*ratio)+1, capped at n.
func PublicSplit(n int, ratio float64) int {
	if n == 0 {
		return 0
	}
	split := int(float64(n)*ratio) + 1
	if split > n {
		split = n
	}
	return split
}

// Count returns the number of indexed documents.
func (u *IndexUseCase) Count(ctx context.Context) (int, error) {
	return u.index.Count(ctx)
}
