package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
	"lexrag/config"
)

// CurrentSchemaVersion is bumped whenever the bucket layout changes.
const CurrentSchemaVersion = 1

var keyManifest = []byte("manifest")

// SchemaInfo is the manifest kept in the meta bucket. It records which
// embedding setup produced the stored vectors.
type SchemaInfo struct {
	Version        int       `json:"version"`
	ConfigHash     string    `json:"config_hash"`
	EmbeddingModel string    `json:"embedding_model,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// GetSchemaInfo reads the manifest. A file without one reports version 0.
func (s *BoltStore) GetSchemaInfo() (*SchemaInfo, error) {
	info := &SchemaInfo{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if b == nil {
			return nil
		}
		raw := b.Get(keyManifest)
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, info); err != nil {
			// unreadable manifest: treat as uninitialized
			*info = SchemaInfo{}
		}
		return nil
	})
	return info, err
}

func (s *BoltStore) SetSchemaInfo(info *SchemaInfo) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		return b.Put(keyManifest, raw)
	})
}

// ComputeConfigHash fingerprints the settings stored vectors depend on:
// the collection, the embedding model and its dimension, and the partition
// ratio that decides which ids exist.
func ComputeConfigHash(cfg *config.Config) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%d\x00%.4f",
		cfg.Index.Collection,
		cfg.Embedding.Provider,
		cfg.Embedding.Model,
		cfg.Embedding.Dimension,
		cfg.Index.PublicRatio,
	)
	return hex.EncodeToString(h.Sum(nil)[:8])
}

type MigrationResult struct {
	NeedsMigration bool
	NeedsRebuild   bool
	OldVersion     int
	NewVersion     int
	Reason         string
}

// CheckMigration compares the manifest against cfg. A schema newer than this
// build, or vectors produced by another embedding setup, require a rebuild.
func (s *BoltStore) CheckMigration(cfg *config.Config) (*MigrationResult, error) {
	info, err := s.GetSchemaInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to read index manifest: %w", err)
	}

	res := &MigrationResult{OldVersion: info.Version, NewVersion: CurrentSchemaVersion}
	if info.Version > CurrentSchemaVersion {
		res.NeedsRebuild = true
		res.Reason = fmt.Sprintf("index written by a newer schema (v%d > v%d)", info.Version, CurrentSchemaVersion)
		return res, nil
	}
	if info.Version < CurrentSchemaVersion {
		res.NeedsMigration = true
		res.Reason = fmt.Sprintf("schema v%d -> v%d", info.Version, CurrentSchemaVersion)
	}
	if info.ConfigHash != "" && info.ConfigHash != ComputeConfigHash(cfg) {
		res.NeedsRebuild = true
		res.Reason = fmt.Sprintf("embedding setup changed (was %s)", info.EmbeddingModel)
	}
	return res, nil
}

// Migrate upgrades the schema step by step and stamps the manifest for cfg.
func (s *BoltStore) Migrate(cfg *config.Config) error {
	info, err := s.GetSchemaInfo()
	if err != nil {
		return err
	}
	for v := info.Version; v < CurrentSchemaVersion; v++ {
		if err := s.migrateStep(v); err != nil {
			return fmt.Errorf("schema migration v%d -> v%d: %w", v, v+1, err)
		}
	}
	return s.SetSchemaInfo(&SchemaInfo{
		Version:        CurrentSchemaVersion,
		ConfigHash:     ComputeConfigHash(cfg),
		EmbeddingModel: cfg.Embedding.Provider + "/" + cfg.Embedding.Model,
		UpdatedAt:      time.Now().UTC(),
	})
}

func (s *BoltStore) migrateStep(from int) error {
	if from != 0 {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	})
}

// Clear drops every collection bucket. The manifest survives.
func (s *BoltStore) Clear() error {
	names, err := s.Collections()
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range names {
			err := tx.DeleteBucket(collectionBucket(name))
			if err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return err
			}
		}
		return nil
	})
}

// NeedsRebuild reports whether the stored vectors are unusable under cfg.
func (s *BoltStore) NeedsRebuild(cfg *config.Config) (bool, string, error) {
	res, err := s.CheckMigration(cfg)
	if err != nil {
		return false, "", err
	}
	return res.NeedsRebuild, res.Reason, nil
}
