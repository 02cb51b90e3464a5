// Package storage archives batch results. Local mode appends JSONL under a
// data directory; AWS mode writes batches to S3 and the latest per-campaign
// summary to DynamoDB.
package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ignite/campaign-optimizer/internal/config"
	"github.com/ignite/campaign-optimizer/internal/engine"
)

// BatchSummary is the compact per-batch record kept for quick lookups.
type BatchSummary struct {
	BatchID       string    `json:"batch_id"`
	CompletedAt   time.Time `json:"completed_at"`
	ActionCount   int       `json:"action_count"`
	ProposalCount int       `json:"proposal_count"`
	AnomalyCount  int       `json:"anomaly_count"`
	AlertCount    int       `json:"alert_count"`
}

// Summarize reduces a batch result to its summary record.
func Summarize(result *engine.BatchResult) BatchSummary {
	return BatchSummary{
		BatchID:       result.BatchID,
		CompletedAt:   result.CompletedAt,
		ActionCount:   len(result.FiredActions),
		ProposalCount: len(result.ReallocationProposals),
		AnomalyCount:  len(result.Anomalies),
		AlertCount:    len(result.Alerts),
	}
}

// Storage persists batch results to the configured backend.
type Storage struct {
	config config.StorageConfig
	mu     sync.Mutex

	// AWS storage (optional)
	aws *AWSStorage
}

// New creates a Storage instance for the configured backend type.
func New(cfg config.StorageConfig) (*Storage, error) {
	s := &Storage{config: cfg}

	switch cfg.Type {
	case "aws":
		awsStorage, err := NewAWSStorage(context.Background(), cfg.DynamoDBTable, cfg.S3Bucket, cfg.AWSRegion, cfg.GetAWSProfile())
		if err != nil {
			return nil, fmt.Errorf("initializing AWS storage: %w", err)
		}
		s.aws = awsStorage
	case "local":
		if err := os.MkdirAll(cfg.LocalPath, 0755); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}

	return s, nil
}

// ArchiveBatch appends one batch result to the archive and records its
// summary.
func (s *Storage) ArchiveBatch(ctx context.Context, result *engine.BatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.aws != nil {
		if err := s.aws.SaveBatchToS3(ctx, result); err != nil {
			return err
		}
		return s.aws.SaveBatchSummary(ctx, Summarize(result))
	}
	return s.appendLocal(result)
}

// appendLocal writes the result as one JSONL line in a per-day file.
func (s *Storage) appendLocal(result *engine.BatchResult) error {
	path := filepath.Join(s.config.LocalPath, fmt.Sprintf("batches-%s.jsonl", result.CompletedAt.UTC().Format("2006-01-02")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", path, err)
	}
	defer f.Close()

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling batch %s: %w", result.BatchID, err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending batch %s: %w", result.BatchID, err)
	}
	return nil
}

// LoadDay reads every batch archived on the given UTC day. AWS mode is not
// supported for replay; use the S3 keys directly.
func (s *Storage) LoadDay(day time.Time) ([]*engine.BatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.aws != nil {
		return nil, fmt.Errorf("day replay is local-only")
	}

	path := filepath.Join(s.config.LocalPath, fmt.Sprintf("batches-%s.jsonl", day.UTC().Format("2006-01-02")))
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	defer f.Close()

	var out []*engine.BatchResult
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		var result engine.BatchResult
		if err := json.Unmarshal(scanner.Bytes(), &result); err != nil {
			return nil, fmt.Errorf("decoding archive %s: %w", path, err)
		}
		out = append(out, &result)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading archive %s: %w", path, err)
	}
	return out, nil
}
