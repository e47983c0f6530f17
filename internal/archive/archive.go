// Package archive persists completed optimization results to durable
// storage so they survive the in-memory job table's eviction.
package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/quantsweep/quantsweep/internal/core"
)

// Storage is the interface job snapshots are written through.
type Storage interface {
	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// JobPath is where a job snapshot lands inside the storage backend.
func JobPath(jobID string) string {
	return fmt.Sprintf("jobs/%s.json", jobID)
}

// SaveJob serializes a completed job snapshot under jobs/<id>.json.
func SaveJob(ctx context.Context, s Storage, jobID string, snapshot any) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	if err := s.Write(ctx, JobPath(jobID), data); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	return nil
}

// LoadJob reads a previously archived job snapshot into dst.
func LoadJob(ctx context.Context, s Storage, jobID string, dst any) error {
	data, err := s.Read(ctx, JobPath(jobID))
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	return nil
}
