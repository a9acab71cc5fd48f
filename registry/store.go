package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/quenbyak/epsel/blobstore"
)

// Store persists environments. Implementations must make Put atomic: a
// reader never observes a partially written environment.
type Store interface {
	// Put atomically writes or replaces an environment.
	Put(ctx context.Context, env *Environment) error

	// Get returns the labeled environment, or *ErrUnknownLabel.
	Get(ctx context.Context, label string) (*Environment, error)

	// Delete removes an environment. Deleting a missing label is not an
	// error.
	Delete(ctx context.Context, label string) error

	// List returns all stored labels, sorted.
	List(ctx context.Context) ([]string, error)
}

const (
	blobPrefix = "envs/"
	blobSuffix = ".json"
)

// BlobStore persists environments as JSON documents in a blobstore.
// Backed by the local filesystem it matches the classic per-label env file
// layout; backed by object storage it shares one registry across a cluster.
type BlobStore struct {
	bs blobstore.BlobStore
}

// NewBlobStore creates a Store over any blobstore backend.
func NewBlobStore(bs blobstore.BlobStore) *BlobStore {
	return &BlobStore{bs: bs}
}

func blobName(label string) string {
	return blobPrefix + label + blobSuffix
}

// Put implements Store.
func (s *BlobStore) Put(ctx context.Context, env *Environment) error {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("encode environment %q: %w", env.Label, err)
	}
	if err := s.bs.Put(ctx, blobName(env.Label), data); err != nil {
		return fmt.Errorf("write environment %q: %w", env.Label, err)
	}
	return nil
}

// Get implements Store.
func (s *BlobStore) Get(ctx context.Context, label string) (*Environment, error) {
	b, err := s.bs.Open(ctx, blobName(label))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, &ErrUnknownLabel{Label: label}
		}
		return nil, fmt.Errorf("read environment %q: %w", label, err)
	}
	defer b.Close()

	data, err := io.ReadAll(io.NewSectionReader(b, 0, b.Size()))
	if err != nil {
		return nil, fmt.Errorf("read environment %q: %w", label, err)
	}

	var env Environment
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode environment %q: %w", label, err)
	}
	return &env, nil
}

// Delete implements Store.
func (s *BlobStore) Delete(ctx context.Context, label string) error {
	return s.bs.Delete(ctx, blobName(label))
}

// List implements Store.
func (s *BlobStore) List(ctx context.Context) ([]string, error) {
	names, err := s.bs.List(ctx, blobPrefix)
	if err != nil {
		return nil, fmt.Errorf("list environments: %w", err)
	}
	labels := make([]string, 0, len(names))
	for _, name := range names {
		label := strings.TrimSuffix(strings.TrimPrefix(name, blobPrefix), blobSuffix)
		if label != "" {
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)
	return labels, nil
}
