package potential

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/quenbyak/epsel/blobstore"
	"github.com/quenbyak/epsel/resource"
)

const fetchChunkSize = 1 << 20 // 1 MiB per rate-limited read

// Resolver materializes model artifact references as local files.
//
// A reference that exists on the local filesystem is returned as-is.
// Anything else is treated as a blob name in the configured store and
// downloaded into the cache directory, throttled through the resource
// controller's fetch limiter. Downloads are written to a temp file and
// renamed, so a partially fetched artifact is never visible.
type Resolver struct {
	store    blobstore.BlobStore
	cacheDir string
	ctrl     *resource.Controller
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithFetchController throttles downloads through ctrl.
func WithFetchController(ctrl *resource.Controller) ResolverOption {
	return func(r *Resolver) { r.ctrl = ctrl }
}

// NewResolver creates a Resolver. store may be nil, in which case only local
// references resolve.
func NewResolver(store blobstore.BlobStore, cacheDir string, opts ...ResolverOption) *Resolver {
	r := &Resolver{store: store, cacheDir: cacheDir}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns a local path for the given artifact reference.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	if _, err := os.Stat(ref); err == nil {
		return ref, nil
	}
	if r.store == nil {
		return "", fmt.Errorf("potential: artifact %s not found locally and no blob store configured", ref)
	}

	local := filepath.Join(r.cacheDir, cacheKey(ref))
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}
	if err := os.MkdirAll(r.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("potential: create artifact cache %s: %w", r.cacheDir, err)
	}

	if err := r.fetch(ctx, ref, local); err != nil {
		return "", fmt.Errorf("potential: fetch artifact %s: %w", ref, err)
	}
	return local, nil
}

// cacheKey derives a collision-free cache file name for a reference.
// Committee members conventionally share a basename (00/graph.pb,
// 01/graph.pb), so the basename alone cannot key the cache.
func cacheKey(ref string) string {
	sum := sha256.Sum256([]byte(ref))
	return fmt.Sprintf("%x-%s", sum[:8], filepath.Base(ref))
}

func (r *Resolver) fetch(ctx context.Context, ref, local string) error {
	b, err := r.store.Open(ctx, ref)
	if err != nil {
		return err
	}
	defer b.Close()

	tmp, err := os.CreateTemp(r.cacheDir, filepath.Base(ref)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	buf := make([]byte, fetchChunkSize)
	size := b.Size()
	for off := int64(0); off < size; {
		n := int64(len(buf))
		if size-off < n {
			n = size - off
		}
		if err := r.ctrl.WaitFetch(ctx, n); err != nil {
			return err
		}
		read, err := b.ReadAt(buf[:n], off)
		if read > 0 {
			if _, werr := tmp.Write(buf[:read]); werr != nil {
				return werr
			}
			off += int64(read)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), local)
}
