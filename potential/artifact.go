package potential

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/quenbyak/epsel/blobstore"
	"github.com/quenbyak/epsel/internal/mmap"
)

const (
	artifactMagic   = 0x45505354 // "EPST"
	artifactVersion = 1

	artifactHeaderSize = 16 // magic + version + checksum + payload length
)

// ArtifactHeader is the self-describing prefix of a model artifact file.
// It carries everything needed to validate an artifact without loading the
// model weights: the backend kind and the species type map the model was
// trained with.
//
// Layout:
//
//	Magic (4 bytes)
//	Version (4 bytes)
//	Checksum (4 bytes) - CRC32 of payload
//	PayloadLength (4 bytes)
//	Payload - JSON-encoded header fields
//
// The model weights follow the payload and are opaque to this package.
type ArtifactHeader struct {
	Kind    string  `json:"kind"`
	TypeMap TypeMap `json:"type_map"`
}

// WriteArtifactHeader writes the artifact header prefix to w. Model weights
// are appended by the backend after the header.
func WriteArtifactHeader(w io.Writer, h *ArtifactHeader) error {
	payload, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("potential: encode artifact header: %w", err)
	}

	header := make([]byte, artifactHeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], artifactMagic)
	binary.LittleEndian.PutUint32(header[4:8], artifactVersion)
	binary.LittleEndian.PutUint32(header[8:12], crc32.ChecksumIEEE(payload))
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(payload)))

	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// ReadArtifactHeader reads and validates an artifact header from r.
func ReadArtifactHeader(r io.Reader) (*ArtifactHeader, error) {
	header := make([]byte, artifactHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("potential: read artifact header: %w", err)
	}

	if magic := binary.LittleEndian.Uint32(header[0:4]); magic != artifactMagic {
		return nil, fmt.Errorf("potential: bad artifact magic 0x%08x", magic)
	}
	if version := binary.LittleEndian.Uint32(header[4:8]); version != artifactVersion {
		return nil, fmt.Errorf("potential: unsupported artifact version %d", version)
	}
	checksum := binary.LittleEndian.Uint32(header[8:12])
	payloadLen := binary.LittleEndian.Uint32(header[12:16])

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("potential: read artifact payload: %w", err)
	}
	if got := crc32.ChecksumIEEE(payload); got != checksum {
		return nil, fmt.Errorf("potential: artifact header checksum mismatch: got 0x%08x, want 0x%08x", got, checksum)
	}

	var h ArtifactHeader
	if err := json.Unmarshal(payload, &h); err != nil {
		return nil, fmt.Errorf("potential: decode artifact header: %w", err)
	}
	if len(h.TypeMap) == 0 {
		return nil, fmt.Errorf("potential: artifact declares no type map")
	}
	return &h, nil
}

// ReadArtifactHeaderFile reads an artifact header from a local file using a
// memory mapping, so only the header pages are touched even for large
// artifacts.
func ReadArtifactHeaderFile(path string) (*ArtifactHeader, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("potential: open artifact %s: %w", path, err)
	}
	defer m.Close()

	h, err := ReadArtifactHeader(io.NewSectionReader(m, 0, m.Size()))
	if err != nil {
		return nil, fmt.Errorf("potential: artifact %s: %w", path, err)
	}
	return h, nil
}

// ReadArtifactHeaderBlob reads an artifact header from a blob store.
func ReadArtifactHeaderBlob(ctx context.Context, store blobstore.BlobStore, name string) (*ArtifactHeader, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("potential: open artifact blob %s: %w", name, err)
	}
	defer b.Close()

	h, err := ReadArtifactHeader(io.NewSectionReader(b, 0, b.Size()))
	if err != nil {
		return nil, fmt.Errorf("potential: artifact blob %s: %w", name, err)
	}
	return h, nil
}
