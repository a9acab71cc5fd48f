package diag

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/pierrec/lz4/v4"

	"github.com/quenbyak/epsel/deviation"
)

// Deviation log: a compact, compressed artifact holding the (index, eps_t)
// series of a run, so multi-million-frame series can be persisted and
// re-read without rescoring the trajectory.
//
// Format:
//
//	Magic (4 bytes)
//	Version (4 bytes)
//	Blocks until EOF:
//	  RecordCount (4 bytes)
//	  UncompressedSize (4 bytes)
//	  CompressedSize (4 bytes) - 0 means stored uncompressed
//	  Data - LZ4 block or raw records
//
// Each record is 16 bytes: Index (8 bytes) and eps_t as IEEE 754 bits
// (8 bytes), little-endian.
const (
	devlogMagic   = 0x4550534C // "EPSL"
	devlogVersion = 1

	devlogRecordSize     = 16
	devlogBlockRecords   = 4096
	devlogBlockHeaderLen = 12
)

// LogWriter streams deviation records into a compressed log.
type LogWriter struct {
	w           io.Writer
	pending     []deviation.Record
	wroteHeader bool
}

// NewLogWriter creates a LogWriter targeting w.
func NewLogWriter(w io.Writer) *LogWriter {
	return &LogWriter{w: w}
}

// Write buffers one record, flushing a block when full.
func (lw *LogWriter) Write(rec deviation.Record) error {
	lw.pending = append(lw.pending, rec)
	if len(lw.pending) >= devlogBlockRecords {
		return lw.Flush()
	}
	return nil
}

// Flush writes any buffered records as one block.
func (lw *LogWriter) Flush() error {
	if !lw.wroteHeader {
		header := make([]byte, 8)
		binary.LittleEndian.PutUint32(header[0:4], devlogMagic)
		binary.LittleEndian.PutUint32(header[4:8], devlogVersion)
		if _, err := lw.w.Write(header); err != nil {
			return err
		}
		lw.wroteHeader = true
	}
	if len(lw.pending) == 0 {
		return nil
	}

	raw := make([]byte, len(lw.pending)*devlogRecordSize)
	for i, rec := range lw.pending {
		off := i * devlogRecordSize
		binary.LittleEndian.PutUint64(raw[off:], uint64(rec.Index))
		binary.LittleEndian.PutUint64(raw[off+8:], math.Float64bits(rec.EpsT))
	}

	compressed := make([]byte, lz4.CompressBlockBound(len(raw)))
	n, err := lz4.CompressBlock(raw, compressed, nil)
	if err != nil {
		return fmt.Errorf("diag: compress deviation log block: %w", err)
	}

	header := make([]byte, devlogBlockHeaderLen)
	binary.LittleEndian.PutUint32(header[0:4], uint32(len(lw.pending)))
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(raw)))

	// Store incompressible blocks raw.
	data := compressed[:n]
	if n == 0 || n >= len(raw) {
		binary.LittleEndian.PutUint32(header[8:12], 0)
		data = raw
	} else {
		binary.LittleEndian.PutUint32(header[8:12], uint32(n))
	}

	if _, err := lw.w.Write(header); err != nil {
		return err
	}
	if _, err := lw.w.Write(data); err != nil {
		return err
	}
	lw.pending = lw.pending[:0]
	return nil
}

// Close flushes the final block. The underlying writer is not closed.
func (lw *LogWriter) Close() error {
	return lw.Flush()
}

// WriteLog writes all records of a sealed diagnostics accumulator to w.
func WriteLog(w io.Writer, d *Diagnostics) error {
	lw := NewLogWriter(w)
	for _, rec := range d.Records() {
		if err := lw.Write(rec); err != nil {
			return err
		}
	}
	return lw.Close()
}

// ReadLog reads a deviation log back into records.
func ReadLog(r io.Reader) ([]deviation.Record, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("diag: read deviation log header: %w", err)
	}
	if magic := binary.LittleEndian.Uint32(header[0:4]); magic != devlogMagic {
		return nil, fmt.Errorf("diag: bad deviation log magic 0x%08x", magic)
	}
	if version := binary.LittleEndian.Uint32(header[4:8]); version != devlogVersion {
		return nil, fmt.Errorf("diag: unsupported deviation log version %d", version)
	}

	var records []deviation.Record
	blockHeader := make([]byte, devlogBlockHeaderLen)
	for {
		if _, err := io.ReadFull(r, blockHeader); err != nil {
			if err == io.EOF {
				return records, nil
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("diag: truncated deviation log block header")
			}
			return nil, err
		}
		count := binary.LittleEndian.Uint32(blockHeader[0:4])
		uncompressedSize := binary.LittleEndian.Uint32(blockHeader[4:8])
		compressedSize := binary.LittleEndian.Uint32(blockHeader[8:12])

		if uint64(uncompressedSize) != uint64(count)*devlogRecordSize {
			return nil, fmt.Errorf("diag: deviation log block size %d does not match %d records",
				uncompressedSize, count)
		}

		var raw []byte
		if compressedSize == 0 {
			raw = make([]byte, uncompressedSize)
			if _, err := io.ReadFull(r, raw); err != nil {
				return nil, fmt.Errorf("diag: truncated deviation log block: %w", err)
			}
		} else {
			compressed := make([]byte, compressedSize)
			if _, err := io.ReadFull(r, compressed); err != nil {
				return nil, fmt.Errorf("diag: truncated deviation log block: %w", err)
			}
			raw = make([]byte, uncompressedSize)
			n, err := lz4.UncompressBlock(compressed, raw)
			if err != nil {
				return nil, fmt.Errorf("diag: decompress deviation log block: %w", err)
			}
			if uint32(n) != uncompressedSize {
				return nil, fmt.Errorf("diag: deviation log block decompressed to %d bytes, want %d",
					n, uncompressedSize)
			}
		}

		for i := uint32(0); i < count; i++ {
			off := int(i) * devlogRecordSize
			records = append(records, deviation.Record{
				Index: int(binary.LittleEndian.Uint64(raw[off:])),
				EpsT:  math.Float64frombits(binary.LittleEndian.Uint64(raw[off+8:])),
			})
		}
	}
}
