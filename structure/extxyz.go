package structure

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Reader streams configurations from an extended-XYZ trajectory.
// It implements Source. Frames are parsed one at a time; the trajectory is
// never materialized.
type Reader struct {
	br      *bufio.Reader
	index   int
	closers []io.Closer
}

// NewReader creates a Reader from an io.Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// OpenFile opens a trajectory file for streaming. Paths ending in ".gz" are
// decompressed transparently.
func OpenFile(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("structure: open trajectory %s: %w", path, err)
	}
	var src io.Reader = f
	closers := []io.Closer{f}
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("structure: open trajectory %s: %w", path, err)
		}
		src = gz
		closers = []io.Closer{gz, f}
	}
	r := NewReader(src)
	r.closers = closers
	return r, nil
}

// Next parses and returns the next frame, or io.EOF at end of stream.
func (r *Reader) Next() (*Configuration, error) {
	countLine, err := r.readNonEmptyLine()
	if err != nil {
		return nil, err
	}
	natoms, err := strconv.Atoi(strings.TrimSpace(countLine))
	if err != nil || natoms < 0 {
		return nil, fmt.Errorf("structure: frame %d: bad atom count %q", r.index, strings.TrimSpace(countLine))
	}

	comment, err := r.readLine()
	if err != nil {
		return nil, fmt.Errorf("structure: frame %d: missing comment line: %w", r.index, err)
	}
	fields := parseCommentFields(comment)

	var cell *Cell
	if lat, ok := fields["Lattice"]; ok {
		c, err := parseLattice(lat)
		if err != nil {
			return nil, fmt.Errorf("structure: frame %d: %w", r.index, err)
		}
		cell = c
	}

	index := r.index
	if v, ok := fields["index"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			index = n
		}
	}

	species := make([]string, natoms)
	positions := make([]float64, 3*natoms)
	for i := 0; i < natoms; i++ {
		line, err := r.readLine()
		if err != nil {
			return nil, fmt.Errorf("structure: frame %d: truncated after %d of %d atoms: %w", r.index, i, natoms, err)
		}
		cols := strings.Fields(line)
		if len(cols) < 4 {
			return nil, fmt.Errorf("structure: frame %d atom %d: need symbol and 3 coordinates, got %q", r.index, i, line)
		}
		species[i] = cols[0]
		for j := 0; j < 3; j++ {
			v, err := strconv.ParseFloat(cols[1+j], 64)
			if err != nil {
				return nil, fmt.Errorf("structure: frame %d atom %d: bad coordinate %q", r.index, i, cols[1+j])
			}
			positions[3*i+j] = v
		}
	}

	r.index++

	cfg := &Configuration{
		index:     index,
		species:   species,
		positions: positions,
		cell:      cell,
	}
	return cfg, nil
}

// Close releases the underlying file handles, if any.
func (r *Reader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}

func (r *Reader) readLine() (string, error) {
	line, err := r.br.ReadString('\n')
	if err == io.EOF && line != "" {
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (r *Reader) readNonEmptyLine() (string, error) {
	for {
		line, err := r.readLine()
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(line) != "" {
			return line, nil
		}
	}
}

func parseLattice(s string) (*Cell, error) {
	cols := strings.Fields(s)
	if len(cols) != 9 {
		return nil, fmt.Errorf("lattice needs 9 components, got %d", len(cols))
	}
	var c Cell
	for i, col := range cols {
		v, err := strconv.ParseFloat(col, 64)
		if err != nil {
			return nil, fmt.Errorf("bad lattice component %q", col)
		}
		c[i] = v
	}
	return &c, nil
}

// parseCommentFields splits an extended-XYZ comment line into key=value
// pairs, honoring double-quoted values.
func parseCommentFields(line string) map[string]string {
	fields := make(map[string]string)
	i := 0
	for i < len(line) {
		for i < len(line) && line[i] == ' ' {
			i++
		}
		start := i
		for i < len(line) && line[i] != '=' && line[i] != ' ' {
			i++
		}
		if i >= len(line) || line[i] != '=' {
			continue // bare token, skip
		}
		key := line[start:i]
		i++ // consume '='
		var val string
		if i < len(line) && line[i] == '"' {
			i++
			end := strings.IndexByte(line[i:], '"')
			if end < 0 {
				val = line[i:]
				i = len(line)
			} else {
				val = line[i : i+end]
				i += end + 1
			}
		} else {
			start = i
			for i < len(line) && line[i] != ' ' {
				i++
			}
			val = line[start:i]
		}
		if key != "" {
			fields[key] = val
		}
	}
	return fields
}

// Writer emits configurations in extended-XYZ format, one frame per Write.
// Extra per-frame fields (e.g. provenance annotations) are written into the
// comment line in sorted key order so output is reproducible.
type Writer struct {
	bw      *bufio.Writer
	closers []io.Closer
}

// NewWriter creates a Writer targeting w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// CreateFile creates (truncating) an output trajectory file. Paths ending in
// ".gz" are compressed transparently.
func CreateFile(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("structure: create %s: %w", path, err)
	}
	var dst io.Writer = f
	closers := []io.Closer{f}
	if strings.HasSuffix(path, ".gz") {
		gz := gzip.NewWriter(f)
		dst = gz
		closers = []io.Closer{gz, f}
	}
	w := NewWriter(dst)
	w.closers = closers
	return w, nil
}

// Write appends one frame. fields may be nil.
func (w *Writer) Write(cfg *Configuration, fields map[string]string) error {
	if _, err := fmt.Fprintf(w.bw, "%d\n", cfg.NumAtoms()); err != nil {
		return err
	}

	parts := make([]string, 0, 3+len(fields))
	if cell, ok := cfg.Cell(); ok {
		lat := make([]string, 9)
		for i, v := range cell {
			lat[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		parts = append(parts, fmt.Sprintf("Lattice=%q", strings.Join(lat, " ")))
	}
	parts = append(parts, "Properties=species:S:1:pos:R:3")
	parts = append(parts, fmt.Sprintf("index=%d", cfg.Index()))

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := fields[k]
		if strings.ContainsAny(v, " \"") {
			parts = append(parts, fmt.Sprintf("%s=%q", k, v))
		} else {
			parts = append(parts, fmt.Sprintf("%s=%s", k, v))
		}
	}
	if _, err := fmt.Fprintln(w.bw, strings.Join(parts, " ")); err != nil {
		return err
	}

	for i := 0; i < cfg.NumAtoms(); i++ {
		x, y, z := cfg.Position(i)
		if _, err := fmt.Fprintf(w.bw, "%-2s %16.8f %16.8f %16.8f\n", cfg.Species()[i], x, y, z); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes any buffered frames to the underlying writer.
func (w *Writer) Flush() error {
	return w.bw.Flush()
}

// Close flushes and releases underlying file handles, if any.
func (w *Writer) Close() error {
	err := w.bw.Flush()
	for _, c := range w.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	w.closers = nil
	return err
}
