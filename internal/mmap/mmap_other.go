//go:build !unix

package mmap

import "os"

// Open reads the file at path into memory. Fallback for platforms without
// mmap support; the Mapping API is identical.
func Open(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Mapping{data: data}, nil
}
