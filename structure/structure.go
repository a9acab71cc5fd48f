// Package structure provides immutable atomic-structure snapshots and
// streaming access to simulation trajectories.
//
// A Configuration is one frame of a molecular dynamics trajectory: atomic
// species, positions and an optional periodic cell, tagged with its index
// within the source stream. Configurations are read once and never mutated.
//
// Trajectories are consumed through the Source interface, a lazy single-pass
// iterator that never requires the full trajectory in memory.
package structure

import (
	"fmt"
	"slices"
)

// Cell is a periodic simulation cell stored as a row-major 3x3 matrix
// (ax ay az bx by bz cx cy cz).
type Cell [9]float64

// Configuration is an immutable snapshot of an atomic structure.
//
// Accessors returning slices expose internal storage for efficiency;
// callers must treat them as read-only.
type Configuration struct {
	index     int
	species   []string
	positions []float64 // flat, 3 per atom
	cell      *Cell
}

// NewConfiguration creates a Configuration from species symbols and flat
// positions (3 per atom). The inputs are copied. cell may be nil for
// non-periodic structures.
func NewConfiguration(index int, species []string, positions []float64, cell *Cell) (*Configuration, error) {
	if len(positions) != 3*len(species) {
		return nil, fmt.Errorf("structure: %d atoms require %d coordinates, got %d",
			len(species), 3*len(species), len(positions))
	}
	c := &Configuration{
		index:     index,
		species:   slices.Clone(species),
		positions: slices.Clone(positions),
	}
	if cell != nil {
		cc := *cell
		c.cell = &cc
	}
	return c, nil
}

// Index returns the frame's index within its source stream.
func (c *Configuration) Index() int { return c.index }

// NumAtoms returns the number of atoms.
func (c *Configuration) NumAtoms() int { return len(c.species) }

// Species returns the atomic symbols in atom order. Read-only.
func (c *Configuration) Species() []string { return c.species }

// Positions returns the flat position array (3 per atom). Read-only.
func (c *Configuration) Positions() []float64 { return c.positions }

// Position returns the coordinates of atom i.
func (c *Configuration) Position(i int) (x, y, z float64) {
	return c.positions[3*i], c.positions[3*i+1], c.positions[3*i+2]
}

// Cell returns the periodic cell and whether one is present.
func (c *Configuration) Cell() (Cell, bool) {
	if c.cell == nil {
		return Cell{}, false
	}
	return *c.cell, true
}

// WithIndex returns a copy of c tagged with a different stream index.
func (c *Configuration) WithIndex(index int) *Configuration {
	cc := *c
	cc.index = index
	return &cc
}
