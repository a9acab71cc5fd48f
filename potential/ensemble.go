package potential

import "fmt"

// Member is one committee member: a loaded Potential plus a stable name used
// in logs and error reports.
type Member struct {
	Name      string
	Potential Potential
}

// Ensemble is an ordered, labeled committee of models sharing one species
// type map. Ensembles are immutable after construction.
type Ensemble struct {
	label   string
	members []Member
	typeMap TypeMap
}

// NewEnsemble validates and builds an ensemble. All members must declare an
// identical type map; construction fails eagerly with *ErrTypeMapMismatch
// otherwise, never deferring the check to evaluation time. An empty label
// resolves to DefaultLabel. Members without a name get a positional one.
func NewEnsemble(label string, members ...Member) (*Ensemble, error) {
	if len(members) == 0 {
		return nil, ErrEmptyEnsemble
	}
	if label == "" {
		label = DefaultLabel
	}

	named := make([]Member, len(members))
	copy(named, members)
	for i := range named {
		if named[i].Name == "" {
			named[i].Name = fmt.Sprintf("model-%d", i)
		}
	}

	typeMap := named[0].Potential.TypeMap()
	for _, m := range named[1:] {
		if got := m.Potential.TypeMap(); !typeMap.Equal(got) {
			return nil, &ErrTypeMapMismatch{Model: m.Name, Want: typeMap, Got: got}
		}
	}

	return &Ensemble{label: label, members: named, typeMap: typeMap}, nil
}

// Label returns the ensemble's label.
func (e *Ensemble) Label() string { return e.label }

// Size returns the number of committee members.
func (e *Ensemble) Size() int { return len(e.members) }

// Members returns the committee in order. Read-only.
func (e *Ensemble) Members() []Member { return e.members }

// TypeMap returns the shared species type map.
func (e *Ensemble) TypeMap() TypeMap { return e.typeMap }
