package potential

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TypeMap maps chemical symbols to the integer type indices a model was
// trained with. Training and inference must agree on this mapping.
type TypeMap map[string]int

// ParseTypeMap parses the compact "Si:0,O:1" form.
func ParseTypeMap(s string) (TypeMap, error) {
	m := make(TypeMap)
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		sym, idx, ok := strings.Cut(item, ":")
		if !ok {
			return nil, fmt.Errorf("potential: bad type map entry %q", item)
		}
		n, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil {
			return nil, fmt.Errorf("potential: bad type index in %q", item)
		}
		m[strings.TrimSpace(sym)] = n
	}
	if len(m) == 0 {
		return nil, fmt.Errorf("potential: empty type map %q", s)
	}
	return m, nil
}

// Equal reports whether two type maps are identical.
func (m TypeMap) Equal(o TypeMap) bool {
	if len(m) != len(o) {
		return false
	}
	for sym, idx := range m {
		if oi, ok := o[sym]; !ok || oi != idx {
			return false
		}
	}
	return true
}

// Index returns the type index for a symbol.
func (m TypeMap) Index(symbol string) (int, bool) {
	idx, ok := m[symbol]
	return idx, ok
}

// Symbols returns the symbols ordered by type index.
func (m TypeMap) Symbols() []string {
	syms := make([]string, 0, len(m))
	for sym := range m {
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool {
		if m[syms[i]] != m[syms[j]] {
			return m[syms[i]] < m[syms[j]]
		}
		return syms[i] < syms[j]
	})
	return syms
}

// String renders the compact "Si:0,O:1" form, ordered by type index.
func (m TypeMap) String() string {
	syms := m.Symbols()
	parts := make([]string, len(syms))
	for i, sym := range syms {
		parts[i] = fmt.Sprintf("%s:%d", sym, m[sym])
	}
	return strings.Join(parts, ",")
}
