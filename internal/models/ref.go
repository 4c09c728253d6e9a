package models

import "fmt"

// Ref is a reference to a version or program row produced by program resolution.
//
// In a real run every ref is concrete and carries a row ID. In dry-run mode
// rows that would be created are represented by simulated refs carrying only
// the would-be name, so downstream counts match a real run without a
// simulated reference ever being usable as a foreign key.
type Ref struct {
	id        string
	name      string
	simulated bool
}

// ConcreteRef wraps an existing row ID.
func ConcreteRef(id string) Ref {
	return Ref{id: id}
}

// SimulatedRef stands in for a row a real run would create under the given name.
func SimulatedRef(name string) Ref {
	return Ref{name: name, simulated: true}
}

// ID returns the row ID and true for concrete refs, and "" and false for simulated ones.
func (r Ref) ID() (string, bool) {
	if r.simulated {
		return "", false
	}
	return r.id, true
}

func (r Ref) Simulated() bool { return r.simulated }
func (r Ref) Name() string    { return r.name }

func (r Ref) String() string {
	if r.simulated {
		return fmt.Sprintf("simulated:%s", r.name)
	}
	return r.id
}

// RefIDs returns the row IDs of the concrete refs in order, skipping simulated ones.
func RefIDs(refs []Ref) []string {
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		if id, ok := r.ID(); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
