package gen

import "fmt"

// Rel is the relation kind a reference field resolves to.
type Rel int

// Relation types.
const (
	Unk Rel = iota // Unknown.
	O2O            // One to one / has one.
	O2M            // One to many / has many.
	M2O            // Many to one (inverse perspective for O2M).
	M2M            // Many to many.
)

// String returns the relation name.
func (r Rel) String() string {
	s := "Unknown"
	switch r {
	case O2O:
		s = "O2O"
	case O2M:
		s = "O2M"
	case M2O:
		s = "M2O"
	case M2M:
		s = "M2M"
	}
	return s
}

// Inverse returns the relation kind seen from the other side.
func (r Rel) Inverse() Rel {
	switch r {
	case O2M:
		return M2O
	case M2O:
		return O2M
	default:
		return r
	}
}

// Doctrine returns the Doctrine ORM mapping annotation of the relation,
// or an empty string for Unk.
func (r Rel) Doctrine() string {
	switch r {
	case O2O:
		return "OneToOne"
	case O2M:
		return "OneToMany"
	case M2O:
		return "ManyToOne"
	case M2M:
		return "ManyToMany"
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Rel) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rel) UnmarshalText(text []byte) error {
	switch s := string(text); s {
	case "O2O":
		*r = O2O
	case "O2M":
		*r = O2M
	case "M2O":
		*r = M2O
	case "M2M":
		*r = M2M
	case "Unknown", "":
		*r = Unk
	default:
		return fmt.Errorf("apigen: unknown relation %q", s)
	}
	return nil
}
