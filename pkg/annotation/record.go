// Package annotation models the per-function null-dereference annotation
// record (§3), its on-disk text codec (§4.F), and the join operator that
// merges two annotation databases (§4.G).
package annotation

// ReturnKind classifies what a function's return value can be.
type ReturnKind int

const (
	ReturnOther ReturnKind = iota
	ReturnPointer
	ReturnSigned
)

// Param is one pointer-or-not parameter descriptor. MustDeref implies
// MayDeref; both are meaningless (false) when IsPointer is false.
type Param struct {
	Name      string
	IsPointer bool
	MayDeref  bool
	MustDeref bool
}

// Record is one function's full annotation (§3 "Annotation record").
type Record struct {
	Name       string
	SourceFile string
	ObjectFile string
	Signature  string
	Params     []Param
	ReturnKind ReturnKind

	// Valid when ReturnKind == ReturnPointer.
	MayReturnNull   bool
	MayReturnErrPtr bool

	// Valid when ReturnKind == ReturnSigned.
	MayReturnNegative bool
	MayReturnPositive bool
}

// Valid reports whether r satisfies the must_deref => may_deref invariant
// on every parameter (§3).
func (r *Record) Valid() bool {
	for _, p := range r.Params {
		if p.MustDeref && !p.MayDeref {
			return false
		}
	}

	return true
}
