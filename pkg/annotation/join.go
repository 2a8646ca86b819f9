package annotation

import (
	"fmt"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Tally counts how databases A and B compared for every shared or
// unshared function, the seven-way breakdown §4.G requires.
type Tally struct {
	OnlyInA      int
	OnlyInB      int
	ABetter      int
	BBetter      int
	CrossImprove int
	Identical    int
	Mismatch     int
}

// Mismatch records a per-function parameter disagreement (§7
// "JoinMismatch") surfaced as a diagnostic rather than aborting the join.
type Mismatch struct {
	Name       string
	SourceFile string
	Diff       string
}

type classification int

const (
	classIdentical classification = iota
	classABetter
	classBBetter
	classCrossImprove
	classMismatch
)

// Join merges a and b under the lattice §4.G defines, returning the merged
// database, the tally, and one diagnostic per mismatched function.
//
// NOTE on may_deref: the source repository joins may_deref with logical
// AND (`param1["may deref"] and param2["may deref"]`), which reads like an
// intersection of "definitely safe" sets rather than a union of "possibly
// unsafe" ones — an open semantic question the spec explicitly says to
// replicate rather than silently invert to OR (§9 Design Notes). This
// function preserves that exact behavior.
func Join(a, b *Database) (*Database, Tally, []Mismatch) {
	result := NewDatabase()

	var tally Tally
	var mismatches []Mismatch

	for _, ra := range a.All() {
		rb, ok := b.Get(ra.Name, ra.SourceFile)
		if !ok {
			result.Put(cloneRecord(ra))
			tally.OnlyInA++

			continue
		}

		merged, class, diff := joinPair(ra, rb)

		switch class {
		case classMismatch:
			tally.Mismatch++
			mismatches = append(mismatches, Mismatch{Name: ra.Name, SourceFile: ra.SourceFile, Diff: diff})
			result.Put(cloneRecord(ra))
		case classCrossImprove:
			tally.CrossImprove++
			result.Put(merged)
		case classABetter:
			tally.ABetter++
			result.Put(merged)
		case classBBetter:
			tally.BBetter++
			result.Put(merged)
		default:
			tally.Identical++
			result.Put(merged)
		}
	}

	for _, rb := range b.All() {
		if _, ok := a.Get(rb.Name, rb.SourceFile); !ok {
			result.Put(cloneRecord(rb))
			tally.OnlyInB++
		}
	}

	return result, tally, mismatches
}

// joinPair merges two records for the same (name, source_file), reporting
// which side (if either) improved and, on a parameter-shape mismatch, a
// human-readable diff of the two serialized records.
func joinPair(a, b *Record) (*Record, classification, string) {
	if len(a.Params) != len(b.Params) {
		return nil, classMismatch, diffRecords(a, b)
	}

	merged := cloneRecord(a)

	aBetter, bBetter := false, false

	for i := range a.Params {
		pa, pb := a.Params[i], b.Params[i]

		if pa.IsPointer != pb.IsPointer || pa.Name != pb.Name {
			return nil, classMismatch, diffRecords(a, b)
		}

		if !pa.IsPointer {
			continue
		}

		if pa.MustDeref != pb.MustDeref {
			if pa.MustDeref {
				aBetter = true
			} else {
				bBetter = true
			}
		}

		if pa.MayDeref != pb.MayDeref {
			if !pa.MayDeref {
				aBetter = true
			} else {
				bBetter = true
			}
		}

		merged.Params[i].MustDeref = pa.MustDeref || pb.MustDeref
		merged.Params[i].MayDeref = pa.MayDeref && pb.MayDeref
	}

	mergeReturns(merged, a, b)

	switch {
	case aBetter && bBetter:
		return merged, classCrossImprove, ""
	case aBetter:
		return merged, classABetter, ""
	case bBetter:
		return merged, classBBetter, ""
	default:
		return merged, classIdentical, ""
	}
}

// mergeReturns disjoins the "may" booleans on the return value when both
// records agree on return kind (§4.G "merged by disjunction on the 'may'
// booleans when the return kinds match"). When the kinds disagree, the
// spec does not define a merge rule, so A's return shape is kept as-is.
func mergeReturns(merged, a, b *Record) {
	if a.ReturnKind != b.ReturnKind {
		return
	}

	switch a.ReturnKind {
	case ReturnPointer:
		merged.MayReturnNull = a.MayReturnNull || b.MayReturnNull
		merged.MayReturnErrPtr = a.MayReturnErrPtr || b.MayReturnErrPtr
	case ReturnSigned:
		merged.MayReturnNegative = a.MayReturnNegative || b.MayReturnNegative
		merged.MayReturnPositive = a.MayReturnPositive || b.MayReturnPositive
	}
}

func diffRecords(a, b *Record) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(Serialize(a), Serialize(b), false)

	return fmt.Sprintf("%s vs %s:\n%s", a.SourceFile, b.SourceFile, dmp.DiffPrettyText(diffs))
}

func cloneRecord(r *Record) *Record {
	clone := *r
	clone.Params = make([]Param, len(r.Params))
	copy(clone.Params, r.Params)

	return &clone
}
