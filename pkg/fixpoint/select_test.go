package fixpoint

import (
	"testing"

	"github.com/prokopk1n/nullannotate/pkg/unitplan"
	"github.com/stretchr/testify/assert"
)

func TestSelectFunctionsPicksUnknownAndError(t *testing.T) {
	unit := unitplan.PlanUnit{
		ObjectFile: "a.o",
		Functions: []unitplan.PlanFunction{
			{Name: "unknownFn"},
			{Name: "errorFn"},
			{Name: "staleFn"},
		},
	}
	statuses := map[FuncKey]Status{
		{Name: "errorFn", ObjectFile: "a.o"}: Error,
		{Name: "staleFn", ObjectFile: "a.o"}: Stale,
	}

	selected := selectFunctions(unit, statuses)

	assert.True(t, selected["unknownFn"])
	assert.True(t, selected["errorFn"])
	assert.False(t, selected["staleFn"])
}

func TestSelectFunctionsTriggersOnNewCallee(t *testing.T) {
	unit := unitplan.PlanUnit{
		ObjectFile: "a.o",
		Functions: []unitplan.PlanFunction{
			{Name: "f", CalledFunctions: []unitplan.PlanCall{{Name: "g", ObjectFile: "b.o"}}},
		},
	}
	statuses := map[FuncKey]Status{
		{Name: "f", ObjectFile: "a.o"}: Stale,
		{Name: "g", ObjectFile: "b.o"}: New,
	}

	selected := selectFunctions(unit, statuses)

	assert.True(t, selected["f"])
}

func TestSelectFunctionsTransitiveWithinUnit(t *testing.T) {
	// f1 is unknown (always selected). f2 calls f1, which appears earlier
	// in the unit's function list and was just selected — f2 must be
	// selected too even though its own status is stale and its callee's
	// *persisted* status is not New.
	unit := unitplan.PlanUnit{
		ObjectFile: "a.o",
		Functions: []unitplan.PlanFunction{
			{Name: "f1"},
			{Name: "f2", CalledFunctions: []unitplan.PlanCall{{Name: "f1", ObjectFile: "a.o"}}},
		},
	}
	statuses := map[FuncKey]Status{
		{Name: "f2", ObjectFile: "a.o"}: Stale,
	}

	selected := selectFunctions(unit, statuses)

	assert.True(t, selected["f1"])
	assert.True(t, selected["f2"])
}

func TestSelectFunctionsSkipsWhenNothingChanged(t *testing.T) {
	unit := unitplan.PlanUnit{
		ObjectFile: "a.o",
		Functions: []unitplan.PlanFunction{
			{Name: "f", CalledFunctions: []unitplan.PlanCall{{Name: "g", ObjectFile: "b.o"}}},
		},
	}
	statuses := map[FuncKey]Status{
		{Name: "f", ObjectFile: "a.o"}: Stale,
		{Name: "g", ObjectFile: "b.o"}: Stale,
	}

	selected := selectFunctions(unit, statuses)

	assert.Empty(t, selected)
}
