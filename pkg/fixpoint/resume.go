package fixpoint

// resumeState is what a (re)start of the controller needs: the per-function
// status map rebuilt from the changelog, and where to pick back up.
type resumeState struct {
	statuses       map[FuncKey]Status
	startGen       int
	startUnitIndex int
	// anyNewInStartGen is true if any unit already replayed from startGen
	// produced a New function — carried forward so a generation resumed
	// mid-way does not understate its own fixpoint-relevant history.
	anyNewInStartGen bool
}

// resume reads the changelog at path and reconstructs where to continue.
// When fromFile is non-negative, it rewinds: any record belonging to the
// latest generation with file index >= fromFile is discarded before the
// status map is rebuilt, and the changelog file itself is truncated to
// match so appending resumes cleanly from unit index fromFile (§4.I,
// §6 "--from-file K"). planLen is the number of units in the plan being
// resumed into: when the kept records already cover every unit of the
// latest generation, resume advances to a fresh generation at index 0
// rather than leaving startUnitIndex one past the end, so a Run() call
// made after a prior run already reached fixpoint still visits — and
// records as skipped — every unit instead of returning without touching
// the plan at all (§8 property 7).
func resume(path string, fromFile int, planLen int) (resumeState, error) {
	records, err := readChangelog(path)
	if err != nil {
		return resumeState{}, err
	}

	if len(records) == 0 {
		return resumeState{statuses: map[FuncKey]Status{}, startGen: 1, startUnitIndex: 0}, nil
	}

	latestGen := records[len(records)-1].Gen

	if fromFile >= 0 {
		kept := records[:0:0]

		for _, r := range records {
			if r.Gen == latestGen && r.FileIndex >= fromFile {
				continue
			}

			kept = append(kept, r)
		}

		records = kept

		if err := rewriteChangelog(path, records); err != nil {
			return resumeState{}, err
		}
	}

	statuses := make(map[FuncKey]Status)

	for _, r := range records {
		for name, status := range r.Functions {
			statuses[FuncKey{Name: name, ObjectFile: r.ObjectFile}] = status
		}
	}

	if len(records) == 0 {
		return resumeState{statuses: statuses, startGen: 1, startUnitIndex: 0}, nil
	}

	last := records[len(records)-1]

	if last.FileIndex+1 >= planLen {
		// The latest generation's records already cover every unit, so
		// there is nothing left to resume mid-generation: continue with a
		// brand new generation rather than reporting fixpoint on the
		// strength of a generation a separate Run() call already verified.
		return resumeState{
			statuses:         statuses,
			startGen:         last.Gen + 1,
			startUnitIndex:   0,
			anyNewInStartGen: false,
		}, nil
	}

	anyNew := false

	for _, r := range records {
		if r.Gen != last.Gen {
			continue
		}

		for _, status := range r.Functions {
			if status == New {
				anyNew = true
			}
		}
	}

	return resumeState{
		statuses:         statuses,
		startGen:         last.Gen,
		startUnitIndex:   last.FileIndex + 1,
		anyNewInStartGen: anyNew,
	}, nil
}

func statusOf(statuses map[FuncKey]Status, key FuncKey) Status {
	if s, ok := statuses[key]; ok {
		return s
	}

	return Unknown
}
