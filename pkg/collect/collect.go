// Package collect walks a plan's annotation directory tree and builds the
// annotation database §4.F's collector half of the pipeline produces
// (component F, "collect" in §6's CLI table).
package collect

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/prokopk1n/nullannotate/pkg/annotation"
	"github.com/prokopk1n/nullannotate/pkg/projectmap"
	"github.com/prokopk1n/nullannotate/pkg/unitplan"
)

// Collect walks every function in plan, reads its annotation text file (if
// present) from annotationsDir, resolves the source file each annotation
// belongs to by intersecting the function's project-map entries with the
// owning unit's compiled-from set (§9 resolution 3), and returns the
// merged database.
//
// Reading is parallelized per unit with a bounded worker pool (SPEC_FULL.md
// §5's ambient addition): this is pure local file IO with no shared
// mutable state until each unit's records are merged into db, so it does
// not touch the single-analyzer-at-a-time contract that governs the driver.
func Collect(plan unitplan.Plan, pm *projectmap.ProjectMap, annotationsDir string) (*annotation.Database, error) {
	results := make([][]*annotation.Record, len(plan))

	group := new(errgroup.Group)
	group.SetLimit(runtime.GOMAXPROCS(0))

	for i, unit := range plan {
		i, unit := i, unit

		group.Go(func() error {
			records, err := collectUnit(unit, pm, annotationsDir)
			if err != nil {
				return err
			}

			results[i] = records

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	db := annotation.NewDatabase()

	for _, records := range results {
		for _, r := range records {
			db.Put(r)
		}
	}

	return db, nil
}

func collectUnit(unit unitplan.PlanUnit, pm *projectmap.ProjectMap, annotationsDir string) ([]*annotation.Record, error) {
	var records []*annotation.Record

	for _, fn := range unit.Functions {
		path := filepath.Join(annotationsDir, unit.ObjectFile, "functions", fn.Name+".txt")

		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}

			return nil, fmt.Errorf("stat annotation file %s: %w", path, err)
		}

		parsed, err := annotation.ParseFile(path)
		if err != nil {
			return nil, err
		}

		for _, r := range parsed {
			sourceFile, err := resolveSourceFile(pm, r.Name, unit.ObjectFile, path)
			if err != nil {
				return nil, err
			}

			r.SourceFile = sourceFile
			r.ObjectFile = unit.ObjectFile

			records = append(records, r)
		}
	}

	return records, nil
}

// resolveSourceFile intersects every source file the project map lists
// function against the object file's compiled-from set. Zero matches is a
// hard ErrMalformedInput (§9 resolution 3); more than one match is broken
// by lexicographic order, the same tie-break this tool uses wherever the
// scripts resolved ambiguity through incidental dict/set iteration order
// (see pkg/aspects' driver ranking).
func resolveSourceFile(pm *projectmap.ProjectMap, function, objectFile, annotationPath string) (string, error) {
	byFile, ok := pm.Functions[function]
	if !ok {
		return "", fmt.Errorf("%s: %w: function %q not in project map", annotationPath, annotation.ErrMalformedInput, function)
	}

	of, ok := pm.ObjectFiles[objectFile]
	if !ok {
		return "", fmt.Errorf("%s: %w: object file %q not in project map", annotationPath, annotation.ErrMalformedInput, objectFile)
	}

	compiledFrom := make(map[string]bool, len(of.CompiledFrom))
	for _, f := range of.CompiledFrom {
		compiledFrom[f] = true
	}

	var candidates []string

	for file := range byFile {
		if compiledFrom[file] {
			candidates = append(candidates, file)
		}
	}

	if len(candidates) == 0 {
		return "", fmt.Errorf("%s: %w: function %q has no source file compiled into %q", annotationPath, annotation.ErrMalformedInput, function, objectFile)
	}

	sort.Strings(candidates)

	return candidates[0], nil
}
