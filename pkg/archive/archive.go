// Package archive snapshots an annotation database and its changelog into a
// single LZ4-framed file for cheap off-box transfer (§4.L).
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"
)

// annotationsEntry and changelogEntry are the tar member names the snapshot
// inputs are stored under, independent of the caller's local file naming.
const (
	annotationsEntry = "annotations.json"
	changelogEntry   = "changelog.jsonl"
)

// WriteSnapshot concatenates the annotation database at annotationsPath and
// the changelog at changelogPath into a single tar stream, LZ4-framed, and
// writes it to outPath. changelogPath may be empty, in which case only the
// database is archived.
func WriteSnapshot(outPath, annotationsPath, changelogPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create snapshot %s: %w", outPath, err)
	}
	defer out.Close()

	lzw := lz4.NewWriter(out)
	defer lzw.Close()

	tw := tar.NewWriter(lzw)
	defer tw.Close()

	if err := addFile(tw, annotationsEntry, annotationsPath); err != nil {
		return err
	}

	if changelogPath != "" {
		if err := addFile(tw, changelogEntry, changelogPath); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("close snapshot tar stream: %w", err)
	}

	if err := lzw.Close(); err != nil {
		return fmt.Errorf("close snapshot lz4 stream: %w", err)
	}

	return nil
}

func addFile(tw *tar.Writer, name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read snapshot input %s: %w", path, err)
	}

	hdr := &tar.Header{Name: name, Size: int64(len(data)), Mode: 0o644}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write snapshot header %s: %w", name, err)
	}

	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("write snapshot entry %s: %w", name, err)
	}

	return nil
}

// ReadSnapshot extracts annotations.json and (if present) changelog.jsonl
// from the LZ4-framed tar stream at path into destDir, returning their
// paths. changelogOut is empty if the snapshot carried no changelog.
func ReadSnapshot(path, destDir string) (annotationsOut, changelogOut string, err error) {
	in, err := os.Open(path)
	if err != nil {
		return "", "", fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer in.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create snapshot destination %s: %w", destDir, err)
	}

	tr := tar.NewReader(lz4.NewReader(in))

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}

		if err != nil {
			return "", "", fmt.Errorf("read snapshot tar stream %s: %w", path, err)
		}

		outPath, writeErr := extractEntry(destDir, hdr, tr)
		if writeErr != nil {
			return "", "", writeErr
		}

		switch hdr.Name {
		case annotationsEntry:
			annotationsOut = outPath
		case changelogEntry:
			changelogOut = outPath
		}
	}

	if annotationsOut == "" {
		return "", "", fmt.Errorf("snapshot %s carries no %s entry", path, annotationsEntry)
	}

	return annotationsOut, changelogOut, nil
}

func extractEntry(destDir string, hdr *tar.Header, r io.Reader) (string, error) {
	outPath := filepath.Join(destDir, hdr.Name)

	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("create extracted entry %s: %w", outPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write extracted entry %s: %w", outPath, err)
	}

	return outPath, nil
}
