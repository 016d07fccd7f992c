package pack

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"replipack/domain/artefact"
	"replipack/domain/core"
)

// BuildManifest hashes every artefact in creation order and assembles the
// 1:1 manifest cover. Files are hashed from disk, not from memory: the
// manifest attests to the bytes actually written.
func BuildManifest(dir string, artefacts []artefact.Artefact) (*artefact.Manifest, error) {
	m := &artefact.Manifest{}
	for _, a := range artefacts {
		hash, size, err := core.HashFile(filepath.Join(dir, a.Filename))
		if err != nil {
			return nil, err
		}
		if err := m.Add(artefact.ManifestEntry{Filename: a.Filename, Hash: hash, SizeBytes: size}); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// WriteManifestCSV writes manifest.csv: {filename, hash, size_bytes} per
// artefact, creation order preserved.
func WriteManifestCSV(dir string, m *artefact.Manifest) error {
	path := filepath.Join(dir, FileManifest)
	f, err := os.Create(path)
	if err != nil {
		return core.NewWriteError(path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"filename", "hash", "size_bytes"}); err != nil {
		return core.NewWriteError(path, err)
	}
	for _, e := range m.Entries {
		if err := w.Write([]string{e.Filename, e.Hash.String(), strconv.FormatInt(e.SizeBytes, 10)}); err != nil {
			return core.NewWriteError(path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return core.NewWriteError(path, err)
	}
	return nil
}

// ReadManifestCSV loads manifest.csv preserving entry order.
func ReadManifestCSV(dir string) (*artefact.Manifest, error) {
	path := filepath.Join(dir, FileManifest)
	f, err := os.Open(path)
	if err != nil {
		return nil, core.NewReadError(path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, core.NewReadError(path, err)
	}
	if len(rows) < 1 || len(rows[0]) != 3 || rows[0][0] != "filename" {
		return nil, core.NewReadError(path, fmt.Errorf("malformed manifest header"))
	}

	m := &artefact.Manifest{}
	for _, rec := range rows[1:] {
		if len(rec) != 3 {
			return nil, core.NewReadError(path, fmt.Errorf("malformed manifest row"))
		}
		size, err := strconv.ParseInt(rec[2], 10, 64)
		if err != nil {
			return nil, core.NewReadError(path, err)
		}
		if err := m.Add(artefact.ManifestEntry{Filename: rec[0], Hash: core.Hash(rec[1]), SizeBytes: size}); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// WriteHashesTxt writes the flat human-inspectable duplicate of the
// manifest's hash column: "filename  hash" per line, manifest order.
func WriteHashesTxt(dir string, m *artefact.Manifest) error {
	path := filepath.Join(dir, FileHashes)
	f, err := os.Create(path)
	if err != nil {
		return core.NewWriteError(path, err)
	}
	defer f.Close()

	buf := bufio.NewWriter(f)
	for _, e := range m.Entries {
		if _, err := fmt.Fprintf(buf, "%s  %s\n", e.Filename, e.Hash); err != nil {
			return core.NewWriteError(path, err)
		}
	}
	if err := buf.Flush(); err != nil {
		return core.NewWriteError(path, err)
	}
	return nil
}

// VerifyManifest recomputes every entry's hash from disk. Any mismatch is an
// IntegrityError for that file; the returned checks carry one entry per
// artefact so a partial failure is never masked by later successes.
func VerifyManifest(dir string, m *artefact.Manifest) ([]HashCheck, error) {
	checks := make([]HashCheck, 0, m.Len())
	for _, e := range m.Entries {
		check := HashCheck{Filename: e.Filename, Expected: e.Hash}
		hash, size, err := core.HashFile(filepath.Join(dir, e.Filename))
		if err != nil {
			check.Err = err
			checks = append(checks, check)
			continue
		}
		check.Actual = hash
		if !hash.Equals(e.Hash) || size != e.SizeBytes {
			check.Err = core.NewIntegrityError(e.Filename, e.Hash, hash)
		}
		checks = append(checks, check)
	}
	return checks, nil
}

// HashCheck is the outcome of re-hashing one manifest entry.
type HashCheck struct {
	Filename string
	Expected core.Hash
	Actual   core.Hash
	Err      error
}

// OK reports whether the artefact's bytes still match the manifest.
func (c HashCheck) OK() bool {
	return c.Err == nil
}
