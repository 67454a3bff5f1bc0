package bundle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// OutFile is the file name of the bundle written under the output directory.
const OutFile = "bundle.json"

var (
	// ErrNoOutDir reports a missing or invalid output directory.
	ErrNoOutDir = errors.New("output directory is not valid")
	// ErrNotCreated reports a bundle file absent after the write attempt.
	ErrNotCreated = errors.New("bundle not created")
)

// Render serializes the mapping as pretty-printed JSON with sorted keys,
// then collapses escaped backslash pairs in the rendered text to single
// backslashes. The collapse runs exactly once, so the persisted keys match
// the character sequences written in the scanned source files.
func Render(mapping map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(mapping); err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	return bytes.ReplaceAll(buf.Bytes(), []byte(`\\`), []byte(`\`)), nil
}

// Write renders the mapping and persists it as <dir>/bundle.json. The
// directory is never created here; its absence is reported after the write
// attempt, as is a bundle file that did not survive the write.
func Write(mapping map[string]string, dir string) error {
	data, err := Render(mapping)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, OutFile)
	writeErr := os.WriteFile(path, data, 0o644)

	info, statErr := os.Stat(dir)
	if statErr != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNoOutDir, dir)
	}
	if writeErr != nil {
		return fmt.Errorf("write bundle: %w", writeErr)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrNotCreated, path)
	}

	slog.Info("bundle.written", "path", path, "entries", len(mapping))
	return nil
}
