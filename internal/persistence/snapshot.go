package persistence

import (
	"bufio"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/sirsapient/slangbang/internal/engine"
)

//go:embed snapshot_schema.json
var snapshotSchema string

var compiledSchema = jsonschema.MustCompileString("snapshot_schema.json", snapshotSchema)

// ExportFile writes a zstd-compressed JSON snapshot to disk. Written to a
// temp file first, then renamed into place.
func ExportFile(path string, snap engine.Snapshot) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		f.Close()
		return err
	}
	w := bufio.NewWriter(enc)
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		enc.Close()
		f.Close()
		return fmt.Errorf("encode export: %w", err)
	}
	if err := w.Flush(); err != nil {
		enc.Close()
		f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ImportFile reads a compressed snapshot file, validates its JSON against
// the embedded schema, and decodes it. Validation catches corrupt or
// hand-edited saves before they reach the merge loader.
func ImportFile(path string) (engine.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("open import: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return engine.Snapshot{}, err
	}
	defer dec.Close()

	var raw json.RawMessage
	if err := json.NewDecoder(bufio.NewReader(dec)).Decode(&raw); err != nil {
		return engine.Snapshot{}, fmt.Errorf("decode import: %w", err)
	}
	if err := ValidateSnapshotJSON(raw); err != nil {
		return engine.Snapshot{}, err
	}

	var snap engine.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return engine.Snapshot{}, fmt.Errorf("decode import: %w", err)
	}
	if snap.SaveVersion > engine.SaveVersion {
		return engine.Snapshot{}, fmt.Errorf("save version %d is newer than supported %d", snap.SaveVersion, engine.SaveVersion)
	}
	return snap, nil
}

// ValidateSnapshotJSON checks raw snapshot JSON against the schema.
func ValidateSnapshotJSON(raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("snapshot is not valid JSON: %w", err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return fmt.Errorf("snapshot schema: %w", err)
	}
	return nil
}

// IsSnapshotFile reports whether a path looks like an exported snapshot.
func IsSnapshotFile(path string) bool {
	return strings.HasSuffix(path, ".sbsave") || strings.HasSuffix(path, ".zst")
}
