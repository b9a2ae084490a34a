package irfile

import (
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"ffigen/internal/ir"
)

// snapshotVersion guards the snapshot wire format. Bump on any incompatible
// change to the ir data model.
const snapshotVersion = 1

// snapshot is the msgpack envelope of an already-lowered definition set.
type snapshot struct {
	Version int          `msgpack:"version"`
	Types   []ir.TypeDef `msgpack:"types"`
}

// SaveSnapshot writes the definitions as a msgpack snapshot.
func SaveSnapshot(path string, defs []ir.TypeDef) error {
	data, err := msgpack.Marshal(snapshot{Version: snapshotVersion, Types: defs})
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", path, err)
	}

	return nil
}

// LoadSnapshot reads a msgpack snapshot back into a definition list.
func LoadSnapshot(path string) ([]ir.TypeDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	var snap snapshot

	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%s: failed to parse snapshot: %w", path, err)
	}

	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("%s: snapshot version %d, this tool reads %d", path, snap.Version, snapshotVersion)
	}

	return snap.Types, nil
}
