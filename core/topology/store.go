package topology

import (
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/emenda-labs/semguard/core/version"
	"github.com/emenda-labs/semguard/pkg/errors"
	"github.com/emenda-labs/semguard/pkg/fsutil"
)

// SnapshotSuffix is appended to a component path to name its snapshot file.
const SnapshotSuffix = ".topo"

// snapshot is the serialized form of a Topology.
type snapshot struct {
	Version       version.Version `json:"version"`
	ComponentName string          `json:"componentName"`
	ComponentPath string          `json:"componentPath"`
	References    []Reference     `json:"references"`
	PublicAPI     []string        `json:"publicApi"`
}

// Marshal serializes t as indented JSON.
func Marshal(t Topology) ([]byte, error) {
	if t.IsZero() {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "cannot marshal an empty topology")
	}
	data, err := json.MarshalIndent(snapshot{
		Version:       t.version,
		ComponentName: t.componentName,
		ComponentPath: t.componentPath,
		References:    t.references,
		PublicAPI:     t.publicAPI,
	}, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidArgument, "marshaling topology", err)
	}
	return append(data, '\n'), nil
}

// Unmarshal parses a snapshot produced by Marshal and validates it through New.
func Unmarshal(data []byte) (Topology, error) {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		var se *errors.StructuredError
		if stderrors.As(err, &se) {
			return Topology{}, err
		}
		return Topology{}, errors.Wrap(errors.ErrCodeParseFailure, "decoding topology snapshot", err)
	}
	return New(s.Version, s.ComponentName, s.ComponentPath, s.References, s.PublicAPI)
}

// SnapshotPathFor returns the snapshot location for a component path.
func SnapshotPathFor(componentPath string) string {
	return componentPath + SnapshotSuffix
}

// SnapshotPath returns where t is stored.
func SnapshotPath(t Topology) string {
	return SnapshotPathFor(t.componentPath)
}

// SnapshotExists reports whether path names an existing regular file with
// the snapshot suffix.
func SnapshotExists(path string) bool {
	if filepath.Ext(path) != SnapshotSuffix {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Save writes t to its snapshot path, replacing any previous snapshot.
// It returns the path written.
func Save(t Topology) (string, error) {
	data, err := Marshal(t)
	if err != nil {
		return "", err
	}
	path := SnapshotPath(t)
	if err := fsutil.WriteFileAtomic(path, data, fsutil.DefaultPerm); err != nil {
		return "", errors.WrapWithContext(errors.ErrCodeIO, "saving topology snapshot", err,
			map[string]any{"path": path})
	}
	return path, nil
}

// Load reads and validates the snapshot at path.
func Load(path string) (Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Topology{}, errors.WrapWithContext(errors.ErrCodeIO, "reading topology snapshot", err,
			map[string]any{"path": path})
	}
	t, err := Unmarshal(data)
	if err != nil {
		return Topology{}, errors.WrapWithContext(errors.CodeOf(err), "loading topology snapshot", err,
			map[string]any{"path": path})
	}
	return t, nil
}
