// Package topology holds the point-in-time record of a component's public
// surface that semguard diffs between releases, and the on-disk store that
// keeps it next to the component.
package topology

import (
	"slices"
	"strings"

	"github.com/emenda-labs/semguard/core/version"
	"github.com/emenda-labs/semguard/pkg/errors"
)

// Reference is an outbound dependency of a component.
type Reference struct {
	Name    string          `json:"name"`
	Version version.Version `json:"version"`
}

// Topology is an immutable snapshot of one component: its identity, version,
// references and public API signatures. Accessors return copies.
type Topology struct {
	version       version.Version
	componentName string
	componentPath string
	references    []Reference
	publicAPI     []string
}

// New validates its arguments and builds a Topology. A zero version, a blank
// name or path, or a nil references or publicAPI slice is rejected with an
// InvalidArgument error; empty non-nil slices are valid.
func New(v version.Version, componentName, componentPath string, references []Reference, publicAPI []string) (Topology, error) {
	if v.IsZero() {
		return Topology{}, errors.New(errors.ErrCodeInvalidArgument, "topology version is required")
	}
	if strings.TrimSpace(componentName) == "" {
		return Topology{}, errors.New(errors.ErrCodeInvalidArgument, "topology component name is required")
	}
	if strings.TrimSpace(componentPath) == "" {
		return Topology{}, errors.NewWithContext(errors.ErrCodeInvalidArgument,
			"topology component path is required", map[string]any{"component": componentName})
	}
	if references == nil {
		return Topology{}, errors.NewWithContext(errors.ErrCodeInvalidArgument,
			"topology references are required", map[string]any{"component": componentName})
	}
	if publicAPI == nil {
		return Topology{}, errors.NewWithContext(errors.ErrCodeInvalidArgument,
			"topology public API is required", map[string]any{"component": componentName})
	}
	for i, ref := range references {
		if strings.TrimSpace(ref.Name) == "" || ref.Version.IsZero() {
			return Topology{}, errors.NewWithContext(errors.ErrCodeInvalidArgument,
				"topology reference needs a name and a version",
				map[string]any{"component": componentName, "index": i})
		}
	}

	return Topology{
		version:       v,
		componentName: componentName,
		componentPath: componentPath,
		references:    slices.Clone(references),
		publicAPI:     slices.Clone(publicAPI),
	}, nil
}

func (t Topology) Version() version.Version { return t.version }
func (t Topology) ComponentName() string    { return t.componentName }
func (t Topology) ComponentPath() string    { return t.componentPath }

// References returns a copy of the component's outbound references.
func (t Topology) References() []Reference { return slices.Clone(t.references) }

// PublicAPI returns a copy of the public signature list.
func (t Topology) PublicAPI() []string { return slices.Clone(t.publicAPI) }

// IsZero reports whether t was never constructed through New.
func (t Topology) IsZero() bool { return t.componentName == "" }

// WithVersion returns a new Topology identical to t except for its version.
func (t Topology) WithVersion(v version.Version) (Topology, error) {
	return New(v, t.componentName, t.componentPath, t.references, t.publicAPI)
}

// APIEqual reports whether a and b expose the same set of signatures,
// ignoring order and duplicates.
func APIEqual(a, b Topology) bool {
	return setEqual(a.publicAPI, b.publicAPI)
}

// ReferencesEqual reports whether a and b reference the same set of
// (name, version) pairs, ignoring order and duplicates.
func ReferencesEqual(a, b Topology) bool {
	return setEqual(a.references, b.references)
}

func setEqual[T comparable](a, b []T) bool {
	as := make(map[T]struct{}, len(a))
	for _, x := range a {
		as[x] = struct{}{}
	}
	bs := make(map[T]struct{}, len(b))
	for _, x := range b {
		if _, ok := as[x]; !ok {
			return false
		}
		bs[x] = struct{}{}
	}
	return len(as) == len(bs)
}
