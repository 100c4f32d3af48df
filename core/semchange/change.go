// Package semchange classifies the difference between two topology snapshots
// as a patch, minor or major change, and derives the next structural
// version from that classification.
//
// Classification only looks at the public API signature sets and compares
// signatures by exact text. Any removed signature makes the change major,
// even when signatures were also added.
package semchange

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/emenda-labs/semguard/core/topology"
	"github.com/emenda-labs/semguard/pkg/errors"
)

// SemanticChange is the worst-case classification of an API revision.
// Values are ordered: Patch < Minor < Major. The zero value is Patch.
type SemanticChange int

const (
	Patch SemanticChange = iota
	Minor
	Major
)

var changeNames = [...]string{
	Patch: "patch",
	Minor: "minor",
	Major: "major",
}

func (c SemanticChange) String() string {
	if c.valid() {
		return changeNames[c]
	}
	return fmt.Sprintf("SemanticChange(%d)", int(c))
}

func (c SemanticChange) valid() bool {
	return c >= Patch && c <= Major
}

// ParseSemanticChange parses "patch", "minor" or "major", ignoring case.
func ParseSemanticChange(text string) (SemanticChange, error) {
	name := cases.Fold().String(strings.TrimSpace(text))
	for i, n := range changeNames {
		if n == name {
			return SemanticChange(i), nil
		}
	}
	return Patch, errors.Newf(errors.ErrCodeParseFailure, "unknown semantic change %q", text)
}

// MarshalText implements encoding.TextMarshaler.
func (c SemanticChange) MarshalText() ([]byte, error) {
	if !c.valid() {
		return nil, errors.Newf(errors.ErrCodeInvalidArgument, "invalid semantic change %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *SemanticChange) UnmarshalText(text []byte) error {
	parsed, err := ParseSemanticChange(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Additions reports whether newSet contains an element missing from oldSet.
// A nil set is absent and rejected; an empty set is fine.
func Additions(newSet, oldSet []string) (bool, error) {
	if newSet == nil || oldSet == nil {
		return false, errors.New(errors.ErrCodeInvalidArgument, "additions requires both sets")
	}
	return len(missing(newSet, oldSet)) > 0, nil
}

// Removals reports whether oldSet contains an element missing from newSet.
// A nil set is absent and rejected; an empty set is fine.
func Removals(newSet, oldSet []string) (bool, error) {
	if newSet == nil || oldSet == nil {
		return false, errors.New(errors.ErrCodeInvalidArgument, "removals requires both sets")
	}
	return len(missing(oldSet, newSet)) > 0, nil
}

// DetermineChange classifies newTopology against oldTopology. It starts at
// Patch, raises to Minor when signatures were added and sets Major when any
// signature was removed.
func DetermineChange(newTopology, oldTopology topology.Topology) (SemanticChange, error) {
	newAPI, oldAPI := newTopology.PublicAPI(), oldTopology.PublicAPI()
	change := Patch

	added, err := Additions(newAPI, oldAPI)
	if err != nil {
		return Patch, err
	}
	if added {
		change = Minor
	}

	removed, err := Removals(newAPI, oldAPI)
	if err != nil {
		return Patch, err
	}
	if removed {
		change = Major
	}

	return change, nil
}

// Report explains a classification: the change itself plus the signatures
// and references that differ. The lists are sorted and free of duplicates.
type Report struct {
	Change            SemanticChange       `json:"change" yaml:"change"`
	Added             []string             `json:"added" yaml:"added"`
	Removed           []string             `json:"removed" yaml:"removed"`
	AddedReferences   []topology.Reference `json:"addedReferences" yaml:"addedReferences"`
	RemovedReferences []topology.Reference `json:"removedReferences" yaml:"removedReferences"`
}

// Compare classifies newTopology against oldTopology and lists the
// differences behind the classification. Reference differences are reported
// but never influence the change.
func Compare(newTopology, oldTopology topology.Topology) (Report, error) {
	change, err := DetermineChange(newTopology, oldTopology)
	if err != nil {
		return Report{}, err
	}

	newAPI, oldAPI := newTopology.PublicAPI(), oldTopology.PublicAPI()
	newRefs, oldRefs := newTopology.References(), oldTopology.References()

	return Report{
		Change:            change,
		Added:             sortedStrings(missing(newAPI, oldAPI)),
		Removed:           sortedStrings(missing(oldAPI, newAPI)),
		AddedReferences:   sortedRefs(missing(newRefs, oldRefs)),
		RemovedReferences: sortedRefs(missing(oldRefs, newRefs)),
	}, nil
}

// missing returns the distinct elements of a absent from b, in a's order.
func missing[T comparable](a, b []T) []T {
	in := make(map[T]struct{}, len(b))
	for _, x := range b {
		in[x] = struct{}{}
	}
	out := []T{}
	seen := make(map[T]struct{})
	for _, x := range a {
		if _, ok := in[x]; ok {
			continue
		}
		if _, dup := seen[x]; dup {
			continue
		}
		seen[x] = struct{}{}
		out = append(out, x)
	}
	return out
}

func sortedStrings(s []string) []string {
	slices.Sort(s)
	return s
}

func sortedRefs(refs []topology.Reference) []topology.Reference {
	slices.SortFunc(refs, func(a, b topology.Reference) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Version.String(), b.Version.String())
	})
	return refs
}
