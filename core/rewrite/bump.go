// Package rewrite bumps version tokens inside text without touching
// anything else in the text. It knows two kinds of carrier: XML package
// descriptors with a version element, and source files with version
// declarations. Every rewrite is a span replacement over the original bytes.
//
// Bump arithmetic here cascades: bumping a segment zeroes every segment
// below it. This differs from semchange.NextVersion, which only resets the
// revision.
package rewrite

import (
	"math"

	"github.com/emenda-labs/semguard/core/version"
	"github.com/emenda-labs/semguard/pkg/errors"
)

// BumpVersionString parses text as a 3- or 4-segment version and bumps it
// by the operation named in op (matched case-insensitively). An unknown
// operation, an unparseable version or a bump that would overflow a segment
// returns text unchanged.
func BumpVersionString(text, op string) string {
	operation, ok := version.ParseOperation(op)
	if !ok {
		return text
	}
	v, err := version.Parse(text)
	if err != nil {
		return text
	}
	return BumpVersion(v, operation).String()
}

// BumpVersion applies op to v with cascading resets. The segment count of v
// is preserved. Build on a 3-segment version has no segment to increment
// and returns v unchanged, as does any unknown operation and any bump of a
// segment already at math.MaxUint32.
func BumpVersion(v version.Version, op version.Operation) version.Version {
	if v.IsZero() || overflows(v, op) {
		return v
	}
	four := v.HasRevision()

	var next version.Version
	switch op {
	case version.Patch:
		next = version.New4(v.Major(), v.Minor(), v.Build()+1, 0)
	case version.Minor:
		next = version.New4(v.Major(), v.Minor()+1, 0, 0)
	case version.Major:
		next = version.New4(v.Major()+1, 0, 0, 0)
	case version.Build:
		if !four {
			return v
		}
		next = version.New4(v.Major(), v.Minor(), v.Build(), v.Revision()+1)
	default:
		return v
	}

	if !four {
		return next.Truncate3()
	}
	return next
}

// overflows reports whether op would increment a segment of v that is
// already at its maximum.
func overflows(v version.Version, op version.Operation) bool {
	var seg uint32
	switch op {
	case version.Patch:
		seg = v.Build()
	case version.Minor:
		seg = v.Minor()
	case version.Major:
		seg = v.Major()
	case version.Build:
		if !v.HasRevision() {
			return false
		}
		seg = v.Revision()
	default:
		return false
	}
	return seg == math.MaxUint32
}

// bumpToken bumps the version token by the operation named in op. It fails
// with ParseFailure when the token is not a version or when a segment would
// overflow. An unknown operation leaves token as is.
func bumpToken(token, op string) (string, error) {
	v, err := version.Parse(token)
	if err != nil {
		return token, err
	}
	operation, ok := version.ParseOperation(op)
	if !ok {
		return token, nil
	}
	if overflows(v, operation) {
		return token, errors.NewWithContext(errors.ErrCodeParseFailure,
			"bumping version would overflow a segment", map[string]any{"version": token, "operation": op})
	}
	return BumpVersion(v, operation).String(), nil
}
