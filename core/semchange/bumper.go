package semchange

import (
	"math"

	"github.com/emenda-labs/semguard/core/topology"
	"github.com/emenda-labs/semguard/core/version"
	"github.com/emenda-labs/semguard/pkg/errors"
)

// NextVersion computes the structural version that follows t's version for
// the given change. It always works on, and returns, the 4-segment form:
//
//	Patch: major.minor.(build+1).0
//	Minor: major.(minor+1).build.0
//	Major: (major+1).minor.build.0
//
// Only the revision is reset. The lower segments are carried over unchanged,
// unlike the cascading text bump in package rewrite. Bumping a segment that
// is already math.MaxUint32 is an InvalidArgument error.
func NextVersion(t topology.Topology, change SemanticChange) (version.Version, error) {
	if t.IsZero() {
		return version.Version{}, errors.New(errors.ErrCodeInvalidArgument, "next version requires a topology")
	}
	v := t.Version().Pad4()

	var next version.Version
	var bumped uint32
	switch change {
	case Patch:
		bumped, next = v.Build(), version.New4(v.Major(), v.Minor(), v.Build()+1, 0)
	case Minor:
		bumped, next = v.Minor(), version.New4(v.Major(), v.Minor()+1, v.Build(), 0)
	case Major:
		bumped, next = v.Major(), version.New4(v.Major()+1, v.Minor(), v.Build(), 0)
	default:
		return version.Version{}, errors.NewWithContext(errors.ErrCodeInvalidArgument,
			"unsupported semantic change", map[string]any{"change": int(change)})
	}
	if bumped == math.MaxUint32 {
		return version.Version{}, errors.NewWithContext(errors.ErrCodeInvalidArgument,
			"next version would overflow a segment",
			map[string]any{"version": v.String(), "change": change.String()})
	}
	return next, nil
}
