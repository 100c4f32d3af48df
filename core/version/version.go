// Package version implements the positional integer versions semguard reads
// and writes, together with the bump operations a caller can request.
//
// A Version has either three segments (major.minor.build) or four
// (major.minor.build.revision). The segment count is part of the value:
// it survives parsing, formatting and bumping, and only changes through the
// explicit Pad4 and Truncate3 conversions.
package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/emenda-labs/semguard/pkg/errors"
)

const (
	// Delimiter separates version segments.
	Delimiter = "."

	minSegments = 3
	maxSegments = 4
)

// Version is an immutable 3- or 4-segment version. The zero value is not a
// valid version; use Parse, New or New4.
type Version struct {
	segs [maxSegments]uint32
	n    int
}

// New returns the 3-segment version major.minor.build.
func New(major, minor, build uint32) Version {
	return Version{segs: [maxSegments]uint32{major, minor, build}, n: 3}
}

// New4 returns the 4-segment version major.minor.build.revision.
func New4(major, minor, build, revision uint32) Version {
	return Version{segs: [maxSegments]uint32{major, minor, build, revision}, n: 4}
}

// Default is the version assumed for a component that declares none.
func Default() Version {
	return New4(1, 0, 0, 0)
}

// Parse parses a dotted 3- or 4-segment version. Surrounding whitespace is
// ignored; every segment must consist of ASCII digits only, so wildcard
// segments such as "1.0.*" are rejected rather than defaulted. Leading zeros
// ("01.2.3") are rejected too, so String always gives back the parsed text.
func Parse(text string) (Version, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Version{}, errors.New(errors.ErrCodeParseFailure, "version string is empty")
	}

	parts := strings.Split(trimmed, Delimiter)
	if len(parts) < minSegments || len(parts) > maxSegments {
		return Version{}, errors.NewWithContext(errors.ErrCodeParseFailure,
			fmt.Sprintf("version %q has %d segments, want 3 or 4", trimmed, len(parts)),
			map[string]any{"text": text})
	}

	var v Version
	for i, part := range parts {
		n, err := parseSegment(part)
		if err != nil {
			return Version{}, errors.WrapWithContext(errors.ErrCodeParseFailure,
				fmt.Sprintf("invalid segment %d of version %q", i, trimmed), err,
				map[string]any{"text": text, "segment": part})
		}
		v.segs[i] = n
	}
	v.n = len(parts)
	return v, nil
}

// MustParse is Parse for literals known to be valid. It panics on error.
func MustParse(text string) Version {
	v, err := Parse(text)
	if err != nil {
		panic(fmt.Sprintf("version.MustParse: %v", err))
	}
	return v
}

func parseSegment(s string) (uint32, error) {
	if s == "" {
		return 0, fmt.Errorf("empty segment")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("non-numeric segment %q", s)
		}
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, fmt.Errorf("segment %q has a leading zero", s)
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("segment %q out of range", s)
	}
	return uint32(n), nil
}

// Len returns the number of segments (3 or 4), or 0 for the zero value.
func (v Version) Len() int { return v.n }

// IsZero reports whether v is the uninitialised zero value.
func (v Version) IsZero() bool { return v.n == 0 }

// HasRevision reports whether v carries a fourth segment.
func (v Version) HasRevision() bool { return v.n == maxSegments }

func (v Version) Major() uint32 { return v.segs[0] }
func (v Version) Minor() uint32 { return v.segs[1] }
func (v Version) Build() uint32 { return v.segs[2] }

// Revision returns the fourth segment, or 0 when v has only three.
func (v Version) Revision() uint32 { return v.segs[3] }

// Segments returns a copy of the segments in order.
func (v Version) Segments() []uint32 {
	out := make([]uint32, v.n)
	copy(out, v.segs[:v.n])
	return out
}

// Pad4 returns v in 4-segment form, appending a zero revision when needed.
func (v Version) Pad4() Version {
	if v.n == maxSegments || v.IsZero() {
		return v
	}
	return New4(v.segs[0], v.segs[1], v.segs[2], 0)
}

// Truncate3 returns v in 3-segment form, dropping any revision.
func (v Version) Truncate3() Version {
	if v.n == minSegments || v.IsZero() {
		return v
	}
	return New(v.segs[0], v.segs[1], v.segs[2])
}

// ShapedLike returns v with ref's segment count when the conversion loses
// nothing: a zero revision is dropped for a 3-segment ref and added for a
// 4-segment one. Otherwise v is returned unchanged.
func (v Version) ShapedLike(ref Version) Version {
	switch {
	case v.IsZero() || ref.IsZero():
		return v
	case ref.n == minSegments && v.n == maxSegments && v.segs[3] == 0:
		return v.Truncate3()
	case ref.n == maxSegments && v.n == minSegments:
		return v.Pad4()
	}
	return v
}

// Equal reports whether v and o have the same segments and segment count.
func (v Version) Equal(o Version) bool {
	return v == o
}

// String joins the segments with the delimiter, keeping the original
// segment count. The zero value formats as the empty string.
func (v Version) String() string {
	if v.IsZero() {
		return ""
	}
	var b strings.Builder
	for i := 0; i < v.n; i++ {
		if i > 0 {
			b.WriteString(Delimiter)
		}
		b.WriteString(strconv.FormatUint(uint64(v.segs[i]), 10))
	}
	return b.String()
}

// Compare orders a and b segment by segment. When one version is a prefix of
// the other the shorter one sorts first; missing segments are never treated
// as zero. It returns -1, 0 or +1.
func Compare(a, b Version) int {
	n := min(a.n, b.n)
	for i := 0; i < n; i++ {
		switch {
		case a.segs[i] < b.segs[i]:
			return -1
		case a.segs[i] > b.segs[i]:
			return 1
		}
	}
	switch {
	case a.n < b.n:
		return -1
	case a.n > b.n:
		return 1
	}
	return 0
}

// Semver returns the canonical "vMAJOR.MINOR.BUILD" form used by
// golang.org/x/mod/semver. The revision segment has no semver equivalent and
// is dropped.
func (v Version) Semver() string {
	if v.IsZero() {
		return ""
	}
	return "v" + v.Truncate3().String()
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	if v.IsZero() {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "cannot marshal an empty version")
	}
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
