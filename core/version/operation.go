package version

import (
	"strings"

	"golang.org/x/text/cases"
)

// Operation is a caller-specified bump directive.
type Operation int

const (
	Patch Operation = iota
	Minor
	Major
	Build
)

var operationNames = map[Operation]string{
	Patch: "patch",
	Minor: "minor",
	Major: "major",
	Build: "build",
}

// Operations returns every Operation in declaration order.
func Operations() []Operation {
	return []Operation{Patch, Minor, Major, Build}
}

// String returns the lower-case name of the operation.
func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return "unknown"
}

// ParseOperation maps free-form text to an Operation, ignoring case and
// surrounding whitespace. Unrecognised text reports false.
func ParseOperation(text string) (Operation, bool) {
	folded := cases.Fold().String(strings.TrimSpace(text))
	for op, name := range operationNames {
		if folded == name {
			return op, true
		}
	}
	return 0, false
}
