package rewrite

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/emenda-labs/semguard/core/version"
	"github.com/emenda-labs/semguard/pkg/errors"
	"github.com/emenda-labs/semguard/pkg/fsutil"
)

var descriptorExts = map[string]bool{
	".nuspec":  true,
	".xml":     true,
	".csproj":  true,
	".props":   true,
	".targets": true,
}

// IsDescriptor reports whether path is rewritten as an XML descriptor rather
// than as source with version declarations.
func IsDescriptor(path string) bool {
	return descriptorExts[strings.ToLower(filepath.Ext(path))]
}

// Result describes a file rewrite. Before and After hold the full contents.
type Result struct {
	Path    string
	Before  string
	After   string
	Changed bool
}

// BumpFile bumps the version carried by the file at path and writes it back
// when the content changed. Descriptors go through BumpDescriptorContents
// and everything else through BumpDeclarationContents.
func BumpFile(path, op string, opts ...Option) (Result, error) {
	return rewriteFile(path, opts, func(text string) (string, error) {
		if IsDescriptor(path) {
			return BumpDescriptorContents(text, op, opts...)
		}
		return BumpDeclarationContents(text, op, opts...)
	})
}

// SetFile replaces every version declaration in the file at path with v.
func SetFile(path string, v version.Version, opts ...Option) (Result, error) {
	return rewriteFile(path, opts, func(text string) (string, error) {
		return SetDeclarationContents(text, v)
	})
}

func rewriteFile(path string, opts []Option, transform func(string) (string, error)) (Result, error) {
	o := newOptions(opts)

	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, errors.WrapWithContext(errors.ErrCodeIO, "reading version file", err,
			map[string]any{"path": path})
	}

	before := string(data)
	after, err := transform(before)
	if err != nil {
		return Result{}, errors.WrapWithContext(errors.CodeOf(err), "rewriting version file", err,
			map[string]any{"path": path})
	}

	res := Result{Path: path, Before: before, After: after, Changed: after != before}
	if !res.Changed || o.dryRun {
		return res, nil
	}

	if err := fsutil.WriteFileAtomic(path, []byte(after), fsutil.DefaultPerm); err != nil {
		return Result{}, errors.WrapWithContext(errors.ErrCodeIO, "writing version file", err,
			map[string]any{"path": path})
	}
	return res, nil
}
