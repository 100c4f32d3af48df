package rewrite

import (
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"strconv"
	"strings"

	"github.com/emenda-labs/semguard/core/version"
	"github.com/emenda-labs/semguard/pkg/errors"
)

// DeclarationKind names the syntax a version declaration was found in.
type DeclarationKind string

const (
	// KindAttribute is an assembly attribute: [assembly: AssemblyVersion("1.0.0.0")].
	KindAttribute DeclarationKind = "attribute"
	// KindGoVersion is a Go constant or variable: const Version = "1.0.0".
	KindGoVersion DeclarationKind = "go"
)

// goVersionName is the identifier of a Go version declaration.
const goVersionName = "Version"

// The capture group is the attribute argument. The pattern is anchored at
// the start of a line so commented-out attributes are ignored.
var attributePattern = regexp.MustCompile(`(?m)^[ \t]*\[[ \t]*assembly[ \t]*:[ \t]*(?:[\w.]+\.)?AssemblyVersion(?:Attribute)?[ \t]*\([ \t]*"([^"\r\n]*)"`)

// Declaration is one version argument located in source text. Start and End
// delimit the argument between its quotes.
type Declaration struct {
	Kind  DeclarationKind
	Value string
	Line  int
	Start int
	End   int
}

// FindDeclarations returns every version declaration in text, ordered by
// position. Text that parses as a Go source file is searched for top-level
// Version constants and variables; any other text for assembly attributes.
func FindDeclarations(text string) []Declaration {
	fset := token.NewFileSet()
	if file, err := parser.ParseFile(fset, "", text, parser.SkipObjectResolution); err == nil {
		return GoDeclarations(fset, file)
	}
	return attributeDeclarations(text)
}

// GoDeclarations returns the top-level `const Version = "..."` and
// `var Version = "..."` declarations of a parsed file whose value is a plain
// string literal. Assignments inside functions are not declarations and are
// never reported. Offsets are relative to the start of the file.
func GoDeclarations(fset *token.FileSet, file *ast.File) []Declaration {
	var decls []Declaration
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || (gen.Tok != token.CONST && gen.Tok != token.VAR) {
			continue
		}
		for _, spec := range gen.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok || !isStringType(vs.Type) {
				continue
			}
			for i, name := range vs.Names {
				if name.Name != goVersionName || i >= len(vs.Values) {
					continue
				}
				if d, ok := literalDeclaration(fset, vs.Values[i]); ok {
					decls = append(decls, d)
				}
			}
		}
	}
	return decls
}

func isStringType(expr ast.Expr) bool {
	if expr == nil {
		return true
	}
	id, ok := expr.(*ast.Ident)
	return ok && id.Name == "string"
}

// literalDeclaration maps a string literal without escapes to the span
// between its quotes.
func literalDeclaration(fset *token.FileSet, expr ast.Expr) (Declaration, bool) {
	lit, ok := expr.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING || len(lit.Value) < 2 {
		return Declaration{}, false
	}
	value, err := strconv.Unquote(lit.Value)
	if err != nil || value != lit.Value[1:len(lit.Value)-1] {
		return Declaration{}, false
	}
	pos := fset.Position(lit.Pos())
	return Declaration{
		Kind:  KindGoVersion,
		Value: value,
		Line:  pos.Line,
		Start: pos.Offset + 1,
		End:   pos.Offset + len(lit.Value) - 1,
	}, true
}

func attributeDeclarations(text string) []Declaration {
	var decls []Declaration
	for _, m := range attributePattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		decls = append(decls, Declaration{
			Kind:  KindAttribute,
			Value: text[start:end],
			Line:  strings.Count(text[:start], "\n") + 1,
			Start: start,
			End:   end,
		})
	}
	return decls
}

// BumpDeclarationContents bumps every version declaration in text by op.
// Declarations whose argument does not parse, or whose bump would overflow a
// segment, are left alone. Text without declarations is returned unchanged
// unless WithStrict is given.
func BumpDeclarationContents(text, op string, opts ...Option) (string, error) {
	o := newOptions(opts)

	decls := FindDeclarations(text)
	if len(decls) == 0 {
		if o.strict {
			return text, errors.New(errors.ErrCodeStructuralNotFound, "no version declaration found")
		}
		return text, nil
	}

	spans := make([]span, 0, len(decls))
	values := make([]string, 0, len(decls))
	for _, d := range decls {
		bumped, err := bumpToken(d.Value, op)
		if err != nil {
			if o.strict {
				return text, errors.WrapWithContext(errors.ErrCodeParseFailure,
					"version declaration cannot be bumped", err, map[string]any{"line": d.Line})
			}
			continue
		}
		spans = append(spans, span{start: d.Start, end: d.End})
		values = append(values, bumped)
	}
	return replaceSpans(text, spans, values), nil
}

// SetDeclarationContents replaces the argument of every version declaration
// in text with v. Declarations that do not hold a version, such as a "dev"
// placeholder, are left alone. Text without a usable declaration is a
// StructuralNotFound error.
func SetDeclarationContents(text string, v version.Version) (string, error) {
	if v.IsZero() {
		return text, errors.New(errors.ErrCodeInvalidArgument, "version is required")
	}

	var spans []span
	for _, d := range FindDeclarations(text) {
		if _, err := version.Parse(d.Value); err != nil {
			continue
		}
		spans = append(spans, span{start: d.Start, end: d.End})
	}
	if len(spans) == 0 {
		return text, errors.New(errors.ErrCodeStructuralNotFound, "no version declaration found")
	}

	values := make([]string, len(spans))
	for i := range values {
		values[i] = v.String()
	}
	return replaceSpans(text, spans, values), nil
}
