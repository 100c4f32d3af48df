// Package exports extracts the public API of a Go module as canonical
// signature strings, together with the version declarations found in its
// sources.
package exports

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/emenda-labs/semguard/core/rewrite"
	"github.com/emenda-labs/semguard/drivers/golang/symbols"
)

// Declaration is a Go version declaration found in a module source file.
type Declaration struct {
	File  string
	Line  int
	Value string
}

// Exports is everything extracted from one module.
type Exports struct {
	Module       string
	Symbols      []symbols.Symbol
	Declarations []Declaration
}

// API returns the canonical signature of every exported symbol, in source
// walk order.
func (e Exports) API() []string {
	return symbols.Strings(e.Symbols)
}

// Parse walks the module rooted at rootDir and collects its exported
// symbols and version declarations. module is the module import path.
//
// Test files, testdata, vendor, hidden and underscore directories and nested
// modules are skipped. Symbols of internal packages and of package main are
// not part of the API, but their version declarations are still collected.
func Parse(ctx context.Context, rootDir, module string) (Exports, error) {
	fset := token.NewFileSet()
	out := Exports{Module: module, Symbols: []symbols.Symbol{}}

	walkErr := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Skip symlinks to prevent symlink-based path escapes.
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		if d.IsDir() {
			if path == rootDir {
				return nil
			}
			base := d.Name()
			if base == "testdata" || base == "vendor" || strings.HasPrefix(base, "_") || strings.HasPrefix(base, ".") {
				return fs.SkipDir
			}
			if hasGoMod(path) {
				return fs.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		file, parseErr := parser.ParseFile(fset, path, src, parser.SkipObjectResolution)
		if parseErr != nil {
			slog.Warn("skipping unparseable file", "path", path, "error", parseErr)
			return nil
		}

		for _, decl := range rewrite.GoDeclarations(fset, file) {
			out.Declarations = append(out.Declarations, Declaration{File: path, Line: decl.Line, Value: decl.Value})
		}

		pkgPath := packagePath(rootDir, path, module)
		if file.Name.Name == "main" || isInternal(strings.TrimPrefix(pkgPath, module)) {
			return nil
		}

		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				out.Symbols = appendFunc(out.Symbols, d, pkgPath)
			case *ast.GenDecl:
				switch d.Tok {
				case token.TYPE:
					out.Symbols = appendTypes(out.Symbols, d, pkgPath)
				case token.CONST:
					out.Symbols = appendValues(out.Symbols, d, pkgPath, symbols.SymbolConst)
				case token.VAR:
					out.Symbols = appendValues(out.Symbols, d, pkgPath, symbols.SymbolVar)
				}
			}
		}
		return nil
	})
	if walkErr != nil {
		return Exports{}, fmt.Errorf("walking source at %s: %w", rootDir, walkErr)
	}

	return out, nil
}

// appendFunc adds a function or method. Methods on unexported receivers are
// skipped.
func appendFunc(syms []symbols.Symbol, fn *ast.FuncDecl, pkgPath string) []symbols.Symbol {
	if fn.Name == nil || !fn.Name.IsExported() {
		return syms
	}

	sym := symbols.Symbol{
		Kind:      symbols.SymbolFunc,
		Name:      fn.Name.Name,
		Package:   pkgPath,
		Signature: funcString(fn.Type),
	}
	if fn.Recv != nil {
		recv := receiverTypeName(fn.Recv)
		if recv == "" || !ast.IsExported(recv) {
			return syms
		}
		sym.Kind = symbols.SymbolMethod
		sym.Name = recv + "." + fn.Name.Name
		sym.Receiver = recv
	}
	return append(syms, sym)
}

// appendTypes adds exported types and the exported fields of struct types.
func appendTypes(syms []symbols.Symbol, gen *ast.GenDecl, pkgPath string) []symbols.Symbol {
	for _, spec := range gen.Specs {
		ts, ok := spec.(*ast.TypeSpec)
		if !ok || ts.Name == nil || !ts.Name.IsExported() {
			continue
		}

		kind := symbols.SymbolType
		if _, isIface := ts.Type.(*ast.InterfaceType); isIface {
			kind = symbols.SymbolInterface
		}
		typeName := ts.Name.Name
		syms = append(syms, symbols.Symbol{
			Kind:      kind,
			Name:      typeName,
			Package:   pkgPath,
			Signature: typeSpecString(ts),
		})

		st, ok := ts.Type.(*ast.StructType)
		if !ok || st.Fields == nil {
			continue
		}
		for _, field := range st.Fields.List {
			ft := typeString(field.Type)
			if len(field.Names) == 0 {
				emb := baseTypeName(field.Type)
				if emb != "" && ast.IsExported(emb) {
					syms = append(syms, symbols.Symbol{
						Kind: symbols.SymbolField, Name: typeName + "." + emb, Package: pkgPath, Signature: ft,
					})
				}
				continue
			}
			for _, name := range field.Names {
				if name.IsExported() {
					syms = append(syms, symbols.Symbol{
						Kind: symbols.SymbolField, Name: typeName + "." + name.Name, Package: pkgPath, Signature: ft,
					})
				}
			}
		}
	}
	return syms
}

func appendValues(syms []symbols.Symbol, gen *ast.GenDecl, pkgPath string, kind symbols.SymbolKind) []symbols.Symbol {
	for _, spec := range gen.Specs {
		vs, ok := spec.(*ast.ValueSpec)
		if !ok {
			continue
		}
		for _, name := range vs.Names {
			if name.IsExported() {
				syms = append(syms, symbols.Symbol{
					Kind: kind, Name: name.Name, Package: pkgPath, Signature: valueType(vs),
				})
			}
		}
	}
	return syms
}

// packagePath derives the import path of the package holding filePath.
func packagePath(rootDir, filePath, module string) string {
	rel, err := filepath.Rel(rootDir, filepath.Dir(filePath))
	if err != nil || rel == "." || rel == "" {
		return module
	}
	return module + "/" + filepath.ToSlash(rel)
}

// isInternal reports whether a module-relative package path has an
// internal path element.
func isInternal(relPath string) bool {
	for _, elem := range strings.Split(relPath, "/") {
		if elem == "internal" {
			return true
		}
	}
	return false
}

// baseTypeName strips pointers, type arguments and package selectors:
// *Client -> "Client", Foo[T] -> "Foo", *pkg.Bar[T, U] -> "Bar".
func baseTypeName(expr ast.Expr) string {
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	switch idx := expr.(type) {
	case *ast.IndexExpr:
		expr = idx.X
	case *ast.IndexListExpr:
		expr = idx.X
	}
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		return e.Sel.Name
	}
	return ""
}

func receiverTypeName(recv *ast.FieldList) string {
	if recv == nil || len(recv.List) == 0 {
		return ""
	}
	return baseTypeName(recv.List[0].Type)
}

func hasGoMod(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "go.mod"))
	return err == nil && !info.IsDir()
}
