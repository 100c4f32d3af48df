package exports

import (
	"go/ast"
	"sort"
	"strings"
)

// typeString renders a type expression in its canonical, whitespace-stable
// form. Composite struct and non-empty interface literals are abbreviated;
// their members are reported as separate symbols or in the enclosing type's
// signature.
func typeString(expr ast.Expr) string {
	switch e := expr.(type) {
	case nil:
		return ""
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		return typeString(e.X) + "." + e.Sel.Name
	case *ast.StarExpr:
		return "*" + typeString(e.X)
	case *ast.ArrayType:
		if e.Len != nil {
			return "[" + typeString(e.Len) + "]" + typeString(e.Elt)
		}
		return "[]" + typeString(e.Elt)
	case *ast.MapType:
		return "map[" + typeString(e.Key) + "]" + typeString(e.Value)
	case *ast.InterfaceType:
		if e.Methods == nil || len(e.Methods.List) == 0 {
			return "interface{}"
		}
		return "interface{...}"
	case *ast.StructType:
		return "struct{...}"
	case *ast.FuncType:
		return "func" + funcString(e)
	case *ast.Ellipsis:
		return "..." + typeString(e.Elt)
	case *ast.ChanType:
		switch e.Dir {
		case ast.RECV:
			return "<-chan " + typeString(e.Value)
		case ast.SEND:
			return "chan<- " + typeString(e.Value)
		default:
			return "chan " + typeString(e.Value)
		}
	case *ast.IndexExpr:
		return typeString(e.X) + "[" + typeString(e.Index) + "]"
	case *ast.IndexListExpr:
		return typeString(e.X) + "[" + joinTypes(e.Indices) + "]"
	case *ast.ParenExpr:
		return "(" + typeString(e.X) + ")"
	case *ast.UnaryExpr:
		return e.Op.String() + typeString(e.X)
	case *ast.BinaryExpr:
		return typeString(e.X) + " " + e.Op.String() + " " + typeString(e.Y)
	case *ast.BasicLit:
		return e.Value
	default:
		return "unknown"
	}
}

func joinTypes(exprs []ast.Expr) string {
	parts := make([]string, len(exprs))
	for i, x := range exprs {
		parts[i] = typeString(x)
	}
	return strings.Join(parts, ", ")
}

// fieldTypes expands a field list to one type per declared name, so that
// "a, b int" and "a int, b int" render the same.
func fieldTypes(fl *ast.FieldList) []string {
	if fl == nil {
		return nil
	}
	var out []string
	for _, f := range fl.List {
		t := typeString(f.Type)
		n := len(f.Names)
		if n == 0 {
			n = 1
		}
		for range n {
			out = append(out, t)
		}
	}
	return out
}

// typeParams renders a type parameter list as "[K comparable, V any]".
// Parameter names are kept because constraints refer to them.
func typeParams(fl *ast.FieldList) string {
	if fl == nil || len(fl.List) == 0 {
		return ""
	}
	var parts []string
	for _, f := range fl.List {
		c := typeString(f.Type)
		for _, name := range f.Names {
			parts = append(parts, name.Name+" "+c)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// funcString renders "[T any](int, ...string) (bool, error)" for a function
// type. Parameter names do not appear.
func funcString(ft *ast.FuncType) string {
	if ft == nil {
		return "()"
	}
	s := typeParams(ft.TypeParams) + "(" + strings.Join(fieldTypes(ft.Params), ", ") + ")"

	results := fieldTypes(ft.Results)
	switch len(results) {
	case 0:
		return s
	case 1:
		return s + " " + results[0]
	default:
		return s + " (" + strings.Join(results, ", ") + ")"
	}
}

// typeSpecString renders the signature of a named type: its type parameters
// and underlying type, or "= T" for an alias.
func typeSpecString(spec *ast.TypeSpec) string {
	params := typeParams(spec.TypeParams)
	if spec.Assign.IsValid() {
		return params + "= " + typeString(spec.Type)
	}

	var body string
	switch t := spec.Type.(type) {
	case *ast.StructType:
		body = structString(t)
	case *ast.InterfaceType:
		body = interfaceString(t)
	default:
		body = typeString(spec.Type)
	}
	if params != "" {
		return params + " " + body
	}
	return body
}

// structString renders exported and embedded fields in declaration order:
// "struct{Host string; Port int; io.Reader}".
func structString(st *ast.StructType) string {
	var fields []string
	if st.Fields != nil {
		for _, f := range st.Fields.List {
			t := typeString(f.Type)
			if len(f.Names) == 0 {
				fields = append(fields, t)
				continue
			}
			for _, name := range f.Names {
				if name.IsExported() {
					fields = append(fields, name.Name+" "+t)
				}
			}
		}
	}
	return "struct{" + strings.Join(fields, "; ") + "}"
}

// interfaceString renders the method set and embedded constraints sorted, so
// reordering an interface's methods is not an API change.
func interfaceString(it *ast.InterfaceType) string {
	var entries []string
	if it.Methods != nil {
		for _, m := range it.Methods.List {
			if len(m.Names) == 0 {
				entries = append(entries, typeString(m.Type))
				continue
			}
			if ft, ok := m.Type.(*ast.FuncType); ok {
				entries = append(entries, m.Names[0].Name+funcString(ft))
			}
		}
	}
	sort.Strings(entries)
	return "interface{" + strings.Join(entries, "; ") + "}"
}

// valueType returns the declared type of a const or var spec, or "" when
// the value is untyped.
func valueType(spec *ast.ValueSpec) string {
	if spec == nil || spec.Type == nil {
		return ""
	}
	return typeString(spec.Type)
}
