package symbols

import "strings"

// SymbolKind identifies what kind of exported Go symbol this is.
type SymbolKind string

const (
	SymbolFunc      SymbolKind = "func"
	SymbolType      SymbolKind = "type"
	SymbolMethod    SymbolKind = "method"
	SymbolField     SymbolKind = "field"
	SymbolConst     SymbolKind = "const"
	SymbolVar       SymbolKind = "var"
	SymbolInterface SymbolKind = "interface"
)

// Symbol represents a single exported Go symbol.
type Symbol struct {
	Name      string     `json:"name"`
	Kind      SymbolKind `json:"kind"`
	Package   string     `json:"package"`
	Receiver  string     `json:"receiver,omitempty"`
	Signature string     `json:"signature,omitempty"`
}

// String renders the symbol as the canonical public API entry recorded in
// snapshots, for example:
//
//	func github.com/acme/dummy.Hello(string) string
//	method github.com/acme/dummy.Client.Close() error
//	field github.com/acme/dummy.Config.Port int
//	const github.com/acme/dummy.Untyped
//
// Two symbols are the same API member exactly when their strings are equal.
func (s Symbol) String() string {
	var b strings.Builder
	b.WriteString(string(s.Kind))
	b.WriteByte(' ')
	b.WriteString(s.Package)
	b.WriteByte('.')
	b.WriteString(s.Name)
	if s.Signature == "" {
		return b.String()
	}
	if s.Kind != SymbolFunc && s.Kind != SymbolMethod {
		b.WriteByte(' ')
	}
	b.WriteString(s.Signature)
	return b.String()
}

// Strings renders every symbol with String, keeping order.
func Strings(syms []Symbol) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = s.String()
	}
	return out
}
