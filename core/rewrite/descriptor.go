package rewrite

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/emenda-labs/semguard/pkg/errors"
)

const (
	versionElement  = "version"
	metadataElement = "metadata"
)

// span is a half-open byte range [start, end) in a document.
type span struct {
	start, end int
}

// BumpDescriptorContents bumps the version element of an XML package
// descriptor. The element under metadata wins (the .nuspec layout); otherwise
// the first version element anywhere is used. Element names are matched by
// local name, so a default namespace on the root does not matter.
//
// Only the trimmed text of the element is replaced. A document without a
// version element, with a version that does not parse or cannot be bumped
// without overflowing, or that is not well-formed XML is returned unchanged
// unless WithStrict is given.
func BumpDescriptorContents(doc, op string, opts ...Option) (string, error) {
	o := newOptions(opts)

	sp, err := findVersionElement(doc)
	if err != nil {
		if o.strict {
			return doc, errors.Wrap(errors.ErrCodeParseFailure, "descriptor is not well-formed XML", err)
		}
		return doc, nil
	}
	if sp == nil {
		if o.strict {
			return doc, errors.New(errors.ErrCodeStructuralNotFound, "descriptor has no version element")
		}
		return doc, nil
	}

	raw := doc[sp.start:sp.end]
	token := strings.TrimSpace(raw)
	if strings.ContainsAny(raw, "<&") {
		if o.strict {
			return doc, errors.NewWithContext(errors.ErrCodeParseFailure,
				"descriptor version element does not hold a version", map[string]any{"text": raw})
		}
		return doc, nil
	}
	bumped, err := bumpToken(token, op)
	if err != nil {
		if o.strict {
			return doc, errors.WrapWithContext(errors.ErrCodeParseFailure,
				"descriptor version cannot be bumped", err, map[string]any{"text": raw})
		}
		return doc, nil
	}

	lead := strings.Index(raw, token)
	tok := span{start: sp.start + lead, end: sp.start + lead + len(token)}
	return replaceSpans(doc, []span{tok}, []string{bumped}), nil
}

// asciiSample holds every byte XML markup and version tokens are made of.
const asciiSample = "<?xml version=\"1.0\" encoding='x'?><!-- --><a:b c=\"&amp;\">0123456789.</a:b>\t\r\n" +
	"abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_-/;#[]!"

// findVersionElement returns the span of the text content of the preferred
// version element, or nil when the document has none. A document declaring
// an ASCII-compatible encoding other than UTF-8 is decoded for scanning and
// the span is mapped back onto its original bytes.
func findVersionElement(doc string) (*span, error) {
	var enc encoding.Encoding
	dec := xml.NewDecoder(strings.NewReader(doc))
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		e, err := asciiCompatible(label)
		if err != nil {
			return nil, err
		}
		enc = e
		return e.NewDecoder().Reader(input), nil
	}

	sp, err := scanVersionElement(dec)
	if err != nil || sp == nil || enc == nil {
		return sp, err
	}
	return originalSpan(doc, enc, *sp)
}

// asciiCompatible looks up an IANA charset name and accepts it only when it
// encodes ASCII as itself, so version tokens and markup keep their bytes.
func asciiCompatible(label string) (encoding.Encoding, error) {
	e, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("unsupported encoding %q", label)
	}
	if s, err := e.NewEncoder().String(asciiSample); err != nil || s != asciiSample {
		return nil, fmt.Errorf("encoding %q is not ASCII-compatible", label)
	}
	return e, nil
}

// originalSpan maps a span over the UTF-8 decoding of doc back to doc.
func originalSpan(doc string, enc encoding.Encoding, sp span) (*span, error) {
	text, err := enc.NewDecoder().String(doc)
	if err != nil {
		return nil, err
	}
	start, err := enc.NewEncoder().String(text[:sp.start])
	if err != nil {
		return nil, err
	}
	end, err := enc.NewEncoder().String(text[:sp.end])
	if err != nil {
		return nil, err
	}
	return &span{start: len(start), end: len(end)}, nil
}

// scanVersionElement walks dec and returns the span of the preferred version
// element's text content.
func scanVersionElement(dec *xml.Decoder) (*span, error) {
	var (
		stack      []string
		preferred  *span
		first      *span
		openStart  int
		openDepth  = -1
		openParent string
	)

	for {
		before := int(dec.InputOffset())
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == versionElement && openDepth < 0 {
				openStart = int(dec.InputOffset())
				openDepth = len(stack)
				openParent = ""
				if len(stack) > 0 {
					openParent = stack[len(stack)-1]
				}
			}
			stack = append(stack, t.Name.Local)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
			if openDepth == len(stack) {
				found := &span{start: openStart, end: before}
				if first == nil {
					first = found
				}
				if preferred == nil && openParent == metadataElement {
					preferred = found
				}
				openDepth = -1
			}
		}
	}

	if preferred != nil {
		return preferred, nil
	}
	return first, nil
}

// replaceSpans rebuilds text with each span swapped for its replacement.
// Spans must be sorted and must not overlap.
func replaceSpans(text string, spans []span, replacements []string) string {
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for i, sp := range spans {
		b.WriteString(text[last:sp.start])
		b.WriteString(replacements[i])
		last = sp.end
	}
	b.WriteString(text[last:])
	return b.String()
}
