package extract

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// tjSpaceThreshold is the TJ displacement, in thousandths of text space,
// beyond which a kerning adjustment is read as a word gap.
const tjSpaceThreshold = -200

// pageText runs the text showing operators (Tj, TJ, ' and ") of a page's
// content streams. Strings are decoded through the font selected by the last
// Tf; line-positioning operators become line breaks. A page whose content
// cannot be interpreted yields "".
func pageText(p pdf.Page) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	var out strings.Builder
	fonts := make(map[string]pdf.TextEncoding)
	var enc pdf.TextEncoding

	breakLine := func() {
		if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n") {
			out.WriteByte('\n')
		}
	}
	show := func(v pdf.Value) {
		out.WriteString(decodeShown(enc, v.RawString()))
	}

	do := func(stk *pdf.Stack, op string) {
		args := make([]pdf.Value, stk.Len())
		for i := len(args) - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}

		switch op {
		case "Tf":
			if len(args) < 1 {
				return
			}
			name := args[0].Name()
			e, ok := fonts[name]
			if !ok {
				e = p.Font(name).Encoder()
				fonts[name] = e
			}
			enc = e
		case "Tj":
			if len(args) >= 1 {
				show(args[0])
			}
		case "'":
			breakLine()
			if len(args) >= 1 {
				show(args[len(args)-1])
			}
		case `"`:
			breakLine()
			if len(args) >= 3 {
				show(args[2])
			}
		case "TJ":
			if len(args) < 1 {
				return
			}
			arr := args[0]
			for i := range arr.Len() {
				el := arr.Index(i)
				switch el.Kind() {
				case pdf.String:
					show(el)
				case pdf.Integer, pdf.Real:
					if el.Float64() < tjSpaceThreshold {
						out.WriteByte(' ')
					}
				}
			}
		case "Td", "TD":
			if len(args) >= 2 && args[1].Float64() != 0 {
				breakLine()
			}
		case "T*", "ET", "Tm":
			breakLine()
		}
	}

	contents := p.V.Key("Contents")
	switch contents.Kind() {
	case pdf.Array:
		for i := range contents.Len() {
			pdf.Interpret(contents.Index(i), do)
		}
	case pdf.Stream:
		pdf.Interpret(contents, do)
	}

	return strings.TrimSpace(out.String())
}

// decodeShown converts a shown string to UTF-8. Without a selected font it
// is read as PDFDocEncoding, or UTF-16BE when it carries a BOM. Glyphs the
// font cannot map and control characters are dropped.
func decodeShown(enc pdf.TextEncoding, raw string) string {
	var s string
	if enc == nil {
		s = decodePDFText([]byte(raw))
	} else {
		s = enc.Decode(raw)
	}

	return strings.Map(func(r rune) rune {
		if r == utf8.RuneError || r == 0x7f || (r < 0x20 && r != '\n' && r != '\t') {
			return -1
		}
		return r
	}, strings.ToValidUTF8(s, ""))
}

// decodePDFText converts a PDF text string to UTF-8.
func decodePDFText(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		u := make([]uint16, 0, (len(b)-2)/2)
		for i := 2; i+1 < len(b); i += 2 {
			u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return string(utf16.Decode(u))
	}

	r := make([]rune, len(b))
	for i, c := range b {
		r[i] = rune(c)
	}
	return string(r)
}
