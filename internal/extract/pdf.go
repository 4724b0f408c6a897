// ABOUTME: PDF parser: pdfcpu extracts each page's content stream, then text operators are decoded
// ABOUTME: Handles Tj, TJ, ', and " with literal and hex strings; pages are joined by blank lines
package extract

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding/charmap"
)

var pageFileRe = regexp.MustCompile(`(\d+)\.txt$`)

// PDF extracts text from every page of a PDF document
func PDF(data []byte) (string, error) {
	outDir, err := os.MkdirTemp("", "ragdoc-pdf-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContent(bytes.NewReader(data), outDir, "doc", nil, conf); err != nil {
		return "", fmt.Errorf("could not parse PDF file: %w", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return "", err
	}

	type page struct {
		n    int
		text string
	}
	var pages []page
	for _, e := range entries {
		m := pageFileRe.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		stream, err := os.ReadFile(filepath.Join(outDir, e.Name()))
		if err != nil {
			return "", err
		}
		if text := ContentText(stream); text != "" {
			pages = append(pages, page{n: n, text: text})
		}
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].n < pages[j].n })

	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.text
	}
	return strings.Join(texts, "\n\n"), nil
}

// operand is a string, a number, or an array of both
type operand struct {
	str    *string
	num    *float64
	values []operand
}

// ContentText decodes the text-showing operators of one page content stream
func ContentText(stream []byte) string {
	var (
		out      strings.Builder
		operands []operand
		arrays   [][]operand
	)

	push := func(op operand) {
		if n := len(arrays); n > 0 {
			arrays[n-1] = append(arrays[n-1], op)
			return
		}
		operands = append(operands, op)
	}
	lastString := func() (string, bool) {
		for i := len(operands) - 1; i >= 0; i-- {
			if operands[i].str != nil {
				return *operands[i].str, true
			}
		}
		return "", false
	}
	newline := func() {
		if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n") {
			out.WriteByte('\n')
		}
	}

	lx := lexer{data: stream}
	for {
		tok, kind := lx.next()
		if kind == tokEOF {
			break
		}
		switch kind {
		case tokString:
			s := decodeString(tok)
			push(operand{str: &s})
		case tokArrayStart:
			arrays = append(arrays, nil)
		case tokArrayEnd:
			if n := len(arrays); n > 0 {
				arr := arrays[n-1]
				arrays = arrays[:n-1]
				push(operand{values: arr})
			}
		case tokNumber:
			f, _ := strconv.ParseFloat(tok, 64)
			push(operand{num: &f})
		case tokOperator:
			switch tok {
			case "Tj":
				if s, ok := lastString(); ok {
					out.WriteString(s)
				}
			case "'", `"`:
				newline()
				if s, ok := lastString(); ok {
					out.WriteString(s)
				}
			case "TJ":
				if n := len(operands); n > 0 {
					for _, v := range operands[n-1].values {
						switch {
						case v.str != nil:
							out.WriteString(*v.str)
						case v.num != nil && *v.num < -200:
							out.WriteByte(' ')
						}
					}
				}
			case "T*", "ET":
				newline()
			case "Td", "TD":
				if n := len(operands); n >= 2 && operands[n-1].num != nil && *operands[n-1].num != 0 {
					newline()
				} else if out.Len() > 0 && !strings.HasSuffix(out.String(), " ") && !strings.HasSuffix(out.String(), "\n") {
					out.WriteByte(' ')
				}
			}
			operands = operands[:0]
		}
	}

	lines := strings.Split(out.String(), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, "\n")
}

// decodeString treats non-UTF-8 string bytes as WinAnsi, the common simple-font encoding
func decodeString(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	decoded, err := charmap.Windows1252.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return decoded
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokString
	tokNumber
	tokOperator
	tokArrayStart
	tokArrayEnd
	tokOther
)

type lexer struct {
	data []byte
	pos  int
}

func isDelimiter(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func (l *lexer) next() (string, tokenKind) {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch {
		case isSpace(c):
			l.pos++
		case c == '%':
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
		case c == '(':
			l.pos++
			return l.literal(), tokString
		case c == '<':
			if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
				l.pos += 2
				return "<<", tokOther
			}
			l.pos++
			return l.hex(), tokString
		case c == '>':
			l.pos++
			if l.pos < len(l.data) && l.data[l.pos] == '>' {
				l.pos++
			}
			return ">>", tokOther
		case c == '[':
			l.pos++
			return "[", tokArrayStart
		case c == ']':
			l.pos++
			return "]", tokArrayEnd
		case c == '/':
			start := l.pos
			l.pos++
			l.regular()
			return string(l.data[start:l.pos]), tokOther
		case c == '{' || c == '}' || c == ')':
			l.pos++
		default:
			start := l.pos
			l.regular()
			word := string(l.data[start:l.pos])
			if _, err := strconv.ParseFloat(word, 64); err == nil {
				return word, tokNumber
			}
			return word, tokOperator
		}
	}
	return "", tokEOF
}

func (l *lexer) regular() {
	for l.pos < len(l.data) && !isSpace(l.data[l.pos]) && !isDelimiter(l.data[l.pos]) {
		l.pos++
	}
}

// literal reads a parenthesized string; the opening paren is already consumed
func (l *lexer) literal() string {
	var sb strings.Builder
	depth := 1
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		switch c {
		case '(':
			depth++
			sb.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				return sb.String()
			}
			sb.WriteByte(c)
		case '\\':
			if l.pos >= len(l.data) {
				return sb.String()
			}
			e := l.data[l.pos]
			l.pos++
			switch e {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'b', 'f':
			case '\r':
				if l.pos < len(l.data) && l.data[l.pos] == '\n' {
					l.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && l.pos < len(l.data) && l.data[l.pos] >= '0' && l.data[l.pos] <= '7'; i++ {
						v = v*8 + int(l.data[l.pos]-'0')
						l.pos++
					}
					sb.WriteByte(byte(v))
				} else {
					sb.WriteByte(e)
				}
			}
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// hex reads a <...> string; two-byte glyph codes with a zero high byte are narrowed
func (l *lexer) hex() string {
	var digits []byte
	for l.pos < len(l.data) && l.data[l.pos] != '>' {
		if c := l.data[l.pos]; !isSpace(c) {
			digits = append(digits, c)
		}
		l.pos++
	}
	l.pos++
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}

	raw := make([]byte, 0, len(digits)/2)
	for i := 0; i+1 < len(digits); i += 2 {
		v, err := strconv.ParseUint(string(digits[i:i+2]), 16, 8)
		if err != nil {
			return ""
		}
		raw = append(raw, byte(v))
	}

	if len(raw)%2 == 0 && len(raw) > 0 {
		narrow := make([]byte, 0, len(raw)/2)
		for i := 0; i < len(raw); i += 2 {
			if raw[i] != 0 {
				narrow = nil
				break
			}
			narrow = append(narrow, raw[i+1])
		}
		if narrow != nil {
			raw = narrow
		}
	}

	for _, b := range raw {
		if b < 0x20 && !isSpace(b) {
			return ""
		}
	}
	return string(raw)
}
