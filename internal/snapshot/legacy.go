package snapshot

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aleister1102/firefoxversions/internal/common"
)

// IsLegacy reports whether a stored snapshot is a hash dump such as
// {"LATEST_FIREFOX_VERSION"=>"103.0", "FIREFOX_AURORA"=>nil} rather than JSON.
func IsLegacy(stored string) bool {
	return strings.Contains(stored, "=>") && !json.Valid([]byte(stored))
}

// ParseLegacy reads a hash dump written by earlier agent versions. Keys are
// double-quoted strings, values are double-quoted strings or nil, which
// becomes JSON null. Both `=>` spacing styles are accepted.
func ParseLegacy(stored string) (Document, error) {
	p := &legacyParser{input: stored}
	doc, err := p.parseHash()
	if err != nil {
		return nil, common.NewParseError("stored snapshot", "invalid legacy hash dump", err)
	}
	return doc, nil
}

type legacyParser struct {
	input string
	pos   int
}

func (p *legacyParser) parseHash() (Document, error) {
	p.skipSpace()
	if err := p.expect("{"); err != nil {
		return nil, err
	}

	doc := Document{}
	p.skipSpace()
	if p.consume("}") {
		return doc, p.finish()
	}

	for {
		p.skipSpace()
		key, err := p.parseString()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if err := p.expect("=>"); err != nil {
			return nil, err
		}
		p.skipSpace()
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		doc[key] = value

		p.skipSpace()
		if p.consume(",") {
			continue
		}
		if p.consume("}") {
			return doc, p.finish()
		}
		return nil, p.errorf("expected ',' or '}'")
	}
}

func (p *legacyParser) parseValue() (any, error) {
	if p.consume("nil") {
		return nil, nil
	}
	if p.pos < len(p.input) && p.input[p.pos] == '"' {
		return p.parseString()
	}
	return nil, p.errorf("unsupported value")
}

func (p *legacyParser) parseString() (string, error) {
	if err := p.expect(`"`); err != nil {
		return "", err
	}

	var sb strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch c {
		case '"':
			p.pos++
			return sb.String(), nil
		case '\\':
			p.pos++
			if err := p.parseEscape(&sb); err != nil {
				return "", err
			}
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	return "", p.errorf("unterminated string")
}

func (p *legacyParser) parseEscape(sb *strings.Builder) error {
	if p.pos >= len(p.input) {
		return p.errorf("unterminated escape")
	}
	c := p.input[p.pos]
	p.pos++

	switch c {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'f':
		sb.WriteByte('\f')
	case 'v':
		sb.WriteByte('\v')
	case 'b':
		sb.WriteByte('\b')
	case 'a':
		sb.WriteByte('\a')
	case 'e':
		sb.WriteByte(0x1b)
	case 's':
		sb.WriteByte(' ')
	case '0':
		sb.WriteByte(0)
	case 'x':
		n, err := p.hexDigits(2)
		if err != nil {
			return err
		}
		sb.WriteByte(byte(n))
	case 'u':
		if p.consume("{") {
			end := strings.IndexByte(p.input[p.pos:], '}')
			if end < 0 {
				return p.errorf("unterminated unicode escape")
			}
			for _, field := range strings.Fields(p.input[p.pos : p.pos+end]) {
				r, err := strconv.ParseUint(field, 16, 32)
				if err != nil || !utf8.ValidRune(rune(r)) {
					return p.errorf("invalid unicode escape %q", field)
				}
				sb.WriteRune(rune(r))
			}
			p.pos += end + 1
			return nil
		}
		n, err := p.hexDigits(4)
		if err != nil {
			return err
		}
		sb.WriteRune(rune(n))
	default:
		// \" \\ \# and any other escaped byte stand for themselves.
		sb.WriteByte(c)
	}
	return nil
}

func (p *legacyParser) hexDigits(n int) (uint64, error) {
	if p.pos+n > len(p.input) {
		return 0, p.errorf("short hex escape")
	}
	v, err := strconv.ParseUint(p.input[p.pos:p.pos+n], 16, 32)
	if err != nil {
		return 0, p.errorf("invalid hex escape")
	}
	p.pos += n
	return v, nil
}

func (p *legacyParser) skipSpace() {
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *legacyParser) consume(token string) bool {
	if strings.HasPrefix(p.input[p.pos:], token) {
		p.pos += len(token)
		return true
	}
	return false
}

func (p *legacyParser) expect(token string) error {
	if !p.consume(token) {
		return p.errorf("expected %q", token)
	}
	return nil
}

func (p *legacyParser) finish() error {
	p.skipSpace()
	if p.pos != len(p.input) {
		return p.errorf("unexpected trailing data")
	}
	return nil
}

func (p *legacyParser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}
