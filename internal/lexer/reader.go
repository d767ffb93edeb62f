package lexer

import (
	"io"
	"unicode/utf8"
)

// blockSize is the number of bytes read from the source per refill.
const blockSize = 4096

// reader is the lexer's rolling character buffer.
//
// Source bytes are read in fixed-size blocks and decoded into runes.
// Codepoint escapes (\uXXXX and \UXXXXXXXX) are decoded during refill so
// the buffer always holds decoded text. Every buffered rune carries the
// number of source characters it was decoded from, which keeps column
// and offset tracking in source coordinates.
type reader struct {
	src io.Reader

	raw   []byte // undecoded bytes (a trailing partial UTF-8 sequence)
	carry []rune // decoded runes not yet escape-processed

	buf    []rune
	widths []int
	pos    int

	eof bool
	err error // sticky; buffered input before the failure stays readable
}

func newReader(src io.Reader) *reader {
	return &reader{src: src}
}

// available returns the number of buffered runes not yet consumed.
func (r *reader) available() int {
	return len(r.buf) - r.pos
}

// fill ensures at least n runes are buffered past pos, unless the input
// ends (or fails) first. It reports whether n runes are available.
func (r *reader) fill(n int) bool {
	for r.available() < n {
		if r.err != nil || (r.eof && len(r.carry) == 0 && len(r.raw) == 0) {
			return false
		}
		r.compact()
		r.refill()
	}
	return true
}

// compact drops consumed runes once they dominate the buffer.
func (r *reader) compact() {
	if r.pos < blockSize || r.pos < len(r.buf)/2 {
		return
	}
	n := copy(r.buf, r.buf[r.pos:])
	copy(r.widths, r.widths[r.pos:])
	r.buf = r.buf[:n]
	r.widths = r.widths[:n]
	r.pos = 0
}

func (r *reader) refill() {
	if !r.eof {
		block := make([]byte, blockSize)
		n, err := r.src.Read(block)
		r.raw = append(r.raw, block[:n]...)
		if err == io.EOF {
			r.eof = true
		} else if err != nil {
			r.err = &LexicalError{Code: CodeReadFailed, Message: err.Error()}
			return
		}
	}
	r.decodeUTF8()
	r.decodeEscapes()
}

func (r *reader) decodeUTF8() {
	i := 0
	for i < len(r.raw) {
		if !r.eof && !utf8.FullRune(r.raw[i:]) {
			break
		}
		c, size := utf8.DecodeRune(r.raw[i:])
		r.carry = append(r.carry, c)
		i += size
	}
	r.raw = append(r.raw[:0], r.raw[i:]...)
}

// decodeEscapes moves runes from carry into buf, decoding codepoint
// escapes. An escape split across a block boundary stays in carry until
// the next refill completes it.
func (r *reader) decodeEscapes() {
	final := r.eof && len(r.raw) == 0
	i := 0
	for i < len(r.carry) {
		c := r.carry[i]
		if c != '\\' {
			r.push(c, 1)
			i++
			continue
		}
		if i+1 >= len(r.carry) {
			if !final {
				break
			}
			r.push(c, 1)
			i++
			continue
		}
		next := r.carry[i+1]
		if next == '\\' {
			// an escaped backslash is never the start of a codepoint escape
			r.push(c, 1)
			r.push(next, 1)
			i += 2
			continue
		}
		if next != 'u' && next != 'U' {
			r.push(c, 1)
			i++
			continue
		}
		digits := 4
		if next == 'U' {
			digits = 8
		}
		if i+2+digits > len(r.carry) && !final {
			break
		}
		decoded, ok := decodeHex(r.carry[i+2 : min(i+2+digits, len(r.carry))])
		if !ok || i+2+digits > len(r.carry) || !utf8.ValidRune(decoded) {
			r.err = &LexicalError{
				Code:    CodeInvalidEscape,
				Message: "malformed codepoint escape \\" + string(r.carry[i+1:min(i+2+digits, len(r.carry))]),
			}
			r.carry = nil
			return
		}
		r.push(decoded, digits+2)
		i += 2 + digits
	}
	r.carry = append(r.carry[:0], r.carry[i:]...)
}

func (r *reader) push(c rune, width int) {
	r.buf = append(r.buf, c)
	r.widths = append(r.widths, width)
}

// peek returns the rune k positions past pos.
func (r *reader) peek(k int) (rune, bool) {
	if !r.fill(k + 1) {
		return 0, false
	}
	return r.buf[r.pos+k], true
}

// next consumes one rune and returns it with its source width.
func (r *reader) next() (rune, int, bool) {
	if !r.fill(1) {
		return 0, 0, false
	}
	c, w := r.buf[r.pos], r.widths[r.pos]
	r.pos++
	return c, w, true
}

// snippet returns up to n buffered runes starting at pos.
func (r *reader) snippet(n int) string {
	r.fill(n)
	end := min(r.pos+n, len(r.buf))
	return string(r.buf[r.pos:end])
}

func decodeHex(digits []rune) (rune, bool) {
	if len(digits) == 0 {
		return 0, false
	}
	var v rune
	for _, d := range digits {
		n, ok := hexValue(d)
		if !ok {
			return 0, false
		}
		v = v<<4 | rune(n)
	}
	return v, true
}

func hexValue(d rune) (int, bool) {
	switch {
	case d >= '0' && d <= '9':
		return int(d - '0'), true
	case d >= 'a' && d <= 'f':
		return int(d-'a') + 10, true
	case d >= 'A' && d <= 'F':
		return int(d-'A') + 10, true
	default:
		return 0, false
	}
}
