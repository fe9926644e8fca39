// Package textnorm canonicalizes report text. Every corpus goes through
// the same normalization so results are comparable across sources and
// reproducible across runs; the raw file stays available on disk for
// anyone who needs the untouched text.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"github.com/krankdata/krank/internal/model"
)

// typographic punctuation mapped to its plain ASCII-adjacent form
var punctReplacer = strings.NewReplacer(
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"„", `"`, // low double quote
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"‚", "'", // low single quote
	"…", "...", // ellipsis
	"–", "-", // en dash
	"—", "-", // em dash
	"―", "-", // horizontal bar
	" ", " ", // no-break space
)

// Normalize canonicalizes one cell of report text. It is pure and
// idempotent: normalizing already-normalized text returns it unchanged.
//
// Steps, in order: repair undecodable bytes and mojibake, apply NFC,
// simplify typographic quotes/dashes/ellipses, drop control characters,
// collapse all whitespace runs to single spaces, trim, and strip a
// matching pair of surrounding quotes.
//
// The only failure mode is structurally undecodable input, reported as an
// EncodingError with the byte offset of the offending sequence.
func Normalize(s string) (string, error) {
	s, err := repairEncoding(s)
	if err != nil {
		return "", err
	}
	s = fixMojibake(s)
	s = norm.NFC.String(s)
	s = punctReplacer.Replace(s)
	s = dropControls(s)
	s = strings.Join(strings.Fields(s), " ")
	s = stripSurroundingQuotes(s)
	return s, nil
}

// repairEncoding makes the string valid UTF-8. Stray high bytes are
// interpreted as windows-1252, which is where virtually all legacy corpus
// exports come from. Bytes with no windows-1252 meaning are structurally
// undecodable.
func repairEncoding(s string) (string, error) {
	if utf8.ValidString(s) {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r != utf8.RuneError || size > 1 {
			b.WriteRune(r)
			i += size
			continue
		}
		decoded := charmap.Windows1252.DecodeByte(s[i])
		// The table maps the five undefined cp1252 bytes to C1 controls;
		// no real text contains those, so treat them as undecodable.
		if decoded == utf8.RuneError || (decoded >= 0x80 && decoded <= 0x9f) {
			return "", &model.EncodingError{Offset: i}
		}
		b.WriteRune(decoded)
		i++
	}
	return b.String(), nil
}

// fixMojibake undoes UTF-8 text that was mistakenly decoded as
// windows-1252 ("Ã©" for "é"). The whole string is re-encoded through
// windows-1252; the result is adopted only if it forms valid UTF-8, so a
// string that genuinely contains those characters is left alone. Applied
// repeatedly for doubly-mangled input.
func fixMojibake(s string) string {
	for i := 0; i < 3; i++ {
		encoded, ok := encodeWindows1252(s)
		if !ok || !utf8.Valid(encoded) {
			return s
		}
		fixed := string(encoded)
		if fixed == s {
			return s
		}
		s = fixed
	}
	return s
}

func encodeWindows1252(s string) ([]byte, bool) {
	out := make([]byte, 0, len(s))
	changed := false
	for _, r := range s {
		if r < utf8.RuneSelf {
			out = append(out, byte(r))
			continue
		}
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			return nil, false
		}
		out = append(out, b)
		changed = true
	}
	// A pure-ASCII string cannot be mojibake.
	if !changed {
		return nil, false
	}
	return out, true
}

func dropControls(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// stripSurroundingQuotes removes a matching pair of quote characters
// wrapping the entire text, repeating until stable so nested quoting
// cannot break idempotence.
func stripSurroundingQuotes(s string) string {
	for len(s) >= 3 {
		first, last := s[0], s[len(s)-1]
		if first != last || (first != '"' && first != '\'') {
			return s
		}
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
