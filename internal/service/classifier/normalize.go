package classifier

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Text is a normalized message
// Plain keeps the original case so extracted ids are not altered, Upper is used for phrase checks
type Text struct {
	Plain string
	Upper string
}

// Normalize strips diacritics, control characters and surrounding noise from the message body
func Normalize(raw string) Text {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
		runes.Map(func(r rune) rune {
			if unicode.IsControl(r) {
				return ' '
			}
			return r
		}),
	)

	plain, _, err := transform.String(t, raw)
	if err != nil {
		plain = raw
	}

	plain = strings.Join(strings.Fields(plain), " ")
	plain = strings.Trim(plain, `"'`)
	plain = strings.TrimSpace(plain)

	return Text{Plain: plain, Upper: strings.ToUpper(plain)}
}
