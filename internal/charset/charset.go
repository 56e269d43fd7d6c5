// Package charset maps the library's charset labels onto golang.org/x/text encodings, so a
// response body assembled as a Go string (UTF-8) can be transcoded to whatever charset the
// handler declared on the Content-Type header before it reaches the wire.
package charset

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Lookup returns the encoding backing a charset label such as "UTF-16" or "cp1251", and whether
// one is known. UTF-8 and ASCII need no transcoding, since Go strings are already UTF-8 and
// ASCII is its subset; both are reported as unknown so the caller treats them as a no-op rather
// than routing bytes through an encoder for nothing.
func Lookup(label string) (encoding.Encoding, bool) {
	switch normalize(label) {
	case "utf16":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), true
	case "cp1251", "windows1251":
		return charmap.Windows1251, true
	case "cp1252", "windows1252":
		return charmap.Windows1252, true
	default:
		return nil, false
	}
}

func normalize(label string) string {
	label = strings.ToLower(label)
	return strings.ReplaceAll(label, "-", "")
}
