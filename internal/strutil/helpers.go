package strutil

import "strings"

func LStripWS(str string) string {
	for i, c := range str {
		switch c {
		// TODO: consider adding more whitespace characters?
		case ' ', '\t':
		default:
			return str[i:]
		}
	}

	return ""
}

func RStripWS(str string) string {
	for i := len(str); i > 0; i-- {
		switch str[i-1] {
		case ' ', '\t':
		default:
			return str[:i]
		}
	}

	return ""
}

// CutParams returns what follows the first ';' of a header value, with leading
// whitespaces stripped, or an empty string if there's no ';' at all.
func CutParams(header string) (params string) {
	_, params = CutHeader(header)
	return params
}

func CutHeader(header string) (value, params string) {
	sep := strings.IndexByte(header, ';')
	if sep == -1 {
		return header, ""
	}

	return header[:sep], LStripWS(header[sep+1:])
}

// CmpFold reports whether a and b are equal, ignoring ASCII case.
func CmpFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := 0; i < len(a); i++ {
		if a[i] == b[i] {
			continue
		}

		if c := a[i] | 0x20; c != b[i]|0x20 || c < 'a' || c > 'z' {
			return false
		}
	}

	return true
}

// CmpFoldFast is CmpFold under a name that makes hot-path header comparisons (the
// parser and serializer run it per header) easy to tell apart from occasional ones.
func CmpFoldFast(a, b string) bool {
	return CmpFold(a, b)
}

func Unquote(str string) string {
	if len(str) > 1 && str[0] == '"' && str[len(str)-1] == '"' {
		return str[1 : len(str)-1]
	}

	return str
}
