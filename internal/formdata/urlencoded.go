package formdata

import (
	"github.com/kestrel-http/kestrel/http/form"
	"github.com/kestrel-http/kestrel/internal/qparams"
	"github.com/kestrel-http/kestrel/internal/urlencoded"
)

// ParseURLEncoded parses an application/x-www-form-urlencoded body into into, decoding
// percent- and plus-encoded bytes via buff. Keys without a "=value" part ("flags") are
// assigned defaultFlagValue.
func ParseURLEncoded(into form.Form, data, buff []byte, defaultFlagValue string) (form.Form, []byte, error) {
	buff, err := qparams.Parse(data, buff, func(k, v string) {
		into = append(into, form.Data{Name: k, Value: v})
	}, urlencoded.ExtendedDecode, defaultFlagValue)

	return into, buff, err
}
