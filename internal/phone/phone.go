package phone

import "strings"

// DefaultCountryCode is the Brazilian calling code.
const DefaultCountryCode = "55"

// Normalizer converts free-form phone strings into the local subscriber form
// used for resident matching and the dial form the provider expects.
type Normalizer struct {
	countryCode string
}

func NewNormalizer(countryCode string) Normalizer {
	cc := Digits(countryCode)
	if cc == "" {
		cc = DefaultCountryCode
	}
	return Normalizer{countryCode: cc}
}

func (n Normalizer) CountryCode() string {
	if n.countryCode == "" {
		return DefaultCountryCode
	}
	return n.countryCode
}

// Local strips the country code and keeps at most the last 11 digits.
// A 10-11 digit input is already local and is returned as is, so numbers
// whose area code equals the country code survive a second pass.
// It must be the same function used when storing and when resolving numbers.
func (n Normalizer) Local(s string) string {
	d := Digits(s)
	if d == "" || len(d) == 10 || len(d) == 11 {
		return d
	}
	d = strings.TrimPrefix(d, n.CountryCode())
	if len(d) > 11 {
		d = d[len(d)-11:]
	}
	return d
}

// Dial returns digits with the country code, prepending it only for 10-11
// digit local numbers. Anything else passes through.
func (n Normalizer) Dial(s string) string {
	d := Digits(s)
	if d == "" {
		return ""
	}
	if strings.HasPrefix(d, n.CountryCode()) {
		return d
	}
	if len(d) == 10 || len(d) == 11 {
		return n.CountryCode() + d
	}
	return d
}

func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var std = NewNormalizer(DefaultCountryCode)

func Local(s string) string { return std.Local(s) }

func Dial(s string) string { return std.Dial(s) }
