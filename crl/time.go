package crl

import (
	"time"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"

	berrors "github.com/pkiexamples/crlkit/errors"
)

// readTime reads a Time CHOICE from the front of s and returns it in UTC.
// UTCTime years are pivoted by cryptobyte: 50 through 99 are 19xx.
func readTime(s *cryptobyte.String, field string) (time.Time, error) {
	if s.Empty() {
		return time.Time{}, berrors.New(berrors.UnexpectedTag, field, "missing, want UTCTime or GeneralizedTime")
	}

	var t time.Time
	switch {
	case s.PeekASN1Tag(cryptobyte_asn1.UTCTime):
		elem, err := readElement(s, cryptobyte_asn1.UTCTime, field)
		if err != nil {
			return time.Time{}, err
		}
		err = checkTimeForm(elem, cryptobyte_asn1.UTCTime, len("YYMMDDHHMMSSZ"), field)
		if err != nil {
			return time.Time{}, err
		}
		if !elem.ReadASN1UTCTime(&t) {
			return time.Time{}, berrors.New(berrors.Malformed, field, "invalid UTCTime")
		}
	case s.PeekASN1Tag(cryptobyte_asn1.GeneralizedTime):
		elem, err := readElement(s, cryptobyte_asn1.GeneralizedTime, field)
		if err != nil {
			return time.Time{}, err
		}
		err = checkTimeForm(elem, cryptobyte_asn1.GeneralizedTime, len("YYYYMMDDHHMMSSZ"), field)
		if err != nil {
			return time.Time{}, err
		}
		if !elem.ReadASN1GeneralizedTime(&t) {
			return time.Time{}, berrors.New(berrors.Malformed, field, "invalid GeneralizedTime")
		}
	default:
		return time.Time{}, berrors.New(berrors.UnsupportedTime, field, "tag 0x%02x is neither UTCTime nor GeneralizedTime", (*s)[0])
	}
	return t.UTC(), nil
}

// checkTimeForm requires the fixed-width Zulu forms of RFC 5280 section
// 5.1.2.4, which are stricter than what cryptobyte accepts. elem is the
// complete element.
func checkTimeForm(elem cryptobyte.String, tag cryptobyte_asn1.Tag, size int, field string) error {
	var contents cryptobyte.String
	if !elem.ReadASN1(&contents, tag) {
		return berrors.New(berrors.BadLength, field, "invalid length")
	}
	if len(contents) != size || contents[size-1] != 'Z' {
		return berrors.New(berrors.Malformed, field, "%q is not of the form %d digits then Z", string(contents), size-1)
	}
	return nil
}
