// Package pkixname decodes an X.501 distinguished name from its DER encoding
// into a displayable, comparable value.
package pkixname

import (
	"encoding/asn1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// String types cryptobyte/asn1 has no constants for.
const (
	tagNumericString   = cbasn1.Tag(18)
	tagVisibleString   = cbasn1.Tag(26)
	tagUniversalString = cbasn1.Tag(28)
	tagBMPString       = cbasn1.Tag(30)
)

// shortNames are the attribute type abbreviations used when rendering a Name.
var shortNames = map[string]string{
	"2.5.4.3":                    "CN",
	"2.5.4.4":                    "SN",
	"2.5.4.5":                    "SERIALNUMBER",
	"2.5.4.6":                    "C",
	"2.5.4.7":                    "L",
	"2.5.4.8":                    "ST",
	"2.5.4.9":                    "STREET",
	"2.5.4.10":                   "O",
	"2.5.4.11":                   "OU",
	"2.5.4.12":                   "T",
	"2.5.4.17":                   "postalCode",
	"2.5.4.42":                   "G",
	"2.5.4.43":                   "I",
	"2.5.4.46":                   "dnQualifier",
	"2.5.4.97":                   "organizationIdentifier",
	"0.9.2342.19200300.100.1.1":  "UID",
	"0.9.2342.19200300.100.1.25": "DC",
	"1.2.840.113549.1.9.1":       "E",
}

// AttributeTypeAndValue is a single name component. Type is a dotted OID.
// When the value is not a directory string, Value holds the RFC 4514 "#hex"
// form of its DER encoding and HexEncoded is set.
type AttributeTypeAndValue struct {
	Type       string
	Value      string
	HexEncoded bool
}

// RelativeDistinguishedName is one SET of attributes within a Name.
type RelativeDistinguishedName []AttributeTypeAndValue

// Name is a decoded RDNSequence, in encoding order.
type Name struct {
	RDNs []RelativeDistinguishedName
}

// Parse decodes a DER RDNSequence. The whole of der must be consumed.
func Parse(der []byte) (Name, error) {
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) {
		return Name{}, errors.New("pkixname: invalid RDNSequence")
	}
	if !input.Empty() {
		return Name{}, fmt.Errorf("pkixname: %d trailing bytes after RDNSequence", len(input))
	}

	var name Name
	for !seq.Empty() {
		var set cryptobyte.String
		if !seq.ReadASN1(&set, cbasn1.SET) {
			return Name{}, errors.New("pkixname: invalid RelativeDistinguishedName")
		}
		var rdn RelativeDistinguishedName
		for !set.Empty() {
			var atv cryptobyte.String
			if !set.ReadASN1(&atv, cbasn1.SEQUENCE) {
				return Name{}, errors.New("pkixname: invalid AttributeTypeAndValue")
			}
			attr, err := parseAttribute(atv)
			if err != nil {
				return Name{}, err
			}
			rdn = append(rdn, attr)
		}
		if len(rdn) == 0 {
			return Name{}, errors.New("pkixname: empty RelativeDistinguishedName")
		}
		name.RDNs = append(name.RDNs, rdn)
	}
	return name, nil
}

func parseAttribute(atv cryptobyte.String) (AttributeTypeAndValue, error) {
	var oid asn1.ObjectIdentifier
	if !atv.ReadASN1ObjectIdentifier(&oid) {
		return AttributeTypeAndValue{}, errors.New("pkixname: invalid attribute type")
	}
	var full cryptobyte.String
	var tag cbasn1.Tag
	if !atv.ReadAnyASN1Element(&full, &tag) {
		return AttributeTypeAndValue{}, fmt.Errorf("pkixname: invalid value for attribute %s", oid)
	}
	if !atv.Empty() {
		return AttributeTypeAndValue{}, fmt.Errorf("pkixname: trailing data in attribute %s", oid)
	}
	var raw cryptobyte.String
	elem := full
	if !elem.ReadAnyASN1(&raw, &tag) {
		return AttributeTypeAndValue{}, fmt.Errorf("pkixname: invalid value for attribute %s", oid)
	}
	attr := AttributeTypeAndValue{Type: oid.String()}
	value, ok, err := decodeString(tag, raw)
	if err != nil {
		return AttributeTypeAndValue{}, fmt.Errorf("pkixname: attribute %s: %w", oid, err)
	}
	if ok {
		attr.Value = value
	} else {
		attr.Value = "#" + hex.EncodeToString(full)
		attr.HexEncoded = true
	}
	return attr, nil
}

// decodeString converts the contents of a directory string to UTF-8. It
// returns false if tag is not one of the string types.
func decodeString(tag cbasn1.Tag, raw []byte) (string, bool, error) {
	switch tag {
	case cbasn1.UTF8String:
		if !utf8.Valid(raw) {
			return "", false, errors.New("invalid UTF8String")
		}
		return string(raw), true, nil
	case cbasn1.PrintableString:
		for _, b := range raw {
			if !isPrintable(b) {
				return "", false, errors.New("invalid PrintableString")
			}
		}
		return string(raw), true, nil
	case cbasn1.IA5String:
		for _, b := range raw {
			if b >= utf8.RuneSelf {
				return "", false, errors.New("invalid IA5String")
			}
		}
		return string(raw), true, nil
	case tagNumericString:
		for _, b := range raw {
			if (b < '0' || b > '9') && b != ' ' {
				return "", false, errors.New("invalid NumericString")
			}
		}
		return string(raw), true, nil
	case tagVisibleString:
		for _, b := range raw {
			if b < 0x20 || b > 0x7e {
				return "", false, errors.New("invalid VisibleString")
			}
		}
		return string(raw), true, nil
	case cbasn1.T61String:
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return "", false, fmt.Errorf("invalid T61String: %w", err)
		}
		return string(out), true, nil
	case tagBMPString:
		if len(raw)%2 != 0 {
			return "", false, errors.New("invalid BMPString: odd length")
		}
		out, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
		if err != nil {
			return "", false, fmt.Errorf("invalid BMPString: %w", err)
		}
		return string(out), true, nil
	case tagUniversalString:
		if len(raw)%4 != 0 {
			return "", false, errors.New("invalid UniversalString: length not a multiple of 4")
		}
		out, err := utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM).NewDecoder().Bytes(raw)
		if err != nil {
			return "", false, fmt.Errorf("invalid UniversalString: %w", err)
		}
		return string(out), true, nil
	}
	return "", false, nil
}

// isPrintable reports whether b is in the PrintableString alphabet. '*' and
// '&' are accepted as well since they are common in deployed names.
func isPrintable(b byte) bool {
	return 'a' <= b && b <= 'z' ||
		'A' <= b && b <= 'Z' ||
		'0' <= b && b <= '9' ||
		'\'' <= b && b <= ')' ||
		'+' <= b && b <= '/' ||
		b == ' ' ||
		b == ':' ||
		b == '=' ||
		b == '?' ||
		b == '*' ||
		b == '&'
}

// String renders the name in encoding order, e.g. "C=JP, O=examples, CN=Issuer CA".
func (n Name) String() string {
	var sb strings.Builder
	for i, rdn := range n.RDNs {
		if i > 0 {
			sb.WriteString(", ")
		}
		for j, atv := range rdn {
			if j > 0 {
				sb.WriteString(" + ")
			}
			typ, ok := shortNames[atv.Type]
			if !ok {
				typ = atv.Type
			}
			sb.WriteString(typ)
			sb.WriteByte('=')
			if atv.HexEncoded {
				sb.WriteString(atv.Value)
			} else {
				sb.WriteString(escapeValue(atv.Value))
			}
		}
	}
	return sb.String()
}

// Equal reports whether n and other hold the same attributes in the same
// order.
func (n Name) Equal(other Name) bool {
	if len(n.RDNs) != len(other.RDNs) {
		return false
	}
	for i := range n.RDNs {
		if len(n.RDNs[i]) != len(other.RDNs[i]) {
			return false
		}
		for j := range n.RDNs[i] {
			if n.RDNs[i][j] != other.RDNs[i][j] {
				return false
			}
		}
	}
	return true
}

// escapeValue applies the RFC 4514 section 2.4 escaping rules.
func escapeValue(v string) string {
	var sb strings.Builder
	for i, r := range v {
		switch {
		case r == ',' || r == '+' || r == '"' || r == '\\' || r == '<' || r == '>' || r == ';':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r == 0:
			sb.WriteString(`\00`)
		case i == 0 && (r == '#' || r == ' '):
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case i == len(v)-1 && r == ' ':
			sb.WriteString(`\ `)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
