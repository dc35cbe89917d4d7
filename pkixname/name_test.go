package pkixname

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"testing"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/pkiexamples/crlkit/test"
)

var (
	oidCountry    = asn1.ObjectIdentifier{2, 5, 4, 6}
	oidCommonName = asn1.ObjectIdentifier{2, 5, 4, 3}
	oidOrgUnit    = asn1.ObjectIdentifier{2, 5, 4, 11}
)

type attr struct {
	oid   asn1.ObjectIdentifier
	tag   cbasn1.Tag
	value []byte
}

// buildName encodes rdns as an RDNSequence, preserving the given string tags.
func buildName(t *testing.T, rdns ...[]attr) []byte {
	t.Helper()
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		for _, rdn := range rdns {
			b.AddASN1(cbasn1.SET, func(b *cryptobyte.Builder) {
				for _, a := range rdn {
					b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
						b.AddASN1ObjectIdentifier(a.oid)
						b.AddASN1(a.tag, func(b *cryptobyte.Builder) {
							b.AddBytes(a.value)
						})
					})
				}
			})
		}
	})
	der, err := b.Bytes()
	test.AssertNotError(t, err, "building name")
	return der
}

func TestParseStandardLibraryName(t *testing.T) {
	t.Parallel()
	der, err := asn1.Marshal(pkix.Name{
		Country:      []string{"JP"},
		Organization: []string{"examples"},
		CommonName:   "Issuer CA",
	}.ToRDNSequence())
	test.AssertNotError(t, err, "marshalling name")

	name, err := Parse(der)
	test.AssertNotError(t, err, "parsing name")
	test.AssertEquals(t, name.String(), "C=JP, O=examples, CN=Issuer CA")
	test.AssertEquals(t, len(name.RDNs), 3)
	test.AssertEquals(t, name.RDNs[0][0].Type, "2.5.4.6")
	test.AssertEquals(t, name.RDNs[2][0].Value, "Issuer CA")
}

func TestParseStringTypes(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name  string
		tag   cbasn1.Tag
		value []byte
		want  string
	}{
		{"PrintableString", cbasn1.PrintableString, []byte("Issuer CA"), "CN=Issuer CA"},
		{"UTF8String", cbasn1.UTF8String, []byte("発行者"), "CN=発行者"},
		{"IA5String", cbasn1.IA5String, []byte("ca@example.com"), "CN=ca@example.com"},
		{"NumericString", tagNumericString, []byte("0123 456"), "CN=0123 456"},
		{"VisibleString", tagVisibleString, []byte("visible"), "CN=visible"},
		{"T61String", cbasn1.T61String, []byte{'c', 'a', 'f', 0xe9}, "CN=café"},
		{"BMPString", tagBMPString, []byte{0x00, 'C', 0x00, 'A'}, "CN=CA"},
		{"UniversalString", tagUniversalString, []byte{0, 0, 0, 'C', 0, 0, 0, 'A'}, "CN=CA"},
		{"OCTET STRING renders as hex", cbasn1.OCTET_STRING, []byte{0xca, 0xfe}, "CN=#0402cafe"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			name, err := Parse(buildName(t, []attr{{oidCommonName, tc.tag, tc.value}}))
			test.AssertNotError(t, err, "parsing name")
			test.AssertEquals(t, name.String(), tc.want)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()
	valid := buildName(t, []attr{{oidCountry, cbasn1.PrintableString, []byte("JP")}})

	testCases := []struct {
		name string
		der  []byte
	}{
		{"empty", nil},
		{"trailing data", append(append([]byte(nil), valid...), 0x00)},
		{"not a SEQUENCE", []byte{0x31, 0x00}},
		{"RDN is not a SET", []byte{0x30, 0x02, 0x30, 0x00}},
		{"empty RDN", []byte{0x30, 0x02, 0x31, 0x00}},
		{"bad PrintableString", buildName(t, []attr{{oidCountry, cbasn1.PrintableString, []byte("J@")}})},
		{"bad UTF8String", buildName(t, []attr{{oidCommonName, cbasn1.UTF8String, []byte{0xff, 0xfe}}})},
		{"bad IA5String", buildName(t, []attr{{oidCommonName, cbasn1.IA5String, []byte{0x80}}})},
		{"odd BMPString", buildName(t, []attr{{oidCommonName, tagBMPString, []byte{0x00, 'C', 0x00}}})},
		{"short UniversalString", buildName(t, []attr{{oidCommonName, tagUniversalString, []byte{0, 0, 'C'}}})},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tc.der)
			test.AssertError(t, err, "expected parse failure")
			test.AssertContains(t, err.Error(), "pkixname:")
		})
	}
}

func TestStringMultiValuedAndEscaped(t *testing.T) {
	t.Parallel()
	der := buildName(t,
		[]attr{{oidCountry, cbasn1.PrintableString, []byte("US")}},
		[]attr{
			{oidOrgUnit, cbasn1.UTF8String, []byte("Ops, East")},
			{oidOrgUnit, cbasn1.UTF8String, []byte("#1")},
		},
		[]attr{{asn1.ObjectIdentifier{1, 2, 3, 4}, cbasn1.UTF8String, []byte(" padded ")}},
	)
	name, err := Parse(der)
	test.AssertNotError(t, err, "parsing name")
	test.AssertEquals(t, name.String(), `C=US, OU=Ops\, East + OU=\#1, 1.2.3.4=\ padded\ `)
}

func TestEqual(t *testing.T) {
	t.Parallel()
	a, err := Parse(buildName(t, []attr{{oidCommonName, cbasn1.PrintableString, []byte("CA")}}))
	test.AssertNotError(t, err, "parsing a")
	// Same decoded value, different string type.
	b, err := Parse(buildName(t, []attr{{oidCommonName, tagBMPString, []byte{0x00, 'C', 0x00, 'A'}}}))
	test.AssertNotError(t, err, "parsing b")
	c, err := Parse(buildName(t, []attr{{oidCountry, cbasn1.PrintableString, []byte("CA")}}))
	test.AssertNotError(t, err, "parsing c")

	test.Assert(t, a.Equal(b), "names with the same decoded values should be equal")
	test.Assert(t, !a.Equal(c), "names with different attribute types should differ")
	test.Assert(t, !a.Equal(Name{}), "non-empty name should not equal empty name")
}
