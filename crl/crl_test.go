package crl

import (
	"crypto/x509"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/jmhodges/clock"

	"github.com/pkiexamples/crlkit/test"
)

func TestNewID(t *testing.T) {
	cl, err := Parse(test.BuildCRL(t, test.TBSCertList{
		Version:    1,
		ThisUpdate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}))
	test.AssertNotError(t, err, "parsing CRL")

	crlID, err := NewID("http://c.example.com/1.crl", cl)
	test.AssertNotError(t, err, "computing ID")
	test.AssertEquals(t, crlID.String(),
		`{"source":"http://c.example.com/1.crl","issuer":"C=JP, O=examples, CN=Issuer CA","thisUpdate":"2024-05-01T00:00:00Z"}`)
}

// TestParseReferenceCRL decodes CRLs produced by the standard library's
// encoder and checks every field against the template.
func TestParseReferenceCRL(t *testing.T) {
	t.Parallel()
	fc := clock.NewFake()
	fc.Set(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	issuer := test.NewIssuer(t, fc, test.ExampleIssuerName)

	thisUpdate := fc.Now()
	nextUpdate := thisUpdate.Add(7 * 24 * time.Hour)
	entries := []x509.RevocationListEntry{
		{SerialNumber: big.NewInt(1), RevocationTime: thisUpdate.Add(-12 * time.Hour)},
		{SerialNumber: big.NewInt(2), RevocationTime: thisUpdate.Add(-time.Hour), ReasonCode: 1},
	}
	der := test.MakeCRL(t, issuer, 42, thisUpdate, nextUpdate, entries)

	cl, err := Parse(der)
	test.AssertNotError(t, err, "parsing reference CRL")

	tbs := cl.TBSCertList
	test.AssertEquals(t, tbs.Issuer.String(), "C=JP, O=examples, CN=Issuer CA")
	test.AssertEquals(t, len(tbs.RevokedCertificates), 2)
	test.AssertEquals(t, tbs.RevokedCertificates[0].SerialNumber.Cmp(big.NewInt(1)), 0)
	test.AssertEquals(t, tbs.RevokedCertificates[1].SerialNumber.Cmp(big.NewInt(2)), 0)
	test.AssertEquals(t, cl.SignatureAlgorithm.Algorithm, "1.2.840.10045.4.3.2")
	test.Assert(t, cl.SignatureAlgorithm.Parameters == nil, "ECDSA AlgorithmIdentifier has no parameters")
	test.AssertDeepEquals(t, tbs.Signature, cl.SignatureAlgorithm)

	test.AssertEquals(t, tbs.Version, 1)
	test.AssertByteEquals(t, tbs.RawIssuer, issuer.Cert.RawSubject)
	test.Assert(t, tbs.ThisUpdate.Equal(thisUpdate), "thisUpdate mismatch")
	test.Assert(t, tbs.HasNextUpdate(), "nextUpdate should be present")
	test.Assert(t, tbs.NextUpdate.Equal(nextUpdate), "nextUpdate mismatch")
	test.AssertEquals(t, tbs.ThisUpdate.Location(), time.UTC)
	for i, entry := range entries {
		test.Assert(t, tbs.RevokedCertificates[i].RevocationDate.Equal(entry.RevocationTime), "revocationDate mismatch")
	}
	test.Assert(t, tbs.RevokedCertificates[0].Extensions == nil, "first entry has no extensions")
	test.Assert(t, tbs.RevokedCertificates[1].Extensions != nil, "second entry carries a reason code")
	test.Assert(t, tbs.Extensions != nil, "CRL carries cRLNumber and authorityKeyIdentifier")

	// Cross-check the borrowed byte ranges against the standard library.
	ref, err := x509.ParseRevocationList(der)
	test.AssertNotError(t, err, "parsing with crypto/x509")
	test.AssertByteEquals(t, cl.Raw, ref.Raw)
	test.AssertByteEquals(t, tbs.Raw, ref.RawTBSRevocationList)
	test.AssertByteEquals(t, tbs.RawIssuer, ref.RawIssuer)
	test.AssertByteEquals(t, cl.SignatureValue, ref.Signature)
}

func TestParseGeneralizedTimeFrom2050(t *testing.T) {
	t.Parallel()
	fc := clock.NewFake()
	fc.Set(time.Date(2049, 12, 31, 0, 0, 0, 0, time.UTC))
	issuer := test.NewIssuer(t, fc, test.ExampleIssuerName)

	// thisUpdate is encoded as UTCTime, nextUpdate as GeneralizedTime.
	thisUpdate := fc.Now()
	nextUpdate := time.Date(2050, 1, 7, 0, 0, 0, 0, time.UTC)
	der := test.MakeCRL(t, issuer, 1, thisUpdate, nextUpdate, nil)

	cl, err := Parse(der)
	test.AssertNotError(t, err, "parsing CRL spanning 2050")
	test.Assert(t, cl.TBSCertList.ThisUpdate.Equal(thisUpdate), "thisUpdate mismatch")
	test.Assert(t, cl.TBSCertList.NextUpdate.Equal(nextUpdate), "nextUpdate mismatch")
	test.AssertEquals(t, len(cl.TBSCertList.RevokedCertificates), 0)
}

func TestParseIdempotent(t *testing.T) {
	t.Parallel()
	fc := clock.NewFake()
	fc.Set(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	issuer := test.NewIssuer(t, fc, test.ExampleIssuerName)
	der := test.MakeCRL(t, issuer, 7, fc.Now(), fc.Now().Add(time.Hour), []x509.RevocationListEntry{
		{SerialNumber: big.NewInt(3), RevocationTime: fc.Now()},
	})

	first, err := Parse(der)
	test.AssertNotError(t, err, "first parse")
	second, err := Parse(der)
	test.AssertNotError(t, err, "second parse")
	test.AssertDeepEquals(t, first, second)
}

func TestParseCopiesInput(t *testing.T) {
	t.Parallel()
	der := test.BuildCRL(t, test.TBSCertList{
		Version:    1,
		ThisUpdate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Revoked: []test.RevokedEntry{
			{Serial: big.NewInt(1), Date: time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)},
		},
	})
	original := append([]byte(nil), der...)

	cl, err := Parse(der)
	test.AssertNotError(t, err, "parsing CRL")
	for i := range der {
		der[i] = 0xff
	}
	test.AssertByteEquals(t, cl.Raw, original)
	test.Assert(t, strings.Contains(string(cl.TBSCertList.RawIssuer), "Issuer CA"), "issuer bytes were clobbered")
}
