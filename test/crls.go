package test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// ExampleIssuerName is the issuer used by most CRL tests. It renders as
// "C=JP, O=examples, CN=Issuer CA".
var ExampleIssuerName = pkix.Name{
	Country:      []string{"JP"},
	Organization: []string{"examples"},
	CommonName:   "Issuer CA",
}

// OIDECDSAWithSHA256 is the signature algorithm of CRLs signed by NewIssuer.
var OIDECDSAWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 2}

// Issuer is a throwaway CA able to sign CRLs.
type Issuer struct {
	Cert *x509.Certificate
	Key  *ecdsa.PrivateKey
}

// NewIssuer creates a self-signed P-256 CA certificate with the given subject.
// The certificate carries the key usage and subject key identifier that
// x509.CreateRevocationList requires of its issuer.
func NewIssuer(t *testing.T, clk clock.Clock, subject pkix.Name) *Issuer {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	AssertNotError(t, err, "ecdsa.GenerateKey failed")

	spki, err := x509.MarshalPKIXPublicKey(key.Public())
	AssertNotError(t, err, "x509.MarshalPKIXPublicKey failed")
	skid := sha1.Sum(spki)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               subject,
		NotBefore:             clk.Now().Add(-time.Hour),
		NotAfter:              clk.Now().Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		SubjectKeyId:          skid[:],
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, key.Public(), key)
	AssertNotError(t, err, "x509.CreateCertificate failed")
	cert, err := x509.ParseCertificate(der)
	AssertNotError(t, err, "failed to parse self-signed issuer DER")
	return &Issuer{Cert: cert, Key: key}
}

// MakeCRL signs a CRL listing the given entries, using the standard library's
// encoder. nextUpdate must not be before thisUpdate.
func MakeCRL(t *testing.T, issuer *Issuer, number int64, thisUpdate, nextUpdate time.Time, entries []x509.RevocationListEntry) []byte {
	t.Helper()
	template := &x509.RevocationList{
		Number:                    big.NewInt(number),
		ThisUpdate:                thisUpdate,
		NextUpdate:                nextUpdate,
		RevokedCertificateEntries: entries,
	}
	der, err := x509.CreateRevocationList(rand.Reader, template, issuer.Cert, issuer.Key)
	AssertNotError(t, err, "x509.CreateRevocationList failed")
	return der
}

// Extension is a raw extension for hand-assembled CRLs.
type Extension struct {
	ID       asn1.ObjectIdentifier
	Critical bool
	Value    []byte
}

// RevokedEntry is a revokedCertificates element for hand-assembled CRLs.
type RevokedEntry struct {
	Serial      *big.Int
	Date        time.Time
	Generalized bool
	Extensions  []Extension
}

// TBSCertList describes a tbsCertList to be assembled by BuildTBSCertList.
// Unlike x509.CreateRevocationList it can omit version and nextUpdate, force
// the time encoding, and emit an empty revokedCertificates SEQUENCE.
type TBSCertList struct {
	OmitVersion bool
	Version     int64

	// Signature defaults to OIDECDSAWithSHA256 with absent parameters.
	Signature asn1.ObjectIdentifier
	// Issuer is a DER RDNSequence. Defaults to ExampleIssuerName.
	Issuer []byte

	ThisUpdate            time.Time
	ThisUpdateGeneralized bool
	// NextUpdate is omitted when zero.
	NextUpdate            time.Time
	NextUpdateGeneralized bool

	Revoked []RevokedEntry
	// EmptyRevokedList emits a zero-length revokedCertificates SEQUENCE when
	// Revoked is empty, instead of omitting it.
	EmptyRevokedList bool

	Extensions []Extension
}

// MarshalName returns the DER RDNSequence for name.
func MarshalName(t *testing.T, name pkix.Name) []byte {
	t.Helper()
	der, err := asn1.Marshal(name.ToRDNSequence())
	AssertNotError(t, err, "marshalling issuer name")
	return der
}

// BuildTBSCertList assembles the DER encoding of tbs.
func BuildTBSCertList(t *testing.T, tbs TBSCertList) []byte {
	t.Helper()
	sigAlg := tbs.Signature
	if sigAlg == nil {
		sigAlg = OIDECDSAWithSHA256
	}
	issuer := tbs.Issuer
	if issuer == nil {
		issuer = MarshalName(t, ExampleIssuerName)
	}

	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		if !tbs.OmitVersion {
			b.AddASN1Int64(tbs.Version)
		}
		AddAlgorithmIdentifier(b, sigAlg, nil)
		b.AddBytes(issuer)
		addTime(b, tbs.ThisUpdate, tbs.ThisUpdateGeneralized)
		if !tbs.NextUpdate.IsZero() {
			addTime(b, tbs.NextUpdate, tbs.NextUpdateGeneralized)
		}
		if len(tbs.Revoked) > 0 || tbs.EmptyRevokedList {
			b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
				for _, rc := range tbs.Revoked {
					b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
						b.AddASN1BigInt(rc.Serial)
						addTime(b, rc.Date, rc.Generalized)
						if len(rc.Extensions) > 0 {
							addExtensions(b, rc.Extensions)
						}
					})
				}
			})
		}
		if len(tbs.Extensions) > 0 {
			b.AddASN1(cryptobyte_asn1.Tag(0).Constructed().ContextSpecific(), func(b *cryptobyte.Builder) {
				addExtensions(b, tbs.Extensions)
			})
		}
	})
	der, err := b.Bytes()
	AssertNotError(t, err, "building tbsCertList")
	return der
}

// BuildCertificateList wraps tbs with an outer signature algorithm and a
// signature BIT STRING with the given number of unused bits. The signature is
// not a real signature over tbs.
func BuildCertificateList(t *testing.T, tbs []byte, sigAlg asn1.ObjectIdentifier, signature []byte, unusedBits uint8) []byte {
	t.Helper()
	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddBytes(tbs)
		AddAlgorithmIdentifier(b, sigAlg, nil)
		b.AddASN1(cryptobyte_asn1.BIT_STRING, func(b *cryptobyte.Builder) {
			b.AddUint8(unusedBits)
			b.AddBytes(signature)
		})
	})
	der, err := b.Bytes()
	AssertNotError(t, err, "building CertificateList")
	return der
}

// BuildCRL is BuildTBSCertList followed by BuildCertificateList with a dummy
// octet-aligned signature.
func BuildCRL(t *testing.T, tbs TBSCertList) []byte {
	t.Helper()
	sigAlg := tbs.Signature
	if sigAlg == nil {
		sigAlg = OIDECDSAWithSHA256
	}
	return BuildCertificateList(t, BuildTBSCertList(t, tbs), sigAlg, []byte{0xde, 0xad, 0xbe, 0xef}, 0)
}

// AddAlgorithmIdentifier appends an AlgorithmIdentifier. params, when non-nil,
// is appended verbatim and must be a complete DER element.
func AddAlgorithmIdentifier(b *cryptobyte.Builder, oid asn1.ObjectIdentifier, params []byte) {
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(oid)
		if params != nil {
			b.AddBytes(params)
		}
	})
}

func addTime(b *cryptobyte.Builder, t time.Time, generalized bool) {
	if generalized {
		b.AddASN1GeneralizedTime(t.UTC())
	} else {
		b.AddASN1UTCTime(t.UTC())
	}
}

func addExtensions(b *cryptobyte.Builder, exts []Extension) {
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		for _, ext := range exts {
			b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1ObjectIdentifier(ext.ID)
				if ext.Critical {
					b.AddASN1Boolean(true)
				}
				b.AddASN1OctetString(ext.Value)
			})
		}
	})
}
