// Package crl decodes DER-encoded X.509 certificate revocation lists (RFC 5280
// section 5.1) into a read-only value graph, and renders that graph for
// humans.
package crl

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/pkiexamples/crlkit/pkixname"
)

// CertificateList is a decoded CRL. All byte slices borrow from Raw, which is
// a private copy of the decoded input.
type CertificateList struct {
	Raw                []byte
	TBSCertList        TBSCertList
	SignatureAlgorithm AlgorithmIdentifier
	// SignatureValue holds the signature octets. Its BIT STRING is required
	// to have no unused bits.
	SignatureValue []byte
}

// TBSCertList is the signed body of a CRL.
type TBSCertList struct {
	// Raw is the full DER encoding of the tbsCertList, which is what a
	// signature verifier would hash.
	Raw        []byte
	Version    int
	Signature  AlgorithmIdentifier
	RawIssuer  []byte
	Issuer     pkixname.Name
	ThisUpdate time.Time
	// NextUpdate is meaningful only when HasNextUpdate reports true.
	NextUpdate time.Time
	// RevokedCertificates is in encoding order, and is empty rather than nil
	// when the CRL lists nothing.
	RevokedCertificates []RevokedCertificate
	// Extensions is the undecoded Extensions SEQUENCE inside the [0] wrapper,
	// or nil.
	Extensions []byte

	hasNextUpdate bool
}

// HasNextUpdate reports whether the nextUpdate field was present.
func (tbs *TBSCertList) HasNextUpdate() bool {
	return tbs.hasNextUpdate
}

// AlgorithmIdentifier names an algorithm by dotted OID. Parameters holds the
// DER of whatever followed the OID, or nil.
type AlgorithmIdentifier struct {
	Algorithm  string
	Parameters []byte
}

// RevokedCertificate is one revokedCertificates entry.
type RevokedCertificate struct {
	SerialNumber   *big.Int
	RevocationDate time.Time
	// Extensions is the undecoded crlEntryExtensions SEQUENCE, or nil.
	Extensions []byte
}

// id is a wrapper around a unique identifier, used primarily for logging, which
// combines the source a CRL was read from with its issuer and thisUpdate.
type id struct {
	crlID string
}

// NewID constructs the logging identity of a CRL read from source.
func NewID(source string, cl *CertificateList) (id, error) {
	type info struct {
		Source     string    `json:"source"`
		Issuer     string    `json:"issuer"`
		ThisUpdate time.Time `json:"thisUpdate"`
	}
	jsonBytes, err := json.Marshal(info{source, cl.TBSCertList.Issuer.String(), cl.TBSCertList.ThisUpdate})
	if err != nil {
		return id{}, fmt.Errorf("computing CRL ID: %w", err)
	}
	return id{string(jsonBytes)}, nil
}

func (c id) String() string {
	return c.crlID
}
