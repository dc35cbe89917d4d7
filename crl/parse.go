package crl

import (
	"bytes"
	"encoding/asn1"
	"fmt"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"

	berrors "github.com/pkiexamples/crlkit/errors"
	"github.com/pkiexamples/crlkit/pkixname"
)

// tagCRLExtensions is the [0] EXPLICIT wrapper around crlExtensions.
var tagCRLExtensions = cryptobyte_asn1.Tag(0).Constructed().ContextSpecific()

// Parse decodes a single DER CertificateList. The whole of der must be
// consumed. On error no partial result is returned. The input is copied, so
// the caller may reuse der afterwards.
func Parse(der []byte) (*CertificateList, error) {
	raw := bytes.Clone(der)
	input := cryptobyte.String(raw)

	outer, err := readContents(&input, cryptobyte_asn1.SEQUENCE, "certificateList")
	if err != nil {
		return nil, err
	}
	if !input.Empty() {
		return nil, berrors.New(berrors.TrailingData, "input", "%d bytes after certificateList", len(input))
	}

	tbs, err := parseTBSCertList(&outer)
	if err != nil {
		return nil, err
	}

	sigAlg, err := parseAlgorithmIdentifier(&outer, "signatureAlgorithm")
	if err != nil {
		return nil, err
	}

	elem, err := readElement(&outer, cryptobyte_asn1.BIT_STRING, "signatureValue")
	if err != nil {
		return nil, err
	}
	var sig asn1.BitString
	if !elem.ReadASN1BitString(&sig) {
		return nil, berrors.New(berrors.Malformed, "signatureValue", "invalid BIT STRING")
	}
	if sig.BitLength%8 != 0 {
		return nil, berrors.New(berrors.Malformed, "signatureValue", "%d unused bits", 8-sig.BitLength%8)
	}

	if !outer.Empty() {
		return nil, berrors.New(berrors.TrailingData, "certificateList", "%d bytes after signatureValue", len(outer))
	}

	return &CertificateList{
		Raw:                raw,
		TBSCertList:        *tbs,
		SignatureAlgorithm: sigAlg,
		SignatureValue:     sig.Bytes,
	}, nil
}

// parseTBSCertList reads the tbsCertList element from the front of s.
func parseTBSCertList(s *cryptobyte.String) (*TBSCertList, error) {
	const field = "tbsCertList"
	rawTBS, err := readElement(s, cryptobyte_asn1.SEQUENCE, field)
	if err != nil {
		return nil, err
	}
	tbsElem := rawTBS
	var input cryptobyte.String
	tbsElem.ReadASN1(&input, cryptobyte_asn1.SEQUENCE)

	tbs := &TBSCertList{Raw: rawTBS}

	// version is read unconditionally. A v1 CRL that omits it is rejected here
	// with an unexpected tag.
	elem, err := readElement(&input, cryptobyte_asn1.INTEGER, field+".version")
	if err != nil {
		return nil, err
	}
	var version int64
	if !elem.ReadASN1Integer(&version) {
		return nil, berrors.New(berrors.Malformed, field+".version", "invalid INTEGER")
	}
	tbs.Version = int(version)

	tbs.Signature, err = parseAlgorithmIdentifier(&input, field+".signature")
	if err != nil {
		return nil, err
	}

	rawIssuer, err := readElement(&input, cryptobyte_asn1.SEQUENCE, field+".issuer")
	if err != nil {
		return nil, err
	}
	tbs.RawIssuer = rawIssuer
	tbs.Issuer, err = pkixname.Parse(rawIssuer)
	if err != nil {
		return nil, berrors.New(berrors.Malformed, field+".issuer", "%s", err)
	}

	tbs.ThisUpdate, err = readTime(&input, field+".thisUpdate")
	if err != nil {
		return nil, err
	}

	if input.PeekASN1Tag(cryptobyte_asn1.UTCTime) || input.PeekASN1Tag(cryptobyte_asn1.GeneralizedTime) {
		tbs.NextUpdate, err = readTime(&input, field+".nextUpdate")
		if err != nil {
			return nil, err
		}
		tbs.hasNextUpdate = true
	}

	tbs.RevokedCertificates = []RevokedCertificate{}
	if input.PeekASN1Tag(cryptobyte_asn1.SEQUENCE) {
		revoked, err := readContents(&input, cryptobyte_asn1.SEQUENCE, field+".revokedCertificates")
		if err != nil {
			return nil, err
		}
		for i := 0; !revoked.Empty(); i++ {
			rc, err := parseRevokedCertificate(&revoked, fmt.Sprintf("%s.revokedCertificates[%d]", field, i))
			if err != nil {
				return nil, err
			}
			tbs.RevokedCertificates = append(tbs.RevokedCertificates, rc)
		}
	}

	if input.PeekASN1Tag(tagCRLExtensions) {
		exts, err := readContents(&input, tagCRLExtensions, field+".crlExtensions")
		if err != nil {
			return nil, err
		}
		err = checkExtensions(exts, field+".crlExtensions")
		if err != nil {
			return nil, err
		}
		tbs.Extensions = exts
	}

	if !input.Empty() {
		return nil, berrors.New(berrors.TrailingData, field, "%d bytes after last field", len(input))
	}
	return tbs, nil
}

// parseAlgorithmIdentifier reads an AlgorithmIdentifier from the front of s.
// Anything after the OID is kept undecoded as Parameters.
func parseAlgorithmIdentifier(s *cryptobyte.String, field string) (AlgorithmIdentifier, error) {
	seq, err := readContents(s, cryptobyte_asn1.SEQUENCE, field)
	if err != nil {
		return AlgorithmIdentifier{}, err
	}
	elem, err := readElement(&seq, cryptobyte_asn1.OBJECT_IDENTIFIER, field+".algorithm")
	if err != nil {
		return AlgorithmIdentifier{}, err
	}
	var oid asn1.ObjectIdentifier
	if !elem.ReadASN1ObjectIdentifier(&oid) {
		return AlgorithmIdentifier{}, berrors.New(berrors.Malformed, field+".algorithm", "invalid OBJECT IDENTIFIER")
	}
	ai := AlgorithmIdentifier{Algorithm: oid.String()}
	if !seq.Empty() {
		var params cryptobyte.String
		var tag cryptobyte_asn1.Tag
		if !seq.ReadAnyASN1Element(&params, &tag) {
			return AlgorithmIdentifier{}, berrors.New(berrors.BadLength, field+".parameters", "invalid element")
		}
		if !seq.Empty() {
			return AlgorithmIdentifier{}, berrors.New(berrors.TrailingData, field, "%d bytes after parameters", len(seq))
		}
		ai.Parameters = params
	}
	return ai, nil
}

// parseRevokedCertificate reads one revokedCertificates entry from the front
// of s.
func parseRevokedCertificate(s *cryptobyte.String, field string) (RevokedCertificate, error) {
	entry, err := readContents(s, cryptobyte_asn1.SEQUENCE, field)
	if err != nil {
		return RevokedCertificate{}, err
	}

	elem, err := readElement(&entry, cryptobyte_asn1.INTEGER, field+".userCertificate")
	if err != nil {
		return RevokedCertificate{}, err
	}
	serial := new(big.Int)
	if !elem.ReadASN1Integer(serial) {
		return RevokedCertificate{}, berrors.New(berrors.Malformed, field+".userCertificate", "invalid INTEGER")
	}

	date, err := readTime(&entry, field+".revocationDate")
	if err != nil {
		return RevokedCertificate{}, err
	}

	rc := RevokedCertificate{SerialNumber: serial, RevocationDate: date}
	if !entry.Empty() {
		err = checkExtensions(entry, field+".crlEntryExtensions")
		if err != nil {
			return RevokedCertificate{}, err
		}
		rc.Extensions = entry
	}
	return rc, nil
}

// checkExtensions verifies that exts is exactly one non-empty Extensions
// SEQUENCE whose elements have the shape
//
//	Extension ::= SEQUENCE { extnID OID, critical BOOLEAN DEFAULT FALSE, extnValue OCTET STRING }
//
// Extension values are not decoded.
func checkExtensions(exts cryptobyte.String, field string) error {
	seq, err := readContents(&exts, cryptobyte_asn1.SEQUENCE, field)
	if err != nil {
		return err
	}
	if !exts.Empty() {
		return berrors.New(berrors.TrailingData, field, "%d bytes after Extensions", len(exts))
	}
	if seq.Empty() {
		return berrors.New(berrors.Malformed, field, "empty Extensions")
	}
	for i := 0; !seq.Empty(); i++ {
		extField := fmt.Sprintf("%s[%d]", field, i)
		ext, err := readContents(&seq, cryptobyte_asn1.SEQUENCE, extField)
		if err != nil {
			return err
		}
		elem, err := readElement(&ext, cryptobyte_asn1.OBJECT_IDENTIFIER, extField+".extnID")
		if err != nil {
			return err
		}
		var oid asn1.ObjectIdentifier
		if !elem.ReadASN1ObjectIdentifier(&oid) {
			return berrors.New(berrors.Malformed, extField+".extnID", "invalid OBJECT IDENTIFIER")
		}
		if ext.PeekASN1Tag(cryptobyte_asn1.BOOLEAN) {
			elem, err = readElement(&ext, cryptobyte_asn1.BOOLEAN, extField+".critical")
			if err != nil {
				return err
			}
			var critical bool
			if !elem.ReadASN1Boolean(&critical) {
				return berrors.New(berrors.Malformed, extField+".critical", "invalid BOOLEAN")
			}
			// DER omits a field equal to its DEFAULT.
			if !critical {
				return berrors.New(berrors.Malformed, extField+".critical", "explicit FALSE")
			}
		}
		_, err = readElement(&ext, cryptobyte_asn1.OCTET_STRING, extField+".extnValue")
		if err != nil {
			return err
		}
		if !ext.Empty() {
			return berrors.New(berrors.TrailingData, extField, "%d bytes after extnValue", len(ext))
		}
	}
	return nil
}

// readElement reads the complete element with the given tag, header
// included, from the front of s. A missing element or a different tag is an
// UnexpectedTag error. A tag that matches but cannot be read is a BadLength
// error, since cryptobyte only fails there on a length that overruns s or is
// not minimally encoded.
func readElement(s *cryptobyte.String, tag cryptobyte_asn1.Tag, field string) (cryptobyte.String, error) {
	if s.Empty() {
		return nil, berrors.New(berrors.UnexpectedTag, field, "missing, want tag 0x%02x", uint8(tag))
	}
	if !s.PeekASN1Tag(tag) {
		return nil, berrors.New(berrors.UnexpectedTag, field, "got tag 0x%02x, want 0x%02x", (*s)[0], uint8(tag))
	}
	var elem cryptobyte.String
	if !s.ReadASN1Element(&elem, tag) {
		return nil, berrors.New(berrors.BadLength, field, "invalid length")
	}
	return elem, nil
}

// readContents is readElement returning only the element's contents.
func readContents(s *cryptobyte.String, tag cryptobyte_asn1.Tag, field string) (cryptobyte.String, error) {
	elem, err := readElement(s, tag, field)
	if err != nil {
		return nil, err
	}
	var contents cryptobyte.String
	elem.ReadASN1(&contents, tag)
	return contents, nil
}
