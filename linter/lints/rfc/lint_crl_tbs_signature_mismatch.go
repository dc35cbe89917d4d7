package rfc

import (
	"bytes"
	"fmt"

	"github.com/zmap/zcrypto/x509"
	"github.com/zmap/zlint/v3/lint"
	"github.com/zmap/zlint/v3/util"

	"github.com/pkiexamples/crlkit/oids"
)

type crlTBSSignatureMismatch struct{}

/************************************************
RFC 5280: 5.1.1.2
This field MUST contain the same algorithm identifier as the signature field
in the sequence tbsCertList (Section 5.1.2.2).
************************************************/

func init() {
	lint.RegisterRevocationListLint(&lint.RevocationListLint{
		LintMetadata: lint.LintMetadata{
			Name:          "e_crl_tbs_signature_algorithm_mismatch",
			Description:   "signatureAlgorithm MUST contain the same algorithm identifier as tbsCertList.signature",
			Citation:      "RFC 5280: 5.1.1.2",
			Source:        lint.RFC5280,
			EffectiveDate: util.RFC5280Date,
		},
		Lint: NewCrlTBSSignatureMismatch,
	})
}

func NewCrlTBSSignatureMismatch() lint.RevocationListLintInterface {
	return &crlTBSSignatureMismatch{}
}

func (l *crlTBSSignatureMismatch) CheckApplies(c *x509.RevocationList) bool {
	return true
}

func (l *crlTBSSignatureMismatch) Execute(c *x509.RevocationList) *lint.LintResult {
	cl, res := decode(c)
	if res != nil {
		return res
	}
	outer, inner := cl.SignatureAlgorithm, cl.TBSCertList.Signature
	if outer.Algorithm != inner.Algorithm {
		return &lint.LintResult{
			Status: lint.Error,
			Details: fmt.Sprintf("signatureAlgorithm is %s (%s) but tbsCertList.signature is %s (%s)",
				oids.FriendlyName(outer.Algorithm), outer.Algorithm, oids.FriendlyName(inner.Algorithm), inner.Algorithm),
		}
	}
	if !bytes.Equal(outer.Parameters, inner.Parameters) {
		return &lint.LintResult{
			Status:  lint.Error,
			Details: fmt.Sprintf("%s parameters differ between signatureAlgorithm and tbsCertList.signature", oids.FriendlyName(outer.Algorithm)),
		}
	}
	return &lint.LintResult{Status: lint.Pass}
}
