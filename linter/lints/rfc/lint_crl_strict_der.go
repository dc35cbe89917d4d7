package rfc

import (
	"github.com/zmap/zcrypto/x509"
	"github.com/zmap/zlint/v3/lint"
	"github.com/zmap/zlint/v3/util"
)

type crlStrictDER struct{}

/************************************************
RFC 5280: 5.1
The CRL is DER encoded: definite minimal lengths, no trailing data at any
level, and a signatureValue BIT STRING that is a whole number of octets.
************************************************/

func init() {
	lint.RegisterRevocationListLint(&lint.RevocationListLint{
		LintMetadata: lint.LintMetadata{
			Name:          "e_crl_strict_der",
			Description:   "CRLs must decode without error under strict DER rules",
			Citation:      "RFC 5280: 5.1",
			Source:        lint.RFC5280,
			EffectiveDate: util.RFC5280Date,
		},
		Lint: NewCrlStrictDER,
	})
}

func NewCrlStrictDER() lint.RevocationListLintInterface {
	return &crlStrictDER{}
}

func (l *crlStrictDER) CheckApplies(c *x509.RevocationList) bool {
	return true
}

func (l *crlStrictDER) Execute(c *x509.RevocationList) *lint.LintResult {
	_, res := decode(c)
	if res != nil {
		return res
	}
	return &lint.LintResult{Status: lint.Pass}
}
