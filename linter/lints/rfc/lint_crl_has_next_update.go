package rfc

import (
	"github.com/zmap/zcrypto/x509"
	"github.com/zmap/zlint/v3/lint"
	"github.com/zmap/zlint/v3/util"
)

type crlHasNextUpdate struct{}

/************************************************
RFC 5280: 5.1.2.5
Conforming CRL issuers MUST include the nextUpdate field in all CRLs.
************************************************/

func init() {
	lint.RegisterRevocationListLint(&lint.RevocationListLint{
		LintMetadata: lint.LintMetadata{
			Name:          "e_crl_missing_next_update",
			Description:   "Conforming CRL issuers MUST include the nextUpdate field in all CRLs",
			Citation:      "RFC 5280: 5.1.2.5",
			Source:        lint.RFC5280,
			EffectiveDate: util.RFC5280Date,
		},
		Lint: NewCrlHasNextUpdate,
	})
}

func NewCrlHasNextUpdate() lint.RevocationListLintInterface {
	return &crlHasNextUpdate{}
}

func (l *crlHasNextUpdate) CheckApplies(c *x509.RevocationList) bool {
	return true
}

func (l *crlHasNextUpdate) Execute(c *x509.RevocationList) *lint.LintResult {
	cl, res := decode(c)
	if res != nil {
		return res
	}
	if !cl.TBSCertList.HasNextUpdate() {
		return &lint.LintResult{
			Status:  lint.Error,
			Details: "CRLs MUST include the nextUpdate field",
		}
	}
	if cl.TBSCertList.NextUpdate.Before(cl.TBSCertList.ThisUpdate) {
		return &lint.LintResult{
			Status:  lint.Error,
			Details: "nextUpdate MUST NOT be before thisUpdate",
		}
	}
	return &lint.LintResult{Status: lint.Pass}
}
