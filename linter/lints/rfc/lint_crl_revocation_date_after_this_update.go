package rfc

import (
	"fmt"

	"github.com/zmap/zcrypto/x509"
	"github.com/zmap/zlint/v3/lint"
	"github.com/zmap/zlint/v3/util"
)

type crlRevocationDateAfterThisUpdate struct{}

/************************************************
RFC 5280: 5.3.2 (via 5.1.2.6)
revocationDate is the date on which the revocation occurred. A CRL cannot
report a revocation that happened after the CRL itself was issued.
************************************************/

func init() {
	lint.RegisterRevocationListLint(&lint.RevocationListLint{
		LintMetadata: lint.LintMetadata{
			Name:          "w_crl_revocation_date_after_this_update",
			Description:   "revocationDate of an entry should not be later than the CRL's thisUpdate",
			Citation:      "RFC 5280: 5.1.2.6",
			Source:        lint.RFC5280,
			EffectiveDate: util.RFC5280Date,
		},
		Lint: NewCrlRevocationDateAfterThisUpdate,
	})
}

func NewCrlRevocationDateAfterThisUpdate() lint.RevocationListLintInterface {
	return &crlRevocationDateAfterThisUpdate{}
}

func (l *crlRevocationDateAfterThisUpdate) CheckApplies(c *x509.RevocationList) bool {
	return true
}

func (l *crlRevocationDateAfterThisUpdate) Execute(c *x509.RevocationList) *lint.LintResult {
	cl, res := decode(c)
	if res != nil {
		return res
	}
	for _, rc := range cl.TBSCertList.RevokedCertificates {
		if rc.RevocationDate.After(cl.TBSCertList.ThisUpdate) {
			return &lint.LintResult{
				Status:  lint.Warn,
				Details: fmt.Sprintf("serial %s has revocationDate %s after thisUpdate %s", rc.SerialNumber, rc.RevocationDate, cl.TBSCertList.ThisUpdate),
			}
		}
	}
	return &lint.LintResult{Status: lint.Pass}
}
