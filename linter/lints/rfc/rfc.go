// Package rfc registers zlint CRL lints for RFC 5280 section 5.1 rules that
// are checked with crlkit's own decoder.
package rfc

import (
	"github.com/zmap/zcrypto/x509"
	"github.com/zmap/zlint/v3/lint"

	"github.com/pkiexamples/crlkit/crl"
)

// decode runs the strict decoder over c. Lints which need fields that zcrypto
// does not expose use this instead of c's parsed fields.
func decode(c *x509.RevocationList) (*crl.CertificateList, *lint.LintResult) {
	cl, err := crl.Parse(c.Raw)
	if err != nil {
		return nil, &lint.LintResult{
			Status:  lint.Fatal,
			Details: err.Error(),
		}
	}
	return cl, nil
}
