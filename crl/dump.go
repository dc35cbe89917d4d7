package crl

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkiexamples/crlkit/oids"
)

// Dump renders cl as human-readable lines. Extensions are never rendered.
//
//	Version: 1
//	Signature Algorithm: ecdsa-with-SHA256 (1.2.840.10045.4.3.2)
//	Issuer: C=JP, O=examples, CN=Issuer CA
//	This Update: 2024-05-01T00:00:00Z
//	Next Update: 2024-05-08T00:00:00Z
//	Revoked Certificates: 1
//	  Serial Number: 1
//	    Revocation Date: 2024-04-30T12:00:00Z
func Dump(cl *CertificateList) string {
	tbs := &cl.TBSCertList
	var sb strings.Builder
	fmt.Fprintf(&sb, "Version: %d\n", tbs.Version)
	algName, ok := oids.Lookup(cl.SignatureAlgorithm.Algorithm)
	if !ok {
		algName = "unknown"
	}
	fmt.Fprintf(&sb, "Signature Algorithm: %s (%s)\n", algName, cl.SignatureAlgorithm.Algorithm)
	fmt.Fprintf(&sb, "Issuer: %s\n", tbs.Issuer)
	fmt.Fprintf(&sb, "This Update: %s\n", formatTime(tbs.ThisUpdate))
	if tbs.HasNextUpdate() {
		fmt.Fprintf(&sb, "Next Update: %s\n", formatTime(tbs.NextUpdate))
	} else {
		sb.WriteString("Next Update: none\n")
	}
	fmt.Fprintf(&sb, "Revoked Certificates: %d\n", len(tbs.RevokedCertificates))
	for _, rc := range tbs.RevokedCertificates {
		fmt.Fprintf(&sb, "  Serial Number: %s\n", rc.SerialNumber.String())
		fmt.Fprintf(&sb, "    Revocation Date: %s\n", formatTime(rc.RevocationDate))
	}
	return sb.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
