// Package oids maps dotted object identifiers to the short names used in
// human-readable output.
package oids

// friendlyNames is populated at package load and never written afterwards, so
// concurrent readers need no locking.
var friendlyNames = map[string]string{
	// PKCS#1 signature algorithms
	"1.2.840.113549.1.1.1":  "rsaEncryption",
	"1.2.840.113549.1.1.2":  "md2WithRSAEncryption",
	"1.2.840.113549.1.1.4":  "md5WithRSAEncryption",
	"1.2.840.113549.1.1.5":  "sha1WithRSAEncryption",
	"1.2.840.113549.1.1.10": "rsassa-pss",
	"1.2.840.113549.1.1.11": "sha256WithRSAEncryption",
	"1.2.840.113549.1.1.12": "sha384WithRSAEncryption",
	"1.2.840.113549.1.1.13": "sha512WithRSAEncryption",
	"1.2.840.113549.1.1.14": "sha224WithRSAEncryption",
	"1.3.14.3.2.29":         "sha1WithRSAEncryption",

	// DSA
	"1.2.840.10040.4.1":      "dsa",
	"1.2.840.10040.4.3":      "dsa-with-SHA1",
	"2.16.840.1.101.3.4.3.1": "dsa-with-SHA224",
	"2.16.840.1.101.3.4.3.2": "dsa-with-SHA256",

	// ECDSA
	"1.2.840.10045.2.1":   "ecPublicKey",
	"1.2.840.10045.4.1":   "ecdsa-with-SHA1",
	"1.2.840.10045.4.3.1": "ecdsa-with-SHA224",
	"1.2.840.10045.4.3.2": "ecdsa-with-SHA256",
	"1.2.840.10045.4.3.3": "ecdsa-with-SHA384",
	"1.2.840.10045.4.3.4": "ecdsa-with-SHA512",

	// EdDSA
	"1.3.101.112": "Ed25519",
	"1.3.101.113": "Ed448",

	// Hashes and mask generation
	"1.3.14.3.2.26":          "sha1",
	"2.16.840.1.101.3.4.2.1": "sha256",
	"2.16.840.1.101.3.4.2.2": "sha384",
	"2.16.840.1.101.3.4.2.3": "sha512",
	"2.16.840.1.101.3.4.2.4": "sha224",
	"1.2.840.113549.1.1.8":   "mgf1",

	// CRL and CRL entry extensions (RFC 5280 sections 5.2 and 5.3)
	"2.5.29.35": "authorityKeyIdentifier",
	"2.5.29.18": "issuerAltName",
	"2.5.29.20": "cRLNumber",
	"2.5.29.27": "deltaCRLIndicator",
	"2.5.29.28": "issuingDistributionPoint",
	"2.5.29.46": "freshestCRL",
	"2.5.29.21": "cRLReason",
	"2.5.29.23": "holdInstructionCode",
	"2.5.29.24": "invalidityDate",
	"2.5.29.29": "certificateIssuer",

	"1.3.6.1.5.5.7.1.1": "authorityInfoAccess",
}

// Lookup returns the friendly name registered for oid, if any.
func Lookup(oid string) (string, bool) {
	name, ok := friendlyNames[oid]
	return name, ok
}

// FriendlyName returns the friendly name for oid, or "unknown".
func FriendlyName(oid string) string {
	if name, ok := friendlyNames[oid]; ok {
		return name
	}
	return "unknown"
}
