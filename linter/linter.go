// Package linter runs zlint, including the CRL lints in linter/lints, over
// raw DER CRLs.
package linter

import (
	"fmt"
	"sort"
	"strings"

	zlintx509 "github.com/zmap/zcrypto/x509"
	"github.com/zmap/zlint/v3"
	"github.com/zmap/zlint/v3/lint"

	_ "github.com/pkiexamples/crlkit/linter/lints/rfc"
)

var ErrLinting = fmt.Errorf("failed lint(s)")

// Linter holds a filtered lint registry so that it can be reused across many
// CRLs.
type Linter struct {
	registry lint.Registry
}

// New returns a Linter which runs every registered lint except those named in
// skipLints.
func New(skipLints []string) (*Linter, error) {
	reg, err := NewRegistry(skipLints)
	if err != nil {
		return nil, err
	}
	return &Linter{registry: reg}, nil
}

// CheckCRL accomplishes the entire process of linting a single CRL: it builds
// a registry without the lints in skipLints and runs it over der. It returns
// an error wrapping ErrLinting if any lint reports a notice or worse.
func CheckCRL(der []byte, skipLints []string) error {
	l, err := New(skipLints)
	if err != nil {
		return err
	}
	return l.CheckCRL(der)
}

// CheckCRL lints der with l's registry.
func (l *Linter) CheckCRL(der []byte) error {
	lintCRL, err := zlintx509.ParseRevocationList(der)
	if err != nil {
		return fmt.Errorf("failed to parse CRL for linting: %w", err)
	}
	lintRes := zlint.LintRevocationListEx(lintCRL, l.registry)
	return ProcessResultSet(lintRes)
}

// NewRegistry returns a zlint Registry with irrelevant (ETSI, EV) lints
// excluded, along with any lints named in skipLints.
func NewRegistry(skipLints []string) (lint.Registry, error) {
	reg, err := lint.GlobalRegistry().Filter(lint.FilterOptions{
		ExcludeNames: skipLints,
		ExcludeSources: []lint.LintSource{
			lint.CABFEVGuidelines,
			lint.EtsiEsi,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create lint registry: %w", err)
	}
	return reg, nil
}

// ProcessResultSet returns an error wrapping ErrLinting naming every lint in
// lintRes whose status is worse than Pass, in name order.
func ProcessResultSet(lintRes *zlint.ResultSet) error {
	if lintRes.NoticesPresent || lintRes.WarningsPresent || lintRes.ErrorsPresent || lintRes.FatalsPresent {
		var failedLints []string
		for lintName, result := range lintRes.Results {
			if result.Status > lint.Pass {
				failedLints = append(failedLints, fmt.Sprintf("%s (%s)", lintName, result.Details))
			}
		}
		sort.Strings(failedLints)
		return fmt.Errorf("%w: %s", ErrLinting, strings.Join(failedLints, ", "))
	}
	return nil
}
