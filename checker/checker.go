// Package checker fetches CRLs, decodes them, and verifies that they are
// well-formed and current, publishing what it learns as metrics.
package checker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jmhodges/clock"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/pkiexamples/crlkit/crl"
	"github.com/pkiexamples/crlkit/fetcher"
	"github.com/pkiexamples/crlkit/linter"
	blog "github.com/pkiexamples/crlkit/log"
	"github.com/pkiexamples/crlkit/pkixname"
)

// Possible values of the result label on the crl_checks counter.
const (
	resultSuccess      = "success"
	resultFetchFailed  = "fetch_failed"
	resultDecodeFailed = "decode_failed"
	resultLintFailed   = "lint_failed"
	resultStale        = "stale"
	resultIssuerChange = "issuer_changed"
)

// ErrStale is wrapped by Check when a CRL is not yet valid or has expired.
var ErrStale = errors.New("CRL is not current")

// ErrIssuerChanged is wrapped by Check when a source serves a CRL whose
// issuer differs from the one it served the first time it was checked.
var ErrIssuerChanged = errors.New("CRL issuer changed")

// crlFetcher is satisfied by *fetcher.Fetcher.
type crlFetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

var _ crlFetcher = (*fetcher.Fetcher)(nil)

// Checker validates CRLs from a set of sources.
type Checker struct {
	fetcher crlFetcher
	linter  *linter.Linter
	clk     clock.Clock
	log     blog.Logger

	// issuers holds the issuer first seen at each source.
	issuersMu sync.Mutex
	issuers   map[string]pkixname.Name

	thisUpdate *prometheus.GaugeVec
	nextUpdate *prometheus.GaugeVec
	certCount  *prometheus.GaugeVec
	checks     *prometheus.CounterVec
}

// New returns a Checker. When lintCRLs is set every decoded CRL is also run
// through zlint, minus the lints named in skipLints.
func New(f crlFetcher, lintCRLs bool, skipLints []string, stats prometheus.Registerer, clk clock.Clock, log blog.Logger) (*Checker, error) {
	var l *linter.Linter
	if lintCRLs {
		var err error
		l, err = linter.New(skipLints)
		if err != nil {
			return nil, fmt.Errorf("creating linter: %w", err)
		}
	}

	thisUpdate := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "crl_this_update",
		Help: "Unix timestamp of the thisUpdate field of the most recently checked CRL",
	}, []string{"source"})
	stats.MustRegister(thisUpdate)

	nextUpdate := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "crl_next_update",
		Help: "Unix timestamp of the nextUpdate field of the most recently checked CRL, or 0 if absent",
	}, []string{"source"})
	stats.MustRegister(nextUpdate)

	certCount := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "crl_revoked_certificates",
		Help: "Number of revoked certificates listed in the most recently checked CRL",
	}, []string{"source"})
	stats.MustRegister(certCount)

	checks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crl_checks",
		Help: "A counter of CRL checks labelled by result",
	}, []string{"result"})
	stats.MustRegister(checks)

	return &Checker{
		fetcher:    f,
		linter:     l,
		clk:        clk,
		log:        log,
		issuers:    make(map[string]pkixname.Name),
		thisUpdate: thisUpdate,
		nextUpdate: nextUpdate,
		certCount:  certCount,
		checks:     checks,
	}, nil
}

// Check fetches and decodes the CRL at source and confirms that it is
// current. The decoded CRL is returned even when it is stale or fails
// linting, so long as it decoded.
func (c *Checker) Check(ctx context.Context, source string) (*crl.CertificateList, error) {
	raw, err := c.fetcher.Fetch(ctx, source)
	if err != nil {
		c.checks.WithLabelValues(resultFetchFailed).Inc()
		return nil, fmt.Errorf("fetching CRL: %w", err)
	}

	der, err := fetcher.DER(raw)
	if err != nil {
		c.checks.WithLabelValues(resultDecodeFailed).Inc()
		return nil, fmt.Errorf("unwrapping CRL: %w", err)
	}

	cl, err := crl.Parse(der)
	if err != nil {
		c.checks.WithLabelValues(resultDecodeFailed).Inc()
		return nil, fmt.Errorf("parsing CRL: %w", err)
	}

	id, err := crl.NewID(source, cl)
	if err != nil {
		return nil, err
	}
	c.log.Debugf("decoded CRL %s", id)

	tbs := cl.TBSCertList
	c.thisUpdate.WithLabelValues(source).Set(float64(tbs.ThisUpdate.Unix()))
	if tbs.HasNextUpdate() {
		c.nextUpdate.WithLabelValues(source).Set(float64(tbs.NextUpdate.Unix()))
	} else {
		c.nextUpdate.WithLabelValues(source).Set(0)
	}
	c.certCount.WithLabelValues(source).Set(float64(len(tbs.RevokedCertificates)))

	if c.linter != nil {
		err = c.linter.CheckCRL(cl.Raw)
		if err != nil {
			c.checks.WithLabelValues(resultLintFailed).Inc()
			return cl, fmt.Errorf("linting CRL: %w", err)
		}
	}

	err = c.checkIssuer(source, tbs.Issuer)
	if err != nil {
		c.checks.WithLabelValues(resultIssuerChange).Inc()
		return cl, err
	}

	err = c.checkFreshness(&tbs)
	if err != nil {
		c.checks.WithLabelValues(resultStale).Inc()
		return cl, err
	}

	c.checks.WithLabelValues(resultSuccess).Inc()
	return cl, nil
}

// checkIssuer pins the first issuer seen at source and refuses any later CRL
// from that source naming a different one.
func (c *Checker) checkIssuer(source string, issuer pkixname.Name) error {
	c.issuersMu.Lock()
	defer c.issuersMu.Unlock()
	prev, ok := c.issuers[source]
	if !ok {
		c.issuers[source] = issuer
		return nil
	}
	if !prev.Equal(issuer) {
		return fmt.Errorf("%w: was %q, now %q", ErrIssuerChanged, prev, issuer)
	}
	return nil
}

func (c *Checker) checkFreshness(tbs *crl.TBSCertList) error {
	now := c.clk.Now()
	if tbs.ThisUpdate.After(now) {
		return fmt.Errorf("%w: thisUpdate %s is in the future", ErrStale, tbs.ThisUpdate.Format(time.RFC3339))
	}
	if tbs.HasNextUpdate() && tbs.NextUpdate.Before(now) {
		return fmt.Errorf("%w: nextUpdate %s has passed", ErrStale, tbs.NextUpdate.Format(time.RFC3339))
	}
	return nil
}

// Summary is audit-logged by CheckAll once every source has been checked.
type Summary struct {
	Checked int      `json:"checked"`
	Failed  []string `json:"failed,omitempty"`
}

// CheckAll checks every source, running at most parallelism checks at once.
// Individual failures are logged; the returned error only reports how many
// there were.
func (c *Checker) CheckAll(ctx context.Context, sources []string, parallelism int) error {
	if parallelism < 1 {
		parallelism = 1
	}

	var mu sync.Mutex
	summary := Summary{Checked: len(sources)}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for _, source := range sources {
		g.Go(func() error {
			_, err := c.Check(gctx, source)
			if err != nil {
				c.log.Errf("CRL %q failed: %s", source, err)
				mu.Lock()
				summary.Failed = append(summary.Failed, source)
				mu.Unlock()
			}
			return nil
		})
	}
	// Check failures are collected above, never returned to the group.
	_ = g.Wait()
	slices.Sort(summary.Failed)

	c.log.AuditObject("CRL check summary", summary)
	if len(summary.Failed) != 0 {
		return fmt.Errorf("encountered %d errors checking %d CRLs", len(summary.Failed), len(sources))
	}
	return nil
}
