package notmain

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmhodges/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pkiexamples/crlkit/checker"
	"github.com/pkiexamples/crlkit/cmd"
	"github.com/pkiexamples/crlkit/config"
	"github.com/pkiexamples/crlkit/fetcher"
	blog "github.com/pkiexamples/crlkit/log"
)

// Config is the YAML configuration for crl-checker.
type Config struct {
	CRLChecker struct {
		// Sources are the CRLs to check: filesystem paths, file://, http://,
		// https:// or s3://bucket/key URLs.
		Sources []string `yaml:"sources" validate:"min=1,dive,required"`

		// Parallelism is the number of CRLs checked at once. Defaults to 1.
		Parallelism int `yaml:"parallelism" validate:"min=0"`

		// Timeout bounds a single pass over every source.
		Timeout config.Duration `yaml:"timeout"`

		// Interval, when set, makes the checker repeat its pass on this
		// period until interrupted instead of exiting after one pass.
		Interval config.Duration `yaml:"interval" validate:"-"`

		LintCRLs  bool     `yaml:"lintCRLs"`
		SkipLints []string `yaml:"skipLints"`

		// MaxSize is the largest CRL, in bytes, that will be fetched.
		MaxSize int64 `yaml:"maxSize" validate:"min=0"`

		DebugAddr string `yaml:"debugAddr" validate:"omitempty,hostname_port"`

		// S3 must be set for s3:// sources to be fetched.
		S3 *fetcher.S3Config `yaml:"s3"`
	} `yaml:"crlChecker"`

	Syslog blog.Config `yaml:"syslog"`
}

// newChecker wires a fetcher, and if configured an S3 client, into a Checker.
func newChecker(ctx context.Context, c Config, stats prometheus.Registerer, clk clock.Clock, logger blog.Logger) (*checker.Checker, error) {
	httpClient := &http.Client{Timeout: c.CRLChecker.Timeout.Duration}

	var f *fetcher.Fetcher
	if c.CRLChecker.S3 != nil {
		s3Client, err := fetcher.NewS3Client(ctx, *c.CRLChecker.S3, logger)
		if err != nil {
			return nil, err
		}
		f = fetcher.New(httpClient, s3Client, c.CRLChecker.MaxSize)
	} else {
		f = fetcher.New(httpClient, nil, c.CRLChecker.MaxSize)
	}

	return checker.New(f, c.CRLChecker.LintCRLs, c.CRLChecker.SkipLints, stats, clk, logger)
}

// run performs one pass over every source, or repeats passes every
// c.CRLChecker.Interval until ctx is done. Only the single-pass mode returns
// check failures; in repeating mode they are logged and the next pass
// proceeds.
func run(ctx context.Context, chk *checker.Checker, c Config, logger blog.Logger) error {
	for {
		passCtx, cancel := context.WithTimeout(ctx, c.CRLChecker.Timeout.Duration)
		err := chk.CheckAll(passCtx, c.CRLChecker.Sources, c.CRLChecker.Parallelism)
		cancel()

		if c.CRLChecker.Interval.Duration == 0 {
			return err
		}
		if err != nil {
			logger.Warningf("CRL check pass failed: %s", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.CRLChecker.Interval.Duration):
		}
	}
}

func main() {
	configFile := flag.String("config", "", "File path to the configuration file for this service")
	flag.Parse()
	if *configFile == "" {
		flag.Usage()
		os.Exit(1)
	}

	var c Config
	err := cmd.ReadConfigFile(*configFile, &c)
	cmd.FailOnError(err, "Reading YAML config file into config structure")
	err = cmd.ValidateConfig(&c, nil)
	cmd.FailOnError(err, "Validating config")

	logger := cmd.NewLogger(c.Syslog)
	defer cmd.AuditPanic()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stats := cmd.NewStatsRegistry(c.CRLChecker.DebugAddr, logger)
	chk, err := newChecker(ctx, c, stats, clock.New(), logger)
	cmd.FailOnError(err, "Creating CRL checker")

	err = run(ctx, chk, c, logger)
	if err != nil {
		cmd.Fail(err.Error())
	}
	logger.AuditInfo("All CRLs validated")
}

func init() {
	cmd.Register(cmd.Subcommand{
		Name:    "crl-checker",
		Summary: "Fetch CRLs and check that they are well-formed and current",
		Run:     main,
		Config:  &Config{},
	})
}
