package notmain

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkiexamples/crlkit/cmd"
	"github.com/pkiexamples/crlkit/crl"
	"github.com/pkiexamples/crlkit/fetcher"
	"github.com/pkiexamples/crlkit/linter"
	blog "github.com/pkiexamples/crlkit/log"
)

// lintList collects lint names from repeated or comma-separated flags.
type lintList []string

func (l *lintList) String() string {
	return strings.Join(*l, ",")
}

func (l *lintList) Set(value string) error {
	for _, name := range strings.Split(value, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			*l = append(*l, name)
		}
	}
	return nil
}

type dumper struct {
	fetcher *fetcher.Fetcher
	linter  *linter.Linter
	out     io.Writer
	log     blog.Logger
}

// dumpOne writes the description of a single CRL to d.out.
func (d *dumper) dumpOne(ctx context.Context, source string) error {
	raw, err := d.fetcher.Fetch(ctx, source)
	if err != nil {
		return fmt.Errorf("fetching CRL: %w", err)
	}
	der, err := fetcher.DER(raw)
	if err != nil {
		return err
	}
	cl, err := crl.Parse(der)
	if err != nil {
		return fmt.Errorf("parsing CRL: %w", err)
	}
	if d.linter != nil {
		err = d.linter.CheckCRL(cl.Raw)
		if err != nil {
			return fmt.Errorf("linting CRL: %w", err)
		}
	}
	_, err = io.WriteString(d.out, crl.Dump(cl))
	return err
}

// dumpAll dumps every source in order, headed by its name when there is more
// than one, and returns the number that failed.
func (d *dumper) dumpAll(ctx context.Context, sources []string) int {
	errCount := 0
	for i, source := range sources {
		if len(sources) > 1 {
			if i > 0 {
				fmt.Fprintln(d.out)
			}
			fmt.Fprintf(d.out, "==> %s <==\n", source)
		}
		err := d.dumpOne(ctx, source)
		if err != nil {
			errCount++
			d.log.Errf("CRL %q failed: %s", source, err)
		}
	}
	return errCount
}

func main() {
	lint := flag.Bool("lint", false, "Run zlint over each CRL after decoding it")
	var skipLints lintList
	flag.Var(&skipLints, "skip-lint", "Name of a lint to skip; may be repeated or comma-separated")
	timeout := flag.Duration("timeout", 30*time.Second, "Time allowed to fetch and dump all CRLs")
	maxSize := flag.Int64("max-size", fetcher.DefaultMaxSize, "Largest CRL, in bytes, that will be fetched")
	s3Region := flag.String("s3-region", "", "AWS region for s3:// sources; s3:// sources fail if unset")
	s3Endpoint := flag.String("s3-endpoint", "", "Alternate S3-compatible endpoint URL")
	logLevel := flag.Int("log-level", 4, "Level of messages written to stderr, from -1 (none) to 7 (debug)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <source>...\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	logger := cmd.NewLogger(blog.Config{StdoutLevel: *logLevel, TextFormat: true})
	defer cmd.AuditPanic()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var f *fetcher.Fetcher
	if *s3Region != "" {
		s3Client, err := fetcher.NewS3Client(ctx, fetcher.S3Config{Region: *s3Region, Endpoint: *s3Endpoint}, logger)
		cmd.FailOnError(err, "Creating S3 client")
		f = fetcher.New(http.DefaultClient, s3Client, *maxSize)
	} else {
		f = fetcher.New(http.DefaultClient, nil, *maxSize)
	}

	d := &dumper{fetcher: f, out: os.Stdout, log: logger}
	if *lint {
		l, err := linter.New(skipLints)
		cmd.FailOnError(err, "Creating linter")
		d.linter = l
	}

	errCount := d.dumpAll(ctx, flag.Args())
	if errCount != 0 {
		cmd.Fail(fmt.Sprintf("Encountered %d errors", errCount))
	}
}

func init() {
	cmd.Register(cmd.Subcommand{
		Name:    "crl-dump",
		Summary: "Decode CRLs and print their contents",
		Run:     main,
	})
}
