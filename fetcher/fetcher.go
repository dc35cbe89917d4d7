// Package fetcher retrieves CRL bytes from the filesystem, over HTTP, or from
// S3-compatible object storage.
package fetcher

import (
	"bytes"
	"context"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// DefaultMaxSize is used when New is given a non-positive limit.
const DefaultMaxSize = 64 << 20

var (
	// ErrNotFound is wrapped when a source does not exist.
	ErrNotFound = errors.New("CRL not found")
	// ErrTooLarge is wrapped when a source is bigger than the configured
	// maximum.
	ErrTooLarge = errors.New("CRL exceeds maximum size")
)

// s3Getter matches the subset of the s3.Client interface which we use, to
// allow simpler mocking in tests.
type s3Getter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Fetcher reads CRLs named by a source string.
type Fetcher struct {
	httpClient *http.Client
	s3Client   s3Getter
	maxSize    int64
}

// New returns a Fetcher. s3Client may be nil, in which case s3:// sources
// fail.
func New(httpClient *http.Client, s3Client s3Getter, maxSize int64) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Fetcher{
		httpClient: httpClient,
		s3Client:   s3Client,
		maxSize:    maxSize,
	}
}

// Fetch returns the bytes of source, which is a filesystem path, a file://,
// http:// or https:// URL, or s3://bucket/key.
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	u, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parsing source %q: %w", source, err)
	}

	switch u.Scheme {
	case "":
		return f.fetchFile(source)
	case "file":
		return f.fetchFile(u.Path)
	case "http", "https":
		return f.fetchHTTP(ctx, source)
	case "s3":
		return f.fetchS3(ctx, u)
	default:
		return nil, fmt.Errorf("unsupported source scheme %q", u.Scheme)
	}
}

func (f *Fetcher) fetchFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("opening CRL file: %w", err)
	}
	defer file.Close()
	return f.readLimited(file)
}

func (f *Fetcher) fetchHTTP(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading CRL: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, source)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("downloading CRL: unexpected status %q", resp.Status)
	}
	return f.readLimited(resp.Body)
}

func (f *Fetcher) fetchS3(ctx context.Context, u *url.URL) ([]byte, error) {
	if f.s3Client == nil {
		return nil, errors.New("no S3 client configured")
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("S3 source %q must be s3://bucket/key", u)
	}

	out, err := f.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		var respErr *smithyhttp.ResponseError
		if errors.As(err, &noSuchKey) || (errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, u)
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("getting %s: %s: %w", u, apiErr.ErrorCode(), err)
		}
		return nil, fmt.Errorf("getting %s: %w", u, err)
	}
	defer out.Body.Close()
	return f.readLimited(out.Body)
}

// readLimited reads all of r, failing once more than maxSize bytes arrive.
func (f *Fetcher) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading CRL bytes: %w", err)
	}
	if int64(len(data)) > f.maxSize {
		return nil, fmt.Errorf("%w of %d bytes", ErrTooLarge, f.maxSize)
	}
	return data, nil
}

// DER returns the DER CRL held in data. A single PEM "X509 CRL" block is
// unwrapped; anything else is assumed to be DER already.
func DER(data []byte) ([]byte, error) {
	block, rest := pem.Decode(data)
	if block == nil {
		return data, nil
	}
	if block.Type != "X509 CRL" {
		return nil, fmt.Errorf("unexpected PEM block type %q", block.Type)
	}
	if len(bytes.TrimSpace(rest)) != 0 {
		return nil, errors.New("trailing data after PEM CRL")
	}
	return block.Bytes, nil
}
