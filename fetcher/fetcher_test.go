package fetcher

import (
	"bytes"
	"context"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	blog "github.com/pkiexamples/crlkit/log"
	"github.com/pkiexamples/crlkit/test"
)

// fakeSimpleS3 implements the s3Getter interface and returns the object
// stored under the requested bucket and key.
type fakeSimpleS3 struct {
	objects map[string][]byte
	err     error
}

func (f *fakeSimpleS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.objects[*params.Bucket+"/"+*params.Key]
	if !ok {
		return nil, &smithyhttp.ResponseError{Response: &smithyhttp.Response{Response: &http.Response{StatusCode: 404}}}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func TestFetchFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "issuer.crl")
	err := os.WriteFile(path, []byte{0x30, 0x00}, 0o600)
	test.AssertNotError(t, err, "writing CRL file")

	f := New(nil, nil, 0)

	data, err := f.Fetch(context.Background(), path)
	test.AssertNotError(t, err, "fetching by path")
	test.AssertByteEquals(t, data, []byte{0x30, 0x00})

	data, err = f.Fetch(context.Background(), "file://"+path)
	test.AssertNotError(t, err, "fetching by file URL")
	test.AssertByteEquals(t, data, []byte{0x30, 0x00})

	_, err = f.Fetch(context.Background(), filepath.Join(dir, "missing.crl"))
	test.AssertErrorIs(t, err, ErrNotFound)
}

func TestFetchHTTP(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.crl":
			w.Write([]byte{0x30, 0x03, 0x02, 0x01, 0x01})
		case "/broken.crl":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := New(srv.Client(), nil, 0)

	data, err := f.Fetch(context.Background(), srv.URL+"/ok.crl")
	test.AssertNotError(t, err, "fetching over HTTP")
	test.AssertByteEquals(t, data, []byte{0x30, 0x03, 0x02, 0x01, 0x01})

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.crl")
	test.AssertErrorIs(t, err, ErrNotFound)

	_, err = f.Fetch(context.Background(), srv.URL+"/broken.crl")
	test.AssertError(t, err, "500 response should fail")
	test.AssertContains(t, err.Error(), "500")
	test.Assert(t, !errors.Is(err, ErrNotFound), "500 is not a missing CRL")
}

func TestFetchSizeLimit(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte{0xff}, 11))
	}))
	defer srv.Close()

	_, err := New(srv.Client(), nil, 10).Fetch(context.Background(), srv.URL)
	test.AssertErrorIs(t, err, ErrTooLarge)

	data, err := New(srv.Client(), nil, 11).Fetch(context.Background(), srv.URL)
	test.AssertNotError(t, err, "exactly the limit should succeed")
	test.AssertEquals(t, len(data), 11)
}

func TestFetchS3(t *testing.T) {
	t.Parallel()
	s3Client := &fakeSimpleS3{objects: map[string][]byte{
		"crls/123/0.crl": {0x30, 0x00},
	}}
	f := New(nil, s3Client, 0)

	data, err := f.Fetch(context.Background(), "s3://crls/123/0.crl")
	test.AssertNotError(t, err, "fetching from S3")
	test.AssertByteEquals(t, data, []byte{0x30, 0x00})

	_, err = f.Fetch(context.Background(), "s3://crls/123/1.crl")
	test.AssertErrorIs(t, err, ErrNotFound)

	_, err = f.Fetch(context.Background(), "s3://crls")
	test.AssertError(t, err, "S3 source without a key")
	test.AssertContains(t, err.Error(), "s3://bucket/key")

	_, err = New(nil, nil, 0).Fetch(context.Background(), "s3://crls/123/0.crl")
	test.AssertError(t, err, "S3 source without a client")
	test.AssertContains(t, err.Error(), "no S3 client")
}

func TestFetchS3Errors(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		err      error
		notFound bool
		contains string
	}{
		{"NoSuchKey", &types.NoSuchKey{}, true, "not found"},
		{"API error", &smithy.GenericAPIError{Code: "AccessDenied", Message: "nope"}, false, "AccessDenied"},
		{"other", fmt.Errorf("connection reset"), false, "connection reset"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := New(nil, &fakeSimpleS3{err: tc.err}, 0)
			_, err := f.Fetch(context.Background(), "s3://crls/0.crl")
			test.AssertError(t, err, "expected failure")
			test.AssertEquals(t, errors.Is(err, ErrNotFound), tc.notFound)
			test.AssertContains(t, err.Error(), tc.contains)
		})
	}
}

func TestFetchUnsupportedScheme(t *testing.T) {
	t.Parallel()
	_, err := New(nil, nil, 0).Fetch(context.Background(), "ldap://example.com/cn=crl")
	test.AssertError(t, err, "ldap sources are unsupported")
	test.AssertContains(t, err.Error(), `unsupported source scheme "ldap"`)
}

func TestDER(t *testing.T) {
	t.Parallel()
	raw := []byte{0x30, 0x03, 0x02, 0x01, 0x01}

	der, err := DER(raw)
	test.AssertNotError(t, err, "DER passes through")
	test.AssertByteEquals(t, der, raw)

	block := pem.EncodeToMemory(&pem.Block{Type: "X509 CRL", Bytes: raw})
	der, err = DER(block)
	test.AssertNotError(t, err, "PEM CRL")
	test.AssertByteEquals(t, der, raw)

	_, err = DER(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: raw}))
	test.AssertError(t, err, "wrong PEM type")
	test.AssertContains(t, err.Error(), `"CERTIFICATE"`)

	_, err = DER(append(block, block...))
	test.AssertError(t, err, "two PEM blocks")
}

func TestAWSLogger(t *testing.T) {
	t.Parallel()
	mock := blog.NewMock()
	l := awsLogger{mock}
	l.Logf("DEBUG", "retrying %d", 1)
	l.Logf("WARN", "throttled")
	l.Logf("OTHER", "ignored")

	all := mock.GetAll()
	test.AssertEquals(t, len(all), 2)
	test.AssertEquals(t, all[0].String(), "DEBUG: retrying 1")
	test.AssertEquals(t, all[1].String(), "WARNING: throttled")
}
