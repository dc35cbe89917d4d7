package log

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"io"
)

// checksumWriter prefixes every line written to it with the CRC32 of that
// line. slog guarantees one Write per record, so each Write is one line.
type checksumWriter struct {
	inner io.Writer
}

// NewChecksumWriter returns a checksumWriter which wraps inner.
func NewChecksumWriter(inner io.Writer) *checksumWriter {
	return &checksumWriter{inner: inner}
}

// Write makes exactly one call to the inner Write.
func (w *checksumWriter) Write(in []byte) (int, error) {
	var out bytes.Buffer
	out.WriteString(LogLineChecksum(string(in)))
	out.WriteByte(' ')
	out.Write(in)
	size, err := out.WriteTo(w.inner)
	return int(size), err
}

var _ io.Writer = (*checksumWriter)(nil)

// LogLineChecksum computes a CRC32 over the log line, which can be checked to
// ensure no unexpected log corruption has occurred.
func LogLineChecksum(line string) string {
	crc := crc32.ChecksumIEEE([]byte(line))
	buf := make([]byte, crc32.Size)
	binary.LittleEndian.PutUint32(buf, crc)
	return base64.RawURLEncoding.EncodeToString(buf)
}
