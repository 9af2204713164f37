package checksum

import (
	"encoding/base64"
	"fmt"
	"hash"
	"hash/crc64"
	"io"
	"os"
)

// CRC64NVME polynomial as per AWS S3 specification
var crc64NVMETable = crc64.MakeTable(0x9a6c9329ac4bc9b5)

const bufferSize = 64 * 1024 // 64KB buffer

// New returns a CRC64NVME hash
func New() hash.Hash64 {
	return crc64.New(crc64NVMETable)
}

// CalculateFile calculates the CRC64NVME checksum of a file and returns it base64 encoded
func CalculateFile(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return Calculate(file)
}

// Calculate calculates the CRC64NVME checksum of r and returns it base64 encoded
func Calculate(r io.Reader) (string, error) {
	h := New()
	if _, err := io.CopyBuffer(h, r, make([]byte, bufferSize)); err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	return Encode(h), nil
}

// Encode returns the base64 encoding of the hash sum (same format as S3)
func Encode(h hash.Hash) string {
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// TeeReader calculates the checksum of everything read through it
type TeeReader struct {
	reader   io.Reader
	hash     hash.Hash64
	checksum string
	done     bool
}

// NewTeeReader creates a new TeeReader
func NewTeeReader(r io.Reader) *TeeReader {
	return &TeeReader{
		reader: r,
		hash:   New(),
	}
}

// Read implements io.Reader
func (t *TeeReader) Read(p []byte) (n int, err error) {
	n, err = t.reader.Read(p)
	if n > 0 {
		if _, werr := t.hash.Write(p[:n]); werr != nil {
			return n, werr
		}
	}
	if err == io.EOF {
		t.done = true
		t.checksum = Encode(t.hash)
	}
	return n, err
}

// Checksum returns the calculated checksum (only valid after EOF)
func (t *TeeReader) Checksum() (string, error) {
	if !t.done {
		return "", fmt.Errorf("checksum not yet calculated (read not complete)")
	}
	return t.checksum, nil
}
