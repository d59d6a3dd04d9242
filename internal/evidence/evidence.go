// Package evidence fingerprints engine outputs so a reviewer can confirm
// that a reconstruction was produced from exactly the same inputs.
package evidence

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/skip2/go-qrcode"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultQRSize is the edge length in pixels of a printed stamp.
const DefaultQRSize = 256

// Canonical encodes v as MessagePack with map keys sorted, so equal values
// always produce equal bytes regardless of map iteration order.
func Canonical(v any) ([]byte, error) {
	buf := encodeBuffers.Get()
	defer encodeBuffers.Put(buf)
	if err := encodeTo(buf, v); err != nil {
		return nil, err
	}
	return bytes.Clone(buf.Bytes()), nil
}

// Digest returns the hex SHA-256 of the canonical encoding of v.
func Digest(v any) (string, error) {
	buf := encodeBuffers.Get()
	defer encodeBuffers.Put(buf)
	if err := encodeTo(buf, v); err != nil {
		return "", err
	}
	return Sum(buf.Bytes()), nil
}

// Sum returns the hex SHA-256 of data. Sum(Canonical(v)) equals Digest(v).
func Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func encodeTo(buf *bytes.Buffer, v any) error {
	enc := msgpack.NewEncoder(buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("canonical encode: %w", err)
	}
	return nil
}

// QRCode renders digest as a PNG QR code. size <= 0 uses DefaultQRSize.
func QRCode(digest string, size int) ([]byte, error) {
	if digest == "" {
		return nil, fmt.Errorf("qr stamp: empty digest")
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode("sha256:"+digest, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qr stamp: %w", err)
	}
	return png, nil
}
