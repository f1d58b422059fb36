// Package codec contains byte-level primitives shared by the push crypto
// engines: unpadded base64url, HKDF-SHA256 and ECDSA signature re-encoding.
package codec

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/hkdf"

	"github.com/ZenSolar/zensolar-sub004/internal/errs"
)

// Base64Encode encodes b as base64url without padding, the encoding used
// throughout the push wire formats.
func Base64Encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// Base64Decode decodes unpadded base64url, tolerating input that still
// carries padding or arrives with it stripped.
func Base64Decode(s string) ([]byte, error) {
	s = strings.TrimRight(s, "=")
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("base64url decode: %w", errs.ErrMalformedInput)
	}
	return b, nil
}

// HKDF derives length bytes via HKDF-SHA256. Every key and nonce in this
// system fits a single SHA-256 block, so length is capped at 32.
func HKDF(salt, ikm, info []byte, length int) []byte {
	if length > sha256.Size {
		panic("codec: hkdf length exceeds one block")
	}
	out := make([]byte, length)
	r := hkdf.New(sha256.New, ikm, salt, info)
	if _, err := r.Read(out); err != nil {
		// Read from an hkdf reader only fails past the expand limit,
		// which the length cap rules out.
		panic(err)
	}
	return out
}

// SignatureToFixed converts an ASN.1 DER ECDSA signature
// (SEQUENCE{INTEGER r, INTEGER s}) into fixed-width r||s with each
// coordinate left-padded to coordSize bytes. Input that is already
// 2*coordSize bytes is returned unchanged, so signers that emit
// fixed-width output pass through.
func SignatureToFixed(sig []byte, coordSize int) ([]byte, error) {
	if len(sig) == 2*coordSize {
		return sig, nil
	}
	p := derParser{buf: sig}
	body, err := p.element(0x30)
	if err != nil {
		return nil, err
	}
	if len(p.buf) != 0 {
		return nil, fmt.Errorf("trailing bytes after sequence: %w", errs.ErrInvalidSignatureEncoding)
	}
	q := derParser{buf: body}
	r, err := q.element(0x02)
	if err != nil {
		return nil, err
	}
	s, err := q.element(0x02)
	if err != nil {
		return nil, err
	}
	if len(q.buf) != 0 {
		return nil, fmt.Errorf("trailing bytes after integers: %w", errs.ErrInvalidSignatureEncoding)
	}
	out := make([]byte, 2*coordSize)
	if err := padCoordinate(out[:coordSize], r); err != nil {
		return nil, err
	}
	if err := padCoordinate(out[coordSize:], s); err != nil {
		return nil, err
	}
	return out, nil
}

// derParser reads tagged elements from a slice with explicit bounds checks.
type derParser struct{ buf []byte }

// element consumes one short-form tag-length-value element with the given
// tag and returns its contents. P-256 signatures never need long-form
// lengths, so the high length bit is rejected outright.
func (p *derParser) element(tag byte) ([]byte, error) {
	if len(p.buf) < 2 {
		return nil, fmt.Errorf("truncated element: %w", errs.ErrInvalidSignatureEncoding)
	}
	if p.buf[0] != tag {
		return nil, fmt.Errorf("unexpected tag 0x%02x: %w", p.buf[0], errs.ErrInvalidSignatureEncoding)
	}
	n := int(p.buf[1])
	if n >= 0x80 {
		return nil, fmt.Errorf("long-form length: %w", errs.ErrInvalidSignatureEncoding)
	}
	if n > len(p.buf)-2 {
		return nil, fmt.Errorf("length %d exceeds buffer: %w", n, errs.ErrInvalidSignatureEncoding)
	}
	v := p.buf[2 : 2+n]
	p.buf = p.buf[2+n:]
	return v, nil
}

// padCoordinate writes an unsigned big-endian integer into dst, stripping
// the sign-disambiguation zero byte DER prepends to high-bit values.
func padCoordinate(dst, v []byte) error {
	if len(v) > 1 && v[0] == 0x00 {
		v = v[1:]
	}
	if len(v) > len(dst) {
		return fmt.Errorf("integer wider than coordinate: %w", errs.ErrInvalidSignatureEncoding)
	}
	copy(dst[len(dst)-len(v):], v)
	return nil
}
