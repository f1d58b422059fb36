// Package webpush implements the aes128gcm content encryption used for
// browser push messages. The output of Encrypt is a self-describing binary
// blob the receiving browser can decrypt with its subscription keys.
package webpush

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/ZenSolar/zensolar-sub004/internal/codec"
	"github.com/ZenSolar/zensolar-sub004/internal/errs"
)

const (
	saltSize       = 16
	recordSize     = 4096
	keyIDSize      = 65 // uncompressed P-256 point
	headerSize     = saltSize + 4 + 1 + keyIDSize
	authSecretSize = 16
	cekSize        = 16
	nonceSize      = 12
	tagSize        = 16
	delimiter      = 0x02 // last record, no padding
)

var (
	infoIKM   = []byte("WebPush: info\x00")
	infoCEK   = []byte("Content-Encoding: aes128gcm\x00")
	infoNonce = []byte("Content-Encoding: nonce\x00")
)

// MaxPlaintext is the largest payload a single record can carry after the
// header, delimiter and authentication tag are accounted for.
const MaxPlaintext = recordSize - headerSize - tagSize - 1

// Encrypt seals plaintext for the subscription identified by clientPub
// (65-byte uncompressed point) and authSecret (16 bytes). A fresh ephemeral
// key pair and salt are drawn for every call; reusing either across
// messages would leak information between them.
func Encrypt(clientPub, authSecret, plaintext []byte) ([]byte, error) {
	ephemeral, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ephemeral key: %w", err)
	}
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return encrypt(ephemeral, salt, clientPub, authSecret, plaintext)
}

// encrypt is the deterministic core: all randomness arrives as arguments.
func encrypt(ephemeral *ecdh.PrivateKey, salt, clientPub, authSecret, plaintext []byte) ([]byte, error) {
	if len(authSecret) != authSecretSize {
		return nil, fmt.Errorf("auth secret length %d: %w", len(authSecret), errs.ErrMalformedInput)
	}
	if len(plaintext) > MaxPlaintext {
		return nil, fmt.Errorf("plaintext %d bytes exceeds %d: %w", len(plaintext), MaxPlaintext, errs.ErrPayloadTooLarge)
	}
	peer, err := ecdh.P256().NewPublicKey(clientPub)
	if err != nil {
		return nil, fmt.Errorf("client public key: %w", errs.ErrMalformedInput)
	}
	secret, err := ephemeral.ECDH(peer)
	if err != nil {
		return nil, fmt.Errorf("ecdh: %w", err)
	}
	ephemeralPub := ephemeral.PublicKey().Bytes()

	cek, nonce := deriveKeys(secret, authSecret, salt, clientPub, ephemeralPub)
	aead, err := newAEAD(cek)
	if err != nil {
		return nil, err
	}

	record := make([]byte, 0, len(plaintext)+1)
	record = append(record, plaintext...)
	record = append(record, delimiter)

	out := make([]byte, 0, headerSize+len(record)+tagSize)
	out = append(out, salt...)
	out = binary.BigEndian.AppendUint32(out, recordSize)
	out = append(out, keyIDSize)
	out = append(out, ephemeralPub...)
	return aead.Seal(out, nonce, record, nil), nil
}

// Decrypt is the companion operation: it opens a blob produced by Encrypt
// using the subscription's private scalar (32 bytes) and auth secret. Used
// in tests and for diagnosing captured messages; the browser performs the
// equivalent on delivery.
func Decrypt(clientPriv, authSecret, message []byte) ([]byte, error) {
	if len(authSecret) != authSecretSize {
		return nil, fmt.Errorf("auth secret length %d: %w", len(authSecret), errs.ErrMalformedInput)
	}
	if len(message) < headerSize+1+tagSize {
		return nil, fmt.Errorf("message %d bytes too short: %w", len(message), errs.ErrMalformedInput)
	}
	salt := message[:saltSize]
	if idLen := message[saltSize+4]; idLen != keyIDSize {
		return nil, fmt.Errorf("key id length %d: %w", idLen, errs.ErrMalformedInput)
	}
	senderPub := message[saltSize+5 : headerSize]
	ciphertext := message[headerSize:]

	priv, err := ecdh.P256().NewPrivateKey(clientPriv)
	if err != nil {
		return nil, fmt.Errorf("client private key: %w", errs.ErrMalformedInput)
	}
	peer, err := ecdh.P256().NewPublicKey(senderPub)
	if err != nil {
		return nil, fmt.Errorf("sender public key: %w", errs.ErrMalformedInput)
	}
	secret, err := priv.ECDH(peer)
	if err != nil {
		return nil, fmt.Errorf("ecdh: %w", err)
	}

	cek, nonce := deriveKeys(secret, authSecret, salt, priv.PublicKey().Bytes(), senderPub)
	aead, err := newAEAD(cek)
	if err != nil {
		return nil, err
	}
	record, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("open record: %w", err)
	}

	// Strip any zero padding, then the delimiter byte.
	i := len(record) - 1
	for i >= 0 && record[i] == 0x00 {
		i--
	}
	if i < 0 || record[i] != delimiter {
		return nil, fmt.Errorf("missing record delimiter: %w", errs.ErrMalformedInput)
	}
	return record[:i], nil
}

// deriveKeys runs the key schedule: auth-secret-salted extract over the
// ECDH secret bound to both public keys, then per-message CEK and nonce
// keyed by the salt.
func deriveKeys(secret, authSecret, salt, clientPub, senderPub []byte) (cek, nonce []byte) {
	info := make([]byte, 0, len(infoIKM)+2*keyIDSize)
	info = append(info, infoIKM...)
	info = append(info, clientPub...)
	info = append(info, senderPub...)
	ikm := codec.HKDF(authSecret, secret, info, 32)
	cek = codec.HKDF(salt, ikm, infoCEK, cekSize)
	nonce = codec.HKDF(salt, ikm, infoNonce, nonceSize)
	return cek, nonce
}

func newAEAD(cek []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
