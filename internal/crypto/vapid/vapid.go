// Package vapid builds the signed sender-identity tokens (RFC 8292) that
// accompany every push delivery. Tokens are scoped to the push service
// origin and cached per audience until close to expiry.
package vapid

import (
	"bytes"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math/big"
	"net/url"
	"sync"
	"time"

	"github.com/ZenSolar/zensolar-sub004/internal/codec"
	"github.com/ZenSolar/zensolar-sub004/internal/errs"
)

const (
	privateKeySize = 32
	publicKeySize  = 65
	coordinateSize = 32

	// refreshMargin is how long before token expiry a cached entry stops
	// being reused.
	refreshMargin = time.Hour
)

// jwtHeader is fixed: every token is an ES256 JWT.
var jwtHeader = codec.Base64Encode([]byte(`{"typ":"JWT","alg":"ES256"}`))

// Keys holds the process-wide VAPID key pair. Loaded once at startup and
// never regenerated mid-process.
type Keys struct {
	private *ecdsa.PrivateKey
	public  []byte // uncompressed point, as sent in the k= parameter
}

// PublicKey returns the raw uncompressed public point.
func (k *Keys) PublicKey() []byte { return k.public }

// DecodeKeys parses a base64url key pair as distributed in configuration:
// a 65-byte uncompressed public point and a 32-byte private scalar. Any
// absence or mismatch is a startup-fatal configuration error.
func DecodeKeys(publicB64, privateB64 string) (*Keys, error) {
	if publicB64 == "" || privateB64 == "" {
		return nil, fmt.Errorf("vapid key pair not set: %w", errs.ErrConfigurationMissing)
	}
	pub, err := codec.Base64Decode(publicB64)
	if err != nil {
		return nil, fmt.Errorf("vapid public key: %w", errs.ErrConfigurationMissing)
	}
	priv, err := codec.Base64Decode(privateB64)
	if err != nil {
		return nil, fmt.Errorf("vapid private key: %w", errs.ErrConfigurationMissing)
	}
	if len(pub) != publicKeySize || pub[0] != 0x04 {
		return nil, fmt.Errorf("vapid public key is not an uncompressed P-256 point: %w", errs.ErrConfigurationMissing)
	}
	if len(priv) != privateKeySize {
		return nil, fmt.Errorf("vapid private key length %d: %w", len(priv), errs.ErrConfigurationMissing)
	}
	// Validate the scalar and confirm the configured point matches it.
	ep, err := ecdh.P256().NewPrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("vapid private key invalid: %w", errs.ErrConfigurationMissing)
	}
	if !bytes.Equal(ep.PublicKey().Bytes(), pub) {
		return nil, fmt.Errorf("vapid public key does not match private key: %w", errs.ErrConfigurationMissing)
	}
	key := &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{
			Curve: elliptic.P256(),
			X:     new(big.Int).SetBytes(pub[1 : 1+coordinateSize]),
			Y:     new(big.Int).SetBytes(pub[1+coordinateSize:]),
		},
		D: new(big.Int).SetBytes(priv),
	}
	return &Keys{private: key, public: pub}, nil
}

// GenerateKeys produces a fresh base64url-encoded key pair, for initial
// provisioning and tests.
func GenerateKeys() (publicB64, privateB64 string, err error) {
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return "", "", err
	}
	return codec.Base64Encode(priv.PublicKey().Bytes()), codec.Base64Encode(priv.Bytes()), nil
}

// claims is the signed assertion: audience is the push service origin, not
// the full endpoint.
type claims struct {
	Aud string `json:"aud"`
	Exp int64  `json:"exp"`
	Sub string `json:"sub"`
}

type cachedHeader struct {
	value   string
	expires time.Time
}

// Signer issues Authorization header values, caching one token per push
// service origin until refreshMargin before its expiry.
type Signer struct {
	keys     *Keys
	subject  string
	tokenTTL time.Duration
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]cachedHeader
}

// NewSigner constructs a Signer. subject is the operator contact URI
// (e.g. "mailto:ops@example.com").
func NewSigner(keys *Keys, subject string, tokenTTL time.Duration) (*Signer, error) {
	if subject == "" {
		return nil, fmt.Errorf("vapid subject not set: %w", errs.ErrConfigurationMissing)
	}
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &Signer{
		keys:     keys,
		subject:  subject,
		tokenTTL: tokenTTL,
		now:      time.Now,
		cache:    make(map[string]cachedHeader),
	}, nil
}

// Authorization returns the header value for a delivery to endpoint, in the
// form "vapid t=<jwt>, k=<base64url public key>".
func (s *Signer) Authorization(endpoint string) (string, error) {
	aud, err := Audience(endpoint)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if c, ok := s.cache[aud]; ok && s.now().Before(c.expires.Add(-refreshMargin)) {
		s.mu.Unlock()
		return c.value, nil
	}
	s.mu.Unlock()

	exp := s.now().Add(s.tokenTTL)
	token, err := s.sign(aud, exp)
	if err != nil {
		return "", err
	}
	header := "vapid t=" + token + ", k=" + codec.Base64Encode(s.keys.public)

	s.mu.Lock()
	s.cache[aud] = cachedHeader{value: header, expires: exp}
	s.mu.Unlock()
	return header, nil
}

// sign assembles and signs the JWT for one audience.
func (s *Signer) sign(aud string, exp time.Time) (string, error) {
	body, err := json.Marshal(claims{Aud: aud, Exp: exp.Unix(), Sub: s.subject})
	if err != nil {
		return "", err
	}
	signingInput := jwtHeader + "." + codec.Base64Encode(body)
	digest := sha256.Sum256([]byte(signingInput))
	der, err := ecdsa.SignASN1(rand.Reader, s.keys.private, digest[:])
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	fixed, err := codec.SignatureToFixed(der, coordinateSize)
	if err != nil {
		return "", err
	}
	return signingInput + "." + codec.Base64Encode(fixed), nil
}

// Audience extracts the push service origin (scheme://host) a token must be
// scoped to. The endpoint path never participates.
func Audience(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("endpoint %q: %w", endpoint, errs.ErrMalformedInput)
	}
	return u.Scheme + "://" + u.Host, nil
}
