package identity

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const defaultKeyTTL = time.Hour

var ErrUnknownKey = errors.New("unknown signing key")

// KeySet fetches and caches the identity provider's RSA public keys.
// The endpoint returns either {"<kid>": "<PEM>", ...} or {"key": "<PEM>"}.
type KeySet struct {
	httpClient *http.Client
	url        string
	now        func() time.Time

	mu      sync.RWMutex
	keys    map[string]*rsa.PublicKey
	expires time.Time
}

func NewKeySet(url string) *KeySet {
	return &KeySet{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		url: url,
		now: time.Now,
	}
}

// Key returns the public key for kid, refreshing the set when it is stale
// or kid is not known yet. An empty kid matches a single-key set.
func (k *KeySet) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, ok := k.lookup(kid); ok {
		return key, nil
	}

	if err := k.refresh(ctx); err != nil {
		return nil, err
	}

	if key, ok := k.lookup(kid); ok {
		return key, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKey, kid)
}

func (k *KeySet) lookup(kid string) (*rsa.PublicKey, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.keys == nil || k.now().After(k.expires) {
		return nil, false
	}
	if key, ok := k.keys[kid]; ok {
		return key, true
	}
	if kid == "" && len(k.keys) == 1 {
		for _, key := range k.keys {
			return key, true
		}
	}
	return nil, false
}

func (k *KeySet) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return fmt.Errorf("create key request: %w", err)
	}

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch public keys: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal public key response: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(raw))
	for kid, pemText := range raw {
		key, err := ParseRSAPublicKey([]byte(pemText))
		if err != nil {
			return fmt.Errorf("key %q: %w", kid, err)
		}
		if kid == "key" {
			kid = ""
		}
		keys[kid] = key
	}
	if len(keys) == 0 {
		return errors.New("identity provider returned no keys")
	}

	k.mu.Lock()
	k.keys = keys
	k.expires = k.now().Add(maxAge(resp.Header.Get("Cache-Control")))
	k.mu.Unlock()
	return nil
}

// ParseRSAPublicKey accepts a PEM encoded X.509 certificate or PKIX public key
func ParseRSAPublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}

	var pub interface{}
	switch block.Type {
	case "CERTIFICATE":
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse certificate: %w", err)
		}
		pub = cert.PublicKey
	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}
		pub = key
	default:
		return nil, fmt.Errorf("unsupported PEM block %q", block.Type)
	}

	rsaKey, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}
	return rsaKey, nil
}

func maxAge(cacheControl string) time.Duration {
	for _, part := range strings.Split(cacheControl, ",") {
		part = strings.TrimSpace(part)
		if v, ok := strings.CutPrefix(part, "max-age="); ok {
			if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}
	return defaultKeyTTL
}
