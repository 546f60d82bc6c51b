// Package payment implements coin purchases through an external payment
// gateway. Purchases start as pending payments behind a signed redirect URL;
// the gateway callback reconciles them and credits coins exactly once.
package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Signer produces and verifies the HMAC-SHA512 signatures the gateway
// requires on redirect URLs and callbacks. The signature covers all
// parameters sorted alphabetically with URL-encoded values, matching the
// gateway's canonical form.
type Signer struct {
	secret []byte
}

// NewSigner creates a signer for the given merchant secret
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign computes the hex signature over the canonical form of params.
// Empty values are excluded, as the gateway omits them from its own hash.
func (s *Signer) Sign(params url.Values) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		if params.Get(key) != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var data strings.Builder
	for i, key := range keys {
		if i > 0 {
			data.WriteByte('&')
		}
		data.WriteString(key)
		data.WriteByte('=')
		data.WriteString(url.QueryEscape(params.Get(key)))
	}

	mac := hmac.New(sha512.New, s.secret)
	mac.Write([]byte(data.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignedQuery returns the encoded query string with the signature appended
func (s *Signer) SignedQuery(params url.Values) string {
	signature := s.Sign(params)
	return params.Encode() + "&vnp_SecureHash=" + signature
}

// Verify checks a callback signature in constant time. The signature
// parameters themselves are excluded from the hash.
func (s *Signer) Verify(params url.Values, signature string) bool {
	filtered := url.Values{}
	for key, values := range params {
		if key == "vnp_SecureHash" || key == "vnp_SecureHashType" {
			continue
		}
		filtered[key] = values
	}

	expected := s.Sign(filtered)
	return hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected))
}
