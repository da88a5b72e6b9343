package ticketing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"sync"
)

// Signer produces the canonical query string and HMAC signature the upstream
// API expects on every request.
//
// The string that gets signed is "{signPrefix}{path}?{canonicalQuery}". The
// prefix is a per-endpoint contract: some endpoints want a version prefix in
// the signed string that is not part of the request path, and getting it wrong
// yields auth failures that look like bad credentials. Each Endpoint carries
// its own prefix rather than assuming one constant.
type Signer struct {
	secret string

	mu   sync.Mutex
	memo map[string]string
}

func NewSigner(secret string) *Signer {
	return &Signer{
		secret: secret,
		memo:   make(map[string]string),
	}
}

// Sign returns the canonical query string and the hex-encoded HMAC-SHA256
// signature for the given endpoint and parameters.
//
// Signatures are memoized per signed string, which covers every parameter.
// Timestamps are second-granular, so two requests inside the same second can
// share a timestamp while differing in other parameters (the page counter
// does exactly that); anything coarser than the full canonical input would
// hand one request another request's signature. The memo lives on the
// Signer, which is scoped to one client, not the process.
func (s *Signer) Sign(ep Endpoint, params url.Values) (string, string) {
	canonical := CanonicalQuery(params)
	key := ep.SignPrefix + ep.Path + "?" + canonical

	s.mu.Lock()
	if hit, ok := s.memo[key]; ok {
		s.mu.Unlock()
		return canonical, hit
	}
	s.mu.Unlock()

	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write([]byte(key))
	signature := hex.EncodeToString(mac.Sum(nil))

	s.mu.Lock()
	s.memo[key] = signature
	s.mu.Unlock()

	return canonical, signature
}

// CanonicalQuery serializes params deterministically: keys sorted
// lexicographically, each value URL-encoded, pairs joined with "&".
func CanonicalQuery(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params.Get(k)))
	}
	return b.String()
}
