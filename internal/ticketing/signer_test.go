package ticketing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalQuerySortsAndEncodes(t *testing.T) {
	params := url.Values{}
	params.Set("timestamp", "1700000000")
	params.Set("key", "abc")
	params.Set("status", "COMPLETE ORDERS")

	got := CanonicalQuery(params)
	assert.Equal(t, "key=abc&status=COMPLETE+ORDERS&timestamp=1700000000", got)
}

func TestSignMatchesManualHMAC(t *testing.T) {
	signer := NewSigner("topsecret")
	ep := Endpoint{Path: "/events/42/orders", SignPrefix: "/v1"}

	params := url.Values{}
	params.Set("key", "abc")
	params.Set("timestamp", "1700000000")

	canonical, signature := signer.Sign(ep, params)

	mac := hmac.New(sha256.New, []byte("topsecret"))
	mac.Write([]byte("/v1/events/42/orders?" + canonical))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), signature)
}

func TestSignPrefixChangesSignature(t *testing.T) {
	params := url.Values{}
	params.Set("key", "abc")
	params.Set("timestamp", "1700000000")

	_, withPrefix := NewSigner("s").Sign(Endpoint{Path: "/a", SignPrefix: "/v1"}, params)
	_, bare := NewSigner("s").Sign(Endpoint{Path: "/a"}, params)
	assert.NotEqual(t, withPrefix, bare)
}

func TestSignDistinguishesParamsSharingATimestamp(t *testing.T) {
	signer := NewSigner("s")
	ep := Endpoint{Path: "/events/42/orders", SignPrefix: "/v1"}

	// Second-granular timestamps repeat across back-to-back page fetches;
	// each page must still get its own canonical string and signature.
	page1 := url.Values{"timestamp": {"1700000000"}, "key": {"k"}, "page": {"1"}}
	page2 := url.Values{"timestamp": {"1700000000"}, "key": {"k"}, "page": {"2"}}

	canonical1, sig1 := signer.Sign(ep, page1)
	canonical2, sig2 := signer.Sign(ep, page2)

	assert.NotEqual(t, canonical1, canonical2)
	assert.NotEqual(t, sig1, sig2)
	assert.Contains(t, canonical1, "page=1")
	assert.Contains(t, canonical2, "page=2")
}

func TestSignMemoizesPerTimestamp(t *testing.T) {
	signer := NewSigner("s")
	ep := Endpoint{Path: "/a"}

	p1 := url.Values{"timestamp": {"100"}, "key": {"k"}}
	_, first := signer.Sign(ep, p1)
	_, again := signer.Sign(ep, p1)
	assert.Equal(t, first, again)

	p2 := url.Values{"timestamp": {"101"}, "key": {"k"}}
	_, later := signer.Sign(ep, p2)
	assert.NotEqual(t, first, later)
}
