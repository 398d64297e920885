package signature

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/errors"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/util"
)

// Request headers carried by every inter-service call.
const (
	HeaderSignature = "X-HMAC-Signature"
	HeaderTimestamp = "X-Timestamp"
	HeaderAPIKey    = "X-API-Key"
)

// buildMessage is the canonical signing input. The body hash makes the
// signature cover the payload without requiring the verifier to buffer the
// raw bytes alongside the signature itself.
func buildMessage(method, path, timestamp string, body []byte) string {
	return fmt.Sprintf("%s:%s:%s:%s", method, path, timestamp, util.SHA256Hex(body))
}

// Signer computes request signatures for the edge process.
type Signer struct {
	apiKey string
	secret string
}

func NewSigner(apiKey, secret string) *Signer {
	return &Signer{apiKey: apiKey, secret: secret}
}

// Sign returns the signature and timestamp for a request at time now.
func (s *Signer) Sign(method, path string, body []byte, now time.Time) (sig, timestamp string) {
	timestamp = strconv.FormatInt(now.Unix(), 10)
	sig = util.HmacSHA256Hex(s.secret, buildMessage(method, path, timestamp, body))
	return sig, timestamp
}

// Apply signs req in place, setting the signature, timestamp and API key
// headers. The request body is buffered and restored.
func (s *Signer) Apply(req *http.Request) error {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return err
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	sig, timestamp := s.Sign(req.Method, req.URL.Path, body, time.Now())
	req.Header.Set(HeaderSignature, sig)
	req.Header.Set(HeaderTimestamp, timestamp)
	req.Header.Set(HeaderAPIKey, s.apiKey)
	return nil
}

// Transport is an http.RoundTripper that signs every outbound request,
// so the edge process can use a plain *http.Client.
type Transport struct {
	Signer *Signer
	Base   http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	if err := t.Signer.Apply(cloned); err != nil {
		return nil, err
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(cloned)
}

// Verifier validates inter-service signatures on the backend.
type Verifier struct {
	secret    string
	apiKeys   map[string]string // key value -> service name
	tolerance time.Duration
}

func NewVerifier(secret string, apiKeys map[string]string, tolerance time.Duration) *Verifier {
	return &Verifier{secret: secret, apiKeys: apiKeys, tolerance: tolerance}
}

// errUnauthorized is the single failure surfaced for every check: missing
// headers, unknown key, stale timestamp or signature mismatch must be
// indistinguishable to the caller.
func errUnauthorized() *apperrors.AppError {
	return apperrors.Unauthorized("Unauthorized")
}

// Verify checks a request's signature metadata at time now and returns the
// name of the calling service on success.
func (v *Verifier) Verify(method, path string, body []byte, apiKey, timestamp, sig string, now time.Time) (string, error) {
	if apiKey == "" || timestamp == "" || sig == "" {
		return "", errUnauthorized()
	}

	service, known := v.apiKeys[apiKey]
	if !known {
		return "", errUnauthorized()
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return "", errUnauthorized()
	}

	// Freshness bounds replay exposure independent of signature validity.
	age := now.Sub(time.Unix(ts, 0))
	if age > v.tolerance || age < -v.tolerance {
		return "", errUnauthorized()
	}

	expected := util.HmacSHA256Hex(v.secret, buildMessage(method, path, timestamp, body))
	if !util.ConstantTimeEqual(expected, sig) {
		return "", errUnauthorized()
	}

	return service, nil
}
