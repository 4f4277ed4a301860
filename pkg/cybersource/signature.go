package cybersource

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const signatureAlgorithm = "HmacSHA256"

// Signer produces HTTP message signatures for the CyberSource REST API.
type Signer struct {
	merchantID string
	keyID      string
	secret     []byte
	now        func() time.Time
}

// NewSigner decodes the base64 shared secret once so a bad key fails at
// startup rather than on the first charge.
func NewSigner(merchantID, keyID, sharedSecret string) (*Signer, error) {
	if merchantID == "" || keyID == "" || sharedSecret == "" {
		return nil, fmt.Errorf("merchant id, key id and shared secret are required")
	}
	secret, err := base64.StdEncoding.DecodeString(sharedSecret)
	if err != nil {
		return nil, fmt.Errorf("shared secret is not valid base64: %w", err)
	}
	return &Signer{
		merchantID: merchantID,
		keyID:      keyID,
		secret:     secret,
		now:        time.Now,
	}, nil
}

// signedHeaderNames is the single source of truth for which headers are
// signed and in which order. The signing string and the headers="" list of
// the signature header are both built from it.
func signedHeaderNames(hasBody bool) []string {
	names := []string{"host", "date", "(request-target)"}
	if hasBody {
		names = append(names, "digest")
	}
	return append(names, "v-c-merchant-id")
}

// Digest returns the digest header value for body: SHA-256=<base64>.
func Digest(body []byte) string {
	sum := sha256.Sum256(body)
	return "SHA-256=" + base64.StdEncoding.EncodeToString(sum[:])
}

// signingInput holds the values of every signable header for one request.
type signingInput struct {
	host       string
	date       string
	method     string
	target     string
	digest     string
	merchantID string
}

func (in signingInput) value(name string) string {
	switch name {
	case "host":
		return in.host
	case "date":
		return in.date
	case "(request-target)":
		return strings.ToLower(in.method) + " " + in.target
	case "digest":
		return in.digest
	case "v-c-merchant-id":
		return in.merchantID
	}
	return ""
}

// signingString joins "name: value" lines in the order of names.
func signingString(in signingInput, names []string) string {
	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = name + ": " + in.value(name)
	}
	return strings.Join(lines, "\n")
}

func (s *Signer) hmac(data string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Sign sets date, digest, v-c-merchant-id and signature on req. body must be
// the exact bytes sent on the wire; nil means no body.
func (s *Signer) Sign(req *http.Request, body []byte) {
	hasBody := len(body) > 0

	target := req.URL.EscapedPath()
	if req.URL.RawQuery != "" {
		target += "?" + req.URL.RawQuery
	}

	in := signingInput{
		host:       req.URL.Host,
		date:       s.now().UTC().Format(http.TimeFormat),
		method:     req.Method,
		target:     target,
		merchantID: s.merchantID,
	}
	if hasBody {
		in.digest = Digest(body)
		req.Header.Set("Digest", in.digest)
	}

	names := signedHeaderNames(hasBody)
	signature := s.hmac(signingString(in, names))

	req.Host = in.host
	req.Header.Set("Date", in.date)
	req.Header.Set("v-c-merchant-id", s.merchantID)
	req.Header.Set("Signature", fmt.Sprintf(
		`keyid="%s", algorithm="%s", headers="%s", signature="%s"`,
		s.keyID, signatureAlgorithm, strings.Join(names, " "), signature,
	))
}
