// Package tc3 implements the Tencent Cloud TC3-HMAC-SHA256 request
// signing scheme for the TMT text translation API. The construction is
// byte-exact: canonical request, string-to-sign, and the derived key
// chain must match the server-side verification or the request is
// rejected with an AuthFailure code.
package tc3

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const (
	// Algorithm is the signing algorithm identifier sent in the
	// Authorization header.
	Algorithm = "TC3-HMAC-SHA256"

	service       = "tmt"
	requestSuffix = "tc3_request"
	signedHeaders = "content-type;host"
)

// SHA256Hex returns the lowercase hex-encoded SHA-256 digest of message.
func SHA256Hex(message []byte) string {
	sum := sha256.Sum256(message)
	return hex.EncodeToString(sum[:])
}

// HMACSHA256 returns the raw HMAC-SHA256 of message under key.
func HMACSHA256(key []byte, message string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return mac.Sum(nil)
}

// SignInput carries everything needed to produce an Authorization header.
type SignInput struct {
	SecretID  string
	SecretKey string
	Host      string
	Payload   []byte
	Timestamp int64
}

// Authorization builds the TC3 Authorization header value for a signed
// JSON POST to the root path of in.Host.
func Authorization(in SignInput) (string, error) {
	if strings.TrimSpace(in.SecretID) == "" || strings.TrimSpace(in.SecretKey) == "" {
		return "", fmt.Errorf("secret id and secret key are required")
	}
	host := strings.TrimSpace(in.Host)
	if host == "" {
		return "", fmt.Errorf("host is required")
	}

	date := time.Unix(in.Timestamp, 0).UTC().Format("2006-01-02")

	canonicalRequest := strings.Join([]string{
		"POST",
		"/",
		"",
		"content-type:application/json\nhost:" + host + "\n",
		signedHeaders,
		SHA256Hex(in.Payload),
	}, "\n")

	credentialScope := fmt.Sprintf("%s/%s/%s", date, service, requestSuffix)
	stringToSign := fmt.Sprintf(
		"%s\n%d\n%s\n%s",
		Algorithm,
		in.Timestamp,
		credentialScope,
		SHA256Hex([]byte(canonicalRequest)),
	)

	kDate := HMACSHA256([]byte("TC3"+in.SecretKey), date)
	kService := HMACSHA256(kDate, service)
	kSigning := HMACSHA256(kService, requestSuffix)
	signature := hex.EncodeToString(HMACSHA256(kSigning, stringToSign))

	return fmt.Sprintf(
		"%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		Algorithm,
		in.SecretID,
		credentialScope,
		signedHeaders,
		signature,
	), nil
}
