package translation

import "fmt"

// ErrorKind classifies a provider call failure.
type ErrorKind string

const (
	// KindMissingCredential means the call was never attempted because
	// required credential fields were blank.
	KindMissingCredential ErrorKind = "missing_credential"
	// KindTransport covers network failures and request construction
	// problems before an HTTP status was received.
	KindTransport ErrorKind = "transport"
	// KindHTTPStatus is a non-2xx HTTP response.
	KindHTTPStatus ErrorKind = "http_status"
	// KindBusiness is a provider-level error code in a 2xx response.
	KindBusiness ErrorKind = "business"
	// KindEmptyResult means the provider answered but produced no text.
	KindEmptyResult ErrorKind = "empty_result"
)

// ProviderError is the uniform failure type for provider calls. All
// kinds are isolated per-provider by the aggregator; none is fatal to
// the overall request.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Status   int
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	switch e.Kind {
	case KindMissingCredential:
		return fmt.Sprintf("%s: credential is not configured", e.Provider)
	case KindHTTPStatus:
		return fmt.Sprintf("%s: http status %d", e.Provider, e.Status)
	case KindBusiness:
		return fmt.Sprintf("%s: [%s] %s", e.Provider, e.Code, e.Message)
	case KindEmptyResult:
		return fmt.Sprintf("%s: empty translation result", e.Provider)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Provider, e.Err)
		}
		return fmt.Sprintf("%s: transport failure", e.Provider)
	}
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func missingCredentialErr(provider string) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindMissingCredential}
}

func transportErr(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindTransport, Err: err}
}

func httpStatusErr(provider string, status int) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindHTTPStatus, Status: status}
}

func businessErr(provider, code, message string) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindBusiness, Code: code, Message: message}
}

func emptyResultErr(provider string) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindEmptyResult}
}
