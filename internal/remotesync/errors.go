package remotesync

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
)

// Status codes returned by sync operations that never produced an HTTP
// response. All are negative so callers can test "code > 0" for a response.
const (
	// StatusNoLink means no request was attempted because the link was down.
	StatusNoLink = -1
	// StatusConnectionFailed covers refused, reset and unreachable connections.
	StatusConnectionFailed = -2
	// StatusDNSFailed means the store host name could not be resolved.
	StatusDNSFailed = -3
	// StatusTimeout means the request exceeded the client timeout.
	StatusTimeout = -4
	// StatusTLSFailed means the TLS handshake or certificate check failed.
	StatusTLSFailed = -5
	// StatusRequestFailed covers request construction and other send errors.
	StatusRequestFailed = -6
	// StatusReadFailure means the response body could not be read.
	StatusReadFailure = -7
)

// ErrorType represents the category of transport failure
type ErrorType int

const (
	ErrTypeNetwork ErrorType = iota
	ErrTypeConnectionRefused
	ErrTypeDNS
	ErrTypeTimeout
	ErrTypeTLS
	ErrTypeRead
	ErrTypeUnknown
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeTLS:
		return "TLS Error"
	case ErrTypeRead:
		return "Read Error"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// TransportError describes why a request produced no HTTP response.
type TransportError struct {
	Type    ErrorType // Category of failure
	Code    int       // Negative status code reported to the caller
	Message string    // Human-readable message
	Err     error     // Underlying error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ClassifyTransportError maps an http.Client error to a TransportError.
func ClassifyTransportError(err error) *TransportError {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) {
		return &TransportError{Type: ErrTypeTimeout, Code: StatusTimeout, Message: "Request timed out", Err: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &TransportError{
			Type:    ErrTypeDNS,
			Code:    StatusDNSFailed,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:     err,
		}
	}

	if isTLSError(err) {
		return &TransportError{Type: ErrTypeTLS, Code: StatusTLSFailed, Message: "TLS negotiation failed", Err: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return &TransportError{Type: ErrTypeConnectionRefused, Code: StatusConnectionFailed, Message: "Store refused connection", Err: err}
		case errors.Is(opErr.Err, syscall.ECONNRESET):
			return &TransportError{Type: ErrTypeNetwork, Code: StatusConnectionFailed, Message: "Connection reset", Err: err}
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return &TransportError{Type: ErrTypeNetwork, Code: StatusConnectionFailed, Message: "Host unreachable", Err: err}
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return &TransportError{Type: ErrTypeNetwork, Code: StatusConnectionFailed, Message: "Network unreachable", Err: err}
		}
		return &TransportError{Type: ErrTypeNetwork, Code: StatusConnectionFailed, Message: "Network error occurred", Err: err}
	}

	if errors.Is(err, syscall.ECONNRESET) {
		return &TransportError{Type: ErrTypeNetwork, Code: StatusConnectionFailed, Message: "Connection reset", Err: err}
	}

	return &TransportError{Type: ErrTypeUnknown, Code: StatusRequestFailed, Message: "Request failed", Err: err}
}

func isTLSError(err error) bool {
	var (
		unknownAuthority x509.UnknownAuthorityError
		invalidCert      x509.CertificateInvalidError
		hostname         x509.HostnameError
		recordHeader     tls.RecordHeaderError
		verification     *tls.CertificateVerificationError
		alert            tls.AlertError
	)
	return errors.As(err, &unknownAuthority) ||
		errors.As(err, &invalidCert) ||
		errors.As(err, &hostname) ||
		errors.As(err, &recordHeader) ||
		errors.As(err, &verification) ||
		errors.As(err, &alert)
}

// Describe returns a short explanation of a sync status code.
func Describe(code int) string {
	switch {
	case code == StatusNoLink:
		return "not attempted: no network link"
	case code == StatusConnectionFailed:
		return "connection failed"
	case code == StatusDNSFailed:
		return "store host could not be resolved"
	case code == StatusTimeout:
		return "request timed out"
	case code == StatusTLSFailed:
		return "TLS negotiation failed"
	case code == StatusRequestFailed:
		return "request could not be sent"
	case code == StatusReadFailure:
		return "response body could not be read"
	case code >= 200 && code < 300:
		return "ok"
	case code > 0:
		return fmt.Sprintf("store rejected the request (HTTP %d)", code)
	default:
		return fmt.Sprintf("unknown status %d", code)
	}
}

// IsSuccess reports whether code is a 2xx HTTP status.
func IsSuccess(code int) bool {
	return code >= 200 && code < 300
}

// TroubleshootingHints returns operator advice for a sync status code.
func TroubleshootingHints(code int) []string {
	switch code {
	case StatusNoLink:
		return []string{
			"Check that the access point is in range and powered on",
			"Verify link.network_name and link.secret in the config file",
			"Run 'myconode-cfg link' to test the connection",
		}
	case StatusDNSFailed:
		return []string{
			"Check remote.host for typos",
			"Try an IP address instead of a hostname",
			"Run 'myconode-cfg scan' to discover stores on the local network",
		}
	case StatusConnectionFailed:
		return []string{
			"Verify the store is running and reachable from this network",
			"Check the port in remote.host",
		}
	case StatusTimeout:
		return []string{
			"The store did not answer in time",
			"Increase remote.request_timeout_ms",
		}
	case StatusTLSFailed:
		return []string{
			"The store's certificate could not be verified",
			"Check the system clock; certificates fail when it is far off",
		}
	}
	if code == 401 || code == 403 {
		return []string{
			"The store rejected the auth token",
			"Check remote.secret",
		}
	}
	return nil
}
