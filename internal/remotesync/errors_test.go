package remotesync

import (
	"crypto/x509"
	"errors"
	"net"
	"net/url"
	"syscall"
	"testing"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyTransportError(t *testing.T) {
	wrap := func(err error) error {
		return &url.Error{Op: "Get", URL: "http://dev.local/a.json", Err: err}
	}

	tests := []struct {
		name     string
		err      error
		wantType ErrorType
		wantCode int
	}{
		{
			name:     "timeout",
			err:      wrap(&net.OpError{Op: "dial", Net: "tcp", Err: timeoutError{}}),
			wantType: ErrTypeTimeout,
			wantCode: StatusTimeout,
		},
		{
			name:     "connection refused",
			err:      wrap(&net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}),
			wantType: ErrTypeConnectionRefused,
			wantCode: StatusConnectionFailed,
		},
		{
			name:     "connection reset",
			err:      wrap(&net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET}),
			wantType: ErrTypeNetwork,
			wantCode: StatusConnectionFailed,
		},
		{
			name:     "host unreachable",
			err:      wrap(&net.OpError{Op: "dial", Net: "tcp", Err: syscall.EHOSTUNREACH}),
			wantType: ErrTypeNetwork,
			wantCode: StatusConnectionFailed,
		},
		{
			name:     "dns",
			err:      wrap(&net.OpError{Op: "dial", Net: "tcp", Err: &net.DNSError{Err: "no such host", Name: "dev.local", IsNotFound: true}}),
			wantType: ErrTypeDNS,
			wantCode: StatusDNSFailed,
		},
		{
			name:     "tls unknown authority",
			err:      wrap(x509.UnknownAuthorityError{}),
			wantType: ErrTypeTLS,
			wantCode: StatusTLSFailed,
		},
		{
			name:     "unknown",
			err:      wrap(errors.New("unsupported protocol scheme")),
			wantType: ErrTypeUnknown,
			wantCode: StatusRequestFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := ClassifyTransportError(tt.err)
			if te == nil {
				t.Fatal("expected TransportError, got nil")
			}
			if te.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", te.Type, tt.wantType)
			}
			if te.Code != tt.wantCode {
				t.Errorf("Code = %d, want %d", te.Code, tt.wantCode)
			}
			if te.Code >= StatusNoLink {
				t.Errorf("transport code %d must be below StatusNoLink", te.Code)
			}
			if !errors.Is(te, tt.err) {
				t.Error("TransportError should unwrap to the original error")
			}
		})
	}

	if ClassifyTransportError(nil) != nil {
		t.Error("ClassifyTransportError(nil) should be nil")
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{StatusNoLink, "not attempted: no network link"},
		{StatusTimeout, "request timed out"},
		{200, "ok"},
		{404, "store rejected the request (HTTP 404)"},
		{-42, "unknown status -42"},
	}
	for _, tt := range tests {
		if got := Describe(tt.code); got != tt.want {
			t.Errorf("Describe(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestTroubleshootingHints(t *testing.T) {
	for _, code := range []int{StatusNoLink, StatusDNSFailed, StatusConnectionFailed, StatusTimeout, StatusTLSFailed, 401} {
		if len(TroubleshootingHints(code)) == 0 {
			t.Errorf("TroubleshootingHints(%d) should not be empty", code)
		}
	}
	if TroubleshootingHints(200) != nil {
		t.Error("a successful code needs no hints")
	}
}

func TestErrorTypeString(t *testing.T) {
	if ErrTypeTLS.String() != "TLS Error" {
		t.Errorf("ErrTypeTLS.String() = %q", ErrTypeTLS.String())
	}
	if ErrorType(99).String() != "ErrorType(99)" {
		t.Errorf("ErrorType(99).String() = %q", ErrorType(99).String())
	}
}
