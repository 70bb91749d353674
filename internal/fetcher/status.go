package fetcher

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/quantmind-br/remotetheme-go/internal/domain"
)

// StatusKind classifies the outcome of an archive request
type StatusKind int

const (
	StatusSuccess StatusKind = iota
	StatusTimeout
	StatusTransportFailure
	StatusHTTPError
)

func (k StatusKind) String() string {
	switch k {
	case StatusSuccess:
		return "success"
	case StatusTimeout:
		return "timeout"
	case StatusTransportFailure:
		return "transport_failure"
	case StatusHTTPError:
		return "http_error"
	default:
		return "unknown"
	}
}

// ResponseStatus describes a response independently of the HTTP client
// that produced it. Code is 0 when no response was received.
type ResponseStatus struct {
	Kind    StatusKind
	Code    int
	Message string
	cause   error
}

// OK reports whether the body may be consumed
func (s ResponseStatus) OK() bool {
	return s.Kind == StatusSuccess
}

// Err converts a failed status into a DownloadError for url
func (s ResponseStatus) Err(url string) error {
	switch s.Kind {
	case StatusSuccess:
		return nil
	case StatusTimeout:
		return domain.NewTimeoutError(url, s.cause)
	case StatusHTTPError:
		return domain.NewHTTPStatusError(url, s.Code, s.Message)
	default:
		return domain.NewTransportError(url, s.Message, s.cause)
	}
}

// ClassifyResponse inspects the outcome of a request before its body is read
func ClassifyResponse(resp *http.Response, err error) ResponseStatus {
	if err != nil {
		return ClassifyError(err)
	}
	if resp == nil || resp.StatusCode == 0 {
		return ResponseStatus{Kind: StatusTransportFailure, Message: "no response received"}
	}
	if resp.StatusCode != http.StatusOK {
		return ResponseStatus{
			Kind:    StatusHTTPError,
			Code:    resp.StatusCode,
			Message: statusMessage(resp),
		}
	}
	return ResponseStatus{Kind: StatusSuccess, Code: resp.StatusCode, Message: statusMessage(resp)}
}

// ClassifyError maps a transport error to a timeout or transport failure
func ClassifyError(err error) ResponseStatus {
	if isTimeout(err) {
		return ResponseStatus{Kind: StatusTimeout, Message: "request timed out", cause: err}
	}
	return ResponseStatus{Kind: StatusTransportFailure, Message: transportMessage(err), cause: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// transportMessage strips the "Get <url>:" prefix added by net/http
func transportMessage(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}

// statusMessage returns the reason phrase, "Not Found" for "404 Not Found"
func statusMessage(resp *http.Response) string {
	msg := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return msg
}
