package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/quantmind-br/remotetheme-go/internal/domain"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyResponse(t *testing.T) {
	tests := []struct {
		name     string
		resp     *http.Response
		err      error
		wantKind StatusKind
		wantCode int
		wantMsg  string
	}{
		{
			name:     "ok",
			resp:     &http.Response{StatusCode: 200, Status: "200 OK"},
			wantKind: StatusSuccess,
			wantCode: 200,
			wantMsg:  "OK",
		},
		{
			name:     "not found",
			resp:     &http.Response{StatusCode: 404, Status: "404 Not Found"},
			wantKind: StatusHTTPError,
			wantCode: 404,
			wantMsg:  "Not Found",
		},
		{
			name:     "custom reason phrase",
			resp:     &http.Response{StatusCode: 503, Status: "503 Slow Down"},
			wantKind: StatusHTTPError,
			wantCode: 503,
			wantMsg:  "Slow Down",
		},
		{
			name:     "missing reason phrase",
			resp:     &http.Response{StatusCode: 502},
			wantKind: StatusHTTPError,
			wantCode: 502,
			wantMsg:  "Bad Gateway",
		},
		{
			name:     "no response",
			wantKind: StatusTransportFailure,
			wantMsg:  "no response received",
		},
		{
			name:     "deadline",
			err:      &url.Error{Op: "Get", URL: "https://x", Err: context.DeadlineExceeded},
			wantKind: StatusTimeout,
			wantMsg:  "request timed out",
		},
		{
			name:     "net timeout",
			err:      &url.Error{Op: "Get", URL: "https://x", Err: timeoutErr{}},
			wantKind: StatusTimeout,
			wantMsg:  "request timed out",
		},
		{
			name:     "connection refused",
			err:      &url.Error{Op: "Get", URL: "https://x", Err: errors.New("dial tcp: connection refused")},
			wantKind: StatusTransportFailure,
			wantMsg:  "dial tcp: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ClassifyResponse(tt.resp, tt.err)
			assert.Equal(t, tt.wantKind, s.Kind)
			assert.Equal(t, tt.wantCode, s.Code)
			assert.Equal(t, tt.wantMsg, s.Message)
		})
	}
}

func TestResponseStatus_Err(t *testing.T) {
	const u = "https://codeload.github.com/acme/site-theme/zip/HEAD"

	assert.NoError(t, ResponseStatus{Kind: StatusSuccess, Code: 200}.Err(u))

	err := ClassifyError(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)).Err(u)
	assert.True(t, domain.IsTimeout(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	err = ResponseStatus{Kind: StatusHTTPError, Code: 404, Message: "Not Found"}.Err(u)
	assert.EqualError(t, err, "download "+u+": request failed with 404 Not Found")

	err = ResponseStatus{Kind: StatusTransportFailure, Message: "connection reset"}.Err(u)
	assert.EqualError(t, err, "download "+u+": connection reset")
}

func TestStatusKind_String(t *testing.T) {
	assert.Equal(t, "success", StatusSuccess.String())
	assert.Equal(t, "timeout", StatusTimeout.String())
	assert.Equal(t, "transport_failure", StatusTransportFailure.String())
	assert.Equal(t, "http_error", StatusHTTPError.String())
	assert.Equal(t, "unknown", StatusKind(42).String())
}
