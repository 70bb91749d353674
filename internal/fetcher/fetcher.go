// Package fetcher downloads remote theme archives over HTTP.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quantmind-br/remotetheme-go/internal/domain"
	"github.com/quantmind-br/remotetheme-go/internal/utils"
)

// Options configures an ArchiveFetcher
type Options struct {
	Host          string
	ArchiveMarker string
	Timeout       time.Duration
	UserAgent     string
	ProxyURL      string
	HTTPClient    *http.Client
	Logger        *utils.Logger
	// Progress receives the byte progress bar; nil disables rendering
	Progress io.Writer
}

// ArchiveFetcher downloads "<host>/<owner>/<name>/<marker>/<ref>" archives
type ArchiveFetcher struct {
	host       string
	marker     string
	userAgent  string
	httpClient *http.Client
	logger     *utils.Logger
	progress   io.Writer
}

var _ domain.ArchiveFetcher = (*ArchiveFetcher)(nil)

// NewArchiveFetcher creates an ArchiveFetcher
func NewArchiveFetcher(opts Options) (*ArchiveFetcher, error) {
	host := strings.TrimRight(opts.Host, "/")
	if host == "" {
		return nil, domain.NewValidationError("host", "archive host is required", nil)
	}
	if u, err := url.Parse(host); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, domain.NewValidationError("host", "archive host must be an absolute URL", err)
	}
	if opts.ArchiveMarker == "" {
		return nil, domain.NewValidationError("archive_marker", "archive marker is required", nil)
	}

	client := opts.HTTPClient
	if client == nil {
		var err error
		client, err = NewHTTPClient(opts.Timeout, opts.ProxyURL)
		if err != nil {
			return nil, domain.NewValidationError("proxy_url", err.Error(), err)
		}
	}

	return &ArchiveFetcher{
		host:       host,
		marker:     opts.ArchiveMarker,
		userAgent:  opts.UserAgent,
		httpClient: client,
		logger:     utils.OrNop(opts.Logger),
		progress:   opts.Progress,
	}, nil
}

// ArchiveURL returns the archive location for ref. Each segment is escaped
// on its own so a ref containing "/" stays a single segment.
func (f *ArchiveFetcher) ArchiveURL(ref *domain.ThemeReference) string {
	return strings.Join([]string{
		f.host,
		url.PathEscape(ref.Owner()),
		url.PathEscape(ref.Name()),
		url.PathEscape(f.marker),
		url.PathEscape(ref.GitRef()),
	}, "/")
}

// Fetch streams the archive into dst. The status is classified before any
// body byte is written, so a failed request leaves dst untouched.
func (f *ArchiveFetcher) Fetch(ctx context.Context, ref *domain.ThemeReference, dst io.Writer) error {
	archiveURL := f.ArchiveURL(ref)
	f.logger.Debug().Str("url", archiveURL).Msg("Downloading archive")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, nil)
	if err != nil {
		return domain.NewTransportError(archiveURL, err.Error(), err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}

	status := ClassifyResponse(resp, err)
	if !status.OK() {
		f.logger.Debug().
			Str("url", archiveURL).
			Str("status", status.Kind.String()).
			Int("code", status.Code).
			Msg("Archive request failed")
		return status.Err(archiveURL)
	}

	bar := utils.NewBytesProgressBar(resp.ContentLength, utils.DescDownloading+" "+ref.NameWithOwner(), f.progress)
	defer bar.Close()

	written, err := io.Copy(io.MultiWriter(dst, bar), resp.Body)
	if err != nil {
		return ClassifyError(err).Err(archiveURL)
	}
	if resp.ContentLength >= 0 && written != resp.ContentLength {
		detail := fmt.Sprintf("short body: got %d of %d bytes", written, resp.ContentLength)
		return domain.NewTransportError(archiveURL, detail, io.ErrUnexpectedEOF)
	}
	_ = bar.Finish()

	f.logger.Debug().
		Str("url", archiveURL).
		Int64("bytes", written).
		Dur("duration", time.Since(start)).
		Msg("Archive downloaded")
	return nil
}
