package fetcher

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http/httpproxy"
)

const maxRedirects = 10

// NewHTTPClient creates the client used for archive downloads. Proxies come
// from HTTP_PROXY/HTTPS_PROXY/NO_PROXY unless proxyURL overrides them.
func NewHTTPClient(timeout time.Duration, proxyURL string) (*http.Client, error) {
	proxyCfg := httpproxy.FromEnvironment()
	if proxyURL != "" {
		if _, err := url.Parse(proxyURL); err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		proxyCfg.HTTPProxy = proxyURL
		proxyCfg.HTTPSProxy = proxyURL
	}
	proxyFunc := proxyCfg.ProxyFunc()

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = func(req *http.Request) (*url.URL, error) {
		return proxyFunc(req.URL)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}, nil
}
