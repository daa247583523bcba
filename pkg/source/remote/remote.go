// Package remote implements a package metadata source backed by an HTTP
// registry endpoint.
//
// The registry is expected to serve package metadata as JSON at
// GET {base}/packages/{name}. Transient failures (network errors, 5xx
// responses) are retried with exponential backoff; a 404 is a definitive
// not-found and is never retried.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	kpmerrors "github.com/kpmtools/kpm/pkg/errors"
	"github.com/kpmtools/kpm/pkg/httputil"
	"github.com/kpmtools/kpm/pkg/observability"
	"github.com/kpmtools/kpm/pkg/source"
)

// Registry is a [source.Source] reading metadata from an HTTP registry.
type Registry struct {
	base       string
	client     *http.Client
	retryDelay time.Duration
}

// NewRegistry creates a registry source for the given base URL.
// Pass nil to use a default client with a 30 second timeout.
func NewRegistry(baseURL string, client *http.Client) *Registry {
	if client == nil {
		client = httputil.NewHTTPClient()
	}
	return &Registry{
		base:       strings.TrimRight(baseURL, "/"),
		client:     client,
		retryDelay: time.Second,
	}
}

// Lookup implements [source.Source].
func (r *Registry) Lookup(ctx context.Context, name string) (*source.PackageInfo, error) {
	if err := kpmerrors.ValidatePackageName(name); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/packages/%s", r.base, url.PathEscape(name))

	var info source.PackageInfo
	err := httputil.Retry(ctx, 3, r.retryDelay, func() error {
		return r.fetch(ctx, endpoint, &info)
	})
	if err != nil {
		return nil, err
	}
	if info.Name == "" {
		info.Name = name
	}
	return &info, nil
}

func (r *Registry) fetch(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	observability.HTTP().OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()

	resp, err := r.client.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		return &httputil.RetryableError{
			Err: kpmerrors.Wrap(kpmerrors.ErrCodeNetwork, err, "fetch %s", endpoint),
		}
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return kpmerrors.Wrap(kpmerrors.ErrCodeInvalidManifest, err, "decode %s", endpoint)
	}
	return nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return source.ErrNotFound
	case code == http.StatusTooManyRequests || code >= 500:
		return &httputil.RetryableError{
			Err: kpmerrors.New(kpmerrors.ErrCodeNetwork, "registry returned status %d", code),
		}
	default:
		return kpmerrors.New(kpmerrors.ErrCodeNetwork, "registry returned status %d", code)
	}
}
