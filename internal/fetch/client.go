// Package fetch downloads remote cross-reference map documents over
// HTTP(S).
package fetch

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"

	"github.com/arloliu/xrefmap/internal/document"
	"github.com/arloliu/xrefmap/internal/format"
	"github.com/arloliu/xrefmap/internal/types"
)

// EnvTLSSkipVerify is the environment variable that disables TLS
// certificate verification for remote fetches. Accepts strconv.ParseBool
// values ("1", "true", ...).
const EnvTLSSkipVerify = "XREFMAP_TLS_SKIP_VERIFY"

// Options configures the fetch client.
type Options struct {
	// Timeout bounds an entire fetch, connection through last byte.
	// Map files can be large and links slow, hence the generous default.
	Timeout time.Duration `default:"30m"`

	// ReadBufferSize is the buffered-reader size used to drain response
	// bodies, deliberately larger than the transport default.
	ReadBufferSize int `default:"131072"`

	// MaxIdleConnsPerHost caps pooled connections per host.
	MaxIdleConnsPerHost int `default:"8"`

	// TLSSkipVerify disables certificate verification. Normally driven by
	// the XREFMAP_TLS_SKIP_VERIFY environment variable rather than set
	// directly.
	TLSSkipVerify bool

	// HTTPClient, when non-nil, replaces the client built from the fields
	// above. Intended for tests.
	HTTPClient *http.Client
}

// DefaultOptions returns options with defaults applied and the TLS
// override read from the environment.
func DefaultOptions() Options {
	var opts Options
	_ = defaults.Set(&opts)
	opts.TLSSkipVerify = envBool(EnvTLSSkipVerify)

	return opts
}

func envBool(key string) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return false
	}

	b, err := strconv.ParseBool(strings.TrimSpace(v))

	return err == nil && b
}

// Client fetches remote map documents. Safe for concurrent use.
type Client struct {
	client *http.Client
	opts   Options
}

// NewClient creates a fetch client. Zero option fields are filled with
// defaults. Response decompression stays enabled on the transport.
func NewClient(opts Options) *Client {
	_ = defaults.Set(&opts)

	if opts.HTTPClient != nil {
		return &Client{client: opts.HTTPClient, opts: opts}
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		MaxIdleConns:        opts.MaxIdleConnsPerHost * 2,
		IdleConnTimeout:     90 * time.Second,
	}

	if opts.TLSSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // explicit opt-in via environment
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		opts: opts,
	}
}

// FetchMap downloads the map document at u, deserializes it as JSON or
// YAML according to the URL path extension (archives are local-only), and
// infers a base URL when the document declares none. Transport failures
// surface as TransportError, malformed content as DeserializationError;
// neither is retried.
func (c *Client) FetchMap(ctx context.Context, u *url.URL) (*document.Map, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &types.TransportError{URL: u.String(), Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &types.TransportError{URL: u.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &types.TransportError{URL: u.String(), Status: resp.StatusCode}
	}

	br := bufio.NewReaderSize(resp.Body, c.opts.ReadBufferSize)

	m, err := format.DecodeMap(br, format.DetectRemote(u.Path), u.String())
	if err != nil {
		var derr *types.DeserializationError
		if errors.As(err, &derr) {
			return nil, err
		}

		// Body read failures mid-stream are transport failures.
		return nil, &types.TransportError{URL: u.String(), Err: err}
	}

	if m != nil && m.BaseURL == "" {
		m.BaseURL = InferBaseURL(u)
	}

	return m, nil
}

// InferBaseURL derives the containing directory URL for u: scheme, host,
// and path truncated to and including the last '/', with query and
// fragment dropped. A map fetched from
// https://example.org/docs/map.yml thus gets base https://example.org/docs/.
func InferBaseURL(u *url.URL) string {
	dir := *u
	dir.RawQuery = ""
	dir.Fragment = ""
	dir.RawFragment = ""
	dir.RawPath = ""

	if i := strings.LastIndex(dir.Path, "/"); i >= 0 {
		dir.Path = dir.Path[:i+1]
	} else {
		dir.Path = "/"
	}

	return dir.String()
}
