package storage

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
)

// ImageFetcher downloads raw image bytes referenced by a URL
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)
}

// HTTPFetcherOptions configures HTTPImageFetcher
type HTTPFetcherOptions struct {
	Timeout       time.Duration
	MaxBytes      int64
	RetryCount    int
	RetryWaitTime time.Duration
	RetryMaxWait  time.Duration

	// AllowPrivateNetworks permits loopback, private and link-local targets
	AllowPrivateNetworks bool
}

// ErrBlockedAddress is returned when an image URL resolves to a non-public address
var ErrBlockedAddress = errors.New("address is not publicly routable")

// DefaultHTTPFetcherOptions returns 3 attempts with 1s/2s backoff and a 20MB cap
func DefaultHTTPFetcherOptions() HTTPFetcherOptions {
	return HTTPFetcherOptions{
		Timeout:       15 * time.Second,
		MaxBytes:      20 << 20,
		RetryCount:    2,
		RetryWaitTime: 1 * time.Second,
		RetryMaxWait:  2 * time.Second,
	}
}

// HTTPImageFetcher implements ImageFetcher over plain HTTP(S)
type HTTPImageFetcher struct {
	client   *resty.Client
	maxBytes int64
}

// NewHTTPImageFetcher creates an HTTP image fetcher.
// Network errors and 5xx responses are retried; 4xx responses are not.
func NewHTTPImageFetcher(opts HTTPFetcherOptions) *HTTPImageFetcher {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	if !opts.AllowPrivateNetworks {
		// checked per connection, after DNS resolution and on every redirect
		dialer.Control = rejectNonPublic
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	client := resty.New().
		SetTransport(transport).
		SetDebug(false).
		SetTimeout(opts.Timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(3)).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(opts.RetryWaitTime).
		SetRetryMaxWaitTime(opts.RetryMaxWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if errors.Is(err, resty.ErrResponseBodyTooLarge) || errors.Is(err, ErrBlockedAddress) {
				return false
			}
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeaders(map[string]string{
			"Accept":     "image/jpeg, image/png, image/webp, image/gif, */*",
			"User-Agent": "Go-Vision-Assistant/1.0",
		})

	if opts.MaxBytes > 0 {
		client.SetResponseBodyLimit(int(opts.MaxBytes))
	}

	return &HTTPImageFetcher{client: client, maxBytes: opts.MaxBytes}
}

// FetchImage downloads imageURL and returns the undecoded body
func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	res, err := h.client.R().SetContext(ctx).Get(imageURL)
	if errors.Is(err, resty.ErrResponseBodyTooLarge) {
		return nil, fmt.Errorf("image too large: limit %d bytes: %w", h.maxBytes, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}

	switch code := res.StatusCode(); {
	case code >= 400 && code < 500:
		return nil, fmt.Errorf("client error: status code %d", code)
	case code >= 500:
		return nil, fmt.Errorf("server error: status code %d", code)
	case code != http.StatusOK:
		return nil, fmt.Errorf("unexpected status code %d", code)
	}

	if err := checkContentType(res.Header().Get("Content-Type")); err != nil {
		return nil, err
	}

	body := res.Body()
	if h.maxBytes > 0 && int64(len(body)) > h.maxBytes {
		return nil, fmt.Errorf("image too large: %d bytes (limit %d)", len(body), h.maxBytes)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response body")
	}
	return body, nil
}

// checkContentType rejects bodies that declare a non-image type.
// Missing or generic binary types are let through to the decoder.
func checkContentType(contentType string) error {
	if contentType == "" {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("invalid content type %q: %w", contentType, err)
	}
	if strings.HasPrefix(mediaType, "image/") || mediaType == "application/octet-stream" {
		return nil
	}
	return fmt.Errorf("unexpected content type %q", mediaType)
}

// rejectNonPublic is a dialer Control hook refusing loopback, private, link-local,
// multicast and unspecified addresses
func rejectNonPublic(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	if !isPublic(addr) {
		return fmt.Errorf("%w: %s (%s)", ErrBlockedAddress, addr, network)
	}
	return nil
}

func isPublic(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsValid() &&
		!addr.IsLoopback() &&
		!addr.IsPrivate() &&
		!addr.IsLinkLocalUnicast() &&
		!addr.IsLinkLocalMulticast() &&
		!addr.IsInterfaceLocalMulticast() &&
		!addr.IsMulticast() &&
		!addr.IsUnspecified()
}
