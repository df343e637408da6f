package ambient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// MinRequestInterval is the vendor's documented minimum spacing between
// requests made with one API key.
const MinRequestInterval = time.Second

// Client performs paced requests against the vendor API. It keeps no state
// between calls and is safe for concurrent use.
type Client struct {
	http     *resty.Client
	delay    time.Duration
	baseURLs map[Endpoint]string
	logger   logrus.FieldLogger
}

type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	delay      time.Duration
	baseURLs   map[Endpoint]string
	logger     logrus.FieldLogger
}

// WithHTTPClient sends requests through hc instead of a fresh http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = hc
	}
}

// WithRequestDelay replaces MinRequestInterval as the wait before every
// request. Negative values are treated as zero.
func WithRequestDelay(d time.Duration) Option {
	return func(o *clientOptions) {
		if d < 0 {
			d = 0
		}
		o.delay = d
	}
}

// WithBaseURL points an endpoint at another base URL, e.g. a proxy or a
// test server. base must not end with a slash.
func WithBaseURL(e Endpoint, base string) Option {
	return func(o *clientOptions) {
		o.baseURLs[e] = strings.TrimRight(base, "/")
	}
}

// WithLogger receives debug lines for each request. Keys are never logged.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *clientOptions) {
		o.logger = l
	}
}

// NewClient builds a Client. Without options it talks to the vendor hosts
// and waits MinRequestInterval before each request.
func NewClient(opts ...Option) *Client {
	o := clientOptions{
		delay: MinRequestInterval,
		baseURLs: map[Endpoint]string{
			EndpointLegacy:   LegacyBaseURL,
			EndpointRealtime: RealtimeBaseURL,
		},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.logger = l
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{}
	}

	rc := resty.NewWithClient(o.httpClient).
		SetRetryCount(0).
		SetLogger(o.logger).
		SetHeader("Accept", "application/json")

	return &Client{
		http:     rc,
		delay:    o.delay,
		baseURLs: o.baseURLs,
		logger:   o.logger,
	}
}

// DefaultClient backs the package-level functions.
var DefaultClient = NewClient()

// GetLatest returns the most recent observation using DefaultClient.
func GetLatest(ctx context.Context, creds Credentials) (Observation, error) {
	return DefaultClient.GetLatest(ctx, creds)
}

// GetHistoric returns past observations using DefaultClient.
func GetHistoric(ctx context.Context, creds Credentials, q HistoricQuery) ([]Observation, error) {
	return DefaultClient.GetHistoric(ctx, creds, q)
}

// ListDevices returns the account's devices using DefaultClient.
func ListDevices(ctx context.Context, creds Credentials) ([]Device, error) {
	return DefaultClient.ListDevices(ctx, creds)
}

// GetLatest returns the most recent observation of the configured device.
func (c *Client) GetLatest(ctx context.Context, creds Credentials) (Observation, error) {
	return creds.requestShape().latest(ctx, c, creds)
}

// GetHistoric returns up to q.Limit observations at or before q.EndDate,
// newest first, in the order the vendor sent them. Fewer records than
// asked for is not an error.
func (c *Client) GetHistoric(ctx context.Context, creds Credentials, q HistoricQuery) ([]Observation, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	mac, err := c.resolveMAC(ctx, creds)
	if err != nil {
		return nil, err
	}
	return c.deviceData(ctx, creds, mac, q)
}

// ListDevices returns every device registered to the account, each with
// its last reported observation.
func (c *Client) ListDevices(ctx context.Context, creds Credentials) ([]Device, error) {
	body, err := c.get(ctx, creds.endpoint, BuildDevicesURL(c.baseURL(creds), creds))
	if err != nil {
		return nil, err
	}
	return decode[[]Device](body)
}

func (c *Client) deviceData(ctx context.Context, creds Credentials, mac string, q HistoricQuery) ([]Observation, error) {
	body, err := c.get(ctx, creds.endpoint, BuildDeviceDataURL(c.baseURL(creds), creds, mac, q))
	if err != nil {
		return nil, err
	}
	return decode[[]Observation](body)
}

// resolveMAC returns the MAC address of the referenced device, listing the
// account's devices when the reference is positional.
func (c *Client) resolveMAC(ctx context.Context, creds Credentials) (string, error) {
	if mac, ok := creds.device.MAC(); ok {
		return mac, nil
	}
	devices, err := c.ListDevices(ctx, creds)
	if err != nil {
		return "", err
	}
	dev, err := selectDevice(devices, creds.device)
	if err != nil {
		return "", err
	}
	return dev.MacAddress, nil
}

func (c *Client) baseURL(creds Credentials) string {
	if base, ok := c.baseURLs[creds.endpoint]; ok {
		return base
	}
	return creds.endpoint.BaseURL()
}

// get waits the request delay, then issues one GET. The body is returned
// only for 2xx responses.
func (c *Client) get(ctx context.Context, endpoint Endpoint, rawURL string) ([]byte, error) {
	if err := c.pace(ctx); err != nil {
		return nil, err
	}

	start := time.Now()

	resp, err := c.http.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = redact(urlErr.URL)
		}
		return nil, fmt.Errorf("ambient: request failed: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"endpoint": endpoint.String(),
		"path":     requestPath(rawURL),
		"status":   resp.StatusCode(),
		"duration": time.Since(start),
	}).Debug("ambient request")

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode(), Body: resp.Body()}
	}
	return resp.Body(), nil
}

func (c *Client) pace(ctx context.Context) error {
	if c.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// requestPath strips the query, which carries the keys.
func requestPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Path
}

// redact drops the query so errors never carry the keys.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	u.RawQuery = ""
	return u.String()
}

func decode[T any](body []byte) (T, error) {
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return out, &DecodeError{Body: body, Err: err}
	}
	return out, nil
}

func selectDevice(devices []Device, ref DeviceRef) (Device, error) {
	if mac, ok := ref.MAC(); ok {
		for _, d := range devices {
			if strings.EqualFold(d.MacAddress, mac) {
				return d, nil
			}
		}
		return Device{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, mac)
	}
	i, _ := ref.Index()
	if i < 0 || i >= len(devices) {
		return Device{}, fmt.Errorf("%w: index %d of %d devices", ErrDeviceNotFound, i, len(devices))
	}
	return devices[i], nil
}
