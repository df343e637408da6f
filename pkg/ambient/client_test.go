package ambient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const devicesBody = `[
  {
    "macAddress": "00:0E:C6:00:00:01",
    "info": {"name": "Backyard", "coords": {"coords": {"lat": 47.6, "lon": -122.3}, "address": "Seattle"}},
    "lastData": {"dateutc": 1709294400000, "tempf": 51.3, "humidity": 0, "winddir": 270, "unknownField": "x"}
  },
  {
    "macAddress": "00:0E:C6:00:00:02",
    "info": {"name": "Garage"}
  }
]`

const historyBody = `[
  {"dateutc": 1709294400000, "tempf": 51.3},
  {"dateutc": 1709294100000, "tempf": 51.0},
  {"dateutc": 1709293800000, "tempf": 50.8}
]`

// vendor is a fake of the two vendor endpoints that records every request.
type vendor struct {
	mu       sync.Mutex
	requests []*http.Request
	arrivals []time.Time
	handler  http.HandlerFunc
}

func (v *vendor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	v.mu.Lock()
	v.requests = append(v.requests, r)
	v.arrivals = append(v.arrivals, time.Now())
	v.mu.Unlock()
	v.handler(w, r)
}

func (v *vendor) recorded() []*http.Request {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]*http.Request(nil), v.requests...)
}

func defaultVendorHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/v1/devices":
		_, _ = w.Write([]byte(devicesBody))
	case "/v1/devices/00:0E:C6:00:00:01":
		_, _ = w.Write([]byte(historyBody))
	default:
		http.NotFound(w, r)
	}
}

func newVendor(t *testing.T, h http.HandlerFunc) (*vendor, *httptest.Server) {
	t.Helper()
	if h == nil {
		h = defaultVendorHandler
	}
	v := &vendor{handler: h}
	srv := httptest.NewServer(v)
	t.Cleanup(srv.Close)
	return v, srv
}

func testClient(srv *httptest.Server, opts ...Option) *Client {
	base := []Option{
		WithRequestDelay(0),
		WithBaseURL(EndpointLegacy, srv.URL+"/v1"),
		WithBaseURL(EndpointRealtime, srv.URL+"/v1"),
	}
	return NewClient(append(base, opts...)...)
}

func TestGetLatest_Legacy(t *testing.T) {
	v, srv := newVendor(t, nil)
	client := testClient(srv)

	creds := NewCredentials("api", "app", DeviceIndex(0), EndpointLegacy)
	obs, err := client.GetLatest(context.Background(), creds)
	require.NoError(t, err)

	require.NotNil(t, obs.TempF)
	assert.Equal(t, 51.3, *obs.TempF)
	require.NotNil(t, obs.Humidity)
	assert.Equal(t, 0, *obs.Humidity, "zero must be kept distinct from absent")
	require.NotNil(t, obs.WindDir)
	assert.Equal(t, 270, *obs.WindDir)
	assert.Nil(t, obs.WindSpeedMPH)
	assert.Nil(t, obs.BaromRelIn)

	ts, ok := obs.Time()
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), ts)

	reqs := v.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/v1/devices", reqs[0].URL.Path)
	assert.Equal(t, "api", reqs[0].URL.Query().Get("apiKey"))
	assert.Equal(t, "app", reqs[0].URL.Query().Get("applicationKey"))
}

func TestGetLatest_LegacyByMAC(t *testing.T) {
	_, srv := newVendor(t, nil)
	client := testClient(srv)

	creds := NewCredentials("api", "app", DeviceMAC("00:0e:c6:00:00:01"), EndpointLegacy)
	obs, err := client.GetLatest(context.Background(), creds)
	require.NoError(t, err)
	require.NotNil(t, obs.TempF)
	assert.Equal(t, 51.3, *obs.TempF)
}

func TestGetLatest_NoLastData(t *testing.T) {
	_, srv := newVendor(t, nil)
	client := testClient(srv)

	creds := NewCredentials("api", "app", DeviceIndex(1), EndpointLegacy)
	_, err := client.GetLatest(context.Background(), creds)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestGetLatest_DeviceNotFound(t *testing.T) {
	_, srv := newVendor(t, nil)
	client := testClient(srv)

	for _, ref := range []DeviceRef{DeviceIndex(5), DeviceIndex(-1), DeviceMAC("ff:ff:ff:ff:ff:ff")} {
		creds := NewCredentials("api", "app", ref, EndpointLegacy)
		_, err := client.GetLatest(context.Background(), creds)
		assert.ErrorIs(t, err, ErrDeviceNotFound, ref.String())
	}
}

func TestGetLatest_Realtime(t *testing.T) {
	v, srv := newVendor(t, nil)
	client := testClient(srv)

	creds := NewCredentials("api", "app", DeviceMAC("00:0E:C6:00:00:01"), EndpointRealtime)
	obs, err := client.GetLatest(context.Background(), creds)
	require.NoError(t, err)
	require.NotNil(t, obs.TempF)
	assert.Equal(t, 51.3, *obs.TempF)

	reqs := v.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/v1/devices/00:0E:C6:00:00:01", reqs[0].URL.Path)
	assert.Equal(t, "1", reqs[0].URL.Query().Get("limit"))
}

func TestGetLatest_RealtimeEmpty(t *testing.T) {
	_, srv := newVendor(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	client := testClient(srv)

	creds := NewCredentials("api", "app", DeviceMAC("00:0E:C6:00:00:01"), EndpointRealtime)
	_, err := client.GetLatest(context.Background(), creds)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestEndpointFlagSelectsHost(t *testing.T) {
	legacy, legacySrv := newVendor(t, nil)
	realtime, realtimeSrv := newVendor(t, nil)

	client := NewClient(
		WithRequestDelay(0),
		WithBaseURL(EndpointLegacy, legacySrv.URL+"/v1"),
		WithBaseURL(EndpointRealtime, realtimeSrv.URL+"/v1"),
	)

	mac := DeviceMAC("00:0E:C6:00:00:01")
	fromLegacy, err := client.GetHistoric(context.Background(), NewCredentials("api", "app", mac, EndpointLegacy), HistoricQuery{})
	require.NoError(t, err)
	assert.Len(t, legacy.recorded(), 1)
	assert.Empty(t, realtime.recorded())

	fromRealtime, err := client.GetHistoric(context.Background(), NewCredentials("api", "app", mac, EndpointRealtime), HistoricQuery{})
	require.NoError(t, err)
	assert.Len(t, legacy.recorded(), 1)
	assert.Len(t, realtime.recorded(), 1)

	assert.Equal(t, fromLegacy, fromRealtime)
}

func TestGetHistoric_PreservesOrder(t *testing.T) {
	_, srv := newVendor(t, nil)
	client := testClient(srv)

	creds := NewCredentials("api", "app", DeviceMAC("00:0E:C6:00:00:01"), EndpointRealtime)
	records, err := client.GetHistoric(context.Background(), creds, HistoricQuery{Limit: 288})
	require.NoError(t, err)

	require.Len(t, records, 3, "a shorter result than the limit is not an error")
	want := []int64{1709294400000, 1709294100000, 1709293800000}
	for i, rec := range records {
		require.NotNil(t, rec.DateUTC)
		assert.Equal(t, want[i], *rec.DateUTC)
	}
}

func TestGetHistoric_ResolvesIndex(t *testing.T) {
	v, srv := newVendor(t, nil)
	client := testClient(srv)

	end := time.UnixMilli(1709294400000)
	creds := NewCredentials("api", "app", DeviceIndex(0), EndpointLegacy)
	records, err := client.GetHistoric(context.Background(), creds, HistoricQuery{EndDate: end, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, records, 3)

	reqs := v.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, "/v1/devices", reqs[0].URL.Path)
	assert.Equal(t, "/v1/devices/00:0E:C6:00:00:01", reqs[1].URL.Path)
	assert.Equal(t, "3", reqs[1].URL.Query().Get("limit"))
	assert.Equal(t, "1709294400000", reqs[1].URL.Query().Get("endDate"))
}

func TestGetHistoric_OmitsUnsetParams(t *testing.T) {
	v, srv := newVendor(t, nil)
	client := testClient(srv)

	creds := NewCredentials("api", "app", DeviceMAC("00:0E:C6:00:00:01"), EndpointRealtime)
	_, err := client.GetHistoric(context.Background(), creds, HistoricQuery{})
	require.NoError(t, err)

	reqs := v.recorded()
	require.Len(t, reqs, 1)
	assert.False(t, reqs[0].URL.Query().Has("limit"))
	assert.False(t, reqs[0].URL.Query().Has("endDate"))
}

func TestGetHistoric_InvalidLimit(t *testing.T) {
	v, srv := newVendor(t, nil)
	client := testClient(srv)

	creds := NewCredentials("api", "app", DeviceMAC("00:0E:C6:00:00:01"), EndpointRealtime)
	_, err := client.GetHistoric(context.Background(), creds, HistoricQuery{Limit: 1000})
	assert.Error(t, err)
	assert.Empty(t, v.recorded())
}

func TestNonSuccessStatus(t *testing.T) {
	_, srv := newVendor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"apiKey-missing"}`))
	})
	client := testClient(srv)

	creds := NewCredentials("bad", "bad", DeviceIndex(0), EndpointLegacy)
	obs, err := client.GetLatest(context.Background(), creds)
	require.Error(t, err)
	assert.Equal(t, Observation{}, obs)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, string(statusErr.Body), "apiKey-missing")

	records, err := client.GetHistoric(context.Background(), NewCredentials("bad", "bad", DeviceMAC("x"), EndpointRealtime), HistoricQuery{})
	require.ErrorAs(t, err, &statusErr)
	assert.Nil(t, records)
}

func TestDecodeFailure(t *testing.T) {
	for name, body := range map[string]string{
		"html":       "<html><body>Bad Gateway</body></html>",
		"empty":      "",
		"wrong type": `{"macAddress": 12}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, srv := newVendor(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			client := testClient(srv)

			creds := NewCredentials("api", "app", DeviceIndex(0), EndpointLegacy)
			_, err := client.GetLatest(context.Background(), creds)

			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, body, string(decodeErr.Body))
		})
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := NewClient(WithRequestDelay(0), WithBaseURL(EndpointLegacy, base+"/v1"))
	_, err := client.GetLatest(context.Background(), NewCredentials("api", "app", DeviceIndex(0), EndpointLegacy))
	require.Error(t, err)

	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
	var urlErr *url.Error
	assert.True(t, errors.As(err, &urlErr))
	assert.NotContains(t, err.Error(), "apiKey")
	assert.NotContains(t, err.Error(), "applicationKey")
}

func TestRequestsArePaced(t *testing.T) {
	const delay = 60 * time.Millisecond

	v, srv := newVendor(t, nil)
	client := testClient(srv, WithRequestDelay(delay))
	creds := NewCredentials("api", "app", DeviceMAC("00:0E:C6:00:00:01"), EndpointRealtime)

	start := time.Now()
	_, err := client.GetLatest(context.Background(), creds)
	require.NoError(t, err)
	_, err = client.GetHistoric(context.Background(), creds, HistoricQuery{})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 2*delay)

	v.mu.Lock()
	defer v.mu.Unlock()
	require.Len(t, v.arrivals, 2)
	assert.GreaterOrEqual(t, v.arrivals[0].Sub(start), delay, "an isolated call still waits")
	assert.GreaterOrEqual(t, v.arrivals[1].Sub(v.arrivals[0]), delay)
}

func TestPaceHonoursContext(t *testing.T) {
	v, srv := newVendor(t, nil)
	client := testClient(srv, WithRequestDelay(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.GetLatest(ctx, NewCredentials("api", "app", DeviceIndex(0), EndpointLegacy))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, v.recorded())
}

func TestListDevices(t *testing.T) {
	_, srv := newVendor(t, nil)
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	client := testClient(srv, WithLogger(logger))

	devices, err := client.ListDevices(context.Background(), NewCredentials("secret-api", "secret-app", DeviceIndex(0), EndpointLegacy))
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "Backyard", devices[0].Info.Name)
	require.NotNil(t, devices[0].Info.Coords)
	assert.Equal(t, 47.6, devices[0].Info.Coords.Coords.Lat)
	assert.Nil(t, devices[1].LastData)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "/v1/devices", entry.Data["path"])
	for _, e := range hook.AllEntries() {
		s, _ := e.String()
		assert.NotContains(t, s, "secret-api")
		assert.NotContains(t, s, "secret-app")
	}
}
