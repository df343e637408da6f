package ambient

import (
	"fmt"
	"strconv"
	"strings"
)

// Endpoint selects the generation of the vendor REST API.
type Endpoint int

const (
	// EndpointLegacy is api.ambientweather.net. The latest observation is
	// read from the device list, where the device is picked by position.
	EndpointLegacy Endpoint = iota
	// EndpointRealtime is rt.ambientweather.net. The device is addressed
	// by MAC address as a path segment.
	EndpointRealtime
)

const (
	LegacyBaseURL   = "https://api.ambientweather.net/v1"
	RealtimeBaseURL = "https://rt.ambientweather.net/v1"
)

func (e Endpoint) String() string {
	switch e {
	case EndpointLegacy:
		return "legacy"
	case EndpointRealtime:
		return "realtime"
	default:
		return "Endpoint(" + strconv.Itoa(int(e)) + ")"
	}
}

// BaseURL returns the vendor's base URL for the endpoint.
func (e Endpoint) BaseURL() string {
	if e == EndpointRealtime {
		return RealtimeBaseURL
	}
	return LegacyBaseURL
}

// ParseEndpoint accepts "legacy"/"api" and "realtime"/"rt".
func ParseEndpoint(s string) (Endpoint, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "legacy", "api":
		return EndpointLegacy, nil
	case "realtime", "rt":
		return EndpointRealtime, nil
	default:
		return EndpointLegacy, fmt.Errorf("unknown endpoint %q", s)
	}
}

// DeviceRef identifies one device on the account, either by its position
// in the account's device list or by MAC address. The zero value is the
// first device.
type DeviceRef struct {
	index int
	mac   string
}

// DeviceIndex refers to the device at position i of the device list.
func DeviceIndex(i int) DeviceRef {
	return DeviceRef{index: i}
}

// DeviceMAC refers to the device with the given MAC address.
func DeviceMAC(mac string) DeviceRef {
	return DeviceRef{mac: strings.TrimSpace(mac)}
}

// ParseDeviceRef treats an integer as a device index and anything else as
// a MAC address.
func ParseDeviceRef(s string) DeviceRef {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return DeviceIndex(i)
	}
	return DeviceMAC(s)
}

// Index returns the device index, if the reference is positional.
func (d DeviceRef) Index() (int, bool) {
	return d.index, d.mac == ""
}

// MAC returns the MAC address, if the reference holds one.
func (d DeviceRef) MAC() (string, bool) {
	return d.mac, d.mac != ""
}

func (d DeviceRef) String() string {
	if d.mac != "" {
		return d.mac
	}
	return "#" + strconv.Itoa(d.index)
}

// Credentials carries everything needed to address one device. It is
// immutable; build it with NewCredentials.
type Credentials struct {
	apiKey   string
	appKey   string
	device   DeviceRef
	endpoint Endpoint
	shape    shape
}

// NewCredentials builds credentials for one device. Keys are not
// validated; a bad pair surfaces as a *StatusError on the first fetch.
func NewCredentials(apiKey, appKey string, device DeviceRef, endpoint Endpoint) Credentials {
	var s shape = legacyShape{}
	if endpoint == EndpointRealtime {
		s = realtimeShape{}
	}
	return Credentials{
		apiKey:   apiKey,
		appKey:   appKey,
		device:   device,
		endpoint: endpoint,
		shape:    s,
	}
}

func (c Credentials) APIKey() string         { return c.apiKey }
func (c Credentials) ApplicationKey() string { return c.appKey }
func (c Credentials) Device() DeviceRef      { return c.device }
func (c Credentials) Endpoint() Endpoint     { return c.endpoint }

// requestShape falls back to the legacy shape for a zero Credentials value.
func (c Credentials) requestShape() shape {
	if c.shape == nil {
		return legacyShape{}
	}
	return c.shape
}
