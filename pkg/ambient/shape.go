package ambient

import "context"

// shape is the endpoint-specific way of reading the latest observation.
// It is picked once by NewCredentials.
type shape interface {
	latest(ctx context.Context, c *Client, creds Credentials) (Observation, error)
}

// legacyShape reads lastData from the device list.
type legacyShape struct{}

func (legacyShape) latest(ctx context.Context, c *Client, creds Credentials) (Observation, error) {
	devices, err := c.ListDevices(ctx, creds)
	if err != nil {
		return Observation{}, err
	}
	dev, err := selectDevice(devices, creds.device)
	if err != nil {
		return Observation{}, err
	}
	if dev.LastData == nil {
		return Observation{}, ErrNoData
	}
	return *dev.LastData, nil
}

// realtimeShape asks the device path for a single record.
type realtimeShape struct{}

func (realtimeShape) latest(ctx context.Context, c *Client, creds Credentials) (Observation, error) {
	mac, err := c.resolveMAC(ctx, creds)
	if err != nil {
		return Observation{}, err
	}
	records, err := c.deviceData(ctx, creds, mac, HistoricQuery{Limit: 1})
	if err != nil {
		return Observation{}, err
	}
	if len(records) == 0 {
		return Observation{}, ErrNoData
	}
	return records[0], nil
}
