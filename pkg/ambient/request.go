package ambient

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// MaxHistoricLimit is the vendor's per-call cap on historic records.
const MaxHistoricLimit = 288

var validate = validator.New()

// HistoricQuery bounds a historic fetch. A zero EndDate asks for the most
// recent records; a zero Limit leaves the vendor default in place.
type HistoricQuery struct {
	EndDate time.Time
	Limit   int `validate:"omitempty,min=1,max=288"`
}

// Validate rejects limits the vendor would not honour.
func (q HistoricQuery) Validate() error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("ambient: invalid historic query: %w", err)
	}
	return nil
}

// BuildDevicesURL returns the URL of the account's device list.
func BuildDevicesURL(base string, creds Credentials) string {
	return base + "/devices?" + authValues(creds).Encode()
}

// BuildDeviceDataURL returns the URL of the data of the device with the
// given MAC address. endDate is sent in milliseconds since the epoch, the
// unit the vendor uses for dateutc.
func BuildDeviceDataURL(base string, creds Credentials, mac string, q HistoricQuery) string {
	values := authValues(creds)
	if !q.EndDate.IsZero() {
		values.Set("endDate", strconv.FormatInt(q.EndDate.UnixMilli(), 10))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	return base + "/devices/" + url.PathEscape(mac) + "?" + values.Encode()
}

func authValues(creds Credentials) url.Values {
	values := url.Values{}
	values.Set("apiKey", creds.apiKey)
	values.Set("applicationKey", creds.appKey)
	return values
}
