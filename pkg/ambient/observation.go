package ambient

import "time"

// Observation is one reading from a device. A nil field means the device
// did not report that sensor. Units are the vendor's: Fahrenheit, inches,
// inHg, mph, W/m².
type Observation struct {
	DateUTC *int64  `json:"dateutc,omitempty"`
	Date    *string `json:"date,omitempty"`
	TZ      *string `json:"tz,omitempty"`

	TempF       *float64 `json:"tempf,omitempty"`
	TempInF     *float64 `json:"tempinf,omitempty"`
	Humidity    *int     `json:"humidity,omitempty"`
	HumidityIn  *int     `json:"humidityin,omitempty"`
	FeelsLike   *float64 `json:"feelsLike,omitempty"`
	DewPoint    *float64 `json:"dewPoint,omitempty"`
	FeelsLikeIn *float64 `json:"feelsLikein,omitempty"`
	DewPointIn  *float64 `json:"dewPointin,omitempty"`

	WindDir          *int     `json:"winddir,omitempty"`
	WindSpeedMPH     *float64 `json:"windspeedmph,omitempty"`
	WindGustMPH      *float64 `json:"windgustmph,omitempty"`
	WindGustDir      *int     `json:"windgustdir,omitempty"`
	MaxDailyGust     *float64 `json:"maxdailygust,omitempty"`
	WindSpdMPHAvg2m  *float64 `json:"windspdmph_avg2m,omitempty"`
	WindDirAvg2m     *int     `json:"winddir_avg2m,omitempty"`
	WindSpdMPHAvg10m *float64 `json:"windspdmph_avg10m,omitempty"`
	WindDirAvg10m    *int     `json:"winddir_avg10m,omitempty"`

	HourlyRainIn  *float64 `json:"hourlyrainin,omitempty"`
	EventRainIn   *float64 `json:"eventrainin,omitempty"`
	DailyRainIn   *float64 `json:"dailyrainin,omitempty"`
	WeeklyRainIn  *float64 `json:"weeklyrainin,omitempty"`
	MonthlyRainIn *float64 `json:"monthlyrainin,omitempty"`
	YearlyRainIn  *float64 `json:"yearlyrainin,omitempty"`
	TotalRainIn   *float64 `json:"totalrainin,omitempty"`
	LastRain      *string  `json:"lastRain,omitempty"`

	BaromRelIn *float64 `json:"baromrelin,omitempty"`
	BaromAbsIn *float64 `json:"baromabsin,omitempty"`

	SolarRadiation *float64 `json:"solarradiation,omitempty"`
	UV             *int     `json:"uv,omitempty"`

	BattOut  *int `json:"battout,omitempty"`
	BattIn   *int `json:"battin,omitempty"`
	BattRain *int `json:"battrain,omitempty"`

	PM25      *float64 `json:"pm25,omitempty"`
	PM25Avg24 *float64 `json:"pm25_24h,omitempty"`
	PM25In    *float64 `json:"pm25_in,omitempty"`
	AQIPM25   *int     `json:"aqi_pm25,omitempty"`
	CO2       *float64 `json:"co2,omitempty"`

	LightningDay      *int     `json:"lightning_day,omitempty"`
	LightningDistance *float64 `json:"lightning_distance,omitempty"`
	LightningTime     *int64   `json:"lightning_time,omitempty"`
}

// Time returns the observation timestamp in UTC and whether the vendor
// sent one.
func (o Observation) Time() (time.Time, bool) {
	if o.DateUTC == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*o.DateUTC).UTC(), true
}

// Device is one entry of the account's device list.
type Device struct {
	MacAddress string       `json:"macAddress"`
	Info       DeviceInfo   `json:"info"`
	LastData   *Observation `json:"lastData,omitempty"`
}

type DeviceInfo struct {
	Name     string        `json:"name,omitempty"`
	Location string        `json:"location,omitempty"`
	Coords   *DeviceCoords `json:"coords,omitempty"`
}

// DeviceCoords is the location the owner registered for the device.
type DeviceCoords struct {
	Coords struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coords"`
	Address   string   `json:"address,omitempty"`
	Location  string   `json:"location,omitempty"`
	Elevation *float64 `json:"elevation,omitempty"`
}
