package weather

import "time"

// Summarize reduces snapshots of one device to per-sensor min/max/mean.
// Only sensors a snapshot actually reported count towards a Stat.
func Summarize(device string, from, to time.Time, snapshots []Snapshot) Summary {
	summary := Summary{
		Device: device,
		From:   from,
		To:     to,
		Count:  len(snapshots),
	}

	var (
		temp     stat
		humidity stat
		wind     stat
		gust     stat
		baro     stat
		solar    stat
		uv       stat
	)

	for _, s := range snapshots {
		o := s.Observation

		temp.addFloat(o.TempF)
		humidity.addInt(o.Humidity)
		wind.addFloat(o.WindSpeedMPH)
		gust.addFloat(o.WindGustMPH)
		baro.addFloat(o.BaromRelIn)
		solar.addFloat(o.SolarRadiation)
		uv.addInt(o.UV)

		if o.DailyRainIn != nil && (summary.DailyRainIn == nil || *o.DailyRainIn > *summary.DailyRainIn) {
			rain := *o.DailyRainIn
			summary.DailyRainIn = &rain
		}
	}

	summary.TempF = temp.result()
	summary.Humidity = humidity.result()
	summary.WindSpeedMPH = wind.result()
	summary.WindGustMPH = gust.result()
	summary.BaromRelIn = baro.result()
	summary.SolarRadiation = solar.result()
	summary.UV = uv.result()

	return summary
}

type stat struct {
	n        int
	sum      float64
	min, max float64
}

func (s *stat) add(v float64) {
	if s.n == 0 || v < s.min {
		s.min = v
	}
	if s.n == 0 || v > s.max {
		s.max = v
	}
	s.sum += v
	s.n++
}

func (s *stat) addFloat(v *float64) {
	if v != nil {
		s.add(*v)
	}
}

func (s *stat) addInt(v *int) {
	if v != nil {
		s.add(float64(*v))
	}
}

func (s *stat) result() *Stat {
	if s.n == 0 {
		return nil
	}
	return &Stat{
		Samples: s.n,
		Min:     s.min,
		Max:     s.max,
		Mean:    s.sum / float64(s.n),
	}
}
