package weather

// Condition is the coarse sky state shown next to a reading.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionFog     Condition = "fog"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
)

// Coordinates identify the point a snapshot is fetched for.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Current holds the instantaneous reading.
type Current struct {
	Temperature float64 `json:"temperature"`
	WeatherCode int     `json:"weathercode"`
}

// Daily holds per-day forecast arrays; index 0 is today.
type Daily struct {
	TemperatureMax []float64 `json:"temperature_2m_max"`
	TemperatureMin []float64 `json:"temperature_2m_min"`
}

// Snapshot is one complete weather reading. A new Snapshot is produced on every
// fetch; snapshots are replaced wholesale, never patched.
type Snapshot struct {
	Current Current `json:"current_weather"`
	Daily   Daily   `json:"daily"`
}

// TodayMax returns the forecast maximum for today, if the provider sent one.
func (s Snapshot) TodayMax() (float64, bool) {
	if len(s.Daily.TemperatureMax) == 0 {
		return 0, false
	}
	return s.Daily.TemperatureMax[0], true
}

// TodayMin returns the forecast minimum for today, if the provider sent one.
func (s Snapshot) TodayMin() (float64, bool) {
	if len(s.Daily.TemperatureMin) == 0 {
		return 0, false
	}
	return s.Daily.TemperatureMin[0], true
}

// Condition maps the provider weather code to a Condition.
func (s Snapshot) Condition() Condition {
	return ConditionFromCode(s.Current.WeatherCode)
}

// Summary is the display form of a snapshot. High and Low are nil when the
// provider sent no daily forecast.
type Summary struct {
	Temperature float64   `json:"temperature"`
	Condition   Condition `json:"condition"`
	Label       string    `json:"label"`
	High        *float64  `json:"high,omitempty"`
	Low         *float64  `json:"low,omitempty"`
}

func (s Snapshot) Summary() Summary {
	sum := Summary{
		Temperature: s.Current.Temperature,
		Condition:   s.Condition(),
		Label:       AdviceLabel(s.Current.WeatherCode),
	}
	if v, ok := s.TodayMax(); ok {
		sum.High = &v
	}
	if v, ok := s.TodayMin(); ok {
		sum.Low = &v
	}
	return sum
}
