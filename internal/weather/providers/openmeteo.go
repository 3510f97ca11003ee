package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/i474232898/people-weather/internal/upstream"
	"github.com/i474232898/people-weather/internal/weather"
)

const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

// NewOpenMeteoClient returns the upstream client for Open-Meteo. Every user in
// a batch gets a first attempt and one retry, so the breaker only considers a
// failure ratio once more calls were made than a batch of batchSize can issue.
func NewOpenMeteoClient(httpClient *http.Client, batchSize int) *upstream.Client {
	if batchSize < 1 {
		batchSize = 1
	}
	minRequests := uint32(2*batchSize + 1)
	return upstream.New("open-meteo", httpClient,
		upstream.WithReadyToTrip(upstream.FailureRatio(minRequests, 0.8)),
		upstream.WithOpenTimeout(30*time.Second),
	)
}

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
type OpenMeteoProvider struct {
	baseURL string
	client  *upstream.Client
}

func NewOpenMeteoProvider(client *upstream.Client, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}
	return &OpenMeteoProvider{
		baseURL: baseURL,
		client:  client,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return "openmeteo"
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, coords weather.Coordinates) (weather.Snapshot, error) {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", coords.Latitude))
	values.Set("longitude", fmt.Sprintf("%f", coords.Longitude))
	values.Set("current_weather", "true")
	values.Set("daily", "temperature_2m_max,temperature_2m_min")
	values.Set("timezone", "auto")

	var payload struct {
		CurrentWeather *weather.Current `json:"current_weather"`
		Daily          weather.Daily    `json:"daily"`
	}

	u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
	if err := p.client.GetJSON(ctx, u, &payload); err != nil {
		return weather.Snapshot{}, err
	}

	// current_weather is required; the daily block may be absent.
	if payload.CurrentWeather == nil {
		return weather.Snapshot{}, fmt.Errorf("openmeteo: %w: missing current_weather", upstream.ErrMalformedBody)
	}

	return weather.Snapshot{
		Current: *payload.CurrentWeather,
		Daily:   payload.Daily,
	}, nil
}
