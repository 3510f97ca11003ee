package advice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/i474232898/people-weather/internal/upstream"
	"github.com/i474232898/people-weather/internal/weather"
)

const DefaultURL = "http://localhost/advice"

// ErrUnavailable is returned when the advice service fails or answers with nothing.
var ErrUnavailable = errors.New("advice unavailable")

// Request is the body sent to the advice service.
type Request struct {
	Temperature float64 `json:"temperature"`
	Condition   string  `json:"condition"`
}

// RequestFor builds the advice request for a weather snapshot.
func RequestFor(s weather.Snapshot) Request {
	return Request{
		Temperature: s.Current.Temperature,
		Condition:   weather.AdviceLabel(s.Current.WeatherCode),
	}
}

// Client calls the external clothing advice service.
type Client struct {
	url    string
	client *upstream.Client
}

func NewClient(client *upstream.Client, url string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{url: url, client: client}
}

// Advise returns the advice text for req.
func (c *Client) Advise(ctx context.Context, req Request) (string, error) {
	var resp struct {
		Advice string `json:"advice"`
	}
	if err := c.client.PostJSON(ctx, c.url, req, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if strings.TrimSpace(resp.Advice) == "" {
		return "", fmt.Errorf("%w: empty advice", ErrUnavailable)
	}
	return resp.Advice, nil
}
