package people

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/i474232898/people-weather/internal/upstream"
)

const DefaultRandomUserURL = "https://randomuser.me/api/"

// RandomUserSource implements Source against the randomuser.me API.
type RandomUserSource struct {
	baseURL     string
	nationality string
	client      *upstream.Client
	logger      zerolog.Logger
}

func NewRandomUserSource(client *upstream.Client, baseURL, nationality string, logger zerolog.Logger) *RandomUserSource {
	if baseURL == "" {
		baseURL = DefaultRandomUserURL
	}
	return &RandomUserSource{
		baseURL:     baseURL,
		nationality: nationality,
		client:      client,
		logger:      logger.With().Str("component", "people").Logger(),
	}
}

// FetchBatch requests count users in a single call.
func (s *RandomUserSource) FetchBatch(ctx context.Context, count int) ([]User, error) {
	if count <= 0 {
		count = DefaultBatchSize
	}

	values := url.Values{}
	values.Set("results", strconv.Itoa(count))
	if s.nationality != "" {
		values.Set("nat", s.nationality)
	}

	var payload struct {
		Results []User `json:"results"`
		Error   string `json:"error"`
	}

	u := fmt.Sprintf("%s?%s", s.baseURL, values.Encode())
	if err := s.client.GetJSON(ctx, u, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}
	if payload.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrProviderFailure, payload.Error)
	}

	s.logger.Debug().Int("requested", count).Int("received", len(payload.Results)).Msg("fetched user batch")
	return payload.Results, nil
}
