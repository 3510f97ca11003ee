package people

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/people-weather/internal/weather"
)

// ErrMissingCoordinates is returned when a user has no usable latitude/longitude.
var ErrMissingCoordinates = errors.New("latitude and longitude are required")

var validate = validator.New()

// UserID is the identity key of a User.
type UserID string

// Identity is the provider-issued identifier; only Value is used as the key.
type Identity struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Name struct {
	Title string `json:"title,omitempty"`
	First string `json:"first"`
	Last  string `json:"last"`
}

// Full returns "First Last".
func (n Name) Full() string {
	if n.Last == "" {
		return n.First
	}
	return n.First + " " + n.Last
}

type Street struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// Coordinates are kept as the decimal strings the provider sends.
type Coordinates struct {
	Latitude  string `json:"latitude" validate:"required,latitude"`
	Longitude string `json:"longitude" validate:"required,longitude"`
}

// Parse validates the coordinates and converts them for a weather fetch.
func (c Coordinates) Parse() (weather.Coordinates, error) {
	if err := validate.Struct(c); err != nil {
		return weather.Coordinates{}, ErrMissingCoordinates
	}
	lat, err := strconv.ParseFloat(c.Latitude, 64)
	if err != nil {
		return weather.Coordinates{}, ErrMissingCoordinates
	}
	lon, err := strconv.ParseFloat(c.Longitude, 64)
	if err != nil {
		return weather.Coordinates{}, ErrMissingCoordinates
	}
	return weather.Coordinates{Latitude: lat, Longitude: lon}, nil
}

// Postcode accepts both JSON numbers and strings; randomuser sends either
// depending on nationality.
type Postcode string

func (p *Postcode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Postcode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = Postcode(n.String())
	return nil
}

type Location struct {
	Street      Street      `json:"street"`
	City        string      `json:"city"`
	State       string      `json:"state"`
	Country     string      `json:"country"`
	Postcode    Postcode    `json:"postcode"`
	Coordinates Coordinates `json:"coordinates"`
}

type Picture struct {
	Large     string `json:"large"`
	Medium    string `json:"medium,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// User is one person record. Users are treated as immutable values: an update
// is a full replacement.
type User struct {
	ID       Identity `json:"id"`
	Name     Name     `json:"name"`
	Gender   string   `json:"gender"`
	Email    string   `json:"email"`
	Location Location `json:"location"`
	Picture  Picture  `json:"picture"`
}

// Key returns the identity used for deduplication. An empty key means the
// record cannot be addressed.
func (u User) Key() UserID {
	return UserID(u.ID.Value)
}
