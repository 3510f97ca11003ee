package httpapi

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/people-weather/internal/advice"
	"github.com/i474232898/people-weather/internal/aggregate"
	"github.com/i474232898/people-weather/internal/people"
	"github.com/i474232898/people-weather/internal/store"
	"github.com/i474232898/people-weather/internal/weather"
)

var validate = validator.New()

// Advisor is satisfied by *advice.Client.
type Advisor interface {
	Advise(ctx context.Context, req advice.Request) (string, error)
}

// Deps are the collaborators the routes need.
type Deps struct {
	Engine  *aggregate.Engine
	People  people.Source
	Weather aggregate.WeatherFetcher
	Advice  Advisor
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/users", func(c *fiber.Ctx) error {
		var q countQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		users, err := d.People.FetchBatch(c.UserContext(), q.value(people.DefaultBatchSize))
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "Failed to fetch users")
		}
		return c.JSON(fiber.Map{"results": users})
	})

	v1.Get("/weather", func(c *fiber.Ctx) error {
		coords, err := people.Coordinates{
			Latitude:  c.Query("lat"),
			Longitude: c.Query("lon"),
		}.Parse()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Latitude and longitude are required")
		}

		snap, err := d.Weather.Fetch(c.UserContext(), coords)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "Failed to fetch weather data")
		}
		return c.JSON(snap)
	})

	v1.Get("/entries", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"entries": viewsOf(d.Engine.Entries())})
	})

	v1.Post("/entries/initialize", func(c *fiber.Ctx) error {
		if err := d.Engine.Initialize(c.UserContext()); err != nil {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return c.JSON(fiber.Map{"entries": viewsOf(d.Engine.Entries())})
	})

	v1.Post("/entries/more", func(c *fiber.Ctx) error {
		var q countQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		appended, err := d.Engine.LoadMore(c.UserContext(), q.value(0))
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return c.JSON(fiber.Map{
			"appended": viewsOf(appended),
			"total":    len(d.Engine.IDs()),
		})
	})

	v1.Post("/entries/:id/refresh", func(c *fiber.Ctx) error {
		id := people.UserID(c.Params("id"))
		if _, ok := d.Engine.Entry(id); !ok {
			return fiber.NewError(fiber.StatusNotFound, aggregate.ErrUnknownUser.Error())
		}

		updated := d.Engine.UpdateWeather(c.UserContext(), id)
		entry, _ := d.Engine.Entry(id)
		return c.JSON(fiber.Map{
			"updated": updated,
			"entry":   viewOf(entry),
		})
	})

	v1.Post("/entries/:id/save", func(c *fiber.Ctx) error {
		id := people.UserID(c.Params("id"))
		entry, ok := d.Engine.Entry(id)
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, aggregate.ErrUnknownUser.Error())
		}

		outcome, err := d.Engine.Save(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, aggregate.ErrUnknownUser) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save user")
		}

		status, message := fiber.StatusOK, entry.User.Name.First+" is already saved."
		if outcome == store.Added {
			status, message = fiber.StatusCreated, entry.User.Name.First+" has been saved!"
		}
		return c.Status(status).JSON(fiber.Map{
			"outcome": outcome.String(),
			"message": message,
		})
	})

	v1.Post("/entries/:id/advice", func(c *fiber.Ctx) error {
		entry, ok := d.Engine.Entry(people.UserID(c.Params("id")))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, aggregate.ErrUnknownUser.Error())
		}
		if entry.Weather == nil {
			return fiber.NewError(fiber.StatusConflict, "Cannot get advice without weather data.")
		}

		text, err := d.Advice.Advise(c.UserContext(), advice.RequestFor(*entry.Weather))
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, "Failed to get advice from the server.")
		}
		return c.JSON(fiber.Map{
			"advice":    text,
			"condition": weather.AdviceLabel(entry.Weather.Current.WeatherCode),
			"summary":   entry.Weather.Summary(),
		})
	})
}

// entryView is an Entry plus the display summary of its weather.
type entryView struct {
	aggregate.Entry
	Summary *weather.Summary `json:"summary,omitempty"`
}

func viewOf(en aggregate.Entry) entryView {
	v := entryView{Entry: en}
	if en.Weather != nil {
		sum := en.Weather.Summary()
		v.Summary = &sum
	}
	return v
}

func viewsOf(entries []aggregate.Entry) []entryView {
	out := make([]entryView, len(entries))
	for i, en := range entries {
		out[i] = viewOf(en)
	}
	return out
}

// countQuery holds the optional batch size parameter.
type countQuery struct {
	Count *int `query:"count" validate:"omitempty,gte=1,lte=5000"`
}

func (q *countQuery) value(fallback int) int {
	if q.Count == nil {
		return fallback
	}
	return *q.Count
}

func (q *countQuery) bind(c *fiber.Ctx) error {
	if err := c.QueryParser(q); err != nil {
		return err
	}
	return validate.Struct(q)
}
