package httpapi

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/Mametango/home-signage-sub000/internal/news"
	"github.com/Mametango/home-signage-sub000/internal/quake"
	"github.com/Mametango/home-signage-sub000/internal/settings"
	"github.com/Mametango/home-signage-sub000/internal/store"
	"github.com/Mametango/home-signage-sub000/internal/weather"
)

var validate = validator.New()

// WeatherService is the part of weather.Service the dashboard reads.
type WeatherService interface {
	Current() (weather.WeatherSnapshot, error)
	GetLatest(loc weather.Location) (weather.WeatherSnapshot, error)
	Hourly() []weather.HourlySeries
	Weekly() weather.WeeklyForecast
	Refresh(ctx context.Context, loc weather.Location) error
}

type CommentarySource interface {
	Entries() []store.CommentaryEntry
}

type NewsSource interface {
	Headlines() []news.Headline
}

type QuakeSource interface {
	Reports(ctx context.Context) ([]quake.Report, error)
	Dismiss(ctx context.Context, id string) error
}

type SettingsStore interface {
	Get(ctx context.Context) (settings.Settings, error)
	UpdateLocation(ctx context.Context, loc weather.Location) (settings.Settings, error)
	UpdatePreferences(ctx context.Context, prefs settings.Preferences) (settings.Settings, error)
}

// Deps bundles what the dashboard routes read from.
type Deps struct {
	Weather    WeatherService
	Commentary CommentarySource
	News       NewsSource
	Quakes     QuakeSource
	Settings   SettingsStore
}

// ErrorHandler renders every handler error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the dashboard handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	api := app.Group("/api")

	api.Get("/weather/current", func(c *fiber.Ctx) error {
		var (
			snapshot weather.WeatherSnapshot
			err      error
		)
		if c.Query("city") == "" && c.Query("prefecture") == "" {
			snapshot, err = deps.Weather.Current()
		} else {
			locReq, perr := parseLocationQuery(c)
			if perr != nil {
				return fiber.NewError(fiber.StatusBadRequest, perr.Error())
			}
			snapshot, err = deps.Weather.GetLatest(locReq.toLocation())
		}
		if err != nil {
			if errors.Is(err, weather.ErrNoSnapshot) {
				return fiber.NewError(fiber.StatusNotFound, "no weather data yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
		}

		return c.JSON(snapshot)
	})

	api.Get("/weather/commentary", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"entries": deps.Commentary.Entries()})
	})

	api.Get("/weather/hourly", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"series": deps.Weather.Hourly()})
	})

	api.Get("/weather/weekly", func(c *fiber.Ctx) error {
		return c.JSON(deps.Weather.Weekly())
	})

	api.Post("/weather/refresh", func(c *fiber.Ctx) error {
		current, err := deps.Settings.Get(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read settings")
		}
		if err := deps.Weather.Refresh(c.UserContext(), current.Location); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		snapshot, err := deps.Weather.Current()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
		}
		return c.JSON(snapshot)
	})

	api.Get("/news", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"headlines": deps.News.Headlines()})
	})

	api.Get("/quakes", func(c *fiber.Ctx) error {
		reports, err := deps.Quakes.Reports(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read earthquake reports")
		}
		return c.JSON(fiber.Map{"reports": reports})
	})

	api.Post("/quakes/:id/dismiss", func(c *fiber.Ctx) error {
		if err := deps.Quakes.Dismiss(c.UserContext(), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to dismiss report")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	api.Get("/settings", func(c *fiber.Ctx) error {
		current, err := deps.Settings.Get(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read settings")
		}
		return c.JSON(current)
	})

	api.Put("/settings/location", func(c *fiber.Ctx) error {
		var loc weather.Location
		if err := c.BodyParser(&loc); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(loc); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		updated, err := deps.Settings.UpdateLocation(c.UserContext(), loc)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save settings")
		}
		return c.JSON(updated)
	})

	api.Put("/settings/preferences", func(c *fiber.Ctx) error {
		var prefs settings.Preferences
		if err := c.BodyParser(&prefs); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		updated, err := deps.Settings.UpdatePreferences(c.UserContext(), prefs)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save settings")
		}
		return c.JSON(updated)
	})
}

// locationQuery holds query parameters for identifying a location.
type locationQuery struct {
	Prefecture string `validate:"required"`
	City       string `validate:"required"`
}

func (l locationQuery) toLocation() weather.Location {
	return weather.Location{
		Prefecture: l.Prefecture,
		City:       l.City,
	}
}

func parseLocationQuery(c *fiber.Ctx) (locationQuery, error) {
	var q locationQuery

	q.Prefecture = c.Query("prefecture")
	q.City = c.Query("city")

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}
