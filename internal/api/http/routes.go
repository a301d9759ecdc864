package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-sync/internal/stream"
	"github.com/i474232898/weather-sync/internal/weather"
)

var validate = validator.New()

// Deps holds what the handlers need. Ctx bounds every event stream: when it
// is cancelled, open streams end so the server can shut down.
type Deps struct {
	Ctx    context.Context
	Repo   *weather.Repository
	Unit   weather.Unit
	Logger *slog.Logger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	if d.Ctx == nil {
		d.Ctx = context.Background()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	repo := d.Repo

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-sync",
		})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		unit := d.unitFor(c)
		recs, err := stream.First(c.UserContext(), repo.ObserveAll(c.UserContext()))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read weather records")
		}
		return c.JSON(fiber.Map{
			"unit":    unit,
			"records": viewAll(recs, unit),
		})
	})

	v1.Get("/weather/stream", func(c *fiber.Ctx) error {
		unit := d.unitFor(c)
		sub := stream.Map(repo.ObserveAll(d.Ctx), func(recs []weather.Record) any {
			return viewAll(recs, unit)
		})
		return streamEvents(c, d.Logger, "records", sub)
	})

	v1.Post("/weather/sync", func(c *fiber.Ctx) error {
		s := repo.SyncRemote(c.UserContext())
		unit := d.unitFor(c)

		if c.QueryBool("wait") {
			res, err := s.Wait(c.UserContext())
			if err != nil {
				d.Logger.Error("sync failed", "sync_id", s.ID(), "error", err)
				return fiber.NewError(fiber.StatusInternalServerError, "failed to store synced weather")
			}
			return c.JSON(newSyncResponse(s.ID(), res, unit))
		}
		return streamSync(d.Ctx, c, d.Logger, s, unit)
	})

	v1.Post("/weather", func(c *fiber.Ctx) error {
		var rec weather.Record
		if err := c.BodyParser(&rec); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if rec.ID < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "id must not be negative")
		}
		if err := validate.Struct(rec); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if rec.Condition == "" {
			rec.Condition = weather.ConditionUnknown
		}
		if rec.ObservedAt.IsZero() {
			rec.ObservedAt = time.Now().UTC()
		}

		if err := repo.Insert(c.UserContext(), &rec); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save weather record")
		}
		return c.Status(fiber.StatusCreated).JSON(view(rec, d.unitFor(c)))
	})

	v1.Delete("/weather", func(c *fiber.Ctx) error {
		if err := repo.ClearAll(c.UserContext()); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to clear weather records")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/weather/:id", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		rec, err := stream.First(c.UserContext(), repo.ObserveByID(c.UserContext(), id))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read weather record")
		}
		if rec == nil {
			return fiber.NewError(fiber.StatusNotFound, "no weather record with that id")
		}
		return c.JSON(view(*rec, d.unitFor(c)))
	})

	v1.Get("/weather/:id/stream", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		unit := d.unitFor(c)
		sub := stream.Map(repo.ObserveByID(d.Ctx, id), func(rec *weather.Record) any {
			if rec == nil {
				return nil
			}
			return view(*rec, unit)
		})
		return streamEvents(c, d.Logger, "record", sub)
	})

	v1.Put("/weather/:id/city", func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var req cityRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rec, err := repo.SaveCityName(c.UserContext(), id, req.CityName)
		if err != nil {
			if errors.Is(err, weather.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather record with that id")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to rename weather record")
		}
		return c.JSON(view(rec, d.unitFor(c)))
	})
}

// ErrorHandler renders every handler error as a JSON body.
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

type cityRequest struct {
	CityName string `json:"cityName" validate:"required,max=100"`
}

// unitFor returns the unit requested with ?unit=, or the configured default.
func (d Deps) unitFor(c *fiber.Ctx) weather.Unit {
	if q := c.Query("unit"); q != "" {
		return weather.ParseUnit(q)
	}
	return d.Unit
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "id must be a positive integer")
	}
	return id, nil
}
