package httpapi

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/pulsehq/venue-pulse/internal/ingest"
	"github.com/pulsehq/venue-pulse/internal/store"
	"github.com/pulsehq/venue-pulse/internal/venue"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *venue.Service, readings store.Store) {
	v1 := app.Group("/api/v1")

	// Full pipeline output. Data absence is a normal 200 with explicit
	// noData/learning flags; only infrastructure failures are 5xx.
	v1.Get("/venues/:venueId/state", func(c *fiber.Ctx) error {
		venueID, err := venueIDParam(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		state, err := service.ComputeVenueState(c.Context(), venueID, time.Now().UTC())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to compute venue state")
		}

		return c.JSON(state)
	})

	v1.Get("/venues/:venueId/occupancy", func(c *fiber.Ctx) error {
		venueID, err := venueIDParam(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		state, err := service.ComputeVenueState(c.Context(), venueID, time.Now().UTC())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to compute occupancy")
		}

		return c.JSON(fiber.Map{
			"venueId":   venueID,
			"occupancy": state.Occupancy,
			"dwell":     state.Dwell,
		})
	})

	v1.Get("/venues/:venueId/score", func(c *fiber.Ctx) error {
		venueID, err := venueIDParam(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		state, err := service.ComputeVenueState(c.Context(), venueID, time.Now().UTC())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to compute score")
		}

		return c.JSON(fiber.Map{
			"venueId": venueID,
			"score":   state.Score,
			"noData":  state.Occupancy.NoData,
		})
	})

	v1.Get("/venues/:venueId/learning", func(c *fiber.Ctx) error {
		venueID, err := venueIDParam(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		summary, err := service.Learning(venueID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch learning state")
		}

		return c.JSON(fiber.Map{
			"venueId":     venueID,
			"bestNights":  summary.BestNights,
			"weeksOfData": summary.WeeksOfData,
			"confidence":  summary.Confidence,
		})
	})

	v1.Get("/venues/:venueId/readings/latest", func(c *fiber.Ctx) error {
		venueID, err := venueIDParam(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		latest, err := readings.LatestReading(c.Context(), venueID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no readings for requested venue")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch latest reading")
		}

		return c.JSON(latest)
	})

	// HTTP ingest fallback for devices that can't reach the MQTT broker.
	v1.Post("/readings", func(c *fiber.Ctx) error {
		var payload ingest.SensorPayload
		if err := c.BodyParser(&payload); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid sensor payload")
		}
		if err := validate.Struct(payload); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		reading, err := payload.ToReading()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := readings.SaveReading(c.Context(), reading); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save reading")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":      reading.ID,
			"venueId": reading.VenueID,
		})
	})
}

// venueIDParam extracts and validates the venue id path parameter.
func venueIDParam(c *fiber.Ctx) (string, error) {
	venueID := c.Params("venueId")
	if venueID == "" {
		return "", errors.New("venueId is required")
	}
	return venueID, nil
}
