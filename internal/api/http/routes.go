package httpapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/i474232898/ambient-weather/internal/common"
	"github.com/i474232898/ambient-weather/internal/store"
	"github.com/i474232898/ambient-weather/internal/weather"
	"github.com/i474232898/ambient-weather/pkg/ambient"
)

var validate = validator.New()

// ObservationService is what the routes need from the poller.
// *weather.Service satisfies it.
type ObservationService interface {
	Device() string
	GetLatest() (weather.Snapshot, error)
	GetRange(from, to time.Time) ([]weather.Snapshot, error)
	Summary(from, to time.Time) (weather.Summary, error)
	Backfill(ctx context.Context, limit int) (int, error)
	Devices(ctx context.Context) ([]ambient.Device, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. Routes that
// reach the vendor share vendorLimit; nil disables the limit.
func RegisterRoutes(app *fiber.App, service ObservationService, vendorLimit *rate.Limiter) {
	v1 := app.Group("/api/v1")
	limited := limit(vendorLimit)

	v1.Get("/observations/latest", func(c *fiber.Ctx) error {
		snapshot, err := service.GetLatest()
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no observation stored yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read observations")
		}

		return c.JSON(snapshot)
	})

	v1.Get("/observations/history", func(c *fiber.Ctx) error {
		var req rangeQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshots, err := service.GetRange(req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no observations for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read observations")
		}

		return c.JSON(fiber.Map{
			"device":       service.Device(),
			"from":         req.From,
			"to":           req.To,
			"observations": snapshots,
		})
	})

	v1.Get("/observations/summary", func(c *fiber.Ctx) error {
		var req rangeQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		summary, err := service.Summary(req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no observations for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to summarize observations")
		}

		return c.JSON(summary)
	})

	v1.Post("/observations/backfill", limited, func(c *fiber.Ctx) error {
		req := backfillQuery{Limit: c.QueryInt("limit", ambient.MaxHistoricLimit)}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		added, err := service.Backfill(c.UserContext(), req.Limit)
		if err != nil {
			return vendorError(err)
		}

		return c.JSON(fiber.Map{
			"device": service.Device(),
			"added":  added,
		})
	})

	v1.Get("/devices", limited, func(c *fiber.Ctx) error {
		devices, err := service.Devices(c.UserContext())
		if err != nil {
			return vendorError(err)
		}

		return c.JSON(devices)
	})
}

// ErrorHandler renders every error as a JSON body.
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

func limit(l *rate.Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if l != nil && !l.Allow() {
			return fiber.NewError(fiber.StatusTooManyRequests, "vendor request budget exhausted; retry later")
		}
		return c.Next()
	}
}

// vendorError maps vendor failures to a status without echoing the
// underlying error, which may carry request details.
func vendorError(err error) error {
	var statusErr *ambient.StatusError
	switch {
	case errors.Is(err, weather.ErrVendorUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, "vendor API temporarily unavailable")
	case errors.Is(err, ambient.ErrDeviceNotFound):
		return fiber.NewError(fiber.StatusNotFound, "configured device not found on account")
	case errors.As(err, &statusErr):
		return fiber.NewError(fiber.StatusBadGateway, fmt.Sprintf("vendor returned status %d", statusErr.StatusCode))
	default:
		return fiber.NewError(fiber.StatusBadGateway, "vendor request failed")
	}
}

type backfillQuery struct {
	Limit int `validate:"min=1,max=288"`
}

// rangeQuery holds query parameters for the range endpoints.
type rangeQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (q *rangeQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := common.ParseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := common.ParseTime(toStr)
	if err != nil {
		return err
	}

	q.From = from
	q.To = to
	return validate.Struct(q)
}
