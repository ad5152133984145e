package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/rickykhulal/bolt-earth/internal/fusion"
	"github.com/rickykhulal/bolt-earth/internal/store"
	"github.com/rickykhulal/bolt-earth/internal/weather"
)

var validate = validator.New()

// liveTimeout bounds a live fusion request across all providers.
const liveTimeout = 20 * time.Second

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/air/current", func(c *fiber.Ctx) error {
		locReq, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), liveTimeout)
		defer cancel()

		snapshot, err := service.Current(ctx, locReq.toLocation())
		if err != nil {
			if errors.Is(err, weather.ErrNoProviders) {
				return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fuse readings")
		}

		return c.JSON(snapshot)
	})

	v1.Get("/air/latest", func(c *fiber.Ctx) error {
		locReq, err := parseNamedLocation(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshot, err := service.GetLatest(locReq.toLocation())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no merged reading for requested location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load merged reading")
		}

		return c.JSON(snapshot)
	})

	v1.Get("/air/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc := req.Location.toLocation()
		snapshots, err := service.GetRange(loc, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no history for requested location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load history")
		}

		return c.JSON(fiber.Map{
			"location":  loc,
			"from":      req.From,
			"to":        req.To,
			"snapshots": snapshots,
		})
	})

	v1.Post("/fusion/merge", func(c *fiber.Ctx) error {
		var req mergeRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body: "+err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		place := fusion.Place{City: req.City, Country: req.Country}
		if req.Lat != nil && req.Lng != nil {
			place.Lat, place.Lng = *req.Lat, *req.Lng
		}
		return c.JSON(service.Merge(req.Readings, place))
	})
}

// locationQuery identifies a place either by name or by coordinates.
type locationQuery struct {
	City    string   `validate:"required_without=Lat"`
	Country string   `validate:"required_with=City"`
	Lat     *float64 `validate:"omitempty,gte=-90,lte=90"`
	Lng     *float64 `validate:"omitempty,gte=-180,lte=180"`
}

func (l locationQuery) toLocation() weather.Location {
	return weather.Location{
		City:    l.City,
		Country: l.Country,
		Lat:     l.Lat,
		Lng:     l.Lng,
	}
}

func parseLocationQuery(c *fiber.Ctx) (locationQuery, error) {
	var q locationQuery

	q.City = c.Query("city")
	q.Country = c.Query("country")

	var err error
	if q.Lat, err = parseCoordinate(c, "lat"); err != nil {
		return q, err
	}
	if q.Lng, err = parseCoordinate(c, "lng"); err != nil {
		return q, err
	}
	if (q.Lat == nil) != (q.Lng == nil) {
		return q, errors.New("lat and lng must be given together")
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

// parseNamedLocation is used by the stored-data endpoints, which are keyed by
// city and country.
func parseNamedLocation(c *fiber.Ctx) (locationQuery, error) {
	q, err := parseLocationQuery(c)
	if err != nil {
		return q, err
	}
	if q.City == "" {
		return q, errors.New("city and country query parameters are required")
	}
	return q, nil
}

func parseCoordinate(c *fiber.Ctx, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.New("invalid " + key + ": " + raw)
	}
	return &v, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Location locationQuery
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	loc, err := parseNamedLocation(c)
	if err != nil {
		return err
	}
	h.Location = loc

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// mergeRequest is the body of the offline merge endpoint.
type mergeRequest struct {
	City     string                 `json:"city"`
	Country  string                 `json:"country"`
	Lat      *float64               `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng      *float64               `json:"lng" validate:"omitempty,gte=-180,lte=180"`
	Readings []fusion.SourceReading `json:"readings" validate:"required,min=1,dive"`
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
