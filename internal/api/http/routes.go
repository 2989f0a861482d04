package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/assistant"
	"github.com/i474232898/weather-dashboard/internal/panels"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

// Handlers are the dependencies of the HTTP API.
type Handlers struct {
	Weather      *weather.Service
	Conversation *assistant.Conversation
	Panels       *panels.Panels
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, h Handlers) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		var q cityQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		record, err := h.Weather.Current(c.UserContext(), q.City)
		if err != nil {
			return weatherError(c, err)
		}

		return c.JSON(fiber.Map{
			"record":    record,
			"condition": record.Condition(),
		})
	})

	v1.Post("/weather/query", func(c *fiber.Ctx) error {
		var body queryBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		coord := h.Weather.Coordinator()
		coord.Query(body.Query)
		return c.Status(fiber.StatusAccepted).JSON(coord.State())
	})

	v1.Get("/weather/state", func(c *fiber.Ctx) error {
		return c.JSON(h.Weather.Coordinator().State())
	})

	v1.Post("/weather/reset", func(c *fiber.Ctx) error {
		coord := h.Weather.Coordinator()
		coord.Reset()
		return c.JSON(coord.State())
	})

	v1.Post("/weather/voice", func(c *fiber.Ctx) error {
		var body voiceBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		query := assistant.VoiceQuery(body.Transcript)
		coord := h.Weather.Coordinator()
		coord.Query(query)
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"query": query,
			"state": coord.State(),
		})
	})

	v1.Get("/weather/trend", func(c *fiber.Ctx) error {
		var q trendQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		points, err := h.Weather.Trend(c.UserContext(), q.City, q.Points)
		if err != nil {
			return weatherError(c, err)
		}

		return c.JSON(fiber.Map{
			"city":    q.City,
			"points":  points,
			"summary": weather.SummarizeTrend(points),
		})
	})

	v1.Get("/weather/air", func(c *fiber.Ctx) error {
		var q coordQuery
		if err := q.bind(c, true); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		aq, err := h.Weather.AirQuality(c.UserContext(), q.coord())
		if err != nil {
			return weatherError(c, err)
		}
		return c.JSON(aq)
	})

	v1.Get("/cities/suggest", func(c *fiber.Ctx) error {
		var q suggestQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var near *weather.Coord
		if q.Near.set {
			at := q.Near.coord()
			near = &at
		}

		suggestions, err := h.Weather.Suggest(c.UserContext(), q.Text, near)
		if err != nil {
			return weatherError(c, err)
		}
		return c.JSON(fiber.Map{"suggestions": suggestions})
	})

	v1.Get("/assistant/messages", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"messages": h.Conversation.Messages()})
	})

	v1.Post("/assistant/messages", func(c *fiber.Ctx) error {
		var body messageBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		question, reply, err := h.Conversation.Send(c.UserContext(), body.Text)
		if err != nil {
			return weatherError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"question": question,
			"reply":    reply,
		})
	})

	v1.Get("/panels/cities", func(c *fiber.Ctx) error {
		tiles, err := h.Panels.Cities.Get(c.UserContext())
		if err != nil {
			return weatherError(c, err)
		}
		return c.JSON(fiber.Map{"cities": tiles})
	})

	v1.Get("/panels/news", func(c *fiber.Ctx) error {
		articles, err := h.Panels.News.Get(c.UserContext())
		if err != nil {
			return weatherError(c, err)
		}
		resp := fiber.Map{"articles": articles}
		if until, limited := h.Panels.News.RateLimitedUntil(c.UserContext()); limited {
			resp["rateLimitedUntil"] = until
		}
		return c.JSON(resp)
	})

	v1.Get("/panels/location", func(c *fiber.Ctx) error {
		var q coordQuery
		if err := q.bind(c, true); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		lw, err := h.Panels.Location.Get(c.UserContext(), q.coord())
		if err != nil {
			return weatherError(c, err)
		}
		return c.JSON(lw)
	})
}

// weatherError maps the weather error taxonomy onto HTTP status codes.
func weatherError(c *fiber.Ctx, err error) error {
	switch weather.KindOf(err) {
	case weather.KindEmptyInput:
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case weather.KindNotFound:
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case weather.KindRateLimited:
		var rateErr *weather.RateLimitedError
		if errors.As(err, &rateErr) {
			if secs := int(time.Until(rateErr.RetryAt).Seconds()); secs > 0 {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
			}
		}
		return fiber.NewError(fiber.StatusTooManyRequests, err.Error())
	case weather.KindProviderError:
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(fiber.StatusServiceUnavailable, "weather service unavailable, please try again")
	}
}

// cityQuery holds the city query parameter.
type cityQuery struct {
	City string `validate:"required,max=100"`
}

func (q *cityQuery) bind(c *fiber.Ctx) error {
	q.City = c.Query("city")
	return validate.Struct(q)
}

// trendQuery holds query parameters for the trend endpoint.
type trendQuery struct {
	City   string `validate:"required,max=100"`
	Points int    `validate:"min=1,max=40"`
}

func (q *trendQuery) bind(c *fiber.Ctx) error {
	q.City = c.Query("city")
	q.Points = 8
	if raw := c.Query("points"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return errors.New("points must be an integer")
		}
		q.Points = n
	}
	return validate.Struct(q)
}

// coordQuery holds latitude/longitude query parameters.
type coordQuery struct {
	Lat float64 `validate:"min=-90,max=90"`
	Lon float64 `validate:"min=-180,max=180"`
	set bool
}

func (q *coordQuery) coord() weather.Coord {
	return weather.Coord{Lat: q.Lat, Lon: q.Lon}
}

// bind parses lat and lon. When required is false both may be omitted together.
func (q *coordQuery) bind(c *fiber.Ctx, required bool) error {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" && lonStr == "" {
		if required {
			return errors.New("lat and lon query parameters are required")
		}
		return nil
	}
	if latStr == "" || lonStr == "" {
		return errors.New("lat and lon must be given together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return errors.New("invalid lat")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return errors.New("invalid lon")
	}

	q.Lat, q.Lon, q.set = lat, lon, true
	return validate.Struct(q)
}

// suggestQuery holds query parameters for city suggestions.
type suggestQuery struct {
	Text string `validate:"required,max=100"`
	Near coordQuery
}

func (q *suggestQuery) bind(c *fiber.Ctx) error {
	q.Text = c.Query("q")
	if err := q.Near.bind(c, false); err != nil {
		return err
	}
	return validate.Struct(q)
}

type queryBody struct {
	Query string `json:"query" validate:"required,max=100"`
}

type voiceBody struct {
	Transcript string `json:"transcript" validate:"required,max=500"`
}

type messageBody struct {
	Text string `json:"text" validate:"required,max=500"`
}
