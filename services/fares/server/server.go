// Package server exposes the scraping pipeline over a small JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"tigerfare-backend/lib/browser"
	"tigerfare-backend/lib/scrapers/tigerair"
	"tigerfare-backend/lib/timezone"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("services/fares/server")

// SearchBackend runs one route search. The production implementation
// opens a browser per call; tests plug in canned results.
type SearchBackend interface {
	Search(ctx context.Context, route tigerair.Route, dates []time.Time) (tigerair.RouteResult, error)
}

// BrowserBackend is the production SearchBackend: one headless
// browser session per search, torn down when the search completes.
type BrowserBackend struct {
	Headless bool
}

func (b BrowserBackend) Search(ctx context.Context, route tigerair.Route, dates []time.Time) (tigerair.RouteResult, error) {
	session, err := browser.Open(ctx, browser.Options{Headless: b.Headless})
	if err != nil {
		return tigerair.RouteResult{}, err
	}
	defer session.Close()

	client, err := tigerair.NewClient(session, tigerair.ClientOptions{})
	if err != nil {
		return tigerair.RouteResult{}, err
	}
	if err := client.Preflight(ctx); err != nil {
		return tigerair.RouteResult{}, err
	}

	controller := tigerair.NewSearchController(client, tigerair.ControllerOptions{})
	return controller.SearchRoute(ctx, route, dates), nil
}

type Service struct {
	backend SearchBackend
}

func NewService(backend SearchBackend) Service {
	return Service{backend: backend}
}

// Register wires the API routes onto an echo instance.
func (s Service) Register(e *echo.Echo) {
	e.Use(middleware.Recover())
	e.Use(slogRequestLogger())

	e.GET("/routes", s.GetRoutes)
	e.POST("/search", s.Search)
	e.POST("/search/multiple", s.SearchMultiple)
}

type routeEntry struct {
	Code string `json:"code"`
	From string `json:"from"`
	To   string `json:"to"`
	Name string `json:"name"`
}

func (s Service) GetRoutes(c echo.Context) error {
	var routes []routeEntry
	for _, r := range tigerair.Routes() {
		routes = append(routes, routeEntry{Code: r.Code, From: r.From, To: r.To, Name: r.Name})
	}
	return c.JSON(http.StatusOK, map[string]any{"routes": routes})
}

type searchRequest struct {
	Departure     string `json:"departure"`
	Arrival       string `json:"arrival"`
	DepartureDate string `json:"departure_date"`
}

func (s Service) Search(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Search")
	defer span.End()

	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	date, err := timezone.ParseDate(req.DepartureDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("invalid departure_date %q, want YYYY-MM-DD", req.DepartureDate))
	}

	route, ok := tigerair.LookupAirports(req.Departure, req.Arrival)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("no supported route between %q and %q", req.Departure, req.Arrival))
	}
	if !strings.EqualFold(route.From, strings.TrimSpace(req.Departure)) {
		route = route.Reversed()
	}

	if err := (tigerair.SearchRequest{Departure: req.Departure, Arrival: req.Arrival, Date: date}).Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := s.backend.Search(ctx, route, []time.Time{date})
	if err != nil {
		span.RecordError(err)
		return searchFailure(err)
	}

	// a single-date search that produced nothing but an error is a
	// failed search, not a partial result
	if len(result.Flights) == 0 && len(result.Errors) > 0 {
		return echo.NewHTTPError(http.StatusInternalServerError, result.Errors[0].Cause)
	}

	return c.JSON(http.StatusOK, result)
}

type multipleRequest struct {
	Routes []string `json:"routes"`
	Dates  []string `json:"dates"`
}

func (s Service) SearchMultiple(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "SearchMultiple")
	defer span.End()

	var req multipleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if len(req.Routes) == 0 || len(req.Dates) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "routes and dates must be non-empty")
	}

	var dates []time.Time
	for _, raw := range req.Dates {
		date, err := timezone.ParseDate(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("invalid date %q, want YYYY-MM-DD", raw))
		}
		dates = append(dates, date)
	}

	var routes []tigerair.Route
	for _, code := range req.Routes {
		route, ok := tigerair.LookupRoute(code)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("unknown route %q, did you mean %q?", code, tigerair.SuggestRoute(code)))
		}
		routes = append(routes, route)
	}

	results := map[string]tigerair.RouteResult{}
	for _, route := range routes {
		result, err := s.backend.Search(ctx, route, dates)
		if err != nil {
			span.RecordError(err)
			return searchFailure(err)
		}
		results[route.Code] = result
	}

	return c.JSON(http.StatusOK, map[string]any{"results": results})
}

// searchFailure maps pipeline errors onto status codes: validation
// mistakes are the caller's, everything else a failed search.
func searchFailure(err error) error {
	var validation tigerair.ValidationError
	if errors.As(err, &validation) {
		return echo.NewHTTPError(http.StatusBadRequest, validation.Error())
	}
	if errors.Is(err, browser.ErrLaunchFailure) {
		return echo.NewHTTPError(http.StatusInternalServerError, "browser engine unavailable")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func slogRequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	})
}

// Serve runs the API until ctx is cancelled.
func Serve(ctx context.Context, port int, backend SearchBackend) error {
	e := echo.New()
	e.HideBanner = true
	NewService(backend).Register(e)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()
		e.Shutdown(shutdownCtx)
	}()

	slog.Info("listening", "port", port)
	err := e.Start(fmt.Sprintf("0.0.0.0:%d", port))
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
