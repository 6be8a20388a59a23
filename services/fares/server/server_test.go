package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tigerfare-backend/lib/browser"
	"tigerfare-backend/lib/scrapers/tigerair"
	"tigerfare-backend/lib/timezone"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	results map[string]tigerair.RouteResult
	err     error
	calls   []tigerair.Route
}

func (f *fakeBackend) Search(_ context.Context, route tigerair.Route, dates []time.Time) (tigerair.RouteResult, error) {
	f.calls = append(f.calls, route)
	if f.err != nil {
		return tigerair.RouteResult{}, f.err
	}
	result, ok := f.results[route.Code]
	if !ok {
		result = tigerair.RouteResult{Route: route}
	}
	for _, d := range dates {
		result.SearchParams.Dates = append(result.SearchParams.Dates, timezone.FormatDate(d))
	}
	return result, nil
}

func setupAPI(t *testing.T, backend SearchBackend) *echo.Echo {
	t.Helper()
	e := echo.New()
	NewService(backend).Register(e)
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func futureDate() string {
	return timezone.FormatDate(timezone.Today().AddDate(0, 0, 7))
}

func TestGetRoutes(t *testing.T) {
	e := setupAPI(t, &fakeBackend{})
	rec := doJSON(e, http.MethodGet, "/routes", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Routes []struct {
			Code string `json:"code"`
			From string `json:"from"`
			To   string `json:"to"`
			Name string `json:"name"`
		} `json:"routes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Routes, len(tigerair.Routes()))

	codes := map[string]bool{}
	for _, r := range body.Routes {
		codes[r.Code] = true
		require.NotEmpty(t, r.From)
		require.NotEmpty(t, r.To)
		require.NotEmpty(t, r.Name)
	}
	require.True(t, codes["TPE_NRT"])
	require.True(t, codes["KHH_KIX"])
}

func TestSearch(t *testing.T) {
	date := futureDate()
	backend := &fakeBackend{results: map[string]tigerair.RouteResult{
		"TPE_NRT": {
			Route: mustRoute(t, "TPE_NRT"),
			Flights: []tigerair.Flight{{
				FlightNumber:   "IT200",
				DepartureTime:  "09:10",
				ArrivalTime:    "13:15",
				DepartureDate:  date,
				Price:          4200,
				SeatsAvailable: true,
				TimeSlot:       tigerair.SlotMorning,
				Route:          "TPE_NRT",
			}},
		},
	}}
	e := setupAPI(t, backend)

	rec := doJSON(e, http.MethodPost, "/search",
		fmt.Sprintf(`{"departure":"TPE","arrival":"NRT","departure_date":%q}`, date))
	require.Equal(t, http.StatusOK, rec.Code)

	var result tigerair.RouteResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, "TPE_NRT", result.Route.Code)
	require.Len(t, result.Flights, 1)
	require.Equal(t, "IT200", result.Flights[0].FlightNumber)
	require.Equal(t, float64(4200), result.Flights[0].Price)
}

func TestSearchReversedDirection(t *testing.T) {
	backend := &fakeBackend{}
	e := setupAPI(t, backend)

	rec := doJSON(e, http.MethodPost, "/search",
		fmt.Sprintf(`{"departure":"NRT","arrival":"TPE","departure_date":%q}`, futureDate()))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, backend.calls, 1)
	require.Equal(t, "NRT", backend.calls[0].From)
	require.Equal(t, "TPE", backend.calls[0].To)
}

func TestSearchValidation(t *testing.T) {
	e := setupAPI(t, &fakeBackend{})

	for name, body := range map[string]string{
		"bad json":      `{`,
		"bad date":      `{"departure":"TPE","arrival":"NRT","departure_date":"03/20/2026"}`,
		"unknown pair":  fmt.Sprintf(`{"departure":"TPE","arrival":"LAX","departure_date":%q}`, futureDate()),
		"date in past":  `{"departure":"TPE","arrival":"NRT","departure_date":"2020-01-01"}`,
		"empty airport": fmt.Sprintf(`{"departure":"","arrival":"NRT","departure_date":%q}`, futureDate()),
	} {
		t.Run(name, func(t *testing.T) {
			rec := doJSON(e, http.MethodPost, "/search", body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSearchBrowserDown(t *testing.T) {
	e := setupAPI(t, &fakeBackend{err: browser.ErrLaunchFailure})
	rec := doJSON(e, http.MethodPost, "/search",
		fmt.Sprintf(`{"departure":"TPE","arrival":"NRT","departure_date":%q}`, futureDate()))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSearchAllDatesFailed(t *testing.T) {
	date := futureDate()
	backend := &fakeBackend{results: map[string]tigerair.RouteResult{
		"TPE_NRT": {
			Route:  mustRoute(t, "TPE_NRT"),
			Errors: []tigerair.DateError{{Date: date, Cause: "listing never rendered"}},
		},
	}}
	e := setupAPI(t, backend)

	rec := doJSON(e, http.MethodPost, "/search",
		fmt.Sprintf(`{"departure":"TPE","arrival":"NRT","departure_date":%q}`, date))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSearchMultiple(t *testing.T) {
	date := futureDate()
	backend := &fakeBackend{results: map[string]tigerair.RouteResult{
		"TPE_NRT": {Route: mustRoute(t, "TPE_NRT")},
		"TPE_OKA": {Route: mustRoute(t, "TPE_OKA")},
	}}
	e := setupAPI(t, backend)

	rec := doJSON(e, http.MethodPost, "/search/multiple",
		fmt.Sprintf(`{"routes":["TPE_NRT","TPE_OKA"],"dates":[%q]}`, date))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Results map[string]tigerair.RouteResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 2)
	require.Contains(t, body.Results, "TPE_NRT")
	require.Contains(t, body.Results, "TPE_OKA")
	require.Len(t, backend.calls, 2)
}

func TestSearchMultipleUnknownRoute(t *testing.T) {
	e := setupAPI(t, &fakeBackend{})
	rec := doJSON(e, http.MethodPost, "/search/multiple",
		fmt.Sprintf(`{"routes":["TPE_NRX"],"dates":[%q]}`, futureDate()))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "TPE_NRT")
}

func TestSearchMultipleEmptyBody(t *testing.T) {
	e := setupAPI(t, &fakeBackend{})
	rec := doJSON(e, http.MethodPost, "/search/multiple", `{"routes":[],"dates":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func mustRoute(t *testing.T, code string) tigerair.Route {
	t.Helper()
	route, ok := tigerair.LookupRoute(code)
	require.True(t, ok)
	return route
}
