package tigerair

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"tigerfare-backend/lib/browser"
	"tigerfare-backend/lib/htmlutil"
	"tigerfare-backend/lib/timezone"

	"github.com/PuerkitoBio/goquery"
)

var (
	flightNumberRegex = regexp.MustCompile(`\b(IT|TT)\d{2,4}\b`)
	clockRegex        = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	// prefixed prices first; a bare comma-grouped number is the
	// fallback so times and flight numbers never match
	pricePrefixRegex  = regexp.MustCompile(`(?:NT\$?|TWD)\s*([0-9][0-9,]*)`)
	priceGroupedRegex = regexp.MustCompile(`\b(\d{1,3}(?:,\d{3})+)\b`)
)

var soldOutMarkers = []string{"售完", "已滿", "sold out", "unavailable"}

// layoutStrategy is one known shape of the flight-listing DOM. The
// site ships layout changes unannounced, so extraction probes each
// strategy in order and uses the first that recognizes the document.
type layoutStrategy interface {
	name() string
	match(doc *goquery.Document) bool
	rows(doc *goquery.Document) []*goquery.Selection
}

var layouts = []layoutStrategy{cardLayout{}, textLayout{}}

// cardLayout matches the structured results page, one card per flight.
type cardLayout struct{}

func (cardLayout) name() string { return "card" }

func (cardLayout) match(doc *goquery.Document) bool {
	return doc.Find(".flight-card, .flight-result, .flight-item").Length() > 0
}

func (cardLayout) rows(doc *goquery.Document) []*goquery.Selection {
	var rows []*goquery.Selection
	doc.Find(".flight-card, .flight-result, .flight-item").Each(func(_ int, sel *goquery.Selection) {
		rows = append(rows, sel)
	})
	return rows
}

// textLayout is the fallback for partially rendered pages: any div or
// li whose text looks like it describes a flight.
type textLayout struct{}

func (textLayout) name() string { return "text" }

func (textLayout) match(doc *goquery.Document) bool {
	found := false
	doc.Find("div, li").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if flightNumberRegex.MatchString(htmlutil.SelectionText(sel)) {
			found = true
			return false
		}
		return true
	})
	return found
}

func (textLayout) rows(doc *goquery.Document) []*goquery.Selection {
	var rows []*goquery.Selection
	doc.Find("div, li").Each(func(_ int, sel *goquery.Selection) {
		// only leaf-most candidates, otherwise every ancestor of a
		// flight row matches too and rows get extracted repeatedly
		if sel.Find("div, li").Length() > 0 {
			return
		}
		if flightNumberRegex.MatchString(htmlutil.SelectionText(sel)) {
			rows = append(rows, sel)
		}
	})
	return rows
}

// Extract parses a rendered results page into Flight records. Rows
// that cannot be parsed are skipped and counted rather than failing
// the extraction; the same input always yields the same output in the
// same order.
func Extract(route Route, date time.Time, html string) ([]Flight, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0, fmt.Errorf("parse rendered page: %w", err)
	}

	var layout layoutStrategy
	for _, candidate := range layouts {
		if candidate.match(doc) {
			layout = candidate
			break
		}
	}
	if layout == nil {
		return nil, 0, fmt.Errorf("%w: flight listing", browser.ErrElementNotFound)
	}

	var flights []Flight
	skipped := 0
	for _, row := range layout.rows(doc) {
		flight, ok := extractRow(route, date, row)
		if !ok {
			skipped++
			continue
		}
		flights = append(flights, flight)
	}
	return flights, skipped, nil
}

func extractRow(route Route, date time.Time, row *goquery.Selection) (Flight, bool) {
	text := htmlutil.SelectionText(row)

	number := flightNumberRegex.FindString(text)
	if number == "" {
		return Flight{}, false
	}

	times := clockRegex.FindAllString(text, -1)
	if len(times) < 2 {
		return Flight{}, false
	}
	departureTime, arrivalTime := normalizeClock(times[0]), normalizeClock(times[1])

	// the regex also matches impossible clocks like 25:00; such a row
	// is malformed, not a flight in a fifth time slot
	slot := SlotForTime(departureTime)
	if slot == SlotUnknown {
		return Flight{}, false
	}

	price, ok := extractPrice(text)
	if !ok || price < 0 {
		return Flight{}, false
	}

	available := true
	lower := strings.ToLower(text)
	for _, marker := range soldOutMarkers {
		if strings.Contains(lower, marker) {
			available = false
			break
		}
	}

	return Flight{
		FlightNumber:   number,
		DepartureTime:  departureTime,
		ArrivalTime:    arrivalTime,
		DepartureDate:  timezone.FormatDate(date),
		Price:          price,
		SeatsAvailable: available,
		TimeSlot:       slot,
		Route:          route.Code,
	}, true
}

func extractPrice(text string) (float64, bool) {
	groups := pricePrefixRegex.FindStringSubmatch(text)
	raw := ""
	if len(groups) == 2 {
		raw = groups[1]
	} else if groups := priceGroupedRegex.FindStringSubmatch(text); len(groups) == 2 {
		raw = groups[1]
	}
	if raw == "" {
		return 0, false
	}
	price, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

func normalizeClock(hhmm string) string {
	if len(hhmm) == 4 {
		return "0" + hhmm
	}
	return hhmm
}
