package tigerair

import (
	"fmt"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

// Route is one origin-destination pair the carrier serves. The set of
// supported routes is a fixed table, not a free-form input.
type Route struct {
	Code string `json:"code"`
	From string `json:"from"`
	To   string `json:"to"`
	Name string `json:"name"`
}

var routeTable = map[string]Route{
	"TPE_NRT": {Code: "TPE_NRT", From: "TPE", To: "NRT", Name: "台北-東京成田"},
	"TPE_KIX": {Code: "TPE_KIX", From: "TPE", To: "KIX", Name: "台北-大阪關西"},
	"TPE_FUK": {Code: "TPE_FUK", From: "TPE", To: "FUK", Name: "台北-福岡"},
	"TPE_OKA": {Code: "TPE_OKA", From: "TPE", To: "OKA", Name: "台北-沖繩那霸"},
	"KHH_NRT": {Code: "KHH_NRT", From: "KHH", To: "NRT", Name: "高雄-東京成田"},
	"KHH_KIX": {Code: "KHH_KIX", From: "KHH", To: "KIX", Name: "高雄-大阪關西"},
	"TSA_NRT": {Code: "TSA_NRT", From: "TSA", To: "NRT", Name: "台北松山-東京成田"},
}

func Routes() []Route {
	out := make([]Route, 0, len(routeTable))
	for _, r := range routeTable {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func LookupRoute(code string) (Route, bool) {
	r, ok := routeTable[strings.ToUpper(strings.TrimSpace(code))]
	return r, ok
}

// LookupAirports resolves a (departure, arrival) pair back to a known
// route, in either direction. The reverse direction matters because
// return legs search the mirrored pair.
func LookupAirports(departure, arrival string) (Route, bool) {
	departure = strings.ToUpper(strings.TrimSpace(departure))
	arrival = strings.ToUpper(strings.TrimSpace(arrival))
	for _, r := range routeTable {
		if r.From == departure && r.To == arrival {
			return r, true
		}
		if r.From == arrival && r.To == departure {
			return r, true
		}
	}
	return Route{}, false
}

// SuggestRoute returns the known route code closest to the given
// input, for "did you mean" validation errors.
func SuggestRoute(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	best := ""
	bestDist := -1
	for _, r := range Routes() {
		dist := matchr.Levenshtein(code, r.Code)
		if bestDist == -1 || dist < bestDist {
			best = r.Code
			bestDist = dist
		}
	}
	return best
}

// ValidationError wraps all malformed-input failures so callers can map
// them to user errors instead of scrape failures.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
