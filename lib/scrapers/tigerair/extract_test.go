package tigerair

import (
	"testing"

	"tigerfare-backend/lib/browser"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const cardListingHTML = `<html><body>
<div class="results">
	<div class="flight-card">
		<span>IT200</span> <span>09:10</span> - <span>13:15</span>
		<span class="price">NT$ 2,899</span>
	</div>
	<div class="flight-card">
		<span>IT202</span> <span>18:40</span> - <span>22:45</span>
		<span class="price">NT$3,499</span> <span>售完</span>
	</div>
	<div class="flight-card">
		<span>promo banner, no flight here</span>
	</div>
	<div class="flight-card">
		<span>IT204</span> <span>7:05</span> - <span>11:00</span>
		<span class="price">TWD 1,299</span>
	</div>
</div>
</body></html>`

const textListingHTML = `<html><body>
<div class="app">
	<ul>
		<li>TT552 06:30 10:25 4,200</li>
		<li>TT556 14:20 18:15 NT$5,100 sold out</li>
		<li>some ad copy</li>
	</ul>
</div>
</body></html>`

func TestExtractCardLayout(t *testing.T) {
	route, _ := LookupRoute("TPE_NRT")
	date := Window(1)[0]

	flights, skipped, err := Extract(route, date, cardListingHTML)
	require.NoError(t, err)
	require.Equal(t, 1, skipped)
	require.Len(t, flights, 3)

	require.Equal(t, "IT200", flights[0].FlightNumber)
	require.Equal(t, "09:10", flights[0].DepartureTime)
	require.Equal(t, "13:15", flights[0].ArrivalTime)
	require.Equal(t, float64(2899), flights[0].Price)
	require.True(t, flights[0].SeatsAvailable)
	require.Equal(t, SlotMorning, flights[0].TimeSlot)
	require.Equal(t, "TPE_NRT", flights[0].Route)

	// sold-out marker flips availability, price still extracted
	require.Equal(t, "IT202", flights[1].FlightNumber)
	require.False(t, flights[1].SeatsAvailable)
	require.Equal(t, float64(3499), flights[1].Price)
	require.Equal(t, SlotEvening, flights[1].TimeSlot)

	// single-digit hours get zero padded
	require.Equal(t, "07:05", flights[2].DepartureTime)
	require.Equal(t, SlotEarly, flights[2].TimeSlot)
	require.Equal(t, float64(1299), flights[2].Price)
}

func TestExtractTextLayout(t *testing.T) {
	route, _ := LookupRoute("KHH_KIX")
	date := Window(1)[0]

	flights, skipped, err := Extract(route, date, textListingHTML)
	require.NoError(t, err)
	require.Equal(t, 1, skipped)
	require.Len(t, flights, 2)

	require.Equal(t, "TT552", flights[0].FlightNumber)
	require.Equal(t, float64(4200), flights[0].Price)
	require.True(t, flights[0].SeatsAvailable)

	require.Equal(t, "TT556", flights[1].FlightNumber)
	require.Equal(t, float64(5100), flights[1].Price)
	require.False(t, flights[1].SeatsAvailable)
}

func TestExtractDeterministic(t *testing.T) {
	route, _ := LookupRoute("TPE_NRT")
	date := Window(1)[0]

	first, firstSkipped, err := Extract(route, date, cardListingHTML)
	require.NoError(t, err)
	second, secondSkipped, err := Extract(route, date, cardListingHTML)
	require.NoError(t, err)

	require.Equal(t, firstSkipped, secondSkipped)
	require.Empty(t, cmp.Diff(first, second))
}

func TestExtractNoListing(t *testing.T) {
	route, _ := LookupRoute("TPE_NRT")
	date := Window(1)[0]

	_, _, err := Extract(route, date, "<html><body><p>loading...</p></body></html>")
	require.ErrorIs(t, err, browser.ErrElementNotFound)
}

func TestExtractRowRequirements(t *testing.T) {
	route, _ := LookupRoute("TPE_NRT")
	date := Window(1)[0]

	// rows missing a price, a second time, or carrying an impossible
	// clock are counted, not guessed at
	flights, skipped, err := Extract(route, date, `<html><body>
		<div class="flight-card">IT100 08:00 12:00</div>
		<div class="flight-card">IT102 08:00 NT$2,000</div>
		<div class="flight-card">IT104 25:00 29:30 NT$2,000</div>
	</body></html>`)
	require.NoError(t, err)
	require.Empty(t, flights)
	require.Equal(t, 3, skipped)
}

func TestExtractNeverEmitsUnknownSlot(t *testing.T) {
	route, _ := LookupRoute("TPE_NRT")
	date := Window(1)[0]

	for _, html := range []string{cardListingHTML, textListingHTML} {
		flights, _, err := Extract(route, date, html)
		require.NoError(t, err)
		for _, f := range flights {
			require.NotEqual(t, SlotUnknown, f.TimeSlot)
		}
	}
}
