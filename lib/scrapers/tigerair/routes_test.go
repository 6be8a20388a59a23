package tigerair

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoutesSortedAndComplete(t *testing.T) {
	routes := Routes()
	require.NotEmpty(t, routes)
	for i := 1; i < len(routes); i++ {
		require.Less(t, routes[i-1].Code, routes[i].Code)
	}
	for _, r := range routes {
		require.NotEmpty(t, r.From)
		require.NotEmpty(t, r.To)
		require.NotEmpty(t, r.Name)
		require.Equal(t, r.From+"_"+r.To, r.Code)
	}
}

func TestLookupRoute(t *testing.T) {
	r, ok := LookupRoute("TPE_NRT")
	require.True(t, ok)
	require.Equal(t, "TPE", r.From)
	require.Equal(t, "NRT", r.To)

	r, ok = LookupRoute("  tpe_nrt ")
	require.True(t, ok)
	require.Equal(t, "TPE_NRT", r.Code)

	_, ok = LookupRoute("TPE_LAX")
	require.False(t, ok)
}

func TestLookupAirports(t *testing.T) {
	r, ok := LookupAirports("TPE", "NRT")
	require.True(t, ok)
	require.Equal(t, "TPE_NRT", r.Code)

	// reverse direction resolves to the same route
	r, ok = LookupAirports("nrt", "tpe")
	require.True(t, ok)
	require.Equal(t, "TPE_NRT", r.Code)

	_, ok = LookupAirports("TPE", "JFK")
	require.False(t, ok)
}

func TestSuggestRoute(t *testing.T) {
	require.Equal(t, "TPE_NRT", SuggestRoute("TPE_NRR"))
	require.Equal(t, "KHH_KIX", SuggestRoute("khh_kix"))
}

func TestReversed(t *testing.T) {
	r, ok := LookupRoute("TPE_OKA")
	require.True(t, ok)
	rev := r.Reversed()
	require.Equal(t, "OKA", rev.From)
	require.Equal(t, "TPE", rev.To)
	require.Equal(t, r.Code, rev.Code)
	require.Equal(t, r, rev.Reversed())
}
