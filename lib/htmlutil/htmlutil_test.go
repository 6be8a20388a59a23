package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestGetText(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(
		"<div><span>IT200</span> <b>09:10</b></div>",
	))
	require.NoError(t, err)
	require.Contains(t, GetText(doc), "IT200 09:10")
}

func TestSelectionText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		"<div class=\"row\">\n\t<span>IT200</span>\n\t<span>09:10</span>\n</div>",
	))
	require.NoError(t, err)
	require.Equal(t, "IT200 09:10", SelectionText(doc.Find(".row")))
}

func TestNormalizeText(t *testing.T) {
	require.Equal(t,
		"IT200 09:10 - 13:15 NT$ 2,899",
		NormalizeText("\n\tIT200\n09:10   - 13:15\n\t NT$ 2,899 \n"),
	)
	require.Equal(t, "a b", NormalizeText("a\x00\x0bb"))
}
