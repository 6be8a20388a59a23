package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

// SelectionText is GetText over every node of a goquery selection,
// normalized into one line.
func SelectionText(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, node := range sel.Nodes {
		getTextRecursive(node, &buffer)
	}
	return NormalizeText(buffer.String())
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// non-printing runes become spaces so tokens separated only by
// newlines do not fuse together
func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		} else {
			newStr.WriteRune(' ')
		}
	}
	return newStr.String()
}

// NormalizeText collapses a rendered node's text into one printable,
// single-spaced line. Listing rows come out of the browser with deeply
// nested markup and stray non-printing characters, so everything that
// regex-matches against row text goes through here first.
func NormalizeText(s string) string {
	s = removeNonPrintable(s)
	s = strings.Trim(s, " \t\n")
	return innerWhitespace.ReplaceAllString(s, " ")
}
