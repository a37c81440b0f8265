package htmlutil

import (
	"bytes"
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

func RemoveNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// GetStrippedText concatenates the text nodes under node with each one
// end-trimmed. Interior whitespace inside a text node is left alone, so a
// token that genuinely contains a line break survives verbatim.
func GetStrippedText(node *html.Node) string {
	var b strings.Builder
	getStrippedTextRecursive(node, &b)
	return b.String()
}

func getStrippedTextRecursive(node *html.Node, b *strings.Builder) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		b.WriteString(strings.TrimSpace(node.Data))
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		getStrippedTextRecursive(child, b)
	}
}

// CellTexts returns the text of the first limit cells in sel, trimmed per
// text node and otherwise untouched. Missing cells are returned as empty
// strings so callers can index unconditionally.
func CellTexts(sel *goquery.Selection, limit int) []string {
	texts := make([]string, limit)
	sel.EachWithBreak(func(i int, cell *goquery.Selection) bool {
		if i >= limit {
			return false
		}
		var b strings.Builder
		for _, node := range cell.Nodes {
			b.WriteString(GetStrippedText(node))
		}
		texts[i] = b.String()
		return true
	})
	return texts
}
