package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestCellTexts(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<table><tr>
			<td> CSE </td>
			<td><b>12</b></td>
			<td>RA211100
3010123</td>
			<td></td>
		</tr></table>`))
	require.NoError(t, err)

	texts := CellTexts(doc.Find("td"), 6)
	// interior whitespace is part of the token and must survive as-is
	require.Equal(t, []string{"CSE", "12", "RA211100\n3010123", "", "", ""}, texts)
}

func TestGetStrippedText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div>  <b> AB </b>
			<i>CD</i>  </div>`))
	require.NoError(t, err)

	node := doc.Find("div").Nodes[0]
	require.Equal(t, "ABCD", GetStrippedText(node))
}

func TestRemoveNonPrintable(t *testing.T) {
	require.Equal(t, "AB101", RemoveNonPrintable("AB\x00101\x1b"))
	require.Equal(t, "plain", RemoveNonPrintable("plain"))
}
