package htmlutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestGetText(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(
		`<div>Data last <b>updated</b> 16 September 2022</div>`,
	))
	require.NoError(t, err)
	require.Equal(t, "Data last updated 16 September 2022", GetText(doc))
}

func TestNormalizeText(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"  Updated: 16 September 2022  ", "Updated: 16 September 2022"},
		{"a\n\n\tb   c", "a b c"},
		// markup wrapped across a single line break must not glue words
		{"Data last\nupdated 16 September 2022", "Data last updated 16 September 2022"},
		{" Updated: 16 September 2022", "Updated: 16 September 2022"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, c := range testCases {
		require.Equal(t, c.expected, NormalizeText(c.input), "input %q", c.input)
	}
}
