package htmlutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractPreformatted(t *testing.T) {
	body := `<html><body><h1>HB 200</h1><pre>00 HOUSE BILL NO. 200
01 "An Act relating to <b>publications</b>"</pre></body></html>`

	require.True(t, LooksLikeHTML(body))
	require.False(t, LooksLikeHTML("00 HOUSE BILL NO. 200\n01 An Act"))

	text, err := ExtractPreformatted(context.Background(), body)
	require.NoError(t, err)
	require.Equal(t, "00 HOUSE BILL NO. 200\n01 \"An Act relating to publications\"", text)

	text, err = ExtractPreformatted(context.Background(), "<html><body>plain body</body></html>")
	require.NoError(t, err)
	require.Equal(t, "plain body", text)
}
