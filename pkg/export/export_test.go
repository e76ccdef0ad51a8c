package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRendererPadsShortRows(t *testing.T) {
	out, err := NewCSVRenderer().Render(Table{
		Headers: []string{"date", "start", "class"},
		Rows:    [][]string{{"2025-01-06", "09:00", "Algebra, group"}, {"2025-01-07"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "date,start,class\n2025-01-06,09:00,\"Algebra, group\"\n2025-01-07,,\n", string(out))
}

func TestRenderersRequireHeaders(t *testing.T) {
	_, err := NewCSVRenderer().Render(Table{})
	assert.Error(t, err)
	_, err = NewPDFRenderer().Render(Table{})
	assert.Error(t, err)
}

func TestPDFRendererProducesDocument(t *testing.T) {
	out, err := NewPDFRenderer().Render(Table{
		Title:   "Schedule",
		Headers: []string{"date", "start"},
		Rows:    [][]string{{"2025-01-06", "09:00"}},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
