package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFRendersCyrillicWithoutFontDir(t *testing.T) {
	data := Dataset{
		Headers: []string{"Student", "Category"},
		Rows: []map[string]string{
			{"Student": "Айжан", "Category": "высокая тревожность"},
		},
	}

	exp := NewPDFExporter()
	out, err := exp.Render(data, "Результаты тестирования")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}

func TestPDFRequiresHeaders(t *testing.T) {
	exp := NewPDFExporter()
	_, err := exp.Render(Dataset{}, "empty")
	require.Error(t, err)
}
