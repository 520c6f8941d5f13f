package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Agenda",
		Headers: []string{"date", "start", "title"},
		Rows: []map[string]string{
			{"date": "2025-03-03", "start": "10:00", "title": "Aula Ana"},
			{"date": "2025-03-04", "start": "11:00", "title": "Disponível, sala 2"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "date,start,title\n2025-03-03,10:00,Aula Ana\n2025-03-04,11:00,\"Disponível, sala 2\"\n", string(out))
}

func TestPDFExporterRender(t *testing.T) {
	out, err := Render(FormatPDF, sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderRequiresHeaders(t *testing.T) {
	_, err := Render(FormatCSV, Dataset{})
	assert.Error(t, err)
	_, err = Render(FormatPDF, Dataset{})
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())
	assert.Equal(t, "agenda.pdf", f.Filename("agenda"))

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}
