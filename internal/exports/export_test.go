package exports

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/editgrid/internal/imports"
	"github.com/iudanet/editgrid/internal/models"
)

func testSnapshot() models.Snapshot {
	return models.Snapshot{
		Headers: []string{"Name", "City"},
		Rows: []models.Row{
			{"Name": "Ann", "City": "Paris, FR"},
			{"Name": `Bob "the builder"`},
		},
		Filename:       "people.csv",
		FirstRowValues: []string{"Name", "City"},
	}
}

func TestDefaultOptions(t *testing.T) {
	assert.True(t, DefaultOptions(testSnapshot()).IncludeHeaders)
	assert.False(t, DefaultOptions(models.Snapshot{Headers: []string{"Column1"}}).IncludeHeaders)
}

func TestRecords(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want [][]string
	}{
		{
			name: "with headers",
			opts: Options{IncludeHeaders: true},
			want: [][]string{{"Name", "City"}, {"Ann", "Paris, FR"}, {`Bob "the builder"`, ""}},
		},
		{
			name: "without headers",
			opts: Options{},
			want: [][]string{{"Ann", "Paris, FR"}, {`Bob "the builder"`, ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Records(testSnapshot(), tt.opts))
		})
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testSnapshot(), Options{IncludeHeaders: true}))

	assert.Equal(t, "Name,City\nAnn,\"Paris, FR\"\n\"Bob \"\"the builder\"\"\",\n", buf.String())
}

func TestWriteCSV_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, models.Snapshot{}, Options{IncludeHeaders: true}))
	assert.Empty(t, buf.String())
}

func TestWriteXLSX_ReadBack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, testSnapshot(), Options{IncludeHeaders: true}))

	raw, err := imports.ParseXLSX(&buf)
	require.NoError(t, err)
	require.Len(t, raw, 3)
	assert.Equal(t, []string{"Name", "City"}, raw[0])
	assert.Equal(t, []string{"Ann", "Paris, FR"}, raw[1])
	// пустая ячейка в конце строки может не попасть в GetRows
	require.NotEmpty(t, raw[2])
	assert.Equal(t, `Bob "the builder"`, raw[2][0])
}

func TestExportFile(t *testing.T) {
	dir := t.TempDir()
	snap := testSnapshot()

	for _, name := range []string{"out.csv", "out.XLSX"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, ExportFile(path, snap, DefaultOptions(snap)))

			result, err := imports.Import(path, imports.Options{FirstRowAsHeaders: true})
			require.NoError(t, err)
			assert.Equal(t, snap.Headers, result.Table.Headers)
			require.Len(t, result.Table.Rows, 2)
			assert.Equal(t, "Paris, FR", result.Table.Rows[0].Get("City"))
			assert.Equal(t, `Bob "the builder"`, result.Table.Rows[1].Get("Name"))
		})
	}
}

func TestExportFile_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	err := ExportFile(path, testSnapshot(), Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
