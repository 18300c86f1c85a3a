package imports

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iudanet/editgrid/internal/models"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    RawTable
		wantErr error
	}{
		{
			name:  "simple",
			input: "Name,Age\nAnn,30\nBob,41\n",
			want:  RawTable{{"Name", "Age"}, {"Ann", "30"}, {"Bob", "41"}},
		},
		{
			name:  "blank lines skipped",
			input: "Name,Age\n\nAnn,30\n,\n",
			want:  RawTable{{"Name", "Age"}, {"Ann", "30"}},
		},
		{
			name:  "ragged rows",
			input: "a,b,c\n1\n",
			want:  RawTable{{"a", "b", "c"}, {"1"}},
		},
		{
			name:  "quoted comma",
			input: "City\n\"Paris, FR\"\n",
			want:  RawTable{{"City"}, {"Paris, FR"}},
		},
		{
			name:    "empty",
			input:   "\n\n",
			wantErr: ErrEmptyTable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCSV(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func writeWorkbook(t *testing.T, path string, cells map[string]any) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for cell, value := range cells {
		require.NoError(t, f.SetCellValue("Sheet1", cell, value))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestParseFile_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.xlsx")
	writeWorkbook(t, path, map[string]any{
		"A1": "Name", "B1": "Age",
		"A2": "Ann", "B2": 30,
		"A4": "Bob", "B4": 41,
	})

	got, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, RawTable{{"Name", "Age"}, {"Ann", "30"}, {"Bob", "41"}}, got)
}

func TestParseFile_Errors(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o600))

	_, err := ParseFile(txt)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ParseFile(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)

	emptyBook := filepath.Join(dir, "empty.xlsx")
	writeWorkbook(t, emptyBook, nil)
	_, err = ParseFile(emptyBook)
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestNormalize(t *testing.T) {
	raw := RawTable{{"Name", "Age"}, {"Ann", "30"}, {"Bob"}}

	tests := []struct {
		name string
		opts Options
		want models.ImportResult
	}{
		{
			name: "first row as headers",
			opts: Options{FirstRowAsHeaders: true},
			want: models.ImportResult{
				Table: models.TableData{
					Headers: []string{"Name", "Age"},
					Rows:    []models.Row{{"Name": "Ann", "Age": "30"}, {"Name": "Bob", "Age": ""}},
				},
				Metadata: models.SourceMetadata{Filename: "people.csv", FirstRowValues: []string{"Name", "Age"}},
			},
		},
		{
			name: "placeholder headers",
			opts: Options{},
			want: models.ImportResult{
				Table: models.TableData{
					Headers: []string{"Column1", "Column2"},
					Rows: []models.Row{
						{"Column1": "Name", "Column2": "Age"},
						{"Column1": "Ann", "Column2": "30"},
						{"Column1": "Bob", "Column2": ""},
					},
				},
				Metadata: models.SourceMetadata{Filename: "people.csv", FirstRowValues: []string{"Name", "Age"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(raw, "people.csv", tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Empty(t *testing.T) {
	_, err := Normalize(nil, "x.csv", Options{FirstRowAsHeaders: true})
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestNormalize_HeaderOnly(t *testing.T) {
	got, err := Normalize(RawTable{{"A", "B"}}, "x.csv", Options{FirstRowAsHeaders: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, got.Table.Headers)
	assert.Empty(t, got.Table.Rows)
}

func TestImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.csv")
	require.NoError(t, os.WriteFile(path, []byte("City,Country\nOslo,NO\n"), 0o600))

	got, err := Import(path, Options{FirstRowAsHeaders: true})
	require.NoError(t, err)
	assert.Equal(t, "cities.csv", got.Metadata.Filename)
	assert.Equal(t, []models.Row{{"City": "Oslo", "Country": "NO"}}, got.Table.Rows)
}

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		size    int64
		limits  Limits
		wantErr string
	}{
		{name: "csv ok", file: "data.csv", size: 1024, limits: DefaultLimits},
		{name: "xlsx upper case", file: "DATA.XLSX", size: 1024, limits: DefaultLimits},
		{name: "too big", file: "data.csv", size: 11 << 20, limits: DefaultLimits, wantErr: "Maximum size is 10 MiB"},
		{name: "exactly at limit", file: "data.csv", size: 10 << 20, limits: DefaultLimits},
		{name: "wrong format", file: "data.json", size: 10, limits: DefaultLimits, wantErr: "accepted formats: csv, xlsx"},
		{name: "no limits", file: "anything.bin", size: 1 << 40, limits: Limits{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFile(tt.file, tt.size, tt.limits)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
