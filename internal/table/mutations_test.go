package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/editgrid/internal/crdt"
	"github.com/iudanet/editgrid/internal/models"
)

func newTestDoc(t *testing.T, headers []string, rows ...models.Row) *crdt.Document {
	t.Helper()
	doc := crdt.NewDocument("test")
	Populate(doc, models.ImportResult{
		Table:    models.TableData{Headers: headers, Rows: rows},
		Metadata: models.SourceMetadata{Filename: "test.csv", FirstRowValues: headers},
	}, OriginImport)
	return doc
}

func threeRows() []models.Row {
	return []models.Row{
		{"Name": "Ann", "Age": "30"},
		{"Name": "Bob", "Age": "41"},
		{"Name": "Cid", "Age": "25"},
	}
}

func names(doc *crdt.Document) []string {
	rows := doc.Read().Rows
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = row.Get("Name")
	}
	return out
}

func TestMutations_UpdateCell(t *testing.T) {
	doc := newTestDoc(t, []string{"Name", "Age"}, threeRows()...)
	m := NewMutations(doc)

	m.UpdateCell(1, "Age", "42")

	snap := doc.Read()
	require.Len(t, snap.Rows, 3)
	assert.Equal(t, models.Row{"Name": "Bob", "Age": "42"}, snap.Rows[1])
	assert.Equal(t, []string{"Ann", "Bob", "Cid"}, names(doc))
}

func TestMutations_UpdateCellOutOfRange(t *testing.T) {
	doc := newTestDoc(t, []string{"Name", "Age"}, threeRows()...)
	m := NewMutations(doc)
	before := doc.Read()

	var events int
	doc.Subscribe(func(crdt.Event) { events++ })

	m.UpdateCell(3, "Age", "1")
	m.UpdateCell(-1, "Age", "1")

	assert.Equal(t, before, doc.Read())
	assert.Zero(t, events)
}

func TestMutations_UpdateCellOrigin(t *testing.T) {
	doc := newTestDoc(t, []string{"Name"}, models.Row{"Name": "Ann"})
	m := NewMutations(doc)

	var got []crdt.Event
	doc.Subscribe(func(ev crdt.Event) { got = append(got, ev) })

	m.UpdateCell(0, "Name", "X")
	require.Len(t, got, 1)
	assert.Equal(t, OriginCellUpdate, got[0].Origin)
	assert.True(t, got[0].Local)
}

func TestMutations_RowBounds(t *testing.T) {
	tests := []struct {
		name string
		op   func(m *Mutations)
		want []string
	}{
		{name: "remove negative", op: func(m *Mutations) { m.Rows.Remove(-1) }, want: []string{"Ann", "Bob", "Cid"}},
		{name: "remove beyond end", op: func(m *Mutations) { m.Rows.Remove(1000) }, want: []string{"Ann", "Bob", "Cid"}},
		{name: "remove middle", op: func(m *Mutations) { m.Rows.Remove(1) }, want: []string{"Ann", "Cid"}},
		{name: "add beyond end appends", op: func(m *Mutations) { m.Rows.Add(1000) }, want: []string{"Ann", "Bob", "Cid", ""}},
		{name: "add at start", op: func(m *Mutations) { m.Rows.Add(0) }, want: []string{"", "Ann", "Bob", "Cid"}},
		{name: "duplicate", op: func(m *Mutations) { m.Rows.Duplicate(0) }, want: []string{"Ann", "Ann", "Bob", "Cid"}},
		{name: "duplicate last", op: func(m *Mutations) { m.Rows.Duplicate(2) }, want: []string{"Ann", "Bob", "Cid", "Cid"}},
		{name: "duplicate out of range", op: func(m *Mutations) { m.Rows.Duplicate(3) }, want: []string{"Ann", "Bob", "Cid"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newTestDoc(t, []string{"Name", "Age"}, threeRows()...)
			tt.op(NewMutations(doc))
			assert.Equal(t, tt.want, names(doc))
		})
	}
}

func TestMutations_AddRowShape(t *testing.T) {
	doc := newTestDoc(t, []string{"Name", "Age"}, threeRows()...)
	NewMutations(doc).Rows.Add(1000)

	rows := doc.Read().Rows
	require.Len(t, rows, 4)
	assert.Equal(t, models.Row{"Name": "", "Age": ""}, rows[3])

	empty := crdt.NewDocument("empty")
	NewMutations(empty).Rows.Add(0)
	require.Len(t, empty.Read().Rows, 1)
	assert.Empty(t, empty.Read().Rows[0])
}

func TestMutations_DuplicateIsCopy(t *testing.T) {
	doc := newTestDoc(t, []string{"Name", "Age"}, threeRows()...)
	m := NewMutations(doc)

	m.Rows.Duplicate(0)
	m.UpdateCell(1, "Name", "Copy")

	assert.Equal(t, []string{"Ann", "Copy", "Bob", "Cid"}, names(doc))
}

func TestMutations_AddColumnNaming(t *testing.T) {
	doc := newTestDoc(t, []string{"Name"}, models.Row{"Name": "Ann"})
	m := NewMutations(doc)

	assert.Equal(t, "Column1", m.Columns.Add("Name"))
	assert.Equal(t, "Column2", m.Columns.Add("Name"))
	assert.Equal(t, "Column3", m.Columns.Add("Name"))

	// каждая новая колонка вставляется сразу после Name
	assert.Equal(t, []string{"Name", "Column3", "Column2", "Column1"}, doc.Read().Headers)
	assert.Equal(t, models.Row{"Name": "Ann", "Column1": "", "Column2": "", "Column3": ""}, doc.Read().Rows[0])
}

func TestMutations_AddColumnAtEnd(t *testing.T) {
	doc := newTestDoc(t, []string{"Name"}, models.Row{"Name": "Ann"})
	m := NewMutations(doc)

	m.Columns.Add("missing")
	m.Columns.Add("Column1")
	m.Columns.Add("Column2")

	assert.Equal(t, []string{"Name", "Column1", "Column2", "Column3"}, doc.Read().Headers)
}

func TestMutations_AddColumnFillsGap(t *testing.T) {
	doc := newTestDoc(t, []string{"Column1", "Column3"})
	m := NewMutations(doc)

	assert.Equal(t, "Column2", m.Columns.Add("Column3"))
	assert.Equal(t, "Column4", m.Columns.Add("Column3"))
	assert.Equal(t, []string{"Column1", "Column3", "Column4", "Column2"}, doc.Read().Headers)
}

func TestMutations_AddThenRemoveColumnRoundTrip(t *testing.T) {
	doc := newTestDoc(t, []string{"A", "B"}, models.Row{"A": "1", "B": "2"})
	m := NewMutations(doc)
	before := doc.Read()

	name := m.Columns.Add("A")
	assert.Equal(t, []string{"A", name, "B"}, doc.Read().Headers)

	m.Columns.Remove(name)

	after := doc.Read()
	assert.Equal(t, []string{"A", "B"}, after.Headers)
	assert.Equal(t, before.Rows, after.Rows)
}

func TestMutations_RemoveUnknownColumn(t *testing.T) {
	doc := newTestDoc(t, []string{"A"}, models.Row{"A": "1"})

	var events int
	doc.Subscribe(func(crdt.Event) { events++ })

	NewMutations(doc).Columns.Remove("Z")
	assert.Zero(t, events)
	assert.Equal(t, []string{"A"}, doc.Read().Headers)
}

func TestMutations_ColumnRewriteIsOneTransaction(t *testing.T) {
	doc := newTestDoc(t, []string{"A"}, models.Row{"A": "1"}, models.Row{"A": "2"})

	var events []crdt.Event
	doc.Subscribe(func(ev crdt.Event) { events = append(events, ev) })

	NewMutations(doc).Columns.Add("A")
	require.Len(t, events, 1)
	assert.True(t, events[0].RowsChanged)
	assert.True(t, events[0].MetadataChanged)
}

func TestMutations_ConcurrentRemoveRowAndUpdateCell(t *testing.T) {
	base := newTestDoc(t, []string{"A"},
		models.Row{"A": "0"}, models.Row{"A": "1"}, models.Row{"A": "2"}, models.Row{"A": "3"})
	state, err := base.EncodeStateAsUpdate(nil)
	require.NoError(t, err)

	r1, r2 := crdt.NewDocument("r1"), crdt.NewDocument("r2")
	require.NoError(t, r1.ApplyUpdate(state, "sync"))
	require.NoError(t, r2.ApplyUpdate(state, "sync"))

	var u1, u2 []byte
	// только собственные правки: чужие, примененные через ApplyUpdate, не пересылаются
	r1.OnUpdate(func(u []byte, _ string, local bool) {
		if local {
			u1 = u
		}
	})
	r2.OnUpdate(func(u []byte, _ string, local bool) {
		if local {
			u2 = u
		}
	})

	NewMutations(r1).Rows.Remove(2)
	NewMutations(r2).UpdateCell(2, "A", "Z")

	require.NoError(t, r1.ApplyUpdate(u2, "relay"))
	require.NoError(t, r2.ApplyUpdate(u1, "relay"))

	for _, doc := range []*crdt.Document{r1, r2} {
		rows := doc.Read().Rows
		require.Len(t, rows, 3)
		assert.Equal(t, "0", rows[0].Get("A"))
		assert.Equal(t, "1", rows[1].Get("A"))
		assert.Equal(t, "3", rows[2].Get("A"))
	}
}

func TestPopulate(t *testing.T) {
	doc := newTestDoc(t, []string{"Old"}, models.Row{"Old": "x"})

	result := models.ImportResult{
		Table: models.TableData{
			Headers: []string{"Name"},
			Rows:    []models.Row{{"Name": "Ann"}, {"Name": "Bob"}},
		},
		Metadata: models.SourceMetadata{Filename: "people.csv", FirstRowValues: []string{"Name"}},
	}
	Populate(doc, result, OriginDraft)
	result.Table.Rows[0]["Name"] = "mutated"

	snap := doc.Read()
	assert.Equal(t, []string{"Name"}, snap.Headers)
	assert.Equal(t, "people.csv", snap.Filename)
	assert.Equal(t, []string{"Name"}, snap.FirstRowValues)
	assert.Equal(t, []string{"Ann", "Bob"}, names(doc))
}

func TestNextColumnName(t *testing.T) {
	tests := []struct {
		headers []string
		want    string
	}{
		{headers: nil, want: "Column1"},
		{headers: []string{"Column1"}, want: "Column2"},
		{headers: []string{"Column2", "x"}, want: "Column1"},
		{headers: []string{"Column1", "Column2", "Column4"}, want: "Column3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NextColumnName(tt.headers))
	}
}
