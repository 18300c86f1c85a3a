package crdt

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/editgrid/internal/models"
)

// recorder собирает закодированные локальные транзакции реплики.
type recorder struct {
	updates [][]byte
}

func record(t *testing.T, d *Document) *recorder {
	t.Helper()
	r := &recorder{}
	unsubscribe := d.OnUpdate(func(update []byte, _ string, local bool) {
		if local {
			r.updates = append(r.updates, update)
		}
	})
	t.Cleanup(unsubscribe)
	return r
}

func seedRows(values ...string) []models.Row {
	rows := make([]models.Row, len(values))
	for i, v := range values {
		rows[i] = models.Row{"A": v}
	}
	return rows
}

func columnA(s models.Snapshot) []string {
	out := make([]string, len(s.Rows))
	for i, row := range s.Rows {
		out[i] = row.Get("A")
	}
	return out
}

// forkReplicas создает реплики с одинаковым начальным состоянием.
func forkReplicas(t *testing.T, values []string, ids ...string) []*Document {
	t.Helper()

	base := NewDocument("base")
	base.Transact("seed", func(txn *Txn) {
		txn.SetHeaders([]string{"A"})
		txn.Push(seedRows(values...)...)
	})
	state, err := base.EncodeStateAsUpdate(nil)
	require.NoError(t, err)

	docs := make([]*Document, len(ids))
	for i, id := range ids {
		docs[i] = NewDocument(id)
		require.NoError(t, docs[i].ApplyUpdate(state, "sync"))
	}
	return docs
}

func TestDocument_TransactAndRead(t *testing.T) {
	doc := NewDocument("node")

	doc.Transact("import", func(txn *Txn) {
		txn.SetHeaders([]string{"A", "B"})
		txn.SetFilename("data.csv")
		txn.SetFirstRowValues([]string{"A", "B"})
		txn.Push(models.Row{"A": "1", "B": "2"}, models.Row{"A": "3"})
	})

	snap := doc.Read()
	assert.Equal(t, []string{"A", "B"}, snap.Headers)
	assert.Equal(t, "data.csv", snap.Filename)
	assert.Equal(t, []string{"A", "B"}, snap.FirstRowValues)
	require.Len(t, snap.Rows, 2)
	assert.Equal(t, "2", snap.Rows[0].Get("B"))
	assert.Equal(t, "", snap.Rows[1].Get("B"), "missing key reads as empty")

	// Read возвращает копию
	snap.Rows[0]["A"] = "changed"
	assert.Equal(t, "1", doc.Read().Rows[0].Get("A"))
}

func TestDocument_EmptyRead(t *testing.T) {
	snap := NewDocument("node").Read()

	assert.True(t, snap.IsEmpty())
	assert.Empty(t, snap.Headers)
	assert.Empty(t, snap.FirstRowValues)
	assert.Empty(t, snap.Filename)
}

func TestDocument_PanicInTransactReleasesLock(t *testing.T) {
	doc := NewDocument("node")
	doc.Transact("seed", func(txn *Txn) { txn.Push(seedRows("0")...) })

	assert.PanicsWithValue(t, "boom", func() {
		doc.Transact("broken", func(txn *Txn) { panic("boom") })
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		doc.Transact("after", func(txn *Txn) { txn.Push(seedRows("1")...) })
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("document stayed locked after a panicking transaction")
	}
	assert.Equal(t, []string{"0", "1"}, columnA(doc.Read()))
}

func TestDocument_TxnBounds(t *testing.T) {
	tests := []struct {
		name string
		fn   func(txn *Txn)
		want []string
	}{
		{name: "insert beyond end appends", fn: func(txn *Txn) { txn.Insert(1000, models.Row{"A": "x"}) }, want: []string{"0", "1", "2", "x"}},
		{name: "insert before start prepends", fn: func(txn *Txn) { txn.Insert(-5, models.Row{"A": "x"}) }, want: []string{"x", "0", "1", "2"}},
		{name: "insert in the middle", fn: func(txn *Txn) { txn.Insert(1, models.Row{"A": "x"}, models.Row{"A": "y"}) }, want: []string{"0", "x", "y", "1", "2"}},
		{name: "delete negative index", fn: func(txn *Txn) { txn.Delete(-1, 1) }, want: []string{"0", "1", "2"}},
		{name: "delete beyond end", fn: func(txn *Txn) { txn.Delete(3, 1) }, want: []string{"0", "1", "2"}},
		{name: "delete clamps count", fn: func(txn *Txn) { txn.Delete(1, 10) }, want: []string{"0"}},
		{name: "replace row keeps position", fn: func(txn *Txn) { txn.ReplaceRow(1, models.Row{"A": "z"}) }, want: []string{"0", "z", "2"}},
		{name: "replace missing row", fn: func(txn *Txn) { txn.ReplaceRow(7, models.Row{"A": "z"}) }, want: []string{"0", "1", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := NewDocument("node")
			doc.Transact("seed", func(txn *Txn) { txn.Push(seedRows("0", "1", "2")...) })

			doc.Transact("test", tt.fn)
			assert.Equal(t, tt.want, columnA(doc.Read()))
		})
	}
}

func TestDocument_Subscribe(t *testing.T) {
	doc := NewDocument("node")

	var events []Event
	unsubscribe := doc.Subscribe(func(ev Event) {
		events = append(events, ev)
	})

	doc.Transact("cell-update", func(txn *Txn) {
		txn.Push(models.Row{"A": "1"})
		txn.SetHeaders([]string{"A"})
	})
	require.Len(t, events, 1, "one event per transaction")
	assert.Equal(t, Event{Origin: "cell-update", Local: true, RowsChanged: true, MetadataChanged: true}, events[0])

	// транзакция без изменений не порождает события
	doc.Transact("noop", func(txn *Txn) { txn.Delete(10, 1) })
	assert.Len(t, events, 1)

	other := NewDocument("other")
	state, err := doc.EncodeStateAsUpdate(nil)
	require.NoError(t, err)

	var remote []Event
	other.Subscribe(func(ev Event) { remote = append(remote, ev) })
	require.NoError(t, other.ApplyUpdate(state, "relay"))
	require.Len(t, remote, 1)
	assert.False(t, remote[0].Local)
	assert.Equal(t, "relay", remote[0].Origin)

	unsubscribe()
	unsubscribe()
	doc.Transact("after", func(txn *Txn) { txn.Push(models.Row{}) })
	assert.Len(t, events, 1)
}

func TestDocument_SubscriberMayReadAndTransact(t *testing.T) {
	doc := NewDocument("node")

	var seen int
	doc.Subscribe(func(ev Event) {
		seen = len(doc.Read().Rows)
		if ev.Origin == "first" {
			doc.Transact("second", func(txn *Txn) { txn.Push(models.Row{"A": "2"}) })
		}
	})

	doc.Transact("first", func(txn *Txn) { txn.Push(models.Row{"A": "1"}) })
	assert.Equal(t, 2, seen)
}

func TestDocument_ConcurrentInsertsAtSamePosition(t *testing.T) {
	docs := forkReplicas(t, []string{"0", "1"}, "r1", "r2")
	r1, r2 := docs[0], docs[1]
	rec1, rec2 := record(t, r1), record(t, r2)

	r1.Transact("test", func(txn *Txn) { txn.Insert(1, models.Row{"A": "from-r1"}) })
	r2.Transact("test", func(txn *Txn) { txn.Insert(1, models.Row{"A": "from-r2"}) })

	require.NoError(t, r1.ApplyUpdate(rec2.updates[0], "relay"))
	require.NoError(t, r2.ApplyUpdate(rec1.updates[0], "relay"))

	got := columnA(r1.Read())
	assert.Equal(t, got, columnA(r2.Read()))
	assert.Len(t, got, 4, "both inserts survive")
	assert.Equal(t, "0", got[0])
	assert.Equal(t, "1", got[3])
	assert.ElementsMatch(t, []string{"from-r1", "from-r2"}, got[1:3])
}

func TestDocument_ConvergenceReversedDelivery(t *testing.T) {
	docs := forkReplicas(t, []string{"a", "b", "c", "d"}, "r1", "r2")
	r1, r2 := docs[0], docs[1]
	rec1, rec2 := record(t, r1), record(t, r2)

	r1.Transact("t", func(txn *Txn) { txn.Insert(2, models.Row{"A": "x"}) })
	r1.Transact("t", func(txn *Txn) { txn.Insert(3, models.Row{"A": "y"}) })
	r1.Transact("t", func(txn *Txn) { txn.Delete(0, 1) })
	r1.Transact("t", func(txn *Txn) { txn.SetFilename("one.csv") })

	r2.Transact("t", func(txn *Txn) { txn.Insert(2, models.Row{"A": "p"}) })
	r2.Transact("t", func(txn *Txn) { txn.ReplaceRow(3, models.Row{"A": "C"}) })
	r2.Transact("t", func(txn *Txn) { txn.Delete(4, 1) })
	r2.Transact("t", func(txn *Txn) { txn.SetHeaders([]string{"A", "B"}) })

	for i := len(rec2.updates) - 1; i >= 0; i-- {
		require.NoError(t, r1.ApplyUpdate(rec2.updates[i], "relay"))
	}
	for i := len(rec1.updates) - 1; i >= 0; i-- {
		require.NoError(t, r2.ApplyUpdate(rec1.updates[i], "relay"))
	}

	s1, s2 := r1.Read(), r2.Read()
	assert.Equal(t, s1.Headers, s2.Headers)
	assert.Equal(t, s1.Rows, s2.Rows)
	assert.Equal(t, s1.Filename, s2.Filename)
	assert.Equal(t, 0, r1.Pending())
	assert.Equal(t, 0, r2.Pending())

	got := columnA(s1)
	assert.NotContains(t, got, "a")
	assert.NotContains(t, got, "c")
	assert.NotContains(t, got, "d")
	assert.Contains(t, got, "C")
	assert.Equal(t, []string{"A", "B"}, s1.Headers)
	assert.Equal(t, "one.csv", s1.Filename)
}

func TestDocument_DeleteWinsOverConcurrentEdit(t *testing.T) {
	docs := forkReplicas(t, []string{"0", "1", "2", "3"}, "r1", "r2")
	r1, r2 := docs[0], docs[1]
	rec1, rec2 := record(t, r1), record(t, r2)

	r1.Transact("test", func(txn *Txn) { txn.Delete(2, 1) })
	r2.Transact("cell-update", func(txn *Txn) { txn.ReplaceRow(2, models.Row{"A": "Z"}) })

	require.NoError(t, r1.ApplyUpdate(rec2.updates[0], "relay"))
	require.NoError(t, r2.ApplyUpdate(rec1.updates[0], "relay"))

	want := []string{"0", "1", "3"}
	assert.Equal(t, want, columnA(r1.Read()))
	assert.Equal(t, want, columnA(r2.Read()))

	// повторная правка поверх скрытой замены тоже скрыта у третьей реплики
	r3 := NewDocument("r3")
	state, err := r2.EncodeStateAsUpdate(nil)
	require.NoError(t, err)
	require.NoError(t, r3.ApplyUpdate(state, "sync"))
	assert.Equal(t, want, columnA(r3.Read()))
}

func TestDocument_ConcurrentEditsOfSameRowBothSurvive(t *testing.T) {
	docs := forkReplicas(t, []string{"0", "1"}, "r1", "r2")
	r1, r2 := docs[0], docs[1]
	rec1, rec2 := record(t, r1), record(t, r2)

	r1.Transact("cell-update", func(txn *Txn) { txn.ReplaceRow(0, models.Row{"A": "x"}) })
	r2.Transact("cell-update", func(txn *Txn) { txn.ReplaceRow(0, models.Row{"A": "y"}) })

	require.NoError(t, r1.ApplyUpdate(rec2.updates[0], "relay"))
	require.NoError(t, r2.ApplyUpdate(rec1.updates[0], "relay"))

	got := columnA(r1.Read())
	assert.Equal(t, got, columnA(r2.Read()))
	assert.ElementsMatch(t, []string{"x", "y", "1"}, got)
}

func TestDocument_ApplyUpdateIdempotent(t *testing.T) {
	src := NewDocument("src")
	rec := record(t, src)
	src.Transact("t", func(txn *Txn) { txn.Push(seedRows("1", "2")...) })
	src.Transact("t", func(txn *Txn) { txn.Delete(0, 1) })

	dst := NewDocument("dst")
	var events int
	dst.Subscribe(func(Event) { events++ })

	for range 3 {
		for _, u := range rec.updates {
			require.NoError(t, dst.ApplyUpdate(u, "relay"))
		}
	}

	assert.Equal(t, []string{"2"}, columnA(dst.Read()))
	assert.Equal(t, 2, events, "duplicates do not notify")
}

func TestDocument_OutOfOrderOpsAreParked(t *testing.T) {
	src := NewDocument("src")
	rec := record(t, src)
	src.Transact("t", func(txn *Txn) { txn.Push(models.Row{"A": "first"}) })
	src.Transact("t", func(txn *Txn) { txn.Push(models.Row{"A": "second"}) })
	src.Transact("t", func(txn *Txn) { txn.Delete(0, 1) })
	require.Len(t, rec.updates, 3)

	dst := NewDocument("dst")
	require.NoError(t, dst.ApplyUpdate(rec.updates[2], "relay"))
	require.NoError(t, dst.ApplyUpdate(rec.updates[1], "relay"))
	assert.Empty(t, dst.Read().Rows)
	assert.Equal(t, 2, dst.Pending())

	// отложенные операции передаются дальше при синхронизации
	relayed := NewDocument("relayed")
	partial, err := dst.EncodeStateAsUpdate(nil)
	require.NoError(t, err)
	require.NoError(t, relayed.ApplyUpdate(partial, "sync"))
	assert.Equal(t, 2, relayed.Pending())

	require.NoError(t, dst.ApplyUpdate(rec.updates[0], "relay"))
	assert.Equal(t, []string{"second"}, columnA(dst.Read()))
	assert.Equal(t, 0, dst.Pending())

	require.NoError(t, relayed.ApplyUpdate(rec.updates[0], "relay"))
	assert.Equal(t, []string{"second"}, columnA(relayed.Read()))
}

func TestDocument_EncodeStateAsUpdateDiff(t *testing.T) {
	docs := forkReplicas(t, []string{"0"}, "r1", "r2")
	r1, r2 := docs[0], docs[1]

	r1.Transact("t", func(txn *Txn) {
		txn.Push(models.Row{"A": "new"})
		txn.SetFilename("f.csv")
	})

	diff, err := r1.EncodeStateAsUpdate(r2.StateVector())
	require.NoError(t, err)
	u, err := DecodeUpdate(diff)
	require.NoError(t, err)
	assert.Len(t, u.Ops, 2, "only operations missing on r2")

	require.NoError(t, r2.ApplyUpdate(diff, "sync"))
	assert.Equal(t, r1.Read(), r2.Read())

	empty, err := r1.EncodeStateAsUpdate(r2.StateVector())
	require.NoError(t, err)
	u, err = DecodeUpdate(empty)
	require.NoError(t, err)
	assert.Empty(t, u.Ops)
}

func TestDocument_MetadataLastWriterWins(t *testing.T) {
	docs := forkReplicas(t, nil, "r1", "r2")
	r1, r2 := docs[0], docs[1]
	rec1, rec2 := record(t, r1), record(t, r2)

	r1.Transact("t", func(txn *Txn) { txn.SetFilename("from-r1.csv") })
	r2.Transact("t", func(txn *Txn) { txn.SetFilename("from-r2.csv") })

	require.NoError(t, r1.ApplyUpdate(rec2.updates[0], "relay"))
	require.NoError(t, r2.ApplyUpdate(rec1.updates[0], "relay"))

	// одинаковые часы: выигрывает реплика с большим идентификатором
	assert.Equal(t, "from-r2.csv", r1.Read().Filename)
	assert.Equal(t, "from-r2.csv", r2.Read().Filename)
}

func TestDocument_ApplyUpdateMalformed(t *testing.T) {
	tests := []struct {
		name   string
		update string
	}{
		{name: "not json", update: "garbage"},
		{name: "unknown kind", update: `{"ops":[{"kind":"move","id":{"r":"x","c":1}}]}`},
		{name: "zero id", update: `{"ops":[{"kind":"insert","id":{"r":"","c":0}}]}`},
		{name: "delete without target", update: `{"ops":[{"kind":"delete","id":{"r":"x","c":1}}]}`},
		{name: "set without key", update: `{"ops":[{"kind":"set","id":{"r":"x","c":1}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := NewDocument("node")
			err := doc.ApplyUpdate([]byte(tt.update), "relay")
			require.ErrorIs(t, err, ErrMalformedUpdate)
			assert.True(t, doc.Read().IsEmpty())
		})
	}
}

func TestDocument_ClockAdvancesPastRemote(t *testing.T) {
	src := NewDocument("src")
	for i := range 5 {
		src.Transact("t", func(txn *Txn) { txn.Push(models.Row{"A": fmt.Sprint(i)}) })
	}
	state, err := src.EncodeStateAsUpdate(nil)
	require.NoError(t, err)

	dst := NewDocument("dst")
	require.NoError(t, dst.ApplyUpdate(state, "sync"))
	dst.Transact("t", func(txn *Txn) { txn.Insert(0, models.Row{"A": "head"}) })

	sv := dst.StateVector()
	assert.Equal(t, int64(5), sv["src"])
	assert.Equal(t, int64(6), sv["dst"])
}
