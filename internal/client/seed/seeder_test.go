package seed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/editgrid/internal/client/session"
	"github.com/iudanet/editgrid/internal/crdt"
	"github.com/iudanet/editgrid/internal/models"
	"github.com/iudanet/editgrid/internal/table"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDemoSource(t *testing.T) {
	result, err := DemoSource(context.Background())
	require.NoError(t, err)

	assert.Equal(t, DemoFilename, result.Metadata.Filename)
	assert.Equal(t, "Index", result.Table.Headers[0])
	assert.Len(t, result.Table.Rows, 10)
	assert.Equal(t, "Dominguez, Mcmillan and Donovan", result.Table.Rows[3]["Company"])
	assert.Equal(t, result.Table.Headers, result.Metadata.FirstRowValues)
}

func TestSeeder_SeedsOnceWhenConnected(t *testing.T) {
	ctx := context.Background()
	doc := crdt.NewDocument("")
	calls := 0
	source := func(ctx context.Context) (models.ImportResult, error) {
		calls++
		return DemoSource(ctx)
	}
	s := NewSeeder(doc, source, discardLogger())

	var origins []string
	doc.Subscribe(func(ev crdt.Event) { origins = append(origins, ev.Origin) })

	tests := []struct {
		status session.ConnectionStatus
		want   bool
	}{
		{status: session.StatusIdle},
		{status: session.StatusLoading},
		{status: session.StatusConnected, want: true},
		{status: session.StatusReconnecting},
		{status: session.StatusConnected},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.HandleStatus(ctx, tt.status), tt.status)
	}

	assert.Equal(t, Seeded, s.State())
	assert.Equal(t, 1, calls)
	assert.Len(t, doc.Read().Rows, 10)
	assert.Equal(t, []string{table.OriginSeed}, origins)
}

func TestSeeder_SkipsPopulatedDocument(t *testing.T) {
	doc := crdt.NewDocument("")
	doc.Transact(table.OriginImport, func(txn *crdt.Txn) {
		txn.Push(models.Row{"A": "existing"})
	})
	s := NewSeeder(doc, DemoSource, discardLogger())

	assert.False(t, s.HandleStatus(context.Background(), session.StatusConnected))
	assert.Equal(t, NotStarted, s.State())
	assert.Len(t, doc.Read().Rows, 1)
}

func TestSeeder_PeerPopulatedWhileLoading(t *testing.T) {
	doc := crdt.NewDocument("")
	source := func(ctx context.Context) (models.ImportResult, error) {
		// другой участник успел заполнить комнату
		doc.Transact("relay", func(txn *crdt.Txn) {
			txn.Push(models.Row{"A": "peer"})
		})
		return DemoSource(ctx)
	}
	s := NewSeeder(doc, source, discardLogger())

	assert.False(t, s.HandleStatus(context.Background(), session.StatusConnected))
	assert.Equal(t, Seeded, s.State())
	assert.Equal(t, []models.Row{{"A": "peer"}}, doc.Read().Rows)
}

func TestSeeder_RetryAfterFailure(t *testing.T) {
	doc := crdt.NewDocument("")
	fail := true
	source := func(ctx context.Context) (models.ImportResult, error) {
		if fail {
			return models.ImportResult{}, errors.New("fetch failed")
		}
		return DemoSource(ctx)
	}
	s := NewSeeder(doc, source, discardLogger())

	assert.False(t, s.HandleStatus(context.Background(), session.StatusConnected))
	assert.Equal(t, NotStarted, s.State())

	fail = false
	assert.True(t, s.HandleStatus(context.Background(), session.StatusConnected))
	assert.Equal(t, Seeded, s.State())
}

func TestSeeder_Reset(t *testing.T) {
	ctx := context.Background()
	doc := crdt.NewDocument("")
	s := NewSeeder(doc, DemoSource, discardLogger())
	require.True(t, s.HandleStatus(ctx, session.StatusConnected))

	table.NewMutations(doc).Rows.Remove(0)
	require.Len(t, doc.Read().Rows, 9)

	require.NoError(t, s.Reset(ctx))
	assert.Len(t, doc.Read().Rows, 10)
	assert.Equal(t, "1", doc.Read().Rows[0]["Index"])
}
