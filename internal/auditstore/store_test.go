package auditstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskradar/riskradar/internal/risk"
)

func setupTestStore(t *testing.T) *Store {
	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := New(db)
	require.NoError(t, err)
	return store
}

func sampleTrace(score float64) *risk.AuditTrace {
	return &risk.AuditTrace{
		TraceID:         uuid.New().String(),
		Timestamp:       time.Now().UTC().Truncate(time.Second),
		ExecutionTimeMs: 9,
		PRSummary:       `#42 "Tighten session expiry" by jordan`,
		FilesAnalyzed:   2,
		Formula:         risk.ScoreFormula,
		Weights:         map[string]float64{risk.SignalChurn: 1.0},
		Signals: map[string]risk.SignalTraceEntry{
			risk.SignalChurn: {Score: score, Explanation: "test", CitationCount: 1},
		},
		FinalScore: score,
		RiskLevel:  risk.RiskLevelMedium,
	}
}

func TestSaveAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	trace := sampleTrace(0.5)
	require.NoError(t, store.Save(ctx, "acme/api", 42, trace))

	got, err := store.Get(ctx, trace.TraceID)
	require.NoError(t, err)
	assert.Equal(t, trace, got)
	assert.InDelta(t, got.FinalScore, got.Recompute(), 0.001)
}

func TestGetMissingTrace(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorContains(t, err, "not found")
}

func TestSaveRejectsNil(t *testing.T) {
	store := setupTestStore(t)
	assert.Error(t, store.Save(context.Background(), "acme/api", 1, nil))
}

func TestSaveRejectsDuplicateTraceID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	trace := sampleTrace(0.4)
	require.NoError(t, store.Save(ctx, "acme/api", 1, trace))
	assert.Error(t, store.Save(ctx, "acme/api", 1, trace))
}

func TestListFiltersAndOrders(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		trace := sampleTrace(float64(i) / 10)
		trace.Timestamp = time.Now().UTC().Add(time.Duration(i) * time.Minute)
		repo := "acme/api"
		if i%2 == 1 {
			repo = "acme/web"
		}
		require.NoError(t, store.Save(ctx, repo, 100+i, trace))
	}

	all, err := store.List(ctx, "", 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].Timestamp.After(all[i-1].Timestamp), "expected newest first")
	}

	api, err := store.List(ctx, "acme/api", 0, 10)
	require.NoError(t, err)
	assert.Len(t, api, 3)

	byPR, err := store.List(ctx, "", 103, 10)
	require.NoError(t, err)
	require.Len(t, byPR, 1)
	assert.Equal(t, 103, byPR[0].PRNumber)

	limited, err := store.List(ctx, "", 0, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
