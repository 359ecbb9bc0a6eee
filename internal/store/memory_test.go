package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"made/internal/types"
)

func sampleRecord(reportID string, createdAt time.Time) types.CognitiveRecord {
	return types.CognitiveRecord{
		ReportID:  reportID,
		Timestamp: createdAt.Format(time.RFC3339),
		CreatedAt: createdAt,
		OceanRaw: types.OceanScores{
			Openness:          4.0,
			Conscientiousness: 3.5,
			Extraversion:      3.0,
			Agreeableness:     4.5,
			Neuroticism:       2.0,
		},
		OceanNormalized: types.OceanScores{
			Openness:          0.75,
			Conscientiousness: 0.625,
			Extraversion:      0.5,
			Agreeableness:     0.875,
			Neuroticism:       0.25,
		},
		PFactor: 1.2345,
	}
}

func TestMemStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := sampleRecord("npc-001", created)

	id, err := s.Put(ctx, rec)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.GetByReport(ctx, "npc-001")
	require.NoError(t, err)

	rec.StoreID = id
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestMemStoreGetByReportResolvesNewest(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	older := sampleRecord("npc-dup", base)
	older.PFactor = 1.0
	newer := sampleRecord("npc-dup", base.Add(48*time.Hour))
	newer.PFactor = 1.4

	_, err := s.Put(ctx, older)
	require.NoError(t, err)
	_, err = s.Put(ctx, newer)
	require.NoError(t, err)

	got, err := s.GetByReport(ctx, "npc-dup")
	require.NoError(t, err)
	assert.Equal(t, 1.4, got.PFactor)
}

func TestMemStoreGetByReportMissing(t *testing.T) {
	s := NewMemStore()

	_, err := s.GetByReport(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreListAllNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		_, err := s.Put(ctx, sampleRecord(id, base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ReportID)
	assert.Equal(t, "b", all[1].ReportID)
	assert.Equal(t, "a", all[2].ReportID)
}

func TestMemStoreDeleteByReport(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("removes newest match only", func(t *testing.T) {
		older := sampleRecord("npc-del", base)
		older.PFactor = 0.9
		newer := sampleRecord("npc-del", base.Add(time.Hour))
		newer.PFactor = 1.1

		_, err := s.Put(ctx, older)
		require.NoError(t, err)
		_, err = s.Put(ctx, newer)
		require.NoError(t, err)

		require.NoError(t, s.DeleteByReport(ctx, "npc-del"))

		got, err := s.GetByReport(ctx, "npc-del")
		require.NoError(t, err)
		assert.Equal(t, 0.9, got.PFactor)
	})

	t.Run("missing report", func(t *testing.T) {
		err := s.DeleteByReport(ctx, "never-stored")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemStoreLatest(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	t.Run("empty store", func(t *testing.T) {
		_, err := s.Latest(ctx)
		assert.ErrorIs(t, err, ErrEmpty)
	})

	t.Run("returns newest", func(t *testing.T) {
		base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		_, err := s.Put(ctx, sampleRecord("first", base))
		require.NoError(t, err)
		_, err = s.Put(ctx, sampleRecord("second", base.Add(time.Minute)))
		require.NoError(t, err)

		got, err := s.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "second", got.ReportID)
	})
}

func TestMemStoreUpdateUtterance(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	id, err := s.Put(ctx, sampleRecord("npc-utt", created))
	require.NoError(t, err)

	state := types.UtteranceState{
		Text:            "Accessing archived record: the reactor checklist.",
		Retention:       0.6123,
		ConfidenceScore: 0.7001,
		ConfidenceBand:  "Medium Confidence",
		Phase:           "Phase 2 (Slow)",
		At:              created.Add(3 * time.Hour),
	}
	require.NoError(t, s.UpdateUtterance(ctx, id, state))

	got, err := s.GetByReport(ctx, "npc-utt")
	require.NoError(t, err)
	assert.Equal(t, state.Text, got.LastUtterance)
	assert.Equal(t, state.Retention, got.LastUtteranceRetention)
	assert.Equal(t, state.ConfidenceScore, got.LastUtteranceConfidenceScore)
	assert.Equal(t, state.ConfidenceBand, got.LastUtteranceConfidenceBand)
	assert.Equal(t, state.Phase, got.LastUtterancePhase)
	assert.Equal(t, state.At, got.LastUtteranceAt)

	t.Run("unknown store id", func(t *testing.T) {
		err := s.UpdateUtterance(ctx, "not-an-id", state)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemStoreTasks(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	tasks := []types.TaskRecord{
		{TaskID: "t1", ReportID: "npc-001", TaskName: "Calibrate sensors", Importance: 0.8, RequiredTime: 2, AvailableTime: 6, CreatedAt: base},
		{TaskID: "t2", ReportID: "npc-002", TaskName: "File report", Importance: 0.3, RequiredTime: 1, AvailableTime: 8, CreatedAt: base.Add(time.Minute)},
		{TaskID: "t3", ReportID: "npc-001", TaskName: "Patch hull breach", Importance: 1.0, RequiredTime: 4, AvailableTime: 5, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, task := range tasks {
		require.NoError(t, s.PutTask(ctx, task))
	}

	got, err := s.ListTasks(ctx, "npc-001")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t3", got[0].TaskID)
	assert.Equal(t, "t1", got[1].TaskID)

	empty, err := s.ListTasks(ctx, "npc-404")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemStoreHealth(t *testing.T) {
	s := NewMemStore()
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close(context.Background()))
}
