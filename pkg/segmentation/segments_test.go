package segmentation

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func newTestLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestAssign(t *testing.T) {
	tests := []struct {
		name   string
		scores Scores
		want   models.Segment
	}{
		{"top scores are champions", Scores{R: 4, F: 4, M: 4}, models.SegmentChampions},
		{"champions lower bound", Scores{R: 4, F: 3, M: 3}, models.SegmentChampions},
		{"champions outranks loyal on overlap", Scores{R: 4, F: 3, M: 3}, models.SegmentChampions},
		{"loyal", Scores{R: 3, F: 3, M: 2}, models.SegmentLoyal},
		{"loyal with high recency but low monetary", Scores{R: 4, F: 4, M: 2}, models.SegmentLoyal},
		{"new customers", Scores{R: 4, F: 1, M: 1}, models.SegmentNewCustomers},
		{"new customers regardless of monetary", Scores{R: 4, F: 2, M: 4}, models.SegmentNewCustomers},
		{"need attention", Scores{R: 3, F: 2, M: 2}, models.SegmentNeedAttention},
		{"at risk", Scores{R: 1, F: 3, M: 3}, models.SegmentAtRisk},
		{"at risk lower bound", Scores{R: 2, F: 2, M: 2}, models.SegmentAtRisk},
		{"hibernating", Scores{R: 1, F: 1, M: 4}, models.SegmentHibernating},
		{"hibernating low everything", Scores{R: 2, F: 1, M: 1}, models.SegmentHibernating},
		{"regular fallback", Scores{R: 3, F: 1, M: 4}, models.SegmentRegular},
		{"regular low monetary at risk miss", Scores{R: 2, F: 3, M: 1}, models.SegmentRegular},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Assign(tt.scores))
		})
	}
}

func TestScoresCode(t *testing.T) {
	assert.Equal(t, "432", Scores{R: 4, F: 3, M: 2}.Code())
}

func TestAssigner_Apply(t *testing.T) {
	rows := []models.CustomerFeatures{
		{CustomerUniqueID: "recent-big", RecencyDays: 5, FrequencyOrders: 8, MonetaryTotal: 900},
		{CustomerUniqueID: "recent-mid", RecencyDays: 20, FrequencyOrders: 6, MonetaryTotal: 700},
		{CustomerUniqueID: "mid-mid", RecencyDays: 90, FrequencyOrders: 4, MonetaryTotal: 500},
		{CustomerUniqueID: "old-mid", RecencyDays: 180, FrequencyOrders: 3, MonetaryTotal: 300},
		{CustomerUniqueID: "old-small", RecencyDays: 250, FrequencyOrders: 2, MonetaryTotal: 150},
		{CustomerUniqueID: "oldest-tiny", RecencyDays: 400, FrequencyOrders: 1, MonetaryTotal: 50},
	}

	assigner := NewAssigner([]int{1, 2, 3, 4}, newTestLogger())
	segments := assigner.Apply(context.Background(), rows)

	require.Len(t, segments, len(rows))

	byID := make(map[string]models.CustomerSegment)
	for _, s := range segments {
		byID[s.CustomerUniqueID] = s
	}

	t.Run("recency is scored reversed", func(t *testing.T) {
		assert.Equal(t, 4, byID["recent-big"].RScore, "smallest recency should score highest")
		assert.Equal(t, 1, byID["oldest-tiny"].RScore, "largest recency should score lowest")
	})

	t.Run("frequency and monetary are scored forward", func(t *testing.T) {
		assert.Equal(t, 4, byID["recent-big"].FScore)
		assert.Equal(t, 4, byID["recent-big"].MScore)
		assert.Equal(t, 1, byID["oldest-tiny"].FScore)
		assert.Equal(t, 1, byID["oldest-tiny"].MScore)
	})

	t.Run("composite code concatenates the scores", func(t *testing.T) {
		assert.Equal(t, "444", byID["recent-big"].RFMScore)
		assert.Equal(t, "111", byID["oldest-tiny"].RFMScore)
	})

	t.Run("segments cover the extremes", func(t *testing.T) {
		assert.Equal(t, models.SegmentChampions, byID["recent-big"].SegmentName)
		assert.Equal(t, models.SegmentHibernating, byID["oldest-tiny"].SegmentName)
	})

	t.Run("feature fields carry over", func(t *testing.T) {
		assert.Equal(t, 5, byID["recent-big"].RecencyDays)
		assert.Equal(t, 8, byID["recent-big"].FrequencyOrders)
		assert.Equal(t, 900.0, byID["recent-big"].MonetaryTotal)
	})
}
