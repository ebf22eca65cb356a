// Package segmentation assigns RFM scores and named segments to customer
// feature rows.
package segmentation

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/stem/pkg/tracing"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/scoring"
)

// Scores holds the three ordinal RFM scores of one customer.
type Scores struct {
	R int
	F int
	M int
}

// Code returns the composite RFM code, e.g. "432".
func (s Scores) Code() string {
	return fmt.Sprintf("%d%d%d", s.R, s.F, s.M)
}

// Assign maps an RFM score triple to a segment using an ordered,
// first-match-wins rule table. Earlier rules take priority over later ones
// that might also match, so (4,3,3) is Champions even though the Loyal rule
// would also accept it.
func Assign(s Scores) models.Segment {
	switch {
	case s.R >= 4 && s.F >= 3 && s.M >= 3:
		return models.SegmentChampions
	case s.R >= 3 && s.F >= 3 && s.M >= 2:
		return models.SegmentLoyal
	case s.R >= 4 && s.F <= 2:
		return models.SegmentNewCustomers
	case s.R == 3 && s.F <= 2 && s.M <= 2:
		return models.SegmentNeedAttention
	case s.R <= 2 && s.F >= 2 && s.M >= 2:
		return models.SegmentAtRisk
	case s.R <= 2 && s.F == 1:
		return models.SegmentHibernating
	default:
		return models.SegmentRegular
	}
}

// Assigner scores a whole feature table and labels each row.
type Assigner struct {
	labels []int
	logger ectologger.Logger
}

// NewAssigner creates an assigner using the given ordinal label set
// (lowest to highest; default {1,2,3,4}).
func NewAssigner(labels []int, logger ectologger.Logger) *Assigner {
	return &Assigner{labels: labels, logger: logger}
}

// Apply computes R, F and M scores over the full feature set by quantile
// binning and assigns each customer a segment. Recency is scored reversed:
// fewer days since the last purchase is better.
func (a *Assigner) Apply(ctx context.Context, rows []models.CustomerFeatures) []models.CustomerSegment {
	ctx, span := tracing.StartSpan(ctx, "segmentation.Assigner.Apply")
	defer span.End()

	recency := make([]float64, len(rows))
	frequency := make([]float64, len(rows))
	monetary := make([]float64, len(rows))
	for i, row := range rows {
		recency[i] = float64(row.RecencyDays)
		frequency[i] = float64(row.FrequencyOrders)
		monetary[i] = row.MonetaryTotal
	}

	rScores := scoring.Quantile(recency, a.labels, true)
	fScores := scoring.Quantile(frequency, a.labels, false)
	mScores := scoring.Quantile(monetary, a.labels, false)

	out := make([]models.CustomerSegment, len(rows))
	counts := make(map[models.Segment]int)
	for i, row := range rows {
		s := Scores{R: rScores[i], F: fScores[i], M: mScores[i]}
		segment := Assign(s)
		counts[segment]++
		out[i] = models.CustomerSegment{
			CustomerUniqueID: row.CustomerUniqueID,
			RecencyDays:      row.RecencyDays,
			FrequencyOrders:  row.FrequencyOrders,
			MonetaryTotal:    row.MonetaryTotal,
			Churned:          row.Churned,
			RScore:           s.R,
			FScore:           s.F,
			MScore:           s.M,
			RFMScore:         s.Code(),
			SegmentName:      segment,
		}
	}

	fields := map[string]any{"customers": len(out)}
	for segment, n := range counts {
		fields["segment_"+string(segment)] = n
	}
	a.logger.WithContext(ctx).WithFields(fields).Info("Assigned RFM segments")

	return out
}
