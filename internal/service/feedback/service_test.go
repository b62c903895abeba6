package feedback_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/model"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/service/feedback"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/service/rerank"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/storage"
	"github.com/henrypygall05-byte/plana-ai-backend-sub001/internal/testutil"
)

var (
	testDB  *storage.DB
	testSvc *feedback.Service
)

func TestMain(m *testing.M) {
	tc := testutil.MustStartPostgres()
	defer tc.Terminate()

	var err error
	testDB, err = tc.NewTestDB(context.Background(), testutil.TestLogger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "feedback_test: %v\n", err)
		tc.Terminate()
		os.Exit(1)
	}
	rerankSvc := rerank.New(testDB, rerank.DefaultConfidence(), testutil.TestLogger())
	testSvc = feedback.New(testDB, rerankSvc, testutil.TestLogger())

	code := m.Run()
	testDB.Close()
	tc.Terminate()
	os.Exit(code)
}

func createRun(t *testing.T, reference string, decision model.Decision, policyIDs []string) model.RunLog {
	t.Helper()
	run, err := testDB.CreateRunLog(context.Background(), model.RunLog{
		Reference:          reference,
		Mode:               "demo",
		Council:            "newcastle",
		RawDecision:        model.DecisionApprove,
		CalibratedDecision: decision,
		Confidence:         0.8,
		PolicyIDs:          policyIDs,
		Success:            true,
		StartedAt:          time.Now().UTC(),
	})
	require.NoError(t, err)
	return run
}

func TestRecordWithoutRun(t *testing.T) {
	ctx := context.Background()

	id, mismatch, err := testSvc.Record(ctx, feedback.Input{
		Reference: "2025/0001/01/HOU",
		Decision:  model.DecisionApprove,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	// No run to compare against counts as a mismatch, but there are no
	// policies to demote.
	assert.True(t, mismatch)

	records, err := testDB.ListFeedbackByReference(ctx, "2025/0001/01/HOU")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRecordMatch(t *testing.T) {
	ctx := context.Background()
	ref := "2025/0002/01/HOU"
	createRun(t, ref, model.DecisionApproveWithCdn, []string{"DM28"})

	// The lenient predicate treats plain approval vs conditional
	// approval as a match.
	_, mismatch, err := testSvc.Record(ctx, feedback.Input{
		Reference: ref,
		Decision:  model.DecisionApprove,
	})
	require.NoError(t, err)
	assert.False(t, mismatch)

	// Matching feedback leaves weights untouched.
	_, err = testDB.GetPolicyWeight(ctx, "DM28", "HOU")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRecordMismatchDemotesPolicies(t *testing.T) {
	ctx := context.Background()
	ref := "2025/0003/01/DET"
	createRun(t, ref, model.DecisionApproveWithCdn, []string{"CS15", "DM24"})

	_, mismatch, err := testSvc.Record(ctx, feedback.Input{
		Reference: ref,
		Decision:  model.DecisionRefuse,
	})
	require.NoError(t, err)
	assert.True(t, mismatch)

	for _, policyID := range []string{"CS15", "DM24"} {
		w, err := testDB.GetPolicyWeight(ctx, policyID, "DET")
		require.NoError(t, err)
		assert.Equal(t, 1, w.MismatchCount, "policy %s", policyID)
		assert.Less(t, w.Weight, 1.0, "policy %s", policyID)
	}
}

func TestMismatchRate(t *testing.T) {
	ctx := context.Background()

	// No feedback for the type yet: optimistic default.
	rate, err := testSvc.MismatchRate(ctx, "LDC")
	require.NoError(t, err)
	assert.Equal(t, 0.0, rate)

	createRun(t, "2025/0004/01/LDC", model.DecisionApproveWithCdn, nil)
	createRun(t, "2025/0005/01/LDC", model.DecisionApprove, nil)

	_, _, err = testSvc.Record(ctx, feedback.Input{
		Reference: "2025/0004/01/LDC",
		Decision:  model.DecisionApproveWithCdn,
	})
	require.NoError(t, err)
	_, _, err = testSvc.Record(ctx, feedback.Input{
		Reference: "2025/0005/01/LDC",
		Decision:  model.DecisionRefuse,
	})
	require.NoError(t, err)

	rate, err = testSvc.MismatchRate(ctx, "LDC")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, rate, 1e-9)
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	ref := "2025/0006/01/TPO"
	createRun(t, ref, model.DecisionApprove, nil)

	_, _, err := testSvc.Record(ctx, feedback.Input{
		Reference: ref,
		Decision:  model.DecisionRefuse,
	})
	require.NoError(t, err)

	summary, err := testSvc.Summary(ctx)
	require.NoError(t, err)

	assert.Greater(t, summary.TotalFeedback, 0)
	assert.Equal(t, summary.TotalFeedback, summary.MatchCount+summary.MismatchCount)
	assert.Contains(t, summary.MismatchRatesByType, "TPO")
	assert.InDelta(t, 100.0, summary.MismatchRatesByType["TPO"], 1e-9)
}
