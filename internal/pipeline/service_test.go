// internal/pipeline/service_test.go
package pipeline

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "adstrategy-service/internal/common/errors"
	"adstrategy-service/internal/common/logger"
	"adstrategy-service/internal/gateway"
	"adstrategy-service/internal/models"
	"adstrategy-service/internal/store"
)

// stubInvoker records calls and plays back canned responses per function.
type stubInvoker struct {
	responses map[string]json.RawMessage
	errs      map[string]error
	calls     []string
	lastBody  interface{}
}

func newStubInvoker() *stubInvoker {
	return &stubInvoker{
		responses: make(map[string]json.RawMessage),
		errs:      make(map[string]error),
	}
}

func (s *stubInvoker) Invoke(ctx context.Context, function string, payload interface{}) (json.RawMessage, error) {
	s.calls = append(s.calls, function)
	s.lastBody = payload
	if err, ok := s.errs[function]; ok {
		return nil, err
	}
	return s.responses[function], nil
}

func newTestService(t *testing.T) (*Service, *store.MemoryStore, *stubInvoker) {
	st := store.NewMemoryStore()
	inv := newStubInvoker()
	svc := NewService(st, inv, logger.NewTestLogger(t))
	return svc, st, inv
}

func createProjectWithProductInfo(t *testing.T, st *store.MemoryStore) *models.Project {
	p, err := st.Create(context.Background(), "owner-1", "Acme Launch")
	require.NoError(t, err)

	_, err = st.MutateStage1(context.Background(), "owner-1", p.ID, func(s1 *models.Stage1Data) error {
		return s1.AddItem(models.CategoryProductInfo, models.Stage1Item{
			ID: "item-1", Title: "Starter Kit", Content: "9800 yen, 30-day trial",
		})
	})
	require.NoError(t, err)
	return p
}

func TestAdvance_Stage1To2(t *testing.T) {
	svc, st, inv := newTestService(t)
	p := createProjectWithProductInfo(t, st)

	inv.responses[gateway.FunctionAnalyzeProduct] = json.RawMessage(`{
		"success": true,
		"keywords": "starter kit, trial",
		"productElements": {
			"features": "30-day trial",
			"benefits": "low risk start",
			"results": "500 customers",
			"authority": "industry award 2024",
			"offer": "9800 yen launch price"
		},
		"customerPersonas": "small business owners"
	}`)

	updated, err := svc.Advance(context.Background(), "owner-1", p.ID, 1, AdvanceOptions{UseDeepResearch: true})
	require.NoError(t, err)

	assert.Equal(t, 2, updated.CurrentStage)
	require.NotNil(t, updated.Stage2)
	assert.Equal(t, "starter kit, trial", updated.Stage2.Keywords)
	assert.Equal(t, "30-day trial", updated.Stage2.ProductElements.Features)
	assert.Equal(t, "small business owners", updated.Stage2.CustomerPersonas)

	// The call carries the stage-1 lists plus the non-persisted flag.
	req, ok := inv.lastBody.(analyzeProductRequest)
	require.True(t, ok)
	assert.True(t, req.UseDeepResearch)
	assert.Len(t, req.ProductInfo, 1)

	stored, err := st.Get(context.Background(), "owner-1", p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Stage1)
	assert.Len(t, stored.Stage1.ProductInfo, 1)
	assert.Equal(t, 2, stored.CurrentStage)
}

func TestAdvance_Stage1RequiresProductInfo(t *testing.T) {
	svc, st, inv := newTestService(t)
	p, err := st.Create(context.Background(), "owner-1", "Empty Project")
	require.NoError(t, err)

	_, err = svc.Advance(context.Background(), "owner-1", p.ID, 1, AdvanceOptions{})
	require.Error(t, err)

	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeValidationFailed, stdErr.Code)

	// Validation failures never reach the gateway.
	assert.Empty(t, inv.calls)

	stored, err := st.Get(context.Background(), "owner-1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentStage)
	assert.Nil(t, stored.Stage2)
}

func TestAdvance_GatewayFailureLeavesProjectUntouched(t *testing.T) {
	svc, st, inv := newTestService(t)
	p := createProjectWithProductInfo(t, st)

	inv.errs[gateway.FunctionAnalyzeProduct] = apperrors.NewAnalysisFailedError(
		gateway.FunctionAnalyzeProduct, assert.AnError,
	)

	_, err := svc.Advance(context.Background(), "owner-1", p.ID, 1, AdvanceOptions{})
	require.Error(t, err)

	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeAnalysisFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)

	stored, err := st.Get(context.Background(), "owner-1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentStage)
	assert.Nil(t, stored.Stage2)
}

func TestAdvance_Stage2To3(t *testing.T) {
	svc, st, inv := newTestService(t)
	p := createProjectWithProductInfo(t, st)

	_, err := st.SaveStage(context.Background(), "owner-1", p.ID, 2, models.Stage2Data{
		Keywords: "starter kit",
	}, 2)
	require.NoError(t, err)

	inv.responses[gateway.FunctionGenerateLpFirstView] = json.RawMessage(`{
		"success": true,
		"stage3Data": {
			"catchCopy": "Start smarter",
			"subCopy": "Everything a new business needs",
			"visualImageDescription": "Founder opening the kit at a desk",
			"ctaButtonText": "Try it free"
		}
	}`)

	updated, err := svc.Advance(context.Background(), "owner-1", p.ID, 2, AdvanceOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, updated.CurrentStage)
	require.NotNil(t, updated.Stage3)
	assert.Equal(t, "Start smarter", updated.Stage3.CatchCopy)
	assert.Equal(t, "Try it free", updated.Stage3.CTAButtonText)
}

func TestAdvance_Stage2To3RequiresStage2(t *testing.T) {
	svc, st, _ := newTestService(t)
	p := createProjectWithProductInfo(t, st)

	// Force currentStage to 2 without a stage2 payload.
	_, err := st.SaveStage(context.Background(), "owner-1", p.ID, 1, *createStage1(), 2)
	require.NoError(t, err)

	_, err = svc.Advance(context.Background(), "owner-1", p.ID, 2, AdvanceOptions{})
	require.Error(t, err)
	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeValidationFailed, stdErr.Code)
}

func createStage1() *models.Stage1Data {
	data := models.NewStage1Data()
	_ = data.AddItem(models.CategoryProductInfo, models.Stage1Item{ID: "i", Title: "t", Content: "c"})
	return &data
}

func TestAdvance_Stage3To4(t *testing.T) {
	svc, st, inv := newTestService(t)
	p := createProjectWithProductInfo(t, st)

	_, err := st.SaveStage(context.Background(), "owner-1", p.ID, 2, models.Stage2Data{Keywords: "kit"}, 2)
	require.NoError(t, err)
	_, err = st.SaveStage(context.Background(), "owner-1", p.ID, 3, models.Stage3Data{CatchCopy: "Start smarter"}, 3)
	require.NoError(t, err)

	inv.responses[gateway.FunctionGenerateStrategyHypothesis] = json.RawMessage(`{
		"success": true,
		"stage4Data": {"hypothesis": "Lead with the free trial for first-time founders"}
	}`)

	updated, err := svc.Advance(context.Background(), "owner-1", p.ID, 3, AdvanceOptions{})
	require.NoError(t, err)

	assert.Equal(t, 4, updated.CurrentStage)
	require.NotNil(t, updated.Stage4)
	assert.Equal(t, "Lead with the free trial for first-time founders", updated.Stage4.Hypothesis)
}

func TestAdvance_TerminalStage(t *testing.T) {
	svc, st, _ := newTestService(t)
	p := createProjectWithProductInfo(t, st)

	_, err := svc.Advance(context.Background(), "owner-1", p.ID, 5, AdvanceOptions{})
	require.Error(t, err)
	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeStageNotAdvancable, stdErr.Code)
}

func TestAdvance_LockedStage(t *testing.T) {
	svc, st, inv := newTestService(t)
	p := createProjectWithProductInfo(t, st)

	_, err := svc.Advance(context.Background(), "owner-1", p.ID, 2, AdvanceOptions{})
	require.Error(t, err)
	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeStageLocked, stdErr.Code)
	assert.Empty(t, inv.calls)
}

func TestAdvance_RerunOverwritesNextStageOnly(t *testing.T) {
	svc, st, inv := newTestService(t)
	p := createProjectWithProductInfo(t, st)

	_, err := st.SaveStage(context.Background(), "owner-1", p.ID, 2, models.Stage2Data{Keywords: "old"}, 2)
	require.NoError(t, err)
	_, err = st.SaveStage(context.Background(), "owner-1", p.ID, 3, models.Stage3Data{CatchCopy: "Keep me"}, 3)
	require.NoError(t, err)

	inv.responses[gateway.FunctionAnalyzeProduct] = json.RawMessage(`{
		"success": true,
		"keywords": "new keywords",
		"productElements": {"features": "f", "benefits": "b", "results": "r", "authority": "a", "offer": "o"},
		"customerPersonas": "p"
	}`)

	updated, err := svc.Advance(context.Background(), "owner-1", p.ID, 1, AdvanceOptions{})
	require.NoError(t, err)

	// Stage 2 is overwritten, stage 3 and currentStage survive.
	assert.Equal(t, "new keywords", updated.Stage2.Keywords)
	require.NotNil(t, updated.Stage3)
	assert.Equal(t, "Keep me", updated.Stage3.CatchCopy)
	assert.Equal(t, 3, updated.CurrentStage)
}

func TestAdvance_UnknownProject(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Advance(context.Background(), "owner-1", "missing", 1, AdvanceOptions{})
	require.Error(t, err)
	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeProjectNotFound, stdErr.Code)
}
