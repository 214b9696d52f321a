// internal/pipeline/transitions.go
package pipeline

import (
	"encoding/json"
	"fmt"

	apperrors "adstrategy-service/internal/common/errors"
	"adstrategy-service/internal/gateway"
	"adstrategy-service/internal/models"
)

// AdvanceOptions carries per-run flags that are not persisted with the
// project. UseDeepResearch only affects the analyzeProduct call.
type AdvanceOptions struct {
	UseDeepResearch bool
}

// Transition describes how stage From advances to From+1: the prerequisite
// check, the request sent to the remote function, and how its response
// becomes the next stage's payload.
type Transition struct {
	From     int
	Function string
	Validate func(p *models.Project) error
	Request  func(p *models.Project, opts AdvanceOptions) interface{}
	Apply    func(raw json.RawMessage) (interface{}, error)
}

type analyzeProductRequest struct {
	models.Stage1Data
	UseDeepResearch bool `json:"useDeepResearch"`
}

type analyzeProductResponse struct {
	Keywords         string                 `json:"keywords"`
	ProductElements  models.ProductElements `json:"productElements"`
	CustomerPersonas string                 `json:"customerPersonas"`
}

type lpFirstViewResponse struct {
	Stage3Data models.Stage3Data `json:"stage3Data"`
}

type strategyHypothesisRequest struct {
	Stage2 models.Stage2Data `json:"stage2"`
	Stage3 models.Stage3Data `json:"stage3"`
}

type strategyHypothesisResponse struct {
	Stage4Data models.Stage4Data `json:"stage4Data"`
}

// transitions is the registry, keyed by the stage the project is on. Stage 5
// is terminal and has no entry.
var transitions = map[int]Transition{
	1: {
		From:     1,
		Function: gateway.FunctionAnalyzeProduct,
		Validate: func(p *models.Project) error {
			if p.Stage1 == nil || len(p.Stage1.ProductInfo) == 0 {
				return apperrors.NewValidationError(
					"At least one product info item is required",
					models.CategoryProductInfo,
				)
			}
			return nil
		},
		Request: func(p *models.Project, opts AdvanceOptions) interface{} {
			return analyzeProductRequest{
				Stage1Data:      *p.Stage1,
				UseDeepResearch: opts.UseDeepResearch,
			}
		},
		Apply: func(raw json.RawMessage) (interface{}, error) {
			var resp analyzeProductResponse
			if err := json.Unmarshal(raw, &resp); err != nil {
				return nil, fmt.Errorf("failed to decode analysis response: %w", err)
			}
			return models.Stage2Data{
				Keywords:         resp.Keywords,
				ProductElements:  resp.ProductElements,
				CustomerPersonas: resp.CustomerPersonas,
			}, nil
		},
	},
	2: {
		From:     2,
		Function: gateway.FunctionGenerateLpFirstView,
		Validate: func(p *models.Project) error {
			if p.Stage2 == nil {
				return apperrors.NewValidationError(
					"Product analysis must be completed first",
					models.StageKey(2),
				)
			}
			return nil
		},
		Request: func(p *models.Project, opts AdvanceOptions) interface{} {
			return *p.Stage2
		},
		Apply: func(raw json.RawMessage) (interface{}, error) {
			var resp lpFirstViewResponse
			if err := json.Unmarshal(raw, &resp); err != nil {
				return nil, fmt.Errorf("failed to decode first view response: %w", err)
			}
			return resp.Stage3Data, nil
		},
	},
	3: {
		From:     3,
		Function: gateway.FunctionGenerateStrategyHypothesis,
		Validate: func(p *models.Project) error {
			if p.Stage3 == nil {
				return apperrors.NewValidationError(
					"LP first view must be generated first",
					models.StageKey(3),
				)
			}
			return nil
		},
		Request: func(p *models.Project, opts AdvanceOptions) interface{} {
			req := strategyHypothesisRequest{Stage3: *p.Stage3}
			if p.Stage2 != nil {
				req.Stage2 = *p.Stage2
			}
			return req
		},
		Apply: func(raw json.RawMessage) (interface{}, error) {
			var resp strategyHypothesisResponse
			if err := json.Unmarshal(raw, &resp); err != nil {
				return nil, fmt.Errorf("failed to decode hypothesis response: %w", err)
			}
			return resp.Stage4Data, nil
		},
	},
}

// TransitionFor returns the outgoing transition for a stage, if any.
func TransitionFor(stage int) (Transition, bool) {
	t, ok := transitions[stage]
	return t, ok
}
