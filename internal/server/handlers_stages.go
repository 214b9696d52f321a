// internal/server/handlers_stages.go
package server

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	apperrors "adstrategy-service/internal/common/errors"
	"adstrategy-service/internal/common/validation"
	"adstrategy-service/internal/models"
	"adstrategy-service/internal/pipeline"
)

func stagePath(projectID string, stage int) string {
	return fmt.Sprintf("/api/projects/%s/stages/%s", projectID, models.StageKey(stage))
}

type stageViewResponse struct {
	Stage        int         `json:"stage"`
	CurrentStage int         `json:"currentStage"`
	Payload      interface{} `json:"payload"`
}

// handleStageView returns the stage payload when the stage is unlocked and
// answers 303 to the current stage path when it is not, mirroring the silent
// redirect of the stage tabs.
func (s *Server) handleStageView(w http.ResponseWriter, r *http.Request) {
	id := projectID(r)
	stage, err := models.ParseStageSlug(mux.Vars(r)["stage"])
	if err != nil {
		s.errors.WriteError(w, r, apperrors.NewValidationError("Invalid stage", err.Error()))
		return
	}

	project, err := s.store.Get(r.Context(), ownerID(r), id)
	if err != nil {
		s.errors.WriteError(w, r, mapStoreErr(err, id))
		return
	}

	nav, err := pipeline.Resolve(stage, project.CurrentStage)
	if err != nil {
		s.errors.WriteError(w, r, err)
		return
	}
	if !nav.Allowed {
		http.Redirect(w, r, stagePath(id, nav.RedirectStage), http.StatusSeeOther)
		return
	}

	writeJSON(w, http.StatusOK, stageViewResponse{
		Stage:        stage,
		CurrentStage: project.CurrentStage,
		Payload:      project.StagePayload(stage),
	})
}

type advanceRequest struct {
	UseDeepResearch bool `json:"useDeepResearch"`
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	id := projectID(r)
	stage, err := models.ParseStageSlug(mux.Vars(r)["stage"])
	if err != nil {
		s.errors.WriteError(w, r, apperrors.NewValidationError("Invalid stage", err.Error()))
		return
	}

	// The body is optional; only stage 1 reads the flag.
	var req advanceRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.errors.WriteError(w, r, err)
			return
		}
	}

	project, err := s.pipeline.Advance(r.Context(), ownerID(r), id, stage, pipeline.AdvanceOptions{
		UseDeepResearch: req.UseDeepResearch,
	})
	if err != nil {
		s.errors.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

type stage1ItemRequest struct {
	Category string `json:"category"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

var stage1ItemSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"category": {Type: "string", Enum: models.Stage1Categories},
		"title":    {Type: "string"},
		"content":  {Type: "string"},
	},
	Required:             []string{"category", "title", "content"},
	AdditionalProperties: false,
}

func (s *Server) decodeStage1Item(r *http.Request) (*stage1ItemRequest, error) {
	var raw map[string]interface{}
	if err := decodeJSON(r, &raw); err != nil {
		return nil, err
	}

	if result := validation.ValidateInput(raw, stage1ItemSchema); !result.Valid {
		return nil, apperrors.NewValidationError(
			"Invalid item",
			fmt.Sprintf("%v", result.GetErrorMessages()),
		)
	}

	req := &stage1ItemRequest{
		Category: raw["category"].(string),
		Title:    raw["title"].(string),
		Content:  raw["content"].(string),
	}
	if validation.IsBlank(req.Title) || validation.IsBlank(req.Content) {
		return nil, apperrors.NewValidationError("Title and content must not be blank", "title,content")
	}
	return req, nil
}

func (s *Server) handleAddStage1Item(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeStage1Item(r)
	if err != nil {
		s.errors.WriteError(w, r, err)
		return
	}

	item := models.Stage1Item{
		ID:      uuid.NewString(),
		Title:   req.Title,
		Content: req.Content,
	}

	id := projectID(r)
	data, err := s.store.MutateStage1(r.Context(), ownerID(r), id, func(s1 *models.Stage1Data) error {
		return s1.AddItem(req.Category, item)
	})
	if err != nil {
		s.errors.WriteError(w, r, mapStoreErr(err, id))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"item":   item,
		"stage1": data,
	})
}

func (s *Server) handleUpdateStage1Item(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeStage1Item(r)
	if err != nil {
		s.errors.WriteError(w, r, err)
		return
	}

	id := projectID(r)
	itemID := mux.Vars(r)["itemID"]
	data, err := s.store.MutateStage1(r.Context(), ownerID(r), id, func(s1 *models.Stage1Data) error {
		if err := s1.UpdateItem(req.Category, itemID, req.Title, req.Content); err != nil {
			return apperrors.NewValidationError("Item not found", err.Error())
		}
		return nil
	})
	if err != nil {
		s.errors.WriteError(w, r, mapStoreErr(err, id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stage1": data})
}

func (s *Server) handleDeleteStage1Item(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if !models.IsStage1Category(category) {
		s.errors.WriteError(w, r, apperrors.NewValidationError("Unknown category", category))
		return
	}

	id := projectID(r)
	itemID := mux.Vars(r)["itemID"]
	data, err := s.store.MutateStage1(r.Context(), ownerID(r), id, func(s1 *models.Stage1Data) error {
		if err := s1.RemoveItem(category, itemID); err != nil {
			return apperrors.NewValidationError("Item not found", err.Error())
		}
		return nil
	})
	if err != nil {
		s.errors.WriteError(w, r, mapStoreErr(err, id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stage1": data})
}
