// internal/server/handlers_projects.go
package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"adstrategy-service/internal/auth"
	apperrors "adstrategy-service/internal/common/errors"
	"adstrategy-service/internal/common/validation"
	"adstrategy-service/internal/store"
)

func ownerID(r *http.Request) string {
	session, _ := auth.IdentityFrom(r.Context())
	if session == nil {
		return ""
	}
	return session.UserID
}

func projectID(r *http.Request) string {
	return mux.Vars(r)["projectID"]
}

func mapStoreErr(err error, projectID string) error {
	if err == store.ErrNotFound {
		return apperrors.NewProjectNotFoundError(projectID)
	}
	if _, ok := err.(*apperrors.StandardError); ok {
		return err
	}
	return apperrors.NewStoreFailureError(err)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.List(r.Context(), ownerID(r))
	if err != nil {
		s.errors.WriteError(w, r, mapStoreErr(err, ""))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"projects": projects})
}

type createProjectRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errors.WriteError(w, r, err)
		return
	}
	if validation.IsBlank(req.Name) {
		s.errors.WriteError(w, r, apperrors.NewValidationError("Project name is required", "name"))
		return
	}

	project, err := s.store.Create(r.Context(), ownerID(r), req.Name)
	if err != nil {
		s.errors.WriteError(w, r, mapStoreErr(err, ""))
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id := projectID(r)
	project, err := s.store.Get(r.Context(), ownerID(r), id)
	if err != nil {
		s.errors.WriteError(w, r, mapStoreErr(err, id))
		return
	}
	writeJSON(w, http.StatusOK, project)
}

type renameProjectRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleRenameProject(w http.ResponseWriter, r *http.Request) {
	var req renameProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		s.errors.WriteError(w, r, err)
		return
	}
	if validation.IsBlank(req.Name) {
		s.errors.WriteError(w, r, apperrors.NewValidationError("Project name is required", "name"))
		return
	}

	id := projectID(r)
	owner := ownerID(r)
	if err := s.store.Rename(r.Context(), owner, id, req.Name); err != nil {
		s.errors.WriteError(w, r, mapStoreErr(err, id))
		return
	}

	project, err := s.store.Get(r.Context(), owner, id)
	if err != nil {
		s.errors.WriteError(w, r, mapStoreErr(err, id))
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// handleDeleteProject requires confirm=true, the server-side form of the
// destructive-action confirmation dialog.
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		s.errors.WriteError(w, r, apperrors.NewValidationError(
			"Deletion must be confirmed with confirm=true", "confirm",
		))
		return
	}

	id := projectID(r)
	if err := s.store.Delete(r.Context(), ownerID(r), id); err != nil {
		s.errors.WriteError(w, r, mapStoreErr(err, id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "projectId": id})
}
