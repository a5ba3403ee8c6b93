package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	api "github.com/mohitkumar/autoflow/api/v1"
	"github.com/mohitkumar/autoflow/logger"
	"github.com/mohitkumar/autoflow/model"
)

func (s *Server) HandleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var wf model.Workflow
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&wf); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid workflow json")
		return
	}
	created, err := s.workflowService.Create(r.Context(), &wf)
	if err != nil {
		logger.Error("error creating workflow", zap.Error(err))
		respondWithError(w, api.HTTPStatus(err), api.Message(err))
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (s *Server) HandleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	wf, err := s.workflowService.Get(r.Context(), id)
	if err != nil {
		logger.Info("workflow does not exist", zap.String("workflow", id), zap.Error(err))
		respondWithError(w, api.HTTPStatus(err), api.Message(err))
		return
	}
	respondWithJSON(w, http.StatusOK, wf)
}

func (s *Server) HandleUpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var wf model.Workflow
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&wf); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid workflow json")
		return
	}
	wf.Id = id
	updated, err := s.workflowService.Update(r.Context(), &wf)
	if err != nil {
		logger.Error("error updating workflow", zap.String("workflow", id), zap.Error(err))
		respondWithError(w, api.HTTPStatus(err), api.Message(err))
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (s *Server) HandleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.workflowService.Delete(r.Context(), id); err != nil {
		logger.Error("error deleting workflow", zap.String("workflow", id), zap.Error(err))
		respondWithError(w, api.HTTPStatus(err), api.Message(err))
		return
	}
	respondOK(w, map[string]any{"deleted": true})
}

func (s *Server) HandleListWorkflows(w http.ResponseWriter, r *http.Request) {
	workspaceId := mux.Vars(r)["workspaceId"]
	list, err := s.workflowService.ListByWorkspace(r.Context(), workspaceId)
	if err != nil {
		logger.Error("error listing workflows", zap.String("workspace", workspaceId), zap.Error(err))
		respondWithError(w, api.HTTPStatus(err), api.Message(err))
		return
	}
	respondWithJSON(w, http.StatusOK, list)
}
