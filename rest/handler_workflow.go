package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	api "github.com/mohitkumar/autoflow/api/v1"
	"github.com/mohitkumar/autoflow/logger"
	"go.uber.org/zap"
)

const defaultEventLimit = 50

func (s *Server) HandleExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	data := map[string]any{}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "request body should be a json object")
		return
	}
	res, err := s.executor.Execute(r.Context(), id, data)
	if err != nil {
		logger.Error("error executing workflow", zap.String("workflow", id), zap.Error(err))
		respondWithError(w, api.HTTPStatus(err), api.Message(err))
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (s *Server) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	limit := defaultEventLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondWithError(w, http.StatusBadRequest, "limit should be a non negative number")
			return
		}
		limit = n
	}
	events, err := s.events.ListEvents(r.Context(), id, limit)
	if err != nil {
		logger.Error("error listing events", zap.String("workflow", id), zap.Error(err))
		respondWithError(w, api.HTTPStatus(err), api.Message(err))
		return
	}
	respondWithJSON(w, http.StatusOK, events)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, map[string]any{"status": "ok"})
}
