package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/chatflowhq/chatflow/model"
	"github.com/chatflowhq/chatflow/persistence"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func (s *Server) HandleCreateFlow(w http.ResponseWriter, r *http.Request) {
	var def model.Flow
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid flow definition: "+err.Error())
		return
	}
	if def.Id == "" {
		def.Id = uuid.New().String()
	}
	if def.Status == "" {
		def.Status = model.FLOW_STATUS_DRAFT
	}
	now := time.Now()
	if def.CreatedAt.IsZero() {
		def.CreatedAt = now
	}
	def.UpdatedAt = now
	if err := s.metadata.SaveFlow(def); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondOK(w, map[string]any{"id": def.Id})
}

func (s *Server) HandleGetFlow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	def, err := s.metadata.GetFlowDefinition(id)
	if err != nil {
		if _, ok := err.(persistence.FlowNotFoundError); ok {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, def)
}

func (s *Server) HandleDeleteFlow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.metadata.DeleteFlow(id); err != nil {
		if _, ok := err.(persistence.FlowNotFoundError); ok {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondOK(w, map[string]any{"id": id, "deleted": true})
}
