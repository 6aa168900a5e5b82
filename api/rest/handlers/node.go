package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"grid-harness/core/cluster"
	"grid-harness/core/models"
	"grid-harness/storage"

	"github.com/gorilla/mux"
)

// NodeHandler serves the node API for one cluster node
type NodeHandler struct {
	node *cluster.Node
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(node *cluster.Node) *NodeHandler {
	return &NodeHandler{node: node}
}

// Health handles GET /health
func (h *NodeHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// AnnouncePeer handles POST /v1/peers: a peer announces itself and receives
// the full membership this node can see
func (h *NodeHandler) AnnouncePeer(w http.ResponseWriter, r *http.Request) {
	var info models.NodeInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	peers := h.node.AddPeers(info)
	writeJSON(w, http.StatusOK, peers)
}

// Status handles GET /v1/status
func (h *NodeHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.node.Status())
}

// StageDataset handles POST /v1/datasets: the request body is headered CSV,
// parsed into a frame resident on this node
func (h *NodeHandler) StageDataset(w http.ResponseWriter, r *http.Request) {
	frame, err := storage.ParseCSV(r.Body)
	if err != nil {
		http.Error(w, "Invalid dataset: "+err.Error(), http.StatusBadRequest)
		return
	}
	handle := h.node.Store().Put(models.HandleFrame, frame)
	writeJSON(w, http.StatusCreated, handle)
}

// SubmitJobResponse is the response to a job submission
type SubmitJobResponse struct {
	JobID string `json:"job_id"`
}

// SubmitJob handles POST /v1/jobs
func (h *NodeHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var def models.JobDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	jobID := h.node.SubmitJob(def)
	writeJSON(w, http.StatusAccepted, SubmitJobResponse{JobID: jobID})
}

// GetJob handles GET /v1/jobs/{id}
func (h *NodeHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]
	result, ok := h.node.JobResult(jobID)
	if !ok {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ScoreRequest asks the node to score a resident frame with a resident model
type ScoreRequest struct {
	ModelID string `json:"model_id"`
	FrameID string `json:"frame_id"`
}

// ScoreModel handles POST /v1/score
func (h *NodeHandler) ScoreModel(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	handle, err := h.node.Score(req.ModelID, req.FrameID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrUnknownHandle) {
			status = http.StatusNotFound
		}
		http.Error(w, "Scoring failed: "+err.Error(), status)
		return
	}
	writeJSON(w, http.StatusCreated, handle)
}

// ReleaseHandle handles DELETE /v1/handles/{id}
func (h *NodeHandler) ReleaseHandle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.node.Store().Delete(id); err != nil {
		if errors.Is(err, storage.ErrUnknownHandle) {
			http.Error(w, "Handle not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to release handle: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
