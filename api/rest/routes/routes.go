package routes

import (
	"grid-harness/api/rest/handlers"
	"grid-harness/core/cluster"

	"github.com/gorilla/mux"
)

// SetupRoutes configures the node API routes
func SetupRoutes(r *mux.Router, node *cluster.Node) {
	nodeHandler := handlers.NewNodeHandler(node)

	r.HandleFunc("/health", nodeHandler.Health).Methods("GET")

	api := r.PathPrefix("/v1").Subrouter()

	// Membership endpoints
	api.HandleFunc("/peers", nodeHandler.AnnouncePeer).Methods("POST")
	api.HandleFunc("/status", nodeHandler.Status).Methods("GET")

	// Data and job endpoints
	api.HandleFunc("/datasets", nodeHandler.StageDataset).Methods("POST")
	api.HandleFunc("/jobs", nodeHandler.SubmitJob).Methods("POST")
	api.HandleFunc("/jobs/{id}", nodeHandler.GetJob).Methods("GET")
	api.HandleFunc("/score", nodeHandler.ScoreModel).Methods("POST")
	api.HandleFunc("/handles/{id}", nodeHandler.ReleaseHandle).Methods("DELETE")
}
