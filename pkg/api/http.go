// Package api assembles the HTTP surface: health and metrics at the
// root, the versioned API under /v1 behind auth and telemetry.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/api/handlers"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/auth"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/chat"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/retrieval"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/store"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/telemetry"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/utils"
)

// NewRouter builds the full route tree.
func NewRouter(orch *chat.Orchestrator, indexer *retrieval.BleveSearcher, authCfg auth.Config) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(telemetry.Middleware)
	v1.Use(auth.RequireUser(authCfg))

	handlers.RegisterConversations(v1, orch)
	handlers.RegisterAdmin(v1, indexer)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	if !store.Ready() {
		utils.JSONError(w, http.StatusServiceUnavailable, "store not ready")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
}
