package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/models"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/retrieval"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/store"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/utils"
)

// AdminHandlers covers bot registration and knowledge ingestion. These
// routes sit behind the same auth middleware as the rest of the API;
// group-level authorization is left to the deployment in front of us.
type AdminHandlers struct {
	indexer *retrieval.BleveSearcher
}

// RegisterAdmin mounts bot and knowledge endpoints on r.
func RegisterAdmin(r *mux.Router, indexer *retrieval.BleveSearcher) {
	h := &AdminHandlers{indexer: indexer}

	r.HandleFunc("/bot", h.putBot).Methods(http.MethodPost, http.MethodPut)
	r.HandleFunc("/bot/{id}", h.getBot).Methods(http.MethodGet)
	r.HandleFunc("/bot/{id}/knowledge", h.postKnowledge).Methods(http.MethodPost)
}

func (h *AdminHandlers) putBot(w http.ResponseWriter, r *http.Request) {
	var b models.Bot
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if b.ID == "" {
		utils.JSONError(w, http.StatusBadRequest, "id is required")
		return
	}
	if b.KnowledgeBase != nil {
		cfg := retrieval.Config{
			SearchType: b.KnowledgeBase.SearchType,
			MaxResults: b.KnowledgeBase.MaxResults,
			IndexID:    b.KnowledgeBase.IndexID,
		}
		if err := cfg.Validate(); err != nil {
			utils.JSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if err := store.SaveBot(b); err != nil {
		writeError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, b)
}

func (h *AdminHandlers) getBot(w http.ResponseWriter, r *http.Request) {
	b, err := store.GetBot(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, b)
}

func (h *AdminHandlers) postKnowledge(w http.ResponseWriter, r *http.Request) {
	bot, err := store.GetBot(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if !bot.HasKnowledge() {
		utils.JSONError(w, http.StatusConflict, "bot has no knowledge base")
		return
	}
	var in struct {
		Documents []retrieval.KnowledgeDocument `json:"documents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if len(in.Documents) == 0 {
		utils.JSONError(w, http.StatusBadRequest, "documents is required")
		return
	}
	if err := h.indexer.IndexDocuments(bot.KnowledgeBase.IndexID, in.Documents...); err != nil {
		writeError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]int{"indexed": len(in.Documents)})
}
