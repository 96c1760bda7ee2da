package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/auth"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/chat"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/models"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/store"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/utils"
)

// ConversationHandlers serves the conversation API. The orchestrator is
// injected at registration.
type ConversationHandlers struct {
	orch *chat.Orchestrator
}

// RegisterConversations mounts the conversation endpoints on r.
func RegisterConversations(r *mux.Router, orch *chat.Orchestrator) {
	h := &ConversationHandlers{orch: orch}

	r.HandleFunc("/conversation", h.postConversation).Methods(http.MethodPost)
	r.HandleFunc("/conversations", h.listConversations).Methods(http.MethodGet)
	r.HandleFunc("/conversations", h.deleteAllConversations).Methods(http.MethodDelete)
	r.HandleFunc("/conversation/{id}", h.getConversation).Methods(http.MethodGet)
	r.HandleFunc("/conversation/{id}", h.deleteConversation).Methods(http.MethodDelete)
	r.HandleFunc("/conversation/{id}/title", h.patchTitle).Methods(http.MethodPatch)
	r.HandleFunc("/conversation/{id}/proposed-title", h.getProposedTitle).Methods(http.MethodGet)
	r.HandleFunc("/conversation/{id}/related-documents", h.listRelatedDocuments).Methods(http.MethodGet)
	r.HandleFunc("/conversation/{id}/related-documents/{sourceID}", h.getRelatedDocument).Methods(http.MethodGet)
	r.HandleFunc("/conversation/{id}/messages/{messageID}", h.getMessage).Methods(http.MethodGet)
	r.HandleFunc("/conversation/{id}/messages/{messageID}/answer", h.getOriginalAnswer).Methods(http.MethodGet)
	r.HandleFunc("/conversation/{id}/messages/{messageID}/feedback", h.putFeedback).Methods(http.MethodPut)
}

type chatInput struct {
	ConversationID  string         `json:"conversation_id,omitempty"`
	ParentMessageID string         `json:"parent_message_id,omitempty"`
	BotID           string         `json:"bot_id,omitempty"`
	Continue        bool           `json:"continue,omitempty"`
	Message         models.Message `json:"message"`
}

type chatOutput struct {
	ConversationID string         `json:"conversation_id"`
	Title          string         `json:"title,omitempty"`
	Message        models.Message `json:"message"`
}

func (h *ConversationHandlers) postConversation(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	var in chatInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if !in.Continue {
		if in.Message.Role == "" {
			in.Message.Role = models.RoleUser
		}
		if err := in.Message.Validate(); err != nil {
			utils.JSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	conv, msg, err := h.orch.SubmitTurn(r.Context(), chat.Input{
		UserID:          user.ID,
		BotID:           in.BotID,
		ConversationID:  in.ConversationID,
		ParentMessageID: in.ParentMessageID,
		Message:         in.Message,
		Continue:        in.Continue,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, chatOutput{
		ConversationID: conv.ID,
		Title:          conv.Title,
		Message:        msg,
	})
}

func (h *ConversationHandlers) listConversations(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	metas, err := store.ListConversations(user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if metas == nil {
		metas = []models.ConversationMeta{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, metas)
}

func (h *ConversationHandlers) getConversation(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	conv, err := chat.FetchConversation(user.ID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, conv)
}

func (h *ConversationHandlers) deleteConversation(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	if err := store.DeleteConversation(user.ID, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ConversationHandlers) deleteAllConversations(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	if err := store.DeleteConversationsByUser(user.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ConversationHandlers) patchTitle(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	var in struct {
		NewTitle string `json:"new_title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.NewTitle == "" {
		utils.JSONError(w, http.StatusBadRequest, "new_title is required")
		return
	}
	if err := chat.ChangeTitle(user.ID, mux.Vars(r)["id"], in.NewTitle); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ConversationHandlers) getProposedTitle(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	title, err := h.orch.ProposeTitle(r.Context(), user.ID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"title": title})
}

func (h *ConversationHandlers) listRelatedDocuments(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	convID := mux.Vars(r)["id"]
	// ownership check before touching the reldoc namespace
	if _, err := store.GetConversation(user.ID, convID); err != nil {
		writeError(w, err)
		return
	}
	docs, err := store.ListRelatedDocuments(convID)
	if err != nil {
		writeError(w, err)
		return
	}
	if docs == nil {
		docs = []models.RelatedDocument{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, docs)
}

func (h *ConversationHandlers) getRelatedDocument(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	vars := mux.Vars(r)
	if _, err := store.GetConversation(user.ID, vars["id"]); err != nil {
		writeError(w, err)
		return
	}
	doc, err := store.GetRelatedDocument(vars["id"], vars["sourceID"])
	if err != nil {
		writeError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, doc)
}

func (h *ConversationHandlers) getMessage(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	vars := mux.Vars(r)
	msg, err := chat.GetMessage(user.ID, vars["id"], vars["messageID"])
	if err != nil {
		writeError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, msg)
}

func (h *ConversationHandlers) getOriginalAnswer(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	vars := mux.Vars(r)
	msg, err := chat.OriginalAnswer(user.ID, vars["id"], vars["messageID"])
	if err != nil {
		writeError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, msg)
}

func (h *ConversationHandlers) putFeedback(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	vars := mux.Vars(r)
	var fb models.Feedback
	if err := json.NewDecoder(r.Body).Decode(&fb); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := chat.AttachFeedback(user.ID, vars["id"], vars["messageID"], fb); err != nil {
		writeError(w, err)
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, fb)
}
