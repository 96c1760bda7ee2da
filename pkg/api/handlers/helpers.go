package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/logger"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/provider"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/retrieval"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/store"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/tree"
	"github.com/anadimpally/radiusx-bedrock-chatbot-3/pkg/utils"
)

// writeError maps the closed error kinds onto HTTP statuses. Absence and
// ownership mismatch are indistinguishable by design; tree-integrity
// violations are server errors and logged loudly.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound) || errors.Is(err, tree.ErrNotFound):
		utils.JSONError(w, http.StatusNotFound, "not found")
	case errors.Is(err, tree.ErrParentNotFound),
		errors.Is(err, tree.ErrRootAlreadyExists),
		errors.Is(err, tree.ErrBrokenChain):
		logger.Error("conversation_state_invalid", zap.Error(err))
		utils.JSONError(w, http.StatusInternalServerError, "conversation state invalid")
	case errors.Is(err, retrieval.ErrInvalidConfiguration):
		logger.Error("retrieval_misconfigured", zap.Error(err))
		utils.JSONError(w, http.StatusInternalServerError, "retrieval misconfigured")
	case errors.Is(err, retrieval.ErrUnavailable):
		utils.JSONError(w, http.StatusServiceUnavailable, "knowledge retrieval unavailable, retry later")
	case errors.Is(err, provider.ErrProvider):
		utils.JSONError(w, http.StatusServiceUnavailable, "model provider unavailable, retry later")
	default:
		logger.Error("request_failed", zap.Error(err))
		utils.JSONError(w, http.StatusInternalServerError, "internal error")
	}
}
