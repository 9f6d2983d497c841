package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/careline/careline/pkg/models"
)

// PostChatHandler godoc
//
//	@Summary		Process a caller message and return the reply
//	@Description	resolve the caller's intent and render a response
//	@Tags			chat
//	@Accept			json
//	@Produce		json
//	@Param			callerId	path		string				true	"Caller ID"
//	@Param			chat		body		models.ChatRequest	true	"Caller message"
//	@Success		200			{object}	models.DialogTurn
//	@Failure		400			{object}	APIError	"Bad Request"
//	@Failure		500			{object}	APIError	"Internal Server Error"
//	@Security		Bearer
//	@Router			/api/v1/chat/{callerId} [post]
func PostChatHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID := chi.URLParam(r, "callerId")
		var chat models.ChatRequest
		if err := decodeJSON(r, &chat); err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}

		turn, err := appState.Dialog.ProcessMessage(r.Context(), callerID, chat.Message)
		if err != nil {
			renderStoreError(w, err)
			return
		}

		if err := encodeJSON(w, turn); err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// GetChatHistoryHandler godoc
//
//	@Summary		Returns recent conversation turns for a caller
//	@Description	get conversation history by caller id
//	@Tags			chat
//	@Accept			json
//	@Produce		json
//	@Param			callerId	path		string	true	"Caller ID"
//	@Param			lastn		query		integer	false	"Last N turns"
//	@Success		200			{object}	[]models.DialogTurn
//	@Failure		500			{object}	APIError	"Internal Server Error"
//	@Security		Bearer
//	@Router			/api/v1/chat/{callerId}/history [get]
func GetChatHistoryHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID := chi.URLParam(r, "callerId")
		lastN, err := extractQueryStringValueToInt[int](r, "lastn")
		if err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}
		if lastN <= 0 {
			lastN = defaultHistoryPageSize
		}

		turns, err := appState.ConversationStore.GetRecent(r.Context(), callerID, lastN)
		if err != nil {
			renderStoreError(w, err)
			return
		}
		if turns == nil {
			turns = []models.DialogTurn{}
		}

		if err := encodeJSON(w, turns); err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// DeleteChatHistoryHandler godoc
//
//	@Summary		Delete conversation history for a caller
//	@Description	delete conversation history by caller id
//	@Tags			chat
//	@Accept			json
//	@Produce		json
//	@Param			callerId	path		string		true	"Caller ID"
//	@Success		200			{string}	string		"OK"
//	@Failure		500			{object}	APIError	"Internal Server Error"
//	@Security		Bearer
//	@Router			/api/v1/chat/{callerId}/history [delete]
func DeleteChatHistoryHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID := strings.TrimSpace(chi.URLParam(r, "callerId"))
		if callerID == "" {
			renderError(w, models.NewBadRequestError("callerId is required"), http.StatusBadRequest)
			return
		}

		if err := appState.ConversationStore.DeleteForCaller(r.Context(), callerID); err != nil {
			renderStoreError(w, err)
			return
		}
		_, _ = w.Write([]byte(OKResponse))
	}
}

const defaultHistoryPageSize = 20
