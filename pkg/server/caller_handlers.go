package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/careline/careline/pkg/models"
)

// CreateCallerHandler godoc
//
//	@Summary		Add a caller
//	@Description	add caller by id
//	@Tags			caller
//	@Accept			json
//	@Produce		json
//	@Param			caller	body		models.CreateCallerRequest	true	"Caller"
//	@Success		201		{object}	models.Caller
//	@Failure		400		{object}	APIError	"Bad Request"
//	@Failure		500		{object}	APIError	"Internal Server Error"
//	@Security		Bearer
//	@Router			/api/v1/caller [post]
func CreateCallerHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var caller models.CreateCallerRequest
		if err := decodeJSON(r, &caller); err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}

		createdCaller, err := appState.CallerStore.Create(r.Context(), &caller)
		if err != nil {
			renderStoreError(w, err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		if err := encodeJSON(w, createdCaller); err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// GetCallerHandler godoc
//
//	@Summary		Returns a caller by ID
//	@Description	get caller by id
//	@Tags			caller
//	@Accept			json
//	@Produce		json
//	@Param			callerId	path		string	true	"Caller ID"
//	@Success		200			{object}	models.Caller
//	@Failure		404			{object}	APIError	"Not Found"
//	@Failure		500			{object}	APIError	"Internal Server Error"
//	@Security		Bearer
//	@Router			/api/v1/caller/{callerId} [get]
func GetCallerHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID := chi.URLParam(r, "callerId")

		caller, err := appState.CallerStore.Get(r.Context(), callerID)
		if err != nil {
			renderStoreError(w, err)
			return
		}

		if err := encodeJSON(w, caller); err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// UpdateCallerHandler godoc
//
//	@Summary		Update a caller
//	@Description	update caller by id
//	@Tags			caller
//	@Accept			json
//	@Produce		json
//	@Param			callerId	path		string						true	"Caller ID"
//	@Param			caller		body		models.UpdateCallerRequest	true	"Caller"
//	@Success		200			{object}	models.Caller
//	@Failure		400			{object}	APIError	"Bad Request"
//	@Failure		404			{object}	APIError	"Not Found"
//	@Failure		500			{object}	APIError	"Internal Server Error"
//	@Security		Bearer
//	@Router			/api/v1/caller/{callerId} [patch]
func UpdateCallerHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID := chi.URLParam(r, "callerId")
		var caller models.UpdateCallerRequest
		if err := decodeJSON(r, &caller); err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}

		caller.CallerID = callerID

		updatedCaller, err := appState.CallerStore.Update(r.Context(), &caller, true)
		if err != nil {
			renderStoreError(w, err)
			return
		}

		if err := encodeJSON(w, updatedCaller); err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// DeleteCallerHandler godoc
//
//	@Summary		Delete a caller
//	@Description	delete caller by id
//	@Tags			caller
//	@Accept			json
//	@Produce		json
//	@Param			callerId	path		string		true	"Caller ID"
//	@Success		200			{string}	string		"OK"
//	@Failure		404			{object}	APIError	"Not Found"
//	@Failure		500			{object}	APIError	"Internal Server Error"
//	@Security		Bearer
//	@Router			/api/v1/caller/{callerId} [delete]
func DeleteCallerHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID := chi.URLParam(r, "callerId")

		if err := appState.CallerStore.Delete(r.Context(), callerID); err != nil {
			renderStoreError(w, err)
			return
		}

		_, _ = w.Write([]byte(OKResponse))
	}
}

// ListAllCallersHandler godoc
//
//	@Summary		List all callers
//	@Description	list all callers with pagination
//	@Tags			caller
//	@Accept			json
//	@Produce		json
//	@Param			limit	query		int				false	"Limit"
//	@Param			cursor	query		int64			false	"Cursor"
//	@Success		200		{array}		[]models.Caller	"Successfully retrieved list of callers"
//	@Failure		400		{object}	APIError		"Bad Request"
//	@Failure		500		{object}	APIError		"Internal Server Error"
//	@Security		Bearer
//	@Router			/api/v1/caller [get]
func ListAllCallersHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := extractQueryStringValueToInt[int](r, "limit")
		if err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}

		cursor, err := extractQueryStringValueToInt[int64](r, "cursor")
		if err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}

		callers, err := appState.CallerStore.ListAll(r.Context(), cursor, limit)
		if err != nil {
			renderStoreError(w, err)
			return
		}

		if err := encodeJSON(w, callers); err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// GetCallerAttributesHandler godoc
//
//	@Summary		Returns the renderer attribute map for a caller
//	@Description	get placeholder attributes by caller id
//	@Tags			caller
//	@Accept			json
//	@Produce		json
//	@Param			callerId	path		string	true	"Caller ID"
//	@Success		200			{object}	map[string]string
//	@Failure		500			{object}	APIError	"Internal Server Error"
//	@Security		Bearer
//	@Router			/api/v1/caller/{callerId}/attributes [get]
func GetCallerAttributesHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID := chi.URLParam(r, "callerId")

		attributes, err := appState.CallerStore.GetAttributes(r.Context(), callerID)
		if err != nil {
			renderStoreError(w, err)
			return
		}

		if err := encodeJSON(w, attributes); err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}
