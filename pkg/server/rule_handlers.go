package server

import (
	"net/http"

	"github.com/careline/careline/pkg/models"
)

// RefreshRulesHandler godoc
//
//	@Summary		Reload keyword and response rules
//	@Description	rebuild the dialog engine's keyword index from the rule store
//	@Tags			rules
//	@Accept			json
//	@Produce		json
//	@Success		200	{string}	string		"OK"
//	@Failure		500	{object}	APIError	"Internal Server Error"
//	@Security		Bearer
//	@Router			/api/v1/rules/refresh [post]
func RefreshRulesHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := appState.Dialog.RefreshRules(r.Context()); err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(OKResponse))
	}
}

// GetIntentsHandler godoc
//
//	@Summary		List the intents known to the rule store
//	@Description	list distinct intents across keyword and response rules
//	@Tags			rules
//	@Accept			json
//	@Produce		json
//	@Success		200	{array}		string
//	@Failure		500	{object}	APIError	"Internal Server Error"
//	@Security		Bearer
//	@Router			/api/v1/rules/intents [get]
func GetIntentsHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		intents, err := appState.RuleStore.GetIntents(r.Context())
		if err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := encodeJSON(w, intents); err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}
