package handlers

import (
	"log/slog"
	"net/http"

	"github.com/swaggo/swag"

	"github.com/information-sharing-networks/dbc-connect/internal/logger"
)

// HandleOpenAPIDoc serves the OpenAPI document registered by the docs package
func HandleOpenAPIDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		logger.ContextRequestLogger(r.Context()).Error("failed to read OpenAPI document", slog.String("error", err.Error()))
		http.Error(w, "OpenAPI document not available", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}
