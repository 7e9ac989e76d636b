package app

import (
	"github.com/dojolog/dojolog/internal/config"
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Journal entries
	r.HandleFunc("/api/entry", deps.EntryHandler.CreateEntry).Methods("POST")
	r.HandleFunc("/api/entry", deps.EntryHandler.ListEntries).Queries("from", "{from}", "to", "{to}").Methods("GET")
	r.HandleFunc("/api/entry", deps.EntryHandler.GetEntry).Queries("date", "{date}").Methods("GET")
	r.HandleFunc("/api/entry/{entryUid}", deps.EntryHandler.UpdateEntry).Methods("PUT")
	r.HandleFunc("/api/entry/{entryUid}", deps.EntryHandler.DeleteEntry).Methods("DELETE")

	// Reports
	r.HandleFunc("/api/report", deps.ReportHandler.GetReport).Methods("GET")
	r.HandleFunc("/api/report/weekly", deps.ReportHandler.GetWeeklyReport).Methods("GET")

	// Remote sync
	if cfg.Sync.BaseURL != "" {
		r.HandleFunc("/api/sync", deps.SyncHandler.SyncNow).Methods("POST")
		r.HandleFunc("/api/sync/status", deps.SyncHandler.GetStatus).Methods("GET")
	}
}
