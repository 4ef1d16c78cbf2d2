package app

import (
	"github.com/gorilla/mux"
	"github.com/quietday/quietday/internal/config"
)

// RegisterRoutes registers all endpoints. The fixed paths go first so the
// catch-all status routes don't shadow them.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	r.HandleFunc("/schedule.json", deps.ScheduleHandler.ScheduleJSON).Methods("GET")
	r.HandleFunc("/refresh", deps.ScheduleHandler.ForceRefresh).Methods("GET")

	// Status pages: /{verb}/{isodate}, /{verb}/, /{isodate} and /. A bare
	// single segment is treated as a date when it parses as one.
	r.HandleFunc("/", deps.ScheduleHandler.StatusPage).Methods("GET")
	r.HandleFunc("/{verb}/{date}", deps.ScheduleHandler.StatusPage).Methods("GET")
	r.HandleFunc("/{verb}/", deps.ScheduleHandler.StatusPage).Methods("GET")
	r.HandleFunc("/{verb}", deps.ScheduleHandler.StatusPage).Methods("GET")
}
