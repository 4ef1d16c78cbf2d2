package schedule

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/quietday/quietday/internal/rest"
	"github.com/quietday/quietday/internal/utils"
	"github.com/quietday/quietday/pkg/venue"
	log "github.com/sirupsen/logrus"
)

//go:embed templates/status.html
var templateFS embed.FS

const defaultVerb = "hosed"

type Handler struct {
	service  Service
	venue    *venue.Venue
	clock    utils.Clock
	feedURL  string
	maxAge   time.Duration
	throttle time.Duration
	tmpl     *template.Template
}

func NewHandler(service Service, v *venue.Venue, feedURL string, maxAge, throttle time.Duration) *Handler {
	return &Handler{
		service:  service,
		venue:    v,
		clock:    &utils.SystemClock{},
		feedURL:  feedURL,
		maxAge:   maxAge,
		throttle: throttle,
		tmpl:     template.Must(template.ParseFS(templateFS, "templates/status.html")),
	}
}

// ScheduleJSON serves the raw cached event blob for javascript clients.
func (h *Handler) ScheduleJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	sched, err := h.service.Get(r.Context(), h.feedURL, h.maxAge)
	if err != nil || sched == nil || !sched.HasData() {
		log.Errorf("cannot serve schedule.json: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		if encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "schedule unavailable"}); encodeErr != nil {
			log.Errorf("cannot encode error response: %v", encodeErr)
		}
		return
	}
	if _, writeErr := io.WriteString(w, sched.RawEvents()); writeErr != nil {
		log.Errorf("cannot write schedule.json response: %v", writeErr)
	}
}

// ForceRefresh refetches the feed on demand. Reusing Get with the throttle as
// maxAge makes a refresh younger than the throttle a no-op, so the endpoint
// can't be used to hammer the upstream.
func (h *Handler) ForceRefresh(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	sched, err := h.service.Get(r.Context(), h.feedURL, h.throttle)
	if err != nil || sched == nil {
		log.Errorf("forced refresh failed: %v", err)
		http.Error(w, "refresh failed", http.StatusBadGateway)
		return
	}
	fmt.Fprintf(w, "schedule refreshed at %s\n", h.venue.Localize(sched.LastRefreshed()).Format(time.RFC1123))
}

// StatusPage renders the two-line status for a date. Routes are forgiving:
// /{verb}/{date}, /{verb}/, /{date} and / all land here, with the bare single
// segment treated as a date when it parses as one.
func (h *Handler) StatusPage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	verb := vars["verb"]
	isodate := vars["date"]

	if isodate == "" && isISODate(verb) {
		isodate, verb = verb, ""
	}
	if verb == "" {
		verb = defaultVerb
	}
	if isodate == "" {
		isodate = h.venue.Today(h.clock)
	} else if !isISODate(isodate) {
		http.Error(w, "bad date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	sched, err := h.service.Get(r.Context(), h.feedURL, h.maxAge)
	if err != nil || sched == nil {
		log.Errorf("cannot load schedule for status page: %v", err)
		http.Error(w, "schedule unavailable", http.StatusServiceUnavailable)
		return
	}

	events, err := h.service.EventsFrom(sched, isodate)
	if err != nil {
		log.Errorf("cannot read events for status page: %v", err)
		http.Error(w, "schedule unavailable", http.StatusServiceUnavailable)
		return
	}

	status := ComposeStatus(events, isodate, h.venue.TeamName)
	log.Debugf("for isodate %s, status is %+v", isodate, status)

	data := struct {
		Verb string
		Status
	}{Verb: verb, Status: status}

	if err := h.tmpl.Execute(w, data); err != nil {
		log.Errorf("cannot render status page: %v", err)
	}
}

func isISODate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
