// Package schedule exposes the scheduling service over HTTP.
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/dayplan/app"
	"github.com/kilianp07/dayplan/core/model"
	"github.com/kilianp07/dayplan/core/planner"
	"github.com/kilianp07/dayplan/infra/audit"
)

// Service is the part of app.Service the handlers use.
type Service interface {
	SubmitWindow(ctx context.Context, req model.WindowRequest) app.Result
	SubmitPlan(ctx context.Context, req model.PlanRequest) app.Result
	Latest() (app.LatestRequest, bool)
	Committed(ctx context.Context, user, date string) (*model.DaySchedule, error)
	Audit(ctx context.Context, q audit.Query) ([]audit.Record, error)
}

var _ Service = (*app.Service)(nil)

// Options tune the handlers.
type Options struct {
	// MaxBodyBytes caps request bodies; zero means 1 MiB.
	MaxBodyBytes int64
	// Metrics is mounted on /metrics when set.
	Metrics http.Handler
}

// NewMux registers every route on a new ServeMux:
//
//	POST /api/submit     shared-window request
//	POST /api/plan       itinerary plan
//	GET  /api/latest     last accepted request
//	GET  /api/schedules  committed schedule (?user=&date=)
//	GET  /api/audit      audit records (?user=&date=&start=&end=&limit=)
func NewMux(svc Service, opts Options) *http.ServeMux {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	mux := http.NewServeMux()
	mux.Handle("/api/submit", NewSubmitHandler(svc, opts.MaxBodyBytes))
	mux.Handle("/api/plan", NewPlanHandler(svc, opts.MaxBodyBytes))
	mux.Handle("/api/latest", NewLatestHandler(svc))
	mux.Handle("/api/schedules", NewCommittedHandler(svc))
	mux.Handle("/api/audit", NewAuditHandler(svc))
	if opts.Metrics != nil {
		mux.Handle("/metrics", opts.Metrics)
	}
	return mux
}

// NewSubmitHandler accepts a shared-window request via POST.
func NewSubmitHandler(svc Service, maxBody int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req model.WindowRequest
		if !decode(w, r, maxBody, &req) {
			return
		}
		writeResult(w, svc.SubmitWindow(r.Context(), req))
	})
}

// NewPlanHandler accepts an itinerary plan via POST.
func NewPlanHandler(svc Service, maxBody int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req model.PlanRequest
		if !decode(w, r, maxBody, &req) {
			return
		}
		writeResult(w, svc.SubmitPlan(r.Context(), req))
	})
}

// NewLatestHandler returns the last accepted request via GET.
func NewLatestHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		latest, ok := svc.Latest()
		if !ok {
			writeJSON(w, http.StatusOK, map[string]string{"message": "no data yet"})
			return
		}
		writeJSON(w, http.StatusOK, latest)
	})
}

// NewCommittedHandler returns the committed schedule of a user and date via
// GET. A date without schedule yields 404.
func NewCommittedHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		date := r.URL.Query().Get("date")
		if _, err := time.Parse(model.DateLayout, date); err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		day, err := svc.Committed(r.Context(), r.URL.Query().Get("user"), date)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		if day == nil {
			http.Error(w, "no schedule", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, day)
	})
}

// NewAuditHandler returns audit records via GET. Times are RFC 3339.
func NewAuditHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		params := r.URL.Query()
		q := audit.Query{User: params.Get("user"), Date: params.Get("date")}
		for _, bound := range []struct {
			name string
			dst  *time.Time
		}{{"start", &q.Start}, {"end", &q.End}} {
			s := params.Get(bound.name)
			if s == "" {
				continue
			}
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				http.Error(w, bound.name+" must be an RFC 3339 time", http.StatusBadRequest)
				return
			}
			*bound.dst = t
		}
		if s := params.Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
				return
			}
			q.Limit = n
		}
		records, err := svc.Audit(r.Context(), q)
		if errors.Is(err, app.ErrAuditDisabled) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []audit.Record{}
		}
		writeJSON(w, http.StatusOK, records)
	})
}

func decode(w http.ResponseWriter, r *http.Request, maxBody int64, out any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(body).Decode(out); err != nil {
		msg := "invalid JSON: " + err.Error()
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			msg = "request body too large"
		}
		writeJSON(w, http.StatusBadRequest, app.Result{
			Success:   false,
			ErrorKind: string(planner.KindInvalidInput),
			Message:   msg,
		})
		return false
	}
	return true
}

// writeResult maps a Result to a status. Scheduling failures are reported
// in the body with 200; only storage failures change the status.
func writeResult(w http.ResponseWriter, res app.Result) {
	status := http.StatusOK
	if planner.Kind(res.ErrorKind) == planner.KindUpstreamUnavailable {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
