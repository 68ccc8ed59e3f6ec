package dashboard

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	httpx "salesdash/internal/http"
	"salesdash/internal/logger"
	"salesdash/internal/models"
	"salesdash/internal/services/aggregate"
	"salesdash/internal/services/dataset"
	"salesdash/internal/services/export"
	"salesdash/internal/services/filter"
	"salesdash/internal/services/metrics"
	"salesdash/internal/services/views"
)

var (
	store    *dataset.Store
	settings views.Settings
)

// Initialize sets up the dashboard package with required dependencies
func Initialize(s *dataset.Store, vs views.Settings) {
	store = s
	settings = vs
}

// RegisterRoutes registers all dashboard routes
func RegisterRoutes(r chi.Router) {
	r.Get("/dashboard/options", handleOptions)
	r.Get("/dashboard/kpis", handleKPIs)
	r.Get("/dashboard/views", handleViewNames)
	r.Get("/dashboard/views/{view}", handleView)
	r.Get("/dashboard/aggregate", handleAggregate)
	r.Get("/dashboard/records", handleRecords)
	r.Get("/dashboard/export.csv", handleExportCSV)
	r.Get("/dashboard/export.xlsx", handleExportXLSX)
	r.Post("/dashboard/reload", handleReload)
}

// snapshotMeta describes the record set a response was computed from
type snapshotMeta struct {
	ID             string         `json:"id"`
	Source         string         `json:"source"`
	LoadedAt       time.Time      `json:"loaded_at"`
	Records        int            `json:"records"`
	Rejected       int            `json:"rejected"`
	RejectedByKind map[string]int `json:"rejected_by_kind,omitempty"`
}

func metaOf(set *models.RecordSet) snapshotMeta {
	return snapshotMeta{
		ID:             set.ID,
		Source:         set.Source,
		LoadedAt:       set.LoadedAt,
		Records:        set.Len(),
		Rejected:       set.Rejected,
		RejectedByKind: set.RejectedByKind,
	}
}

// filtered takes the snapshot once and applies the request's constraints.
// Every computation in a request reads the returned slice.
func filtered(r *http.Request) (*models.RecordSet, []models.Record, error) {
	set := store.Snapshot()
	c, err := httpx.ParseConstraints(r.URL.Query())
	if err != nil {
		return set, nil, err
	}
	records, err := filter.Apply(set.Records(), c)
	if err != nil {
		return set, nil, err
	}
	return set, records, nil
}

// viewSettings applies ?window= and ?top= overrides to the configured settings
func viewSettings(r *http.Request) (views.Settings, error) {
	s := settings
	q := r.URL.Query()
	if v := q.Get("window"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return s, fmt.Errorf("%w window=%q: must be a positive integer", httpx.ErrBadParameter, v)
		}
		s.MovingAverageWindow = n
	}
	if v := q.Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return s, fmt.Errorf("%w top=%q: must be a positive integer", httpx.ErrBadParameter, v)
		}
		s.TopN = n
	}
	return s, nil
}

func handleOptions(w http.ResponseWriter, r *http.Request) {
	set := store.Snapshot()
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"snapshot": metaOf(set),
		"options":  filter.OptionsFor(set.Records()),
		"views":    views.Names(),
	})
}

func handleKPIs(w http.ResponseWriter, r *http.Request) {
	_, records, err := filtered(r)
	if err != nil {
		httpx.ErrorResponse(w, r, err)
		return
	}
	summary := metrics.Summarize(records)
	httpx.WriteJSON(w, http.StatusOK, views.KPIView{
		Summary: summary,
		Display: metrics.FormatKPI(summary),
	})
}

func handleViewNames(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, views.Names())
}

func handleView(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "view")

	s, err := viewSettings(r)
	if err != nil {
		httpx.ErrorResponse(w, r, err)
		return
	}
	set, records, err := filtered(r)
	if err != nil {
		httpx.ErrorResponse(w, r, err)
		return
	}

	v, err := views.Select(name, records, s)
	if err != nil {
		httpx.ErrorResponse(w, r, err)
		return
	}
	log := logger.FromContext(r.Context())
	log.Debug().
		Str("view", name).
		Str("snapshot", set.ID).
		Int("records", len(records)).
		Msg("view built")

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"view":     name,
		"snapshot": set.ID,
		"records":  len(records),
		"data":     v,
	})
}

// aggregateSpec reads group_by (comma separated), measure and reducer
func aggregateSpec(r *http.Request) (aggregate.Spec, error) {
	q := r.URL.Query()
	spec := aggregate.Spec{Measure: aggregate.Amount, Reducer: aggregate.Sum}

	for _, name := range strings.Split(q.Get("group_by"), ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		d, err := aggregate.ParseDimension(name)
		if err != nil {
			return spec, fmt.Errorf("%w: %v", httpx.ErrBadParameter, err)
		}
		spec.GroupBy = append(spec.GroupBy, d)
	}
	if len(spec.GroupBy) == 0 {
		return spec, fmt.Errorf("%w: group_by is required", httpx.ErrBadParameter)
	}
	if v := q.Get("measure"); v != "" {
		m, err := aggregate.ParseMeasure(v)
		if err != nil {
			return spec, fmt.Errorf("%w: %v", httpx.ErrBadParameter, err)
		}
		spec.Measure = m
	}
	if v := q.Get("reducer"); v != "" {
		red, err := aggregate.ParseReducer(v)
		if err != nil {
			return spec, fmt.Errorf("%w: %v", httpx.ErrBadParameter, err)
		}
		spec.Reducer = red
	}
	return spec, nil
}

func handleAggregate(w http.ResponseWriter, r *http.Request) {
	spec, err := aggregateSpec(r)
	if err != nil {
		httpx.ErrorResponse(w, r, err)
		return
	}
	_, records, err := filtered(r)
	if err != nil {
		httpx.ErrorResponse(w, r, err)
		return
	}
	groups, err := aggregate.Aggregate(records, spec)
	if err != nil {
		httpx.ErrorResponse(w, r, err)
		return
	}

	dims := make([]string, len(spec.GroupBy))
	for i, d := range spec.GroupBy {
		dims[i] = d.String()
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"group_by": dims,
		"measure":  spec.Measure.String(),
		"reducer":  spec.Reducer.String(),
		"groups":   groups,
		"total":    aggregate.Total(groups),
	})
}

const defaultRecordLimit = 100

func handleRecords(w http.ResponseWriter, r *http.Request) {
	_, records, err := filtered(r)
	if err != nil {
		httpx.ErrorResponse(w, r, err)
		return
	}

	limit := defaultRecordLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httpx.ErrorResponse(w, r, fmt.Errorf("%w limit=%q", httpx.ErrBadParameter, v))
			return
		}
		limit = n
	}
	page := records
	if len(page) > limit {
		page = page[:limit]
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"total":   len(records),
		"records": page,
	})
}

func handleExportCSV(w http.ResponseWriter, r *http.Request) {
	_, records, err := filtered(r)
	if err != nil {
		httpx.ErrorResponse(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, records); err != nil {
		httpx.ErrorResponse(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", attachment("csv"))
	w.Write(buf.Bytes())
}

func handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	_, records, err := filtered(r)
	if err != nil {
		httpx.ErrorResponse(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, records); err != nil {
		httpx.ErrorResponse(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", attachment("xlsx"))
	w.Write(buf.Bytes())
}

func attachment(ext string) string {
	return fmt.Sprintf("attachment; filename=sales_%s.%s", time.Now().Format("20060102"), ext)
}

func handleReload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	set, err := store.Reload(r.Context())
	if err != nil {
		// the previous snapshot keeps serving
		log.Error().Err(err).Msg("reload failed")
		httpx.ErrorResponse(w, r, err)
		return
	}
	log.Info().Str("snapshot", set.ID).Int("records", set.Len()).Msg("dataset reloaded")
	httpx.WriteJSON(w, http.StatusOK, metaOf(set))
}
