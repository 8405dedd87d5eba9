// Package api exposes HTTP handlers for the step coach service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Rob190501/iWalk/internal/auth"
	"github.com/Rob190501/iWalk/internal/coach"
	"github.com/Rob190501/iWalk/internal/domain"
	"github.com/Rob190501/iWalk/internal/outlier"
	"github.com/Rob190501/iWalk/internal/persistence"
	"github.com/Rob190501/iWalk/internal/regression"
	"github.com/Rob190501/iWalk/internal/validation"
)

const (
	defaultPageSize = 30
	maxPageSize     = 366
)

// Coach is the service surface used by the handlers.
type Coach interface {
	FetchDataset(ctx context.Context, opts coach.FetchOptions) (coach.Dataset, error)
	BuildModel(ctx context.Context, records []domain.DailyRecord) (*regression.Model, error)
	Predict(ctx context.Context, calories, exerciseMinutes int) (int, error)
	StepsToGo(ctx context.Context, caloriesToBurn int) (int, error)
	Validate(ctx context.Context, k int) (validation.Report, error)
}

// RecordLister pages through stored daily records.
type RecordLister interface {
	List(ctx context.Context, cursor *domain.Cursor, limit int) ([]domain.DailyRecord, *domain.Cursor, error)
}

// Handler coordinates HTTP requests with the coach service.
type Handler struct {
	coach   Coach
	records RecordLister
}

// NewHandler builds a Handler.
func NewHandler(coach Coach, records RecordLister) *Handler {
	return &Handler{coach: coach, records: records}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/dataset", h.dataset)
	mux.HandleFunc("/v1/records", h.listRecords)
	mux.HandleFunc("/v1/model", h.model)
	mux.HandleFunc("/v1/predictions", h.predictions)
	mux.HandleFunc("/v1/steps-to-go", h.stepsToGo)
	mux.HandleFunc("/v1/validation", h.validation)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// authorize writes the error response and returns false unless the caller holds one of scopes.
func authorize(w http.ResponseWriter, r *http.Request, scopes ...string) bool {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return false
	}
	if !claims.HasAnyScope(scopes...) {
		writeError(w, http.StatusForbidden, "forbidden", "scope "+scopes[0]+" required")
		return false
	}
	return true
}

func (h *Handler) dataset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !authorize(w, r, auth.ScopeDatasetRead, auth.ScopeModelWrite) {
		return
	}

	var req FetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	opts, err := req.Options()
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	ds, err := h.coach.FetchDataset(r.Context(), opts)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DatasetResponse{
		Records:   toRecordViews(ds.Records),
		Real:      ds.Real,
		Synthetic: ds.Synthetic,
	})
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !authorize(w, r, auth.ScopeDatasetRead) {
		return
	}

	limit := defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = persistence.ClampLimit(parsed, defaultPageSize, maxPageSize)
		}
	}
	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	records, next, err := h.records.List(r.Context(), cursor, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ListRecordsResponse{
		Items:      toRecordViews(records),
		NextCursor: persistence.EncodeCursor(next),
	})
}

func (h *Handler) model(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !authorize(w, r, auth.ScopeModelWrite) {
		return
	}

	var req BuildModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	records, err := req.DomainRecords()
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	if req.Fetch != nil {
		opts, err := req.Fetch.Options()
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		ds, err := h.coach.FetchDataset(r.Context(), opts)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		records = ds.Records
	}

	model, err := h.coach.BuildModel(r.Context(), records)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toModelView(model))
}

func (h *Handler) predictions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !authorize(w, r, auth.ScopePredictionsRead) {
		return
	}

	calories, err := intParam(r, "calories", true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	minutes, err := intParam(r, "exercise_minutes", false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	steps, err := h.coach.Predict(r.Context(), calories, minutes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PredictionResponse{Steps: steps})
}

func (h *Handler) stepsToGo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !authorize(w, r, auth.ScopePredictionsRead) {
		return
	}

	calories, err := intParam(r, "calories", true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	remaining, err := h.coach.StepsToGo(r.Context(), calories)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StepsToGoResponse{StepsToGo: remaining})
}

func (h *Handler) validation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if !authorize(w, r, auth.ScopeModelWrite) {
		return
	}

	k, err := intParam(r, "k", false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	if k == 0 {
		k = 5
	}

	report, err := h.coach.Validate(r.Context(), k)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func intParam(r *http.Request, name string, required bool) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		if required {
			return 0, errors.New("missing " + name + " parameter")
		}
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return value, nil
}

// writeDomainError maps pipeline sentinels onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidFoldCount):
		writeError(w, http.StatusBadRequest, "invalid_fold_count", err.Error())
	case errors.Is(err, outlier.ErrInvalidConfig):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrDataUnavailable):
		writeError(w, http.StatusConflict, "data_unavailable", err.Error())
	case errors.Is(err, domain.ErrInsufficientData):
		writeError(w, http.StatusUnprocessableEntity, "insufficient_data", err.Error())
	case errors.Is(err, domain.ErrTrainingFailed):
		writeError(w, http.StatusUnprocessableEntity, "training_failed", err.Error())
	case errors.Is(err, domain.ErrModelNotInitialized):
		writeError(w, http.StatusServiceUnavailable, "model_not_initialized", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "cancelled", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toRecordViews(records []domain.DailyRecord) []RecordView {
	out := make([]RecordView, 0, len(records))
	for _, record := range records {
		out = append(out, RecordView{
			Date:            record.Date.Format(dateLayout),
			Steps:           record.Steps,
			ExerciseMinutes: record.ExerciseMinutes,
			Calories:        record.Calories,
			Synthetic:       record.Synthetic,
		})
	}
	return out
}

func toModelView(model *regression.Model) ModelView {
	return ModelView{
		ModelID:  model.ID,
		Features: string(model.Features),
		Rows:     model.Rows,
		Coefficients: Coefficients{
			Intercept:       model.Intercept,
			Calories:        model.CaloriesCoef,
			ExerciseMinutes: model.ExerciseMinutesCoef,
		},
		TrainedAt: model.TrainedAt.UTC().Format(time.RFC3339),
	}
}
