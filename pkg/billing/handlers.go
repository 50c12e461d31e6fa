package billing

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/christianpasc/auraclubmanager/pkg/access"
	"github.com/christianpasc/auraclubmanager/pkg/observability"
)

// Handlers provides HTTP handlers for billing operations
type Handlers struct {
	service Service
	metrics *observability.Metrics
}

// NewHandlers creates new billing handlers. Metrics may be nil.
func NewHandlers(service Service, metrics *observability.Metrics) *Handlers {
	return &Handlers{service: service, metrics: metrics}
}

// RegisterRoutes registers all billing routes behind capability middleware.
// Every mutating route requires manage access; reads require view access.
func (h *Handlers) RegisterRoutes(router *mux.Router, mw *access.Middleware) {
	viewFees := mw.RequireView(access.ResourceMonthlyFees)
	manageFees := mw.RequireManage(access.ResourceMonthlyFees)

	router.Handle("/tenants/{tenant_id}/fees",
		viewFees(http.HandlerFunc(h.ListFees))).Methods("GET")
	router.Handle("/tenants/{tenant_id}/fees",
		manageFees(http.HandlerFunc(h.CreateFee))).Methods("POST")
	router.Handle("/tenants/{tenant_id}/fees/summary",
		mw.RequireView(access.ResourceFinance)(http.HandlerFunc(h.GetSummary))).Methods("GET")
	router.Handle("/tenants/{tenant_id}/fees/sweep",
		manageFees(http.HandlerFunc(h.SweepFees))).Methods("POST")
	router.Handle("/tenants/{tenant_id}/fees/{fee_id}",
		viewFees(http.HandlerFunc(h.GetFee))).Methods("GET")
	router.Handle("/tenants/{tenant_id}/fees/{fee_id}",
		manageFees(http.HandlerFunc(h.DeleteFee))).Methods("DELETE")
	router.Handle("/tenants/{tenant_id}/fees/{fee_id}/pay",
		manageFees(http.HandlerFunc(h.PayFee))).Methods("POST")
	router.Handle("/tenants/{tenant_id}/enrollments/{enrollment_id}/schedule",
		mw.RequireManage(access.ResourceEnrollments)(http.HandlerFunc(h.GenerateSchedule))).Methods("POST")
}

// generateScheduleRequest carries the enrollment parameters for schedule
// generation; the enrollment id comes from the route
type generateScheduleRequest struct {
	AthleteID     uuid.UUID       `json:"athlete_id"`
	Plan          PlanTier        `json:"plan"`
	MonthlyAmount decimal.Decimal `json:"monthly_amount"`
	StartDate     time.Time       `json:"start_date"`
	PaymentDay    int             `json:"payment_day"`
}

// GenerateSchedule generates and persists the installment schedule for an
// enrollment
func (h *Handlers) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}
	enrollmentID, err := uuid.Parse(mux.Vars(r)["enrollment_id"])
	if err != nil {
		http.Error(w, "Invalid enrollment id", http.StatusBadRequest)
		return
	}

	var req generateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	fees, err := h.service.GenerateSchedule(r.Context(), Enrollment{
		ID:            enrollmentID,
		TenantID:      tenantID,
		AthleteID:     req.AthleteID,
		Plan:          req.Plan,
		MonthlyAmount: req.MonthlyAmount,
		StartDate:     req.StartDate,
		PaymentDay:    req.PaymentDay,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.SchedulesGeneratedTotal.Inc()
		h.metrics.InstallmentsCreatedTotal.Add(float64(len(fees)))
	}

	writeJSON(w, http.StatusCreated, fees)
}

// ListFees lists the tenant's fees, optionally filtered by query parameters
func (h *Handlers) ListFees(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fees, err := h.service.ListFees(r.Context(), tenantID, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if fees == nil {
		fees = []*Fee{}
	}

	writeJSON(w, http.StatusOK, fees)
}

// CreateFee creates a single manual fee
func (h *Handlers) CreateFee(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	var fee Fee
	if err := json.NewDecoder(r.Body).Decode(&fee); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	fee.TenantID = tenantID

	if err := h.service.CreateFee(r.Context(), &fee); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, &fee)
}

// GetFee returns a single fee
func (h *Handlers) GetFee(w http.ResponseWriter, r *http.Request) {
	tenantID, feeID, ok := tenantAndFeeFromRequest(w, r)
	if !ok {
		return
	}

	fee, err := h.service.GetFee(r.Context(), tenantID, feeID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, fee)
}

// DeleteFee removes a fee
func (h *Handlers) DeleteFee(w http.ResponseWriter, r *http.Request) {
	tenantID, feeID, ok := tenantAndFeeFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteFee(r.Context(), tenantID, feeID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// payFeeRequest is the body for mark-paid
type payFeeRequest struct {
	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
}

// PayFee marks a fee as paid
func (h *Handlers) PayFee(w http.ResponseWriter, r *http.Request) {
	tenantID, feeID, ok := tenantAndFeeFromRequest(w, r)
	if !ok {
		return
	}

	var req payFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	paidAt := time.Now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}

	fee, err := h.service.MarkFeePaid(r.Context(), tenantID, feeID, req.PaymentMethod, paidAt)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.FeesPaidTotal.Inc()
	}

	writeJSON(w, http.StatusOK, fee)
}

// sweepRequest optionally overrides the sweep reference date
type sweepRequest struct {
	AsOf *time.Time `json:"as_of,omitempty"`
}

// sweepResponse reports how many fees were transitioned
type sweepResponse struct {
	Swept int64 `json:"swept"`
}

// SweepFees advances the tenant's stale pending fees to overdue
func (h *Handlers) SweepFees(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	var req sweepRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	asOf := time.Now()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	swept, err := h.service.SweepDue(r.Context(), tenantID, asOf)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.FeesSweptTotal.Add(float64(swept))
	}

	writeJSON(w, http.StatusOK, sweepResponse{Swept: swept})
}

// GetSummary returns the billing totals for the tenant's fees
func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := h.service.SummarizeFees(r.Context(), tenantID, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// tenantFromRequest parses the tenant id from the route and verifies it
// matches the authenticated identity. Tenant scope is always explicit;
// a caller can never act outside its own tenant.
func tenantFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	tenantID, err := uuid.Parse(mux.Vars(r)["tenant_id"])
	if err != nil {
		http.Error(w, "Invalid tenant id", http.StatusBadRequest)
		return uuid.Nil, false
	}

	identity, ok := access.IdentityFromContext(r.Context())
	if !ok || identity.TenantID != tenantID {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return uuid.Nil, false
	}

	return tenantID, true
}

// tenantAndFeeFromRequest parses both route ids
func tenantAndFeeFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	tenantID, ok := tenantFromRequest(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	feeID, err := uuid.Parse(mux.Vars(r)["fee_id"])
	if err != nil {
		http.Error(w, "Invalid fee id", http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, feeID, true
}

// filterFromQuery builds a FeeFilter from list query parameters
func filterFromQuery(r *http.Request) (FeeFilter, error) {
	var filter FeeFilter
	q := r.URL.Query()

	if status := q.Get("status"); status != "" {
		s := FeeStatus(status)
		if !s.Valid() {
			return filter, errors.New("unknown status filter")
		}
		filter.Status = s
	}
	if athlete := q.Get("athlete_id"); athlete != "" {
		id, err := uuid.Parse(athlete)
		if err != nil {
			return filter, errors.New("invalid athlete_id filter")
		}
		filter.AthleteID = &id
	}
	if enrollment := q.Get("enrollment_id"); enrollment != "" {
		id, err := uuid.Parse(enrollment)
		if err != nil {
			return filter, errors.New("invalid enrollment_id filter")
		}
		filter.EnrollmentID = &id
	}
	if due := q.Get("due_before"); due != "" {
		t, err := time.Parse("2006-01-02", due)
		if err != nil {
			return filter, errors.New("invalid due_before filter")
		}
		filter.DueBefore = &t
	}
	if due := q.Get("due_after"); due != "" {
		t, err := time.Parse("2006-01-02", due)
		if err != nil {
			return filter, errors.New("invalid due_after filter")
		}
		filter.DueAfter = &t
	}

	return filter, nil
}

// writeError maps core error kinds onto HTTP statuses
func writeError(w http.ResponseWriter, err error) {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "Fee not found", http.StatusNotFound)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
