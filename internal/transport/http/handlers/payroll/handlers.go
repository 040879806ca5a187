package payrollhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"payday/internal/domain/auth"
	"payday/internal/domain/payroll"
	cryptoutil "payday/internal/platform/crypto"
	"payday/internal/transport/http/api"
	"payday/internal/transport/http/middleware"
)

type Handler struct {
	Service  *payroll.Service
	Crypto   *cryptoutil.Service
	SweepAge time.Duration
}

func NewHandler(service *payroll.Service, crypto *cryptoutil.Service, sweepAge time.Duration) *Handler {
	return &Handler{Service: service, Crypto: crypto, SweepAge: sweepAge}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.With(middleware.RequireManager).Post("/runs", h.handleStartRun)
		r.Get("/runs", h.handleListRuns)
		r.Get("/runs/{runID}", h.handleGetRun)

		r.Get("/payslips", h.handleListPayslips)
		r.Get("/payslips/{payslipID}", h.handleGetPayslip)
		r.Get("/payslips/{payslipID}/download", h.handleDownloadPayslip)
		r.With(middleware.RequireManager).Post("/payslips/{payslipID}/approve", h.handleApprovePayslip)

		r.With(middleware.RequireManager).Get("/anomalies", h.handleListAnomalies)
		r.With(middleware.RequireManager).Post("/anomalies/{anomalyID}/review", h.handleReviewAnomaly)

		r.Get("/paycodes", h.handleListPaycodes)
		r.With(middleware.RequireManager).Post("/paycodes", h.handleCreatePaycode)
		r.With(middleware.RequireManager).Delete("/paycodes/{paycodeID}", h.handleArchivePaycode)

		r.With(middleware.RequireManager).Get("/assignments", h.handleListAssignments)
		r.With(middleware.RequireManager).Post("/assignments", h.handleCreateAssignment)
		r.With(middleware.RequireManager).Post("/assignments/{assignmentID}/end", h.handleEndAssignment)

		r.With(middleware.RequireManager).Get("/adjustments", h.handleListAdjustments)
		r.With(middleware.RequireManager).Post("/adjustments", h.handleCreateAdjustment)
		r.With(middleware.RequireManager).Put("/adjustments/{adjustmentID}", h.handleUpdateAdjustment)
		r.With(middleware.RequireManager).Post("/adjustments/{adjustmentID}/cancel", h.handleCancelAdjustment)

		r.Get("/schedule", h.handleGetSchedule)
		r.With(middleware.RequireManager).Put("/schedule", h.handleUpdateSchedule)

		r.Get("/periods/{period}/eligible", h.handleEligibleEmployees)

		r.With(middleware.RequireManager).Put("/employees/{employeeID}/bank-account", h.handleUpdateBankAccount)

		r.With(middleware.RequireManager).Post("/maintenance/orphan-sweep", h.handleSweepOrphans)
	})
}

type bankAccountPayload struct {
	BankAccount string `json:"bankAccount"`
}

func (h *Handler) handleUpdateBankAccount(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload bankAccountPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, api.CodeInvalidPayload, "invalid request payload", reqID)
		return
	}

	err := h.Service.UpdateBankAccount(r.Context(), h.Crypto, chi.URLParam(r, "employeeID"), payload.BankAccount)
	if errors.Is(err, payroll.ErrInvalidInput) {
		api.Fail(w, http.StatusBadRequest, api.CodeInvalidPayload, "bank account is required", reqID)
		return
	}
	if errors.Is(err, payroll.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, api.CodeNotFound, "employee not found", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employees_failed", "failed to update bank account", reqID)
		return
	}
	api.Success(w, map[string]string{"status": "updated"}, reqID)
}

func (h *Handler) handleSweepOrphans(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	swept, err := h.Service.SweepOrphans(r.Context(), h.SweepAge)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, api.CodeInternal, "orphan sweep failed", reqID)
		return
	}
	api.Success(w, map[string]int{"swept": swept}, reqID)
}

type runPayload struct {
	Period      string   `json:"period"`
	PayDate     string   `json:"payDate"`
	EmployeeIDs []string `json:"employeeIds"`
}

func (h *Handler) handleStartRun(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload runPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, api.CodeInvalidPayload, "invalid request payload", reqID)
		return
	}
	period, err := payroll.ParsePeriod(payload.Period)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, api.CodeInvalidPeriod, "period must be YYYY-MM", reqID)
		return
	}
	payDate, err := time.Parse("2006-01-02", payload.PayDate)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_pay_date", "payDate must be YYYY-MM-DD", reqID)
		return
	}

	employeeIDs := payload.EmployeeIDs
	if len(employeeIDs) == 0 {
		employeeIDs, err = h.Service.EligibleEmployees(r.Context(), period)
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "run_failed", "failed to resolve eligible employees", reqID)
			return
		}
	}

	run, err := h.Service.Run(r.Context(), payroll.RunRequest{
		Period:      period,
		PayDate:     payDate,
		EmployeeIDs: employeeIDs,
		Trigger:     payroll.RunTriggerManual,
	})
	if err != nil {
		switch {
		case errors.Is(err, payroll.ErrRunInProgress):
			api.Fail(w, http.StatusConflict, "run_in_progress", "a run for this period is already in progress", reqID)
		case errors.Is(err, payroll.ErrNoEmployees):
			api.Fail(w, http.StatusBadRequest, "no_employees", "no eligible employees for this period", reqID)
		case errors.Is(err, payroll.ErrInvalidPeriod), errors.Is(err, payroll.ErrInvalidPayDate):
			api.Fail(w, http.StatusBadRequest, api.CodeInvalidPayload, err.Error(), reqID)
		default:
			api.Fail(w, http.StatusInternalServerError, "run_failed", "payroll run failed", reqID)
		}
		return
	}
	api.Created(w, run, reqID)
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	limit, offset := pagination(r)
	runs, err := h.Service.ListRuns(r.Context(), limit, offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "runs_failed", "failed to list runs", reqID)
		return
	}
	api.Success(w, runs, reqID)
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	run, err := h.Service.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if errors.Is(err, payroll.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, api.CodeNotFound, "run not found", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "runs_failed", "failed to load run", reqID)
		return
	}
	api.Success(w, run, reqID)
}

func (h *Handler) handleListPayslips(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	limit, offset := pagination(r)

	var period payroll.Period
	if raw := r.URL.Query().Get("period"); raw != "" {
		parsed, err := payroll.ParsePeriod(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, api.CodeInvalidPeriod, "period must be YYYY-MM", reqID)
			return
		}
		period = parsed
	}

	employeeID := r.URL.Query().Get("employeeId")
	user, _ := middleware.GetUser(r.Context())
	if !auth.CanManagePayroll(user.Role) {
		// Non-managers only see their own payslips.
		employeeID = user.EmployeeID
	}

	slips, err := h.Service.ListPayslips(r.Context(), employeeID, period, limit, offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payslips_failed", "failed to list payslips", reqID)
		return
	}
	api.Success(w, slips, reqID)
}

// canViewPayslip applies the ownership rule: employees see only their
// own payslips, managers see all of them.
func canViewPayslip(user auth.UserContext, slip payroll.Payslip) bool {
	if auth.CanManagePayroll(user.Role) {
		return true
	}
	return user.EmployeeID != "" && user.EmployeeID == slip.EmployeeID
}

func (h *Handler) handleGetPayslip(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	slip, err := h.Service.GetPayslip(r.Context(), chi.URLParam(r, "payslipID"))
	if errors.Is(err, payroll.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, api.CodeNotFound, "payslip not found", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payslips_failed", "failed to load payslip", reqID)
		return
	}
	user, _ := middleware.GetUser(r.Context())
	if !canViewPayslip(user, slip) {
		// Not-found rather than forbidden: do not reveal the payslip exists.
		api.Fail(w, http.StatusNotFound, api.CodeNotFound, "payslip not found", reqID)
		return
	}
	api.Success(w, slip, reqID)
}

func (h *Handler) handleDownloadPayslip(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	payslipID := chi.URLParam(r, "payslipID")

	slip, err := h.Service.GetPayslip(r.Context(), payslipID)
	if errors.Is(err, payroll.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, api.CodeNotFound, "payslip not found", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payslips_failed", "failed to load payslip", reqID)
		return
	}
	user, _ := middleware.GetUser(r.Context())
	if !canViewPayslip(user, slip) {
		api.Fail(w, http.StatusNotFound, api.CodeNotFound, "payslip not found", reqID)
		return
	}

	path, err := h.Service.GeneratePayslipPDF(r.Context(), h.Crypto, payslipID)
	if errors.Is(err, payroll.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, api.CodeNotFound, "payslip not found", reqID)
		return
	}
	if errors.Is(err, payroll.ErrPayslipNotReleased) {
		api.Fail(w, http.StatusConflict, "not_released", "payslip has not been released", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "pdf_failed", "failed to generate payslip document", reqID)
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "pdf_failed", "failed to read payslip document", reqID)
		return
	}
	if h.Crypto.Configured() {
		data, err = h.Crypto.Decrypt(data)
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "pdf_failed", "failed to decode payslip document", reqID)
			return
		}
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+filepath.Base(payslipID)+".pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleApprovePayslip(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	slip, err := h.Service.ApprovePayslip(r.Context(), chi.URLParam(r, "payslipID"))
	if errors.Is(err, payroll.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, api.CodeNotFound, "payslip not found", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "approve_failed", "failed to approve payslip", reqID)
		return
	}
	api.Success(w, slip, reqID)
}

func (h *Handler) handleListAnomalies(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	limit, offset := pagination(r)

	var period payroll.Period
	if raw := r.URL.Query().Get("period"); raw != "" {
		parsed, err := payroll.ParsePeriod(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, api.CodeInvalidPeriod, "period must be YYYY-MM", reqID)
			return
		}
		period = parsed
	}

	anomalies, err := h.Service.ListAnomalies(r.Context(), r.URL.Query().Get("status"), period, limit, offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "anomalies_failed", "failed to list anomalies", reqID)
		return
	}
	api.Success(w, anomalies, reqID)
}

type reviewPayload struct {
	Decision string `json:"decision"`
	Note     string `json:"note"`
}

func (h *Handler) handleReviewAnomaly(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload reviewPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, api.CodeInvalidPayload, "invalid request payload", reqID)
		return
	}

	err := h.Service.ReviewAnomaly(r.Context(), chi.URLParam(r, "anomalyID"), payload.Decision, user.UserID, payload.Note)
	if errors.Is(err, payroll.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, api.CodeNotFound, "anomaly not found or already decided", reqID)
		return
	}
	if errors.Is(err, payroll.ErrInvalidInput) {
		api.Fail(w, http.StatusBadRequest, "invalid_decision", "decision must be reviewed or dismissed", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "review_failed", "failed to review anomaly", reqID)
		return
	}
	api.Success(w, map[string]string{"status": payload.Decision}, reqID)
}

func (h *Handler) handleListPaycodes(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	includeArchived := r.URL.Query().Get("includeArchived") == "true"
	paycodes, err := h.Service.ListPaycodes(r.Context(), includeArchived)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "paycodes_failed", "failed to list paycodes", reqID)
		return
	}
	api.Success(w, paycodes, reqID)
}

func (h *Handler) handleCreatePaycode(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var pc payroll.Paycode
	if err := json.NewDecoder(r.Body).Decode(&pc); err != nil {
		api.Fail(w, http.StatusBadRequest, api.CodeInvalidPayload, "invalid request payload", reqID)
		return
	}
	if err := h.Service.CreatePaycode(r.Context(), &pc); err != nil {
		if errors.Is(err, payroll.ErrInvalidInput) {
			api.Fail(w, http.StatusBadRequest, "invalid_paycode", err.Error(), reqID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "paycodes_failed", "failed to create paycode", reqID)
		return
	}
	api.Created(w, pc, reqID)
}

func (h *Handler) handleArchivePaycode(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	err := h.Service.ArchivePaycode(r.Context(), chi.URLParam(r, "paycodeID"))
	if errors.Is(err, payroll.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, api.CodeNotFound, "paycode not found", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "paycodes_failed", "failed to archive paycode", reqID)
		return
	}
	api.Success(w, map[string]string{"status": "archived"}, reqID)
}

func (h *Handler) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	employeeID := r.URL.Query().Get("employeeId")
	if employeeID == "" {
		api.Fail(w, http.StatusBadRequest, "missing_employee", "employeeId query parameter is required", reqID)
		return
	}
	assignments, err := h.Service.ListAssignments(r.Context(), employeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "assignments_failed", "failed to list assignments", reqID)
		return
	}
	api.Success(w, assignments, reqID)
}

type assignmentPayload struct {
	EmployeeID    string  `json:"employeeId"`
	PaycodeID     string  `json:"paycodeId"`
	CalcKind      string  `json:"calcKind"`
	Amount        float64 `json:"amount"`
	Percentage    float64 `json:"percentage"`
	HourlyRate    float64 `json:"hourlyRate"`
	Units         float64 `json:"units"`
	EffectiveFrom string  `json:"effectiveFrom"`
	EffectiveTo   string  `json:"effectiveTo"`
}

func (h *Handler) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload assignmentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, api.CodeInvalidPayload, "invalid request payload", reqID)
		return
	}
	from, err := payroll.ParsePeriod(payload.EffectiveFrom)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, api.CodeInvalidPeriod, "effectiveFrom must be YYYY-MM", reqID)
		return
	}
	var to *payroll.Period
	if payload.EffectiveTo != "" {
		parsed, err := payroll.ParsePeriod(payload.EffectiveTo)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, api.CodeInvalidPeriod, "effectiveTo must be YYYY-MM", reqID)
			return
		}
		to = &parsed
	}

	a := payroll.Assignment{
		EmployeeID:    payload.EmployeeID,
		PaycodeID:     payload.PaycodeID,
		CalcKind:      payload.CalcKind,
		Amount:        payload.Amount,
		Percentage:    payload.Percentage,
		HourlyRate:    payload.HourlyRate,
		Units:         payload.Units,
		EffectiveFrom: from,
		EffectiveTo:   to,
	}
	if err := h.Service.CreateAssignment(r.Context(), &a); err != nil {
		switch {
		case errors.Is(err, payroll.ErrAssignmentOverlap):
			api.Fail(w, http.StatusConflict, "assignment_overlap", "assignment interval overlaps an existing one", reqID)
		case errors.Is(err, payroll.ErrUnknownPaycode):
			api.Fail(w, http.StatusBadRequest, "unknown_paycode", "paycode does not exist", reqID)
		case errors.Is(err, payroll.ErrInvalidInput), errors.Is(err, payroll.ErrUnknownCalcKind):
			api.Fail(w, http.StatusBadRequest, "invalid_assignment", err.Error(), reqID)
		default:
			api.Fail(w, http.StatusInternalServerError, "assignments_failed", "failed to create assignment", reqID)
		}
		return
	}
	api.Created(w, a, reqID)
}

type endAssignmentPayload struct {
	EffectiveTo string `json:"effectiveTo"`
}

func (h *Handler) handleEndAssignment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload endAssignmentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, api.CodeInvalidPayload, "invalid request payload", reqID)
		return
	}
	to, err := payroll.ParsePeriod(payload.EffectiveTo)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, api.CodeInvalidPeriod, "effectiveTo must be YYYY-MM", reqID)
		return
	}

	err = h.Service.EndAssignment(r.Context(), chi.URLParam(r, "assignmentID"), to)
	if errors.Is(err, payroll.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, api.CodeNotFound, "assignment not found", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "assignments_failed", "failed to end assignment", reqID)
		return
	}
	api.Success(w, map[string]string{"status": "ended"}, reqID)
}

func (h *Handler) handleListAdjustments(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var period payroll.Period
	if raw := r.URL.Query().Get("period"); raw != "" {
		parsed, err := payroll.ParsePeriod(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, api.CodeInvalidPeriod, "period must be YYYY-MM", reqID)
			return
		}
		period = parsed
	}

	adjustments, err := h.Service.ListAdjustments(r.Context(), period, r.URL.Query().Get("employeeId"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "adjustments_failed", "failed to list adjustments", reqID)
		return
	}
	api.Success(w, adjustments, reqID)
}

type adjustmentPayload struct {
	EmployeeID string  `json:"employeeId"`
	Period     string  `json:"period"`
	Type       string  `json:"type"`
	Label      string  `json:"label"`
	Amount     float64 `json:"amount"`
}

func (h *Handler) handleCreateAdjustment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload adjustmentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, api.CodeInvalidPayload, "invalid request payload", reqID)
		return
	}
	period, err := payroll.ParsePeriod(payload.Period)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, api.CodeInvalidPeriod, "period must be YYYY-MM", reqID)
		return
	}

	adj := payroll.Adjustment{
		EmployeeID: payload.EmployeeID,
		Period:     period,
		Type:       payload.Type,
		Label:      payload.Label,
		Amount:     payload.Amount,
	}
	if err := h.Service.CreateAdjustment(r.Context(), &adj); err != nil {
		if errors.Is(err, payroll.ErrInvalidInput) {
			api.Fail(w, http.StatusBadRequest, "invalid_adjustment", err.Error(), reqID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "adjustments_failed", "failed to create adjustment", reqID)
		return
	}
	api.Created(w, adj, reqID)
}

func (h *Handler) handleUpdateAdjustment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload adjustmentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, api.CodeInvalidPayload, "invalid request payload", reqID)
		return
	}

	adj := payroll.Adjustment{
		ID:     chi.URLParam(r, "adjustmentID"),
		Type:   payload.Type,
		Label:  payload.Label,
		Amount: payload.Amount,
	}
	err := h.Service.UpdateAdjustment(r.Context(), &adj)
	if errors.Is(err, payroll.ErrAdjustmentNotPending) {
		api.Fail(w, http.StatusConflict, "not_pending", "only pending adjustments can be edited", reqID)
		return
	}
	if errors.Is(err, payroll.ErrInvalidInput) {
		api.Fail(w, http.StatusBadRequest, "invalid_adjustment", err.Error(), reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "adjustments_failed", "failed to update adjustment", reqID)
		return
	}
	api.Success(w, adj, reqID)
}

func (h *Handler) handleCancelAdjustment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	err := h.Service.CancelAdjustment(r.Context(), chi.URLParam(r, "adjustmentID"))
	if errors.Is(err, payroll.ErrAdjustmentNotPending) {
		api.Fail(w, http.StatusConflict, "not_pending", "only pending adjustments can be cancelled", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "adjustments_failed", "failed to cancel adjustment", reqID)
		return
	}
	api.Success(w, map[string]string{"status": "cancelled"}, reqID)
}

func (h *Handler) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	sched, err := h.Service.GetSchedule(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "schedule_failed", "failed to load schedule", reqID)
		return
	}
	api.Success(w, sched, reqID)
}

type schedulePayload struct {
	Enabled           bool     `json:"enabled"`
	DayOfMonth        int      `json:"dayOfMonth"`
	RollBackToWorkday bool     `json:"rollBackToWorkday"`
	Holidays          []string `json:"holidays"`
	RunHour           int      `json:"runHour"`
	RunMinute         int      `json:"runMinute"`
	OverridePeriod    string   `json:"overridePeriod"`
	OverrideRunDate   string   `json:"overrideRunDate"`
}

func (h *Handler) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload schedulePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, api.CodeInvalidPayload, "invalid request payload", reqID)
		return
	}

	sched := payroll.Schedule{
		Enabled:           payload.Enabled,
		DayOfMonth:        payload.DayOfMonth,
		RollBackToWorkday: payload.RollBackToWorkday,
		RunHour:           payload.RunHour,
		RunMinute:         payload.RunMinute,
	}
	for _, raw := range payload.Holidays {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_holiday", "holidays must be YYYY-MM-DD", reqID)
			return
		}
		sched.Holidays = append(sched.Holidays, day)
	}
	if payload.OverridePeriod != "" {
		period, err := payroll.ParsePeriod(payload.OverridePeriod)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, api.CodeInvalidPeriod, "overridePeriod must be YYYY-MM", reqID)
			return
		}
		sched.OverridePeriod = &period
	}
	if payload.OverrideRunDate != "" {
		day, err := time.Parse("2006-01-02", payload.OverrideRunDate)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_date", "overrideRunDate must be YYYY-MM-DD", reqID)
			return
		}
		sched.OverrideRunDate = &day
	}

	if err := h.Service.UpdateSchedule(r.Context(), sched); err != nil {
		if errors.Is(err, payroll.ErrInvalidInput) {
			api.Fail(w, http.StatusBadRequest, "invalid_schedule", err.Error(), reqID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "schedule_failed", "failed to update schedule", reqID)
		return
	}
	api.Success(w, sched, reqID)
}

func (h *Handler) handleEligibleEmployees(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	period, err := payroll.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, api.CodeInvalidPeriod, "period must be YYYY-MM", reqID)
		return
	}
	ids, err := h.Service.EligibleEmployees(r.Context(), period)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "eligibility_failed", "failed to resolve eligible employees", reqID)
		return
	}
	api.Success(w, map[string]any{"period": period.String(), "employeeIds": ids}, reqID)
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
