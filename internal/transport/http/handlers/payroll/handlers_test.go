package payrollhandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"payday/internal/domain/auth"
	"payday/internal/domain/payroll"
	cryptoutil "payday/internal/platform/crypto"
	"payday/internal/transport/http/middleware"
)

const testSecret = "payroll-handler-test-secret"

// stubStore overrides only what the routes under test reach; the
// embedded interface panics on anything else.
type stubStore struct {
	payroll.StoreAPI
	slips        map[string]payroll.Payslip
	bankAccounts map[string][]byte
}

func (s *stubStore) GetPayslip(_ context.Context, payslipID string) (payroll.Payslip, error) {
	slip, ok := s.slips[payslipID]
	if !ok {
		return payroll.Payslip{}, payroll.ErrNotFound
	}
	return slip, nil
}

func (s *stubStore) UpdateEmployeeBankAccount(_ context.Context, employeeID string, encrypted []byte) error {
	if s.bankAccounts == nil {
		s.bankAccounts = map[string][]byte{}
	}
	s.bankAccounts[employeeID] = encrypted
	return nil
}

func newTestRouter(t *testing.T, store payroll.StoreAPI) http.Handler {
	t.Helper()
	enc, err := cryptoutil.New("")
	if err != nil {
		t.Fatalf("crypto: %v", err)
	}
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Auth(testSecret))
	NewHandler(payroll.NewService(store, nil), enc, time.Hour).RegisterRoutes(router)
	return router
}

func bearer(t *testing.T, role, employeeID string) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, auth.Claims{
		UserID:     "u-" + employeeID,
		EmployeeID: employeeID,
		Role:       role,
	}, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return "Bearer " + token
}

func do(router http.Handler, method, path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetPayslipOwnership(t *testing.T) {
	store := &stubStore{slips: map[string]payroll.Payslip{
		"ps-1": {ID: "ps-1", EmployeeID: "e1", Release: payroll.ReleaseReleased},
	}}
	router := newTestRouter(t, store)

	if rec := do(router, http.MethodGet, "/payroll/payslips/ps-1", bearer(t, auth.RoleEmployee, "e1")); rec.Code != http.StatusOK {
		t.Fatalf("owner: status = %d, want 200", rec.Code)
	}
	if rec := do(router, http.MethodGet, "/payroll/payslips/ps-1", bearer(t, auth.RoleEmployee, "e2")); rec.Code != http.StatusNotFound {
		t.Fatalf("other employee: status = %d, want 404", rec.Code)
	}
	if rec := do(router, http.MethodGet, "/payroll/payslips/ps-1", bearer(t, auth.RolePayrollAdmin, "")); rec.Code != http.StatusOK {
		t.Fatalf("manager: status = %d, want 200", rec.Code)
	}
	if rec := do(router, http.MethodGet, "/payroll/payslips/ps-1", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status = %d, want 401", rec.Code)
	}
}

func TestDownloadPayslipOwnership(t *testing.T) {
	store := &stubStore{slips: map[string]payroll.Payslip{
		"ps-1": {ID: "ps-1", EmployeeID: "e1", Release: payroll.ReleaseReleased},
	}}
	router := newTestRouter(t, store)

	rec := do(router, http.MethodGet, "/payroll/payslips/ps-1/download", bearer(t, auth.RoleEmployee, "e2"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("other employee download: status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct == "application/pdf" {
		t.Fatal("document served despite failed ownership check")
	}
}

func TestCompensationListsRequireManager(t *testing.T) {
	router := newTestRouter(t, &stubStore{})

	paths := []string{
		"/payroll/anomalies",
		"/payroll/assignments?employeeId=e1",
		"/payroll/adjustments",
	}
	for _, path := range paths {
		if rec := do(router, http.MethodGet, path, bearer(t, auth.RoleEmployee, "e1")); rec.Code != http.StatusForbidden {
			t.Fatalf("%s: status = %d, want 403", path, rec.Code)
		}
	}
}

func TestUpdateBankAccountRequiresManager(t *testing.T) {
	router := newTestRouter(t, &stubStore{})

	rec := do(router, http.MethodPut, "/payroll/employees/e1/bank-account", bearer(t, auth.RoleEmployee, "e1"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("employee: status = %d, want 403", rec.Code)
	}
}
