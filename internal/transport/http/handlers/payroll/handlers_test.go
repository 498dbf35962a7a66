package payrollhandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrcore/internal/apperrors"
	"hrcore/internal/domain/auth"
	"hrcore/internal/domain/payroll"
	"hrcore/internal/transport/http/middleware"
)

const recordID = "55555555-5555-4555-8555-555555555555"

var (
	admin    = auth.UserContext{AccountID: "99999999-9999-4999-8999-999999999999", Role: auth.RoleAdmin}
	employee = auth.UserContext{AccountID: "11111111-1111-4111-8111-111111111111", Role: auth.RoleEmployee}
)

type fakePayroll struct {
	created   payroll.RecordInput
	patch     payroll.Patch
	filter    payroll.Filter
	mineYear  int
	latestFor string
	existing  map[[2]int]bool
}

func (f *fakePayroll) Create(_ context.Context, in payroll.RecordInput) (payroll.Result, error) {
	if f.existing[[2]int{in.Month, in.Year}] {
		return payroll.Result{}, apperrors.ErrDuplicatePeriod
	}
	f.created = in
	return payroll.Evaluate(payroll.Record{ID: recordID, AccountID: in.AccountID, Month: in.Month, Year: in.Year, BaseSalary: in.BaseSalary, NetSalary: in.NetSalary}), nil
}

func (f *fakePayroll) Update(_ context.Context, id string, patch payroll.Patch) (payroll.Result, payroll.Result, error) {
	f.patch = patch
	return payroll.Result{Record: payroll.Record{ID: id}}, payroll.Result{Record: payroll.Record{ID: id}}, nil
}

func (f *fakePayroll) Delete(context.Context, string) (payroll.Record, error) {
	return payroll.Record{}, apperrors.ErrNotFound
}

func (f *fakePayroll) Get(_ context.Context, actor auth.UserContext, id string) (payroll.Result, error) {
	if !actor.CanAccess(employee.AccountID) {
		return payroll.Result{}, apperrors.ErrForbidden
	}
	return payroll.Result{Record: payroll.Record{ID: id, AccountID: employee.AccountID}}, nil
}

func (f *fakePayroll) ListMine(_ context.Context, _ auth.UserContext, year, _, _ int) (payroll.ListResult, error) {
	f.mineYear = year
	return payroll.ListResult{}, nil
}

func (f *fakePayroll) List(_ context.Context, filter payroll.Filter, _, _ int) (payroll.ListResult, error) {
	f.filter = filter
	return payroll.ListResult{}, nil
}

func (f *fakePayroll) Latest(_ context.Context, _ auth.UserContext, accountID string) (payroll.Result, error) {
	f.latestFor = accountID
	return payroll.Result{}, apperrors.ErrNotFound
}

func (f *fakePayroll) Payslip(_ context.Context, actor auth.UserContext, id string) ([]byte, payroll.Record, error) {
	if !actor.CanAccess(employee.AccountID) {
		return nil, payroll.Record{}, apperrors.ErrForbidden
	}
	return []byte("%PDF-1.3 fake"), payroll.Record{ID: id, Month: 6, Year: 2025}, nil
}

func serve(h *Handler, user auth.UserContext, method, target, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(middleware.WithUser(req.Context(), user))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreate(t *testing.T) {
	svc := &fakePayroll{existing: map[[2]int]bool{{5, 2025}: true}}
	h := NewHandler(svc, nil, nil, nil)

	body := `{"accountId":"` + employee.AccountID + `","month":6,"year":2025,"baseSalary":"5000","allowances":"250.50","tax":450,"netSalary":"4800.50","paymentDate":"2025-06-30"}`
	rec := serve(h, admin, http.MethodPost, "/payroll", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, decimal.RequireFromString("250.5").Equal(svc.created.Allowances))
	require.NotNil(t, svc.created.PaymentDate)
	assert.Equal(t, 30, svc.created.PaymentDate.Day())
	assert.Contains(t, rec.Body.String(), `"warnings":["net_variance"]`)

	body = strings.Replace(body, `"month":6`, `"month":5`, 1)
	rec = serve(h, admin, http.MethodPost, "/payroll", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "duplicate_period")
}

func TestCreateValidation(t *testing.T) {
	h := NewHandler(&fakePayroll{}, nil, nil, nil)

	rec := serve(h, admin, http.MethodPost, "/payroll", `{"accountId":"`+employee.AccountID+`","month":13,"year":2025,"baseSalary":"-1","netSalary":"0","paymentDate":"soon"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"field":"month"`)
	assert.Contains(t, body, `"field":"baseSalary"`)
	assert.Contains(t, body, `"field":"paymentDate"`)

	rec = serve(h, employee, http.MethodPost, "/payroll", `{}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdatePatch(t *testing.T) {
	svc := &fakePayroll{}
	h := NewHandler(svc, nil, nil, nil)

	rec := serve(h, admin, http.MethodPut, "/payroll/"+recordID, `{"bonus":"100","notes":"q2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.patch.Bonus)
	assert.Equal(t, "100", svc.patch.Bonus.String())
	assert.Nil(t, svc.patch.BaseSalary)
	assert.Nil(t, svc.patch.PaymentDate)

	rec = serve(h, admin, http.MethodPut, "/payroll/"+recordID, `{"tax":"-5"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPayslipDownload(t *testing.T) {
	h := NewHandler(&fakePayroll{}, nil, nil, nil)

	rec := serve(h, employee, http.MethodGet, "/payroll/"+recordID+"/payslip", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=payslip-2025-06.pdf", rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	other := auth.UserContext{AccountID: "77777777-7777-4777-8777-777777777777", Role: auth.RoleEmployee}
	rec = serve(h, other, http.MethodGet, "/payroll/"+recordID+"/payslip", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListingAndLatest(t *testing.T) {
	svc := &fakePayroll{}
	h := NewHandler(svc, nil, nil, nil)

	rec := serve(h, employee, http.MethodGet, "/payroll/me?year=2024", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2024, svc.mineYear)

	rec = serve(h, employee, http.MethodGet, "/payroll/me?year=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, admin, http.MethodGet, "/payroll?month=3&year=2025&accountId="+employee.AccountID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, payroll.Filter{AccountID: employee.AccountID, Month: 3, Year: 2025}, svc.filter)

	rec = serve(h, employee, http.MethodGet, "/payroll/me/latest", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, employee.AccountID, svc.latestFor)

	rec = serve(h, employee, http.MethodGet, "/payroll/accounts/"+admin.AccountID+"/latest", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(h, admin, http.MethodGet, "/payroll/accounts/"+employee.AccountID+"/latest", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, employee.AccountID, svc.latestFor)
}
