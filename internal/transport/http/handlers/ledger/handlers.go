package ledgerhandler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrcore/internal/apperrors"
	"hrcore/internal/domain/account"
	"hrcore/internal/domain/audit"
	"hrcore/internal/domain/auth"
	"hrcore/internal/domain/ledger"
	"hrcore/internal/transport/http/api"
	"hrcore/internal/transport/http/middleware"
	"hrcore/internal/transport/http/shared"
)

type LedgerService interface {
	Create(ctx context.Context, in ledger.EntryInput) (ledger.Entry, error)
	Update(ctx context.Context, id string, in ledger.EntryInput) (ledger.Entry, ledger.Entry, error)
	Get(ctx context.Context, id string) (ledger.Entry, error)
	List(ctx context.Context, filter ledger.Filter, limit, offset int) (ledger.ListResult, error)
	ImportRows(ctx context.Context, rows []ledger.ImportRow) (ledger.ImportResult, error)
}

// Activator turns an unregistered ledger entry into an account.
type Activator interface {
	ActivateFromLedger(ctx context.Context, entryID, department, position string) (account.Activation, error)
}

type Handler struct {
	Service        LedgerService
	Accounts       Activator
	Audit          shared.AuditRecorder
	Idempotency    middleware.IdempotencyBackend
	ImportMaxBytes int64
}

func NewHandler(service LedgerService, accounts Activator, auditSvc shared.AuditRecorder, idem middleware.IdempotencyBackend, importMaxBytes int64) *Handler {
	return &Handler{Service: service, Accounts: accounts, Audit: auditSvc, Idempotency: idem, ImportMaxBytes: importMaxBytes}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/ledger", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLedgerWrite)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermLedgerRead)).Get("/", h.handleList)
		r.With(
			middleware.RequirePermission(auth.PermLedgerWrite),
			middleware.Idempotent(h.Idempotency, "ledger.import"),
		).Post("/import", h.handleImportJSON)
		r.With(middleware.RequirePermission(auth.PermLedgerWrite)).Post("/import/file", h.handleImportFile)
		r.With(middleware.RequirePermission(auth.PermLedgerRead)).Get("/{entryID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermLedgerWrite)).Put("/{entryID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermAccountsManage)).Post("/{entryID}/activate", h.handleActivate)
	})
}

type entryRequest struct {
	EmployeeCode string `json:"employeeCode" validate:"required,max=64"`
	WorkEmail    string `json:"workEmail" validate:"required,email"`
	FirstName    string `json:"firstName" validate:"max=100"`
	LastName     string `json:"lastName" validate:"max=100"`
	HireDate     string `json:"hireDate"`
	HireYear     *int   `json:"hireYear" validate:"omitempty,gte=1900,lte=9999"`
	HireSerial   *int   `json:"hireSerial" validate:"omitempty,gte=1"`
	Role         string `json:"role" validate:"omitempty,oneof=admin employee"`
}

func (p entryRequest) toInput() (ledger.EntryInput, error) {
	in := ledger.EntryInput{
		EmployeeCode: p.EmployeeCode,
		WorkEmail:    p.WorkEmail,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		HireYear:     p.HireYear,
		HireSerial:   p.HireSerial,
		Role:         auth.Role(strings.ToLower(strings.TrimSpace(p.Role))),
	}
	if in.Role == "" {
		in.Role = auth.RoleEmployee
	}
	date, err := shared.ParseOptionalDate(p.HireDate)
	if err != nil {
		return ledger.EntryInput{}, fmt.Errorf("%w: hireDate must be YYYY-MM-DD", apperrors.ErrValidation)
	}
	in.HireDate = date
	return in, nil
}

// decodeEntry validates one entry body; false means a response was written.
func decodeEntry(w http.ResponseWriter, r *http.Request, requestID string) (ledger.EntryInput, bool) {
	var payload entryRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return ledger.EntryInput{}, false
	}
	v := shared.NewValidator()
	v.Struct(payload)
	v.OptionalDate("hireDate", payload.HireDate)
	if v.Reject(w, requestID) {
		return ledger.EntryInput{}, false
	}
	in, err := payload.toInput()
	if err != nil {
		api.FailErr(w, err, requestID)
		return ledger.EntryInput{}, false
	}
	return in, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	in, ok := decodeEntry(w, r, requestID)
	if !ok {
		return
	}
	entry, err := h.Service.Create(r.Context(), in)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionLedgerCreate, audit.EntityLedgerEntry, entry.ID, nil, entry)
	api.Created(w, entry, requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	entryID, ok := shared.PathID(w, r, "entryID", requestID)
	if !ok {
		return
	}
	in, ok := decodeEntry(w, r, requestID)
	if !ok {
		return
	}
	before, after, err := h.Service.Update(r.Context(), entryID, in)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionLedgerUpdate, audit.EntityLedgerEntry, entryID, before, after)
	api.Success(w, after, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	entryID, ok := shared.PathID(w, r, "entryID", requestID)
	if !ok {
		return
	}
	entry, err := h.Service.Get(r.Context(), entryID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, entry, requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()
	filter := ledger.Filter{Search: strings.TrimSpace(query.Get("search"))}
	v := shared.NewValidator()
	if raw := query.Get("registered"); raw != "" {
		registered, err := strconv.ParseBool(raw)
		if err != nil {
			v.Add("registered", "must be true or false")
		}
		filter.Registered = &registered
	}
	if raw := query.Get("role"); raw != "" {
		role, err := auth.ParseRole(raw)
		if err != nil {
			v.Add("role", "must be one of: admin employee")
		}
		filter.Role = role
	}
	if v.Reject(w, requestID) {
		return
	}
	page := shared.ParsePagination(r, shared.DefaultLimit, shared.MaxLimit)
	result, err := h.Service.List(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, shared.NewPage(result.Items, result.Total, page), requestID)
}

type activateRequest struct {
	Department string `json:"department" validate:"max=100"`
	Position   string `json:"position" validate:"max=100"`
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	entryID, ok := shared.PathID(w, r, "entryID", requestID)
	if !ok {
		return
	}
	var payload activateRequest
	if !shared.DecodeOptionalJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, requestID) {
		return
	}
	activation, err := h.Accounts.ActivateFromLedger(r.Context(), entryID, payload.Department, payload.Position)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionAccountActivate, audit.EntityAccount, activation.Account.ID, nil, activation.Account)
	api.Created(w, activation, requestID)
}

// handleImportJSON accepts an array of entries. A row that fails to decode
// or validate is reported by position and the rest of the batch continues.
func (h *Handler) handleImportJSON(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload []entryRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	if len(payload) == 0 {
		api.Fail(w, http.StatusBadRequest, "validation_error", "at least one row is required", requestID)
		return
	}
	rows := make([]ledger.ImportRow, len(payload))
	for i, p := range payload {
		in, err := p.toInput()
		rows[i] = ledger.ImportRow{Input: in, Err: err}
	}
	h.runImport(w, r, user, rows, requestID)
}

func (h *Handler) handleImportFile(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if h.ImportMaxBytes > 0 {
		if r.ContentLength > h.ImportMaxBytes {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "import file too large", requestID)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.ImportMaxBytes)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "import file too large", requestID)
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "multipart field \"file\" is required", requestID)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "could not read import file", requestID)
		return
	}
	rows, err := ledger.ParseImportFile(header.Filename, data)
	if err != nil {
		if errors.Is(err, ledger.ErrUnsupportedFile) {
			api.Fail(w, http.StatusUnsupportedMediaType, "unsupported_file", err.Error(), requestID)
			return
		}
		api.FailErr(w, err, requestID)
		return
	}
	h.runImport(w, r, user, rows, requestID)
}

func (h *Handler) runImport(w http.ResponseWriter, r *http.Request, user auth.UserContext, rows []ledger.ImportRow, requestID string) {
	result, err := h.Service.ImportRows(r.Context(), rows)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user, audit.ActionLedgerImport, audit.EntityLedgerEntry, "", nil, result)
	api.Success(w, result, requestID)
}
