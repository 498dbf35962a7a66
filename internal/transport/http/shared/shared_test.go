package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrcore/internal/domain/auth"
	"hrcore/internal/requestctx"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2025-03-04")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDate("2025-03-04T23:10:00+05:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDate("  ")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = ParseDate("04/03/2025")
	require.Error(t, err)

	opt, err := ParseOptionalDate("")
	require.NoError(t, err)
	assert.Nil(t, opt)
}

func TestParsePagination(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=999&offset=20", nil)
	p := ParsePagination(r, DefaultLimit, MaxLimit)
	assert.Equal(t, Pagination{Limit: MaxLimit, Offset: 20}, p)

	r = httptest.NewRequest(http.MethodGet, "/?limit=-1&offset=x", nil)
	p = ParsePagination(r, DefaultLimit, MaxLimit)
	assert.Equal(t, Pagination{Limit: DefaultLimit, Offset: 0}, p)

	page := NewPage[string](nil, 0, p)
	assert.NotNil(t, page.Items)
}

type samplePayload struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=admin employee"`
	Month int    `json:"month" validate:"gte=1,lte=12"`
}

func TestValidatorStruct(t *testing.T) {
	v := NewValidator()
	v.Struct(samplePayload{Email: "nope", Role: "boss", Month: 13})
	issues := v.Issues()
	require.Len(t, issues, 3)
	assert.Equal(t, "email", issues[0].Field)
	assert.Equal(t, "month", issues[1].Field)
	assert.Equal(t, "role", issues[2].Field)
	assert.Equal(t, "must be one of: admin employee", issues[2].Reason)

	v = NewValidator()
	v.Struct(samplePayload{Email: "a@example.com", Month: 1})
	assert.False(t, v.HasIssues())
}

func TestValidatorDates(t *testing.T) {
	v := NewValidator()
	start, _ := v.Date("startDate", "2025-05-10")
	end, _ := v.Date("endDate", "2025-05-01")
	v.DateOrder("startDate", start, "endDate", end)
	assert.Nil(t, v.OptionalDate("from", ""))
	v.OptionalDate("to", "yesterday")

	rec := httptest.NewRecorder()
	require.True(t, v.Reject(rec, "req"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Fields []ValidationIssue `json:"fields"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation_error", body.Error.Code)
	assert.Len(t, body.Error.Details.Fields, 3)
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var dst samplePayload
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@example.com","extra":1}`))
	rec := httptest.NewRecorder()
	assert.False(t, DecodeJSON(rec, r, &dst, "req"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_payload")
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", ClientIP(r))

	r = r.WithContext(requestctx.WithClientIP(r.Context(), "203.0.113.9"))
	assert.Equal(t, "203.0.113.9", ClientIP(r))
}

func TestDecodeOptionalJSON(t *testing.T) {
	var dst struct {
		Note string `json:"note"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	assert.True(t, DecodeOptionalJSON(httptest.NewRecorder(), r, &dst, "req"))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"note":"late bus"}`))
	assert.True(t, DecodeOptionalJSON(httptest.NewRecorder(), r, &dst, "req"))
	assert.Equal(t, "late bus", dst.Note)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"note":`))
	rec := httptest.NewRecorder()
	assert.False(t, DecodeOptionalJSON(rec, r, &dst, "req"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type recorderStub struct {
	err    error
	events []string
}

func (s *recorderStub) Record(_ context.Context, actorID, action, entityType, entityID, requestID, ip string, _, _ any) error {
	s.events = append(s.events, strings.Join([]string{actorID, action, entityType, entityID, requestID, ip}, "|"))
	return s.err
}

func TestRecordAudit(t *testing.T) {
	stub := &recorderStub{err: errors.New("db down")}
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.RemoteAddr = "192.0.2.9:80"
	r = r.WithContext(requestctx.WithRequestID(r.Context(), "req-7"))

	RecordAudit(r, stub, auth.UserContext{AccountID: "admin-1", Role: auth.RoleAdmin}, "leave.approve", "leave_request", "lr-1", nil, nil)
	require.Len(t, stub.events, 1)
	assert.Equal(t, "admin-1|leave.approve|leave_request|lr-1|req-7|192.0.2.9", stub.events[0])

	RecordAudit(r, nil, auth.UserContext{}, "x", "y", "z", nil, nil)
}
