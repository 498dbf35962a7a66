package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"hrcore/internal/apperrors"
	"hrcore/internal/domain/auth"
)

func TestParseImportFileCSV(t *testing.T) {
	data := []byte("\xef\xbb\xbfEmployee ID,Email,First Name,Last Name,Date Of Joining,Role\n" +
		"EMP100,a@x.com,Jo,Li,2025-01-15,employee\n" +
		",,,,,\n" +
		"EMP101,b@x.com,Al,Bo,15/01/2025,admin\n" +
		"EMP102,c@x.com,Cy,Do,someday,employee\n" +
		"EMP103,d@x.com,Di,Ek,,manager\n")

	rows, err := ParseImportFile("staff.CSV", data)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	first := rows[0]
	require.NoError(t, first.Err)
	assert.Equal(t, "EMP100", first.Input.EmployeeCode)
	assert.Equal(t, "a@x.com", first.Input.WorkEmail)
	require.NotNil(t, first.Input.HireDate)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), *first.Input.HireDate)

	require.NoError(t, rows[1].Err)
	assert.Equal(t, auth.RoleAdmin, rows[1].Input.Role)
	assert.Equal(t, time.January, rows[1].Input.HireDate.Month())

	require.ErrorIs(t, rows[2].Err, apperrors.ErrValidation)
	require.ErrorIs(t, rows[3].Err, apperrors.ErrValidation)

	// Blank rows are dropped but later rows keep their sheet line.
	lines := []int{rows[0].Line, rows[1].Line, rows[2].Line, rows[3].Line}
	assert.Equal(t, []int{2, 4, 5, 6}, lines)
}

func TestParseImportFileRequiresColumns(t *testing.T) {
	_, err := ParseImportFile("staff.csv", []byte("name,email\nJo,a@x.com\n"))
	require.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = ParseImportFile("staff.csv", nil)
	require.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = ParseImportFile("staff.pdf", []byte("x"))
	require.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestParseImportFileXLSX(t *testing.T) {
	book := excelize.NewFile()
	defer func() { _ = book.Close() }()
	sheet := book.GetSheetName(0)
	require.NoError(t, book.SetSheetRow(sheet, "A1", &[]any{"employee_code", "work_email", "first_name", "last_name", "hire_date", "hire_serial"}))
	require.NoError(t, book.SetSheetRow(sheet, "A2", &[]any{"EMP200", "x@y.com", "Ann", "Lee", 45672, 7}))
	require.NoError(t, book.SetSheetRow(sheet, "A3", &[]any{"EMP201", "z@y.com", "Bo", "Ng", "2024-12-31", "seven"}))
	buf, err := book.WriteToBuffer()
	require.NoError(t, err)

	rows, err := ParseImportFile("staff.xlsx", buf.Bytes())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, rows[0].Err)
	in := Normalize(rows[0].Input)
	require.NotNil(t, in.HireDate)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), *in.HireDate)
	require.NotNil(t, in.HireYear)
	assert.Equal(t, 2025, *in.HireYear)
	require.NotNil(t, in.HireSerial)
	assert.Equal(t, 7, *in.HireSerial)

	require.ErrorIs(t, rows[1].Err, apperrors.ErrValidation)
}

func TestParseImportFileRejectsCorruptWorkbook(t *testing.T) {
	_, err := ParseImportFile("staff.xlsx", []byte("not a zip"))
	require.ErrorIs(t, err, apperrors.ErrValidation)
}
