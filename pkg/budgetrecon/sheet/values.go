package sheet

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrInvalidNumber is returned when a cell cannot be read as a number.
	ErrInvalidNumber = errors.New("invalid number")
	// ErrInvalidDate is returned when a cell cannot be read as a date.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidYearMonth is returned when a cell cannot be read as a month.
	ErrInvalidYearMonth = errors.New("invalid year/month")
)

// ParseValue parses a cell as int64, float64 or leaves it as a string.
// Values with leading zeros ("00123", CNPJ roots) stay strings, and so do
// integers a float64 cannot hold exactly, since spreadsheets store every
// number as a double.
func ParseValue(s string) any {
	if len(s) > 1 && s[0] == '0' && s[1] != '.' {
		return s
	}
	if isInteger(s) {
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil || i > maxExactInt || i < -maxExactInt {
			return s
		}
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return s
}

// maxExactInt is 2^53, the largest integer range a float64 keeps exact.
const maxExactInt = 1 << 53

func isInteger(s string) bool {
	s = strings.TrimPrefix(s, "-")
	return s != "" && allDigits(s)
}

// ParseNumber reads a numeric cell written either raw ("1234.5") or in
// Brazilian format ("1.234,5", "R$ 10,00"). Blank cells, "-" and pandas'
// "nan" read as 0.
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	switch strings.ToLower(s) {
	case "", "-", "nan", "none", "null":
		return 0, nil
	}

	dots, commas := strings.Count(s, "."), strings.Count(s, ",")
	switch {
	case dots > 0 && commas > 0:
		// Whichever comes last is the decimal separator.
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case commas == 1:
		s = strings.Replace(s, ",", ".", 1)
	case commas > 1:
		s = strings.ReplaceAll(s, ",", "")
	case dots > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return f, nil
}

// Number is ParseNumber with errors read as 0.
func Number(s string) float64 {
	f, _ := ParseNumber(s)
	return f
}

var dateLayouts = []string{
	"02/01/2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2/1/2006",
	"2/1/06",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02-01-2006",
}

// ParseDate reads dd/mm/yyyy, ISO dates and Excel serial numbers.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	// Excel serial (raw cell value). 2958465 is 9999-12-31.
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 1 && f <= 2958465 {
		t, err := excelize.ExcelDateToTime(f, false)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// minYear rejects small Excel serials and stray numbers read as months.
const minYear = 1970

// ParseYearMonth reads the month columns found in the sheets: "202504",
// "202504.0", "2025.4", "2025-04", "04/2025" and full dates.
func ParseYearMonth(s string) (year, month int, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, fmt.Errorf("%w: empty", ErrInvalidYearMonth)
	}

	year, month, ok := splitYearMonth(s)
	if !ok {
		t, derr := ParseDate(s)
		if derr != nil {
			return 0, 0, fmt.Errorf("%w: %q", ErrInvalidYearMonth, s)
		}
		year, month = t.Year(), int(t.Month())
	}
	if month < 1 || month > 12 || year < minYear || year > 9999 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidYearMonth, s)
	}
	return year, month, nil
}

func splitYearMonth(s string) (year, month int, ok bool) {
	if i := strings.IndexAny(s, "./-"); i >= 0 {
		left, right := s[:i], s[i+1:]
		switch {
		case s[i] == '/' && len(right) == 4 && len(left) <= 2:
			// mm/yyyy
			return atoi(right), atoi(left), allDigits(left) && allDigits(right)
		case s[i] == '.' && len(left) == 6 && strings.Trim(right, "0") == "":
			// yyyymm.0 written by pandas
			return atoi(left[:4]), atoi(left[4:]), allDigits(left)
		case len(left) == 4 && len(right) >= 1 && len(right) <= 2:
			return atoi(left), atoi(right), allDigits(left) && allDigits(right)
		}
		return 0, 0, false
	}
	if len(s) == 6 && allDigits(s) {
		return atoi(s[:4]), atoi(s[4:]), true
	}
	return 0, 0, false
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// FormatYearMonth renders the YYYYMM form used in the MÊS columns.
func FormatYearMonth(year, month int) string {
	return fmt.Sprintf("%04d%02d", year, month)
}

var monthNames = map[string]int{
	"jan": 1, "fev": 2, "mar": 3, "abr": 4, "mai": 5, "jun": 6,
	"jul": 7, "ago": 8, "set": 9, "out": 10, "nov": 11, "dez": 12,
}

// ParseMonth reads a month cell: a plain month number ("4", "4.0"), a
// Portuguese month name ("abril", "Abr") or any ParseYearMonth form. Year is
// 0 when the cell only names the month.
func ParseMonth(s string) (year, month int, err error) {
	s = strings.TrimSpace(s)
	if f, ferr := strconv.ParseFloat(s, 64); ferr == nil && f == math.Trunc(f) && f >= 1 && f <= 12 {
		return 0, int(f), nil
	}
	lower := strings.ToLower(s)
	if len(lower) >= 3 {
		if m, ok := monthNames[lower[:3]]; ok && isLetters(lower) {
			return 0, m, nil
		}
	}
	return ParseYearMonth(s)
}

func isLetters(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && r != 'ç' {
			return false
		}
	}
	return true
}
