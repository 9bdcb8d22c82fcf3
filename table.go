package workshop

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/futuresworkshop/workshop/errs"
	"github.com/futuresworkshop/workshop/utils"
	"github.com/shopspring/decimal"
)

const (
	CellString = iota
	CellInt
	CellDecimal
	CellDate
	CellDateTime
	CellClock
)

var cellKindNames = map[int]string{
	CellString:   "string",
	CellInt:      "int",
	CellDecimal:  "decimal",
	CellDate:     "date",
	CellDateTime: "datetime",
	CellClock:    "clock",
}

/*
Cell
one classified value of a reference table. Raw always keeps the trimmed text.
*/
type Cell struct {
	Raw   string
	Kind  int
	Int   int64
	Dec   decimal.Decimal
	Time  time.Time
	Clock Clock
}

type Row map[string]*Cell

type Table struct {
	Path   string
	Header []string
	Rows   []Row
}

/*
ParseCell classify a literal, trying in order:
datetime (contains '-' and ':'), date ('-' not leading), clock (':'),
decimal (contains '.'), int, then plain string.
A literal that fails the parse of its class stays a string.
*/
func ParseCell(text string) *Cell {
	raw := strings.TrimSpace(text)
	c := &Cell{Raw: raw, Kind: CellString}
	if raw == "" {
		return c
	}
	hasDash := strings.Contains(raw, "-")
	hasColon := strings.Contains(raw, ":")
	switch {
	case hasDash && hasColon:
		for _, layout := range []string{utils.DateTimeLayout, "2006-01-02 15:04", "2006-01-02T15:04:05", "2006-01-02T15:04"} {
			if t, err := time.ParseInLocation(layout, raw, utils.LocCN); err == nil {
				c.Kind, c.Time = CellDateTime, t
				break
			}
		}
	case hasDash && !strings.HasPrefix(raw, "-"):
		if t, err := utils.ParseDate(raw); err == nil {
			c.Kind, c.Time = CellDate, t
		}
	case hasColon:
		if v, err := ParseClock(raw); err == nil {
			c.Kind, c.Clock = CellClock, v
		}
	case strings.Contains(raw, "."):
		if d, err := decimal.NewFromString(raw); err == nil {
			c.Kind, c.Dec = CellDecimal, d
		}
	default:
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			c.Kind, c.Int = CellInt, v
			c.Dec = decimal.NewFromInt(v)
		}
	}
	return c
}

func (c *Cell) KindName() string {
	return cellKindNames[c.Kind]
}

/*
ReadTable
load a comma separated table with a header row.
required columns must all be present; any column outside required and optional is rejected.
*/
func ReadTable(path string, required, optional []string) (*Table, *errs.Error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errs.NewMsg(errs.CodeConfigLoad, "missing table: %s", path)
		}
		return nil, errs.NewMsg(errs.CodeConfigLoad, "open %s fail: %v", path, err)
	}
	defer file.Close()
	return parseTable(path, file, required, optional)
}

func parseTable(path string, in io.Reader, required, optional []string) (*Table, *errs.Error) {
	reader := csv.NewReader(in)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errs.NewMsg(errs.CodeConfigLoad, "read %s fail: %v", path, err)
	}
	if len(records) == 0 {
		return nil, errs.NewMsg(errs.CodeConfigLoad, "empty table: %s", path)
	}
	header := make([]string, len(records[0]))
	seen := make(map[string]bool)
	for i, name := range records[0] {
		if i == 0 {
			name = utils.TrimBOM(name)
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if seen[name] {
			return nil, errs.NewMsg(errs.CodeConfigLoad, "%s: duplicate column %s", path, name)
		}
		if !utils.ArrContains(required, name) && !utils.ArrContains(optional, name) {
			return nil, errs.NewMsg(errs.CodeConfigLoad, "%s: unexpected column %s", path, name)
		}
		seen[name] = true
		header[i] = name
	}
	for _, name := range required {
		if !seen[name] {
			return nil, errs.NewMsg(errs.CodeConfigLoad, "%s: missing column %s", path, name)
		}
	}
	res := &Table{Path: path, Header: header}
	for _, rec := range records[1:] {
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		row := make(Row, len(header))
		for i, name := range header {
			row[name] = ParseCell(rec[i])
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func (r Row) Has(col string) bool {
	c, ok := r[col]
	return ok && c.Raw != ""
}

func (r Row) Str(col string) string {
	if c, ok := r[col]; ok {
		return c.Raw
	}
	return ""
}

func (r Row) Int(col string) (int, error) {
	c, ok := r[col]
	if !ok || c.Kind != CellInt {
		return 0, r.typeErr(col, CellInt)
	}
	return int(c.Int), nil
}

// Dec accepts both int and decimal cells.
func (r Row) Dec(col string) (decimal.Decimal, error) {
	c, ok := r[col]
	if !ok || (c.Kind != CellDecimal && c.Kind != CellInt) {
		return decimal.Zero, r.typeErr(col, CellDecimal)
	}
	return c.Dec, nil
}

func (r Row) Date(col string) (time.Time, error) {
	c, ok := r[col]
	if !ok || c.Kind != CellDate {
		return time.Time{}, r.typeErr(col, CellDate)
	}
	return c.Time, nil
}

func (r Row) typeErr(col string, want int) error {
	c, ok := r[col]
	if !ok {
		return errors.New("column " + col + " missing")
	}
	return errors.New("column " + col + " want " + cellKindNames[want] + ", got " +
		c.KindName() + " '" + c.Raw + "'")
}
