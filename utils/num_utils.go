package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseInt64 converts common numeric types or numeric strings to int64.
// Empty strings and nil give 0.
func ParseInt64(val interface{}) (int64, error) {
	switch v := val.(type) {
	case nil:
		return 0, nil
	case string:
		return parseInt64String(v)
	case []byte:
		return parseInt64String(string(v))
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case json.Number:
		return parseInt64String(string(v))
	default:
		return 0, fmt.Errorf("unsupported int type: %T", val)
	}
}

func parseInt64String(val string) (int64, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0, nil
	}
	if i, err := strconv.ParseInt(val, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// ParseDecimal converts payload values (json.Number, strings, floats) to a decimal.
// Empty strings and nil give zero.
func ParseDecimal(val interface{}) (decimal.Decimal, error) {
	switch v := val.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return v, nil
	case string:
		return parseDecimalString(v)
	case []byte:
		return parseDecimalString(string(v))
	case json.Number:
		return parseDecimalString(string(v))
	case float64:
		return decimal.NewFromFloat(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported num type: %T", val)
	}
}

func parseDecimalString(val string) (decimal.Decimal, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(val)
}
