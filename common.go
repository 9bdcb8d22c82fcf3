package workshop

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/futuresworkshop/workshop/utils"
	"github.com/shopspring/decimal"
)

const minutesOfDay = 24 * 60

// ParseClock parse HH:MM into minute of day
func ParseClock(text string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock: %s", text)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock: %s", text)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock: %s", text)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock out of range: %s", text)
	}
	return Clock(hour*60 + minute), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// offset minutes since the trading day start (18:00 of the previous calendar day)
func (c Clock) offset() int {
	return (int(c) - int(tradingDayStart) + minutesOfDay) % minutesOfDay
}

func (s *Session) String() string {
	return s.Open.String() + "-" + s.Close.String()
}

// Overnight reports whether the session wraps past midnight.
func (s *Session) Overnight() bool {
	return s.Close < s.Open
}

/*
ParseSessions
parse a trading_time cell: semicolon separated HH:MM tokens, taken pairwise as (open, close).
*/
func ParseSessions(text string) ([]*Session, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	tokens := strings.Split(strings.Trim(text, ";"), ";")
	if len(tokens)%2 != 0 {
		return nil, fmt.Errorf("odd clock count %d in %s", len(tokens), text)
	}
	res := make([]*Session, 0, len(tokens)/2)
	for i := 0; i < len(tokens); i += 2 {
		open, err := ParseClock(tokens[i])
		if err != nil {
			return nil, err
		}
		cls, err := ParseClock(tokens[i+1])
		if err != nil {
			return nil, err
		}
		res = append(res, &Session{Open: open, Close: cls})
	}
	return res, nil
}

/*
validateSessions
sessions must be ordered and non-overlapping inside one trading day.
A trading day runs from 18:00 to 18:00 of the next calendar day, so a night
session that closes after midnight still sorts before the day sessions.
*/
func validateSessions(sessions []*Session) error {
	prevClose := -1
	for i, s := range sessions {
		open, cls := s.Open.offset(), s.Close.offset()
		if cls <= open {
			return fmt.Errorf("session %d (%s) closes before it opens", i+1, s)
		}
		if open < prevClose {
			return fmt.Errorf("session %d (%s) overlaps or precedes session %d", i+1, s, i)
		}
		prevClose = cls
	}
	return nil
}

// HasNight reports whether the product trades in an evening session.
func (p *Product) HasNight() bool {
	for _, s := range p.Sessions {
		if s.Open >= tradingDayStart || s.Overnight() {
			return true
		}
	}
	return false
}

func (h *HolidayRange) Contains(day time.Time) bool {
	d := utils.DateOf(day)
	return !d.Before(h.Begin) && !d.After(h.End)
}

func dayKey(day time.Time) string {
	return day.In(utils.LocCN).Format(utils.DateLayout)
}

func expandHolidays(ranges []*HolidayRange) map[string]bool {
	res := make(map[string]bool)
	for _, h := range ranges {
		utils.EachDay(h.Begin, h.End, func(day time.Time) bool {
			res[dayKey(day)] = true
			return true
		})
	}
	return res
}

// Symbols returns the product symbols sorted.
func (m QuoteMap) Symbols() []string {
	res := utils.KeysOfMap(m)
	sort.Strings(res)
	return res
}

// Count returns the number of records of all products.
func (m QuoteMap) Count() int {
	total := 0
	for _, rows := range m {
		total += len(rows)
	}
	return total
}

func (m QuoteMap) Add(q *DailyQuote) {
	m[q.Product] = append(m[q.Product], q)
}

// Row renders the record in QuoteFields order.
func (q *DailyQuote) Row() []string {
	return []string{
		q.Product,
		q.Delivery,
		q.Date.In(utils.LocCN).Format(utils.DateLayout),
		q.Open.String(),
		q.High.String(),
		q.Low.String(),
		q.Close.String(),
		q.Settlement.String(),
		strconv.FormatInt(q.Volume, 10),
		strconv.FormatInt(q.OpenInterest, 10),
	}
}

// ParseQuoteRow is the inverse of DailyQuote.Row.
func ParseQuoteRow(rec []string) (*DailyQuote, error) {
	if len(rec) != len(QuoteFields) {
		return nil, fmt.Errorf("want %d fields, got %d", len(QuoteFields), len(rec))
	}
	day, err := utils.ParseDate(rec[2])
	if err != nil {
		return nil, err
	}
	q := &DailyQuote{Product: strings.TrimSpace(rec[0]), Delivery: strings.TrimSpace(rec[1]), Date: day}
	prices := []*decimal.Decimal{&q.Open, &q.High, &q.Low, &q.Close, &q.Settlement}
	for i, p := range prices {
		if *p, err = utils.ParseDecimal(rec[3+i]); err != nil {
			return nil, fmt.Errorf("%s: %w", QuoteFields[3+i], err)
		}
	}
	if q.Volume, err = utils.ParseInt64(rec[8]); err != nil {
		return nil, fmt.Errorf("volume: %w", err)
	}
	if q.OpenInterest, err = utils.ParseInt64(rec[9]); err != nil {
		return nil, fmt.Errorf("open_interest: %w", err)
	}
	return q, nil
}
