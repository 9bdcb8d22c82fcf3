package workshop

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/futuresworkshop/workshop/errs"
	"github.com/futuresworkshop/workshop/log"
	"github.com/futuresworkshop/workshop/utils"
	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"
)

/*
Store
the reference data graph: exchanges, products, holidays, stop-loss thresholds and accounts.
A loaded snapshot is never modified in place; Load and UpdateStopLoss build a new one
and swap the pointer under the write lock.
*/
type Store struct {
	paths    *Paths
	lock     deadlock.RWMutex
	snap     *snapshot
	saveLock deadlock.Mutex
}

type snapshot struct {
	exgCodes   []string
	exchanges  map[string]*Exchange
	prodCodes  []string
	products   map[string]*Product
	holidays   []*HolidayRange
	holidaySet map[string]bool
	stopLoss   map[string]*StopLoss
	account    *Account
}

// DefaultPaths returns the standard table layout under root.
func DefaultPaths(root string) *Paths {
	basic := filepath.Join(root, DirBasic)
	settings := filepath.Join(root, DirSettings)
	return &Paths{
		Exchange: filepath.Join(basic, "exchange.csv"),
		Product:  filepath.Join(basic, "product.csv"),
		Holiday:  filepath.Join(basic, "holiday.csv"),
		StopLoss: filepath.Join(settings, "stop_loss.csv"),
		User:     filepath.Join(settings, "user.json"),
	}
}

func NewStore(paths *Paths) *Store {
	return &Store{paths: paths}
}

// LoadStore create a store and load all tables
func LoadStore(paths *Paths) (*Store, *errs.Error) {
	s := NewStore(paths)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

/*
Load
read every table, build the indices and validate cross references.
On failure the previously loaded snapshot stays in effect.
*/
func (s *Store) Load() *errs.Error {
	if s.paths == nil {
		return errs.NewMsg(errs.CodeParamRequired, "store paths required")
	}
	snap := &snapshot{}
	loaders := []func(*snapshot) *errs.Error{
		s.loadExchanges,
		s.loadProducts,
		s.loadHolidays,
		s.loadStopLoss,
		s.loadAccount,
	}
	for _, fn := range loaders {
		if err := fn(snap); err != nil {
			log.Error("load reference data fail", zap.Error(err))
			return err
		}
	}
	s.lock.Lock()
	s.snap = snap
	s.lock.Unlock()
	log.Info("reference data loaded", zap.Int("exchanges", len(snap.exgCodes)),
		zap.Int("products", len(snap.prodCodes)), zap.Int("holidays", len(snap.holidaySet)),
		zap.Int("stop_loss", len(snap.stopLoss)))
	return nil
}

func loadErr(path string, line int, format string, a ...any) *errs.Error {
	return errs.NewMsg(errs.CodeConfigLoad, "%s:%d: %s", path, line, fmt.Sprintf(format, a...))
}

func (s *Store) loadExchanges(snap *snapshot) *errs.Error {
	tbl, err := ReadTable(s.paths.Exchange, colsExchange, colsExchangeOpt)
	if err != nil {
		return err
	}
	snap.exchanges = make(map[string]*Exchange)
	for i, row := range tbl.Rows {
		line := i + 2
		code := strings.ToUpper(row.Str("symbol"))
		if code == "" {
			return loadErr(tbl.Path, line, "empty exchange symbol")
		}
		if _, ok := snap.exchanges[code]; ok {
			return loadErr(tbl.Path, line, "duplicate exchange %s", code)
		}
		exg := &Exchange{Code: code, Name: row.Str("name"), Earliest: DefEarliest[code]}
		if row.Has("earliest") {
			day, err_ := row.Date("earliest")
			if err_ != nil {
				return loadErr(tbl.Path, line, "%v", err_)
			}
			exg.Earliest = day
		}
		snap.exchanges[code] = exg
		snap.exgCodes = append(snap.exgCodes, code)
	}
	return nil
}

func (s *Store) loadProducts(snap *snapshot) *errs.Error {
	tbl, err := ReadTable(s.paths.Product, colsProduct, nil)
	if err != nil {
		return err
	}
	snap.products = make(map[string]*Product)
	for i, row := range tbl.Rows {
		line := i + 2
		p, err_ := parseProduct(row)
		if err_ != nil {
			return loadErr(tbl.Path, line, "%v", err_)
		}
		if _, ok := snap.products[p.Symbol]; ok {
			return loadErr(tbl.Path, line, "duplicate product %s", p.Symbol)
		}
		exg, ok := snap.exchanges[p.Exchange]
		if !ok {
			return loadErr(tbl.Path, line, "product %s refers unknown exchange %s", p.Symbol, p.Exchange)
		}
		exg.Products = append(exg.Products, p.Symbol)
		snap.products[p.Symbol] = p
		snap.prodCodes = append(snap.prodCodes, p.Symbol)
	}
	return nil
}

func parseProduct(row Row) (*Product, error) {
	var err error
	p := &Product{
		Symbol:   row.Str("symbol"),
		Name:     row.Str("name"),
		Exchange: strings.ToUpper(row.Str("exchange")),
	}
	if p.Symbol == "" {
		return nil, errors.New("empty product symbol")
	}
	if p.Fluctuation, err = row.Dec("fluctuation"); err != nil {
		return nil, err
	}
	if p.Multiplier, err = row.Int("multiplier"); err != nil {
		return nil, err
	}
	if p.TradingSection, err = row.Int("trading_section"); err != nil {
		return nil, err
	}
	if p.TradingSection < minSections || p.TradingSection > maxSections {
		return nil, fmt.Errorf("%s: trading_section %d out of [%d, %d]", p.Symbol, p.TradingSection,
			minSections, maxSections)
	}
	if p.OptionalSection, err = row.Int("optional_section"); err != nil {
		return nil, err
	}
	if p.OptionalSection < 0 || p.OptionalSection > 2 {
		return nil, fmt.Errorf("%s: optional_section %d out of [0, 2]", p.Symbol, p.OptionalSection)
	}
	if p.Sessions, err = ParseSessions(row.Str("trading_time")); err != nil {
		return nil, fmt.Errorf("%s: %w", p.Symbol, err)
	}
	if len(p.Sessions) != p.TradingSection {
		return nil, fmt.Errorf("%s: %d sessions, trading_section is %d", p.Symbol, len(p.Sessions),
			p.TradingSection)
	}
	if err = validateSessions(p.Sessions); err != nil {
		return nil, fmt.Errorf("%s: %w", p.Symbol, err)
	}
	return p, nil
}

func (s *Store) loadHolidays(snap *snapshot) *errs.Error {
	tbl, err := ReadTable(s.paths.Holiday, colsHoliday, nil)
	if err != nil {
		return err
	}
	for i, row := range tbl.Rows {
		line := i + 2
		begin, err_ := row.Date("begin")
		if err_ != nil {
			return loadErr(tbl.Path, line, "%v", err_)
		}
		end, err_ := row.Date("end")
		if err_ != nil {
			return loadErr(tbl.Path, line, "%v", err_)
		}
		if end.Before(begin) {
			return loadErr(tbl.Path, line, "holiday end %s before begin %s", dayKey(end), dayKey(begin))
		}
		snap.holidays = append(snap.holidays, &HolidayRange{Begin: begin, End: end})
	}
	snap.holidaySet = expandHolidays(snap.holidays)
	return nil
}

func (s *Store) loadStopLoss(snap *snapshot) *errs.Error {
	tbl, err := ReadTable(s.paths.StopLoss, colsStopLoss, nil)
	if err != nil {
		return err
	}
	snap.stopLoss = make(map[string]*StopLoss)
	for i, row := range tbl.Rows {
		line := i + 2
		item := &StopLoss{Exchange: strings.ToUpper(row.Str("exchange")), Symbol: row.Str("symbol")}
		p, ok := snap.products[item.Symbol]
		if !ok {
			return loadErr(tbl.Path, line, "stop loss for unknown product %s", item.Symbol)
		}
		if p.Exchange != item.Exchange {
			return loadErr(tbl.Path, line, "stop loss exchange %s mismatch, %s belongs to %s",
				item.Exchange, item.Symbol, p.Exchange)
		}
		if _, ok = snap.stopLoss[item.Symbol]; ok {
			return loadErr(tbl.Path, line, "duplicate stop loss %s", item.Symbol)
		}
		var err_ error
		if item.Long, err_ = row.Int("long"); err_ != nil {
			return loadErr(tbl.Path, line, "%v", err_)
		}
		if item.Short, err_ = row.Int("short"); err_ != nil {
			return loadErr(tbl.Path, line, "%v", err_)
		}
		snap.stopLoss[item.Symbol] = item
	}
	return nil
}

func (s *Store) loadAccount(snap *snapshot) *errs.Error {
	data, err := utils.ReadFile(s.paths.User)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errs.NewMsg(errs.CodeConfigLoad, "missing user file: %s", s.paths.User)
		}
		return errs.NewMsg(errs.CodeConfigLoad, "read %s fail: %v", s.paths.User, err)
	}
	var acc Account
	if err = utils.Unmarshal(data, &acc, utils.JsonNumDefault); err != nil {
		return errs.NewMsg(errs.CodeConfigLoad, "decode %s fail: %v", s.paths.User, err)
	}
	snap.account = &acc
	return nil
}

func (s *Store) current() *snapshot {
	s.lock.RLock()
	snap := s.snap
	s.lock.RUnlock()
	if snap == nil {
		return &snapshot{}
	}
	return snap
}

// ExchangeCodes returns exchange codes in table order.
func (s *Store) ExchangeCodes() []string {
	snap := s.current()
	return append([]string(nil), snap.exgCodes...)
}

func (s *Store) ExchangeNames() []string {
	snap := s.current()
	res := make([]string, 0, len(snap.exgCodes))
	for _, code := range snap.exgCodes {
		res = append(res, snap.exchanges[code].Name)
	}
	return res
}

func (s *Store) GetExchange(code string) (*Exchange, *errs.Error) {
	snap := s.current()
	exg, ok := snap.exchanges[strings.ToUpper(code)]
	if !ok {
		return nil, errs.NewMsg(errs.CodeNotFound, "exchange %s not found", code)
	}
	res := *exg
	res.Products = append([]string(nil), exg.Products...)
	return &res, nil
}

func (s *Store) ExchangeName(code string) (string, *errs.Error) {
	exg, err := s.GetExchange(code)
	if err != nil {
		return "", err
	}
	return exg.Name, nil
}

func (s *Store) ExchangeCodeByName(name string) (string, *errs.Error) {
	snap := s.current()
	for _, code := range snap.exgCodes {
		if snap.exchanges[code].Name == name {
			return code, nil
		}
	}
	return "", errs.NewMsg(errs.CodeNotFound, "exchange named %s not found", name)
}

// ProductSymbols returns every product symbol in table order.
func (s *Store) ProductSymbols() []string {
	snap := s.current()
	return append([]string(nil), snap.prodCodes...)
}

func (s *Store) ProductNames() []string {
	snap := s.current()
	res := make([]string, 0, len(snap.prodCodes))
	for _, code := range snap.prodCodes {
		res = append(res, snap.products[code].Name)
	}
	return res
}

// ProductSymbolsOf returns the products of an exchange, nil if the exchange is unknown.
func (s *Store) ProductSymbolsOf(exchange string) []string {
	snap := s.current()
	exg, ok := snap.exchanges[strings.ToUpper(exchange)]
	if !ok {
		return nil
	}
	return append([]string{}, exg.Products...)
}

/*
GetProduct
returns a copy of the product, StopLoss filled from the current stop-loss table.
*/
func (s *Store) GetProduct(symbol string) (*Product, *errs.Error) {
	snap := s.current()
	p, ok := snap.products[symbol]
	if !ok {
		return nil, errs.NewMsg(errs.CodeNotFound, "product %s not found", symbol)
	}
	res := *p
	res.Sessions = copySessions(p.Sessions)
	res.StopLoss = snap.stopLossOf(p)
	return &res, nil
}

func (s *Store) ProductSymbolByName(name string) (string, *errs.Error) {
	snap := s.current()
	for _, code := range snap.prodCodes {
		if snap.products[code].Name == name {
			return code, nil
		}
	}
	return "", errs.NewMsg(errs.CodeNotFound, "product named %s not found", name)
}

func (s *Store) ExchangeOfProduct(symbol string) (string, *errs.Error) {
	snap := s.current()
	p, ok := snap.products[symbol]
	if !ok {
		return "", errs.NewMsg(errs.CodeNotFound, "product %s not found", symbol)
	}
	return p.Exchange, nil
}

func (s *Store) TradingTime(symbol string) ([]*Session, *errs.Error) {
	snap := s.current()
	p, ok := snap.products[symbol]
	if !ok {
		return nil, errs.NewMsg(errs.CodeNotFound, "product %s not found", symbol)
	}
	return copySessions(p.Sessions), nil
}

func copySessions(items []*Session) []*Session {
	res := make([]*Session, len(items))
	for i, it := range items {
		cp := *it
		res[i] = &cp
	}
	return res
}

func (snap *snapshot) stopLossOf(p *Product) StopLoss {
	if item, ok := snap.stopLoss[p.Symbol]; ok {
		return *item
	}
	return StopLoss{Exchange: p.Exchange, Symbol: p.Symbol}
}

// GetStopLoss returns the thresholds of a product; zero thresholds when it has no entry.
func (s *Store) GetStopLoss(symbol string) (StopLoss, *errs.Error) {
	snap := s.current()
	p, ok := snap.products[symbol]
	if !ok {
		return StopLoss{}, errs.NewMsg(errs.CodeNotFound, "product %s not found", symbol)
	}
	return snap.stopLossOf(p), nil
}

// StopLosses returns the stop-loss table in product table order.
func (s *Store) StopLosses() []StopLoss {
	return s.current().stopLossList()
}

func (snap *snapshot) stopLossList() []StopLoss {
	res := make([]StopLoss, 0, len(snap.stopLoss))
	for _, code := range snap.prodCodes {
		if item, ok := snap.stopLoss[code]; ok {
			res = append(res, *item)
		}
	}
	return res
}

func (s *Store) Account() Account {
	snap := s.current()
	if snap.account == nil {
		return Account{}
	}
	return *snap.account
}

// IsHoliday is true for weekends and every date inside a holiday range.
func (s *Store) IsHoliday(day time.Time) bool {
	if utils.IsWeekend(day) {
		return true
	}
	return s.current().holidaySet[dayKey(day)]
}

func (s *Store) Holidays() []HolidayRange {
	snap := s.current()
	res := make([]HolidayRange, len(snap.holidays))
	for i, h := range snap.holidays {
		res[i] = *h
	}
	return res
}

/*
UpdateStopLoss
replace the thresholds of one product. The stop-loss table is copied, modified and
swapped in, so readers holding the old snapshot are unaffected.
*/
func (s *Store) UpdateStopLoss(symbol string, long, short int) *errs.Error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.snap == nil {
		return errs.NewMsg(errs.CodeConfigLoad, "store not loaded")
	}
	p, ok := s.snap.products[symbol]
	if !ok {
		return errs.NewMsg(errs.CodeNotFound, "product %s not found", symbol)
	}
	table := make(map[string]*StopLoss, len(s.snap.stopLoss)+1)
	for k, v := range s.snap.stopLoss {
		table[k] = v
	}
	table[symbol] = &StopLoss{Exchange: p.Exchange, Symbol: symbol, Long: long, Short: short}
	next := *s.snap
	next.stopLoss = table
	s.snap = &next
	return nil
}

/*
Save
rewrite the stop-loss table with columns exchange,symbol,long,short.
The file is replaced atomically.
*/
func (s *Store) Save() *errs.Error {
	if s.paths == nil || s.paths.StopLoss == "" {
		return errs.NewMsg(errs.CodeParamRequired, "stop loss path required")
	}
	s.saveLock.Lock()
	defer s.saveLock.Unlock()
	s.lock.RLock()
	snap := s.snap
	s.lock.RUnlock()
	if snap == nil {
		return errs.NewMsg(errs.CodeConfigLoad, "store not loaded")
	}
	items := snap.stopLossList()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(colsStopLoss)
	for _, it := range items {
		_ = w.Write([]string{it.Exchange, it.Symbol, strconv.Itoa(it.Long), strconv.Itoa(it.Short)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errs.New(errs.CodeIOWriteFail, err)
	}
	if err := utils.ReplaceFile(s.paths.StopLoss, buf.Bytes()); err != nil {
		return errs.New(errs.CodeIOWriteFail, err)
	}
	log.Info("stop loss saved", zap.String("path", s.paths.StopLoss), zap.Int("num", len(items)))
	return nil
}
