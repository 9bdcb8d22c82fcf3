package crawler

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/banbox/bntp"
	"github.com/futuresworkshop/workshop"
	"github.com/futuresworkshop/workshop/china"
	"github.com/futuresworkshop/workshop/errs"
	"github.com/futuresworkshop/workshop/log"
	"github.com/futuresworkshop/workshop/utils"
	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func New(store *workshop.Store, adapters map[string]china.Adapter, sink Sink) *Crawler {
	return &Crawler{
		Store:       store,
		Adapters:    adapters,
		Sink:        sink,
		Concurrency: DefConcurrency,
		Now:         bntp.Now,
	}
}

/*
CheckDate
resolve the effective range of an exchange.
nil begin defaults to earliest, nil end defaults to today.
*/
func CheckDate(exchange string, earliest time.Time, begin, end *time.Time, today time.Time) (time.Time, time.Time, *errs.Error) {
	today = utils.DateOf(today)
	if !earliest.IsZero() {
		earliest = utils.DateOf(earliest)
	}
	if begin != nil && end != nil && utils.DateOf(*end).Before(utils.DateOf(*begin)) {
		return time.Time{}, time.Time{}, errs.NewMsg(errs.CodeInvalidRange, "end %s is earlier than begin %s",
			utils.YMD(*end, "-", true), utils.YMD(*begin, "-", true))
	}
	check := func(name string, val *time.Time) *errs.Error {
		if val == nil {
			return nil
		}
		day := utils.DateOf(*val)
		if day.Before(earliest) {
			return errs.NewMsg(errs.CodeRangeTooEarly, "%s %s is earlier than %s, %s has no data before it",
				name, utils.YMD(day, "-", true), utils.YMD(earliest, "-", true), exchange)
		}
		if day.After(today) {
			return errs.NewMsg(errs.CodeRangeInFuture, "%s %s is later than today %s",
				name, utils.YMD(day, "-", true), utils.YMD(today, "-", true))
		}
		return nil
	}
	if err := check("begin", begin); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if err := check("end", end); err != nil {
		return time.Time{}, time.Time{}, err
	}
	b, e := earliest, today
	if begin != nil {
		b = utils.DateOf(*begin)
	}
	if end != nil {
		e = utils.DateOf(*end)
	}
	return b, e, nil
}

func (c *Crawler) today() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return bntp.Now()
}

func (c *Crawler) earliestOf(code string) time.Time {
	if c.Store != nil {
		if exg, err := c.Store.GetExchange(code); err == nil && !exg.Earliest.IsZero() {
			return exg.Earliest
		}
	}
	return workshop.DefEarliest[code]
}

func (c *Crawler) isHoliday(day time.Time) bool {
	if c.Store != nil {
		return c.Store.IsHoliday(day)
	}
	return utils.IsWeekend(day)
}

/*
Crawl
walk [begin, end] of one exchange in ascending order.
Holidays are skipped without fetching. An adapter failure is recorded and the walk continues.
Fetches of one window run in parallel, writes are committed in date order.
*/
func (c *Crawler) Crawl(ctx context.Context, exchange string, begin, end *time.Time) (*Summary, *errs.Error) {
	code := strings.ToUpper(strings.TrimSpace(exchange))
	if !utils.ArrContains(workshop.ExchangeCodes, code) {
		return nil, errs.NewMsg(errs.CodeInvalidExchange, "exchange should be one of %v, got %s",
			workshop.ExchangeCodes, exchange)
	}
	adapter, ok := c.Adapters[code]
	if !ok || adapter == nil {
		return nil, errs.NewMsg(errs.CodeInvalidExchange, "no adapter for %s", code)
	}
	if c.Sink == nil {
		return nil, errs.NewMsg(errs.CodeParamRequired, "sink required")
	}
	b, e, err := CheckDate(code, c.earliestOf(code), begin, end, c.today())
	if err != nil {
		return nil, err
	}
	res := &Summary{Exchange: code, Begin: b, End: e}
	logger := log.Ctx(log.WithModule(ctx, "crawler")).With(zap.String("exg", code))
	logger.Info("crawl start", zap.String("begin", utils.YMD(b, "-", true)),
		zap.String("end", utils.YMD(e, "-", true)), zap.Int("days", utils.DaysBetween(b, e)+1))

	window := c.Concurrency
	if window <= 0 {
		window = DefConcurrency
	}
	jobs := make([]*dayJob, 0, window)
	flush := func() {
		c.runWindow(ctx, adapter, jobs)
		for _, job := range jobs {
			c.commit(ctx, res, job)
		}
		jobs = jobs[:0]
		if ctx.Err() != nil {
			res.Canceled = true
		}
	}
	utils.EachDay(b, e, func(day time.Time) bool {
		if res.Canceled || ctx.Err() != nil {
			res.Canceled = true
			return false
		}
		job := &dayJob{day: day, holiday: c.isHoliday(day)}
		jobs = append(jobs, job)
		if !job.holiday && c.pending(jobs) >= window {
			flush()
		}
		return true
	})
	if len(jobs) > 0 && !res.Canceled {
		flush()
	}
	logger.Info("crawl done", zap.Int("attempted", res.Attempted), zap.Int("skipped", len(res.Skipped)),
		zap.Int("failed", len(res.Failed)), zap.Int("written", res.Written), zap.Bool("canceled", res.Canceled))
	return res, nil
}

func (c *Crawler) pending(jobs []*dayJob) int {
	num := 0
	for _, job := range jobs {
		if !job.holiday {
			num += 1
		}
	}
	return num
}

func (c *Crawler) runWindow(ctx context.Context, adapter china.Adapter, jobs []*dayJob) {
	var g errgroup.Group
	g.SetLimit(max(c.Concurrency, DefConcurrency))
	for _, job := range jobs {
		if job.holiday {
			continue
		}
		job := job
		g.Go(func() error {
			job.quotes, job.err = adapter.FetchDaily(ctx, job.day)
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Crawler) commit(ctx context.Context, res *Summary, job *dayJob) {
	if job.holiday {
		res.Skipped = append(res.Skipped, job.day)
		res.Results = append(res.Results, &DayResult{Date: job.day, Status: StatusHoliday})
		return
	}
	res.Attempted += 1
	day := &DayResult{Date: job.day}
	res.Results = append(res.Results, day)
	dayText := utils.YMD(job.day, "-", true)
	err := job.err
	if err == nil && len(job.quotes) > 0 {
		err = c.Sink.Append(ctx, res.Exchange, job.quotes)
	}
	if err != nil {
		day.Status = StatusFailed
		res.Failed = append(res.Failed, &DayFailure{
			Exchange: res.Exchange,
			Date:     job.day,
			Code:     err.Code,
			Kind:     errs.FailKind(err.Code),
			Msg:      err.Short(),
		})
		log.Warn("crawl day fail", zap.String("exg", res.Exchange), zap.String("day", dayText), zap.Error(err))
		return
	}
	day.Products = len(job.quotes)
	day.Records = job.quotes.Count()
	if day.Records == 0 {
		day.Status = StatusEmpty
	} else {
		day.Status = StatusOk
	}
	res.Written += day.Records
	log.Debug("crawl day", zap.String("exg", res.Exchange), zap.String("day", dayText),
		zap.Int("products", day.Products), zap.Int("records", day.Records))
}

/*
CrawlAll
crawl every exchange with an adapter at the same time.
Validation errors are reported per exchange and do not stop the others.
*/
func (c *Crawler) CrawlAll(ctx context.Context, begin, end *time.Time) (map[string]*Summary, map[string]*errs.Error) {
	codes := utils.KeysOfMap(c.Adapters)
	sort.Strings(codes)
	var (
		lock    deadlock.Mutex
		results = make(map[string]*Summary)
		fails   = make(map[string]*errs.Error)
		g       errgroup.Group
	)
	for _, code := range codes {
		code := code
		g.Go(func() error {
			sum, err := c.Crawl(ctx, code, begin, end)
			lock.Lock()
			defer lock.Unlock()
			if err != nil {
				fails[code] = err
			} else {
				results[code] = sum
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, fails
}

// FailedDays returns the dates that failed, ascending.
func (s *Summary) FailedDays() []time.Time {
	res := make([]time.Time, 0, len(s.Failed))
	for _, f := range s.Failed {
		res = append(res, f.Date)
	}
	return res
}
