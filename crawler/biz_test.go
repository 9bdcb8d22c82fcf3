package crawler

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/futuresworkshop/workshop"
	"github.com/futuresworkshop/workshop/china"
	"github.com/futuresworkshop/workshop/errs"
	"github.com/futuresworkshop/workshop/utils"
	"github.com/h2non/gock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	code  string
	lock  sync.Mutex
	calls []time.Time
	fails map[string]*errs.Error
	empty map[string]bool
	hook  func(day time.Time)
}

func (a *stubAdapter) Code() string {
	return a.code
}

func (a *stubAdapter) FetchDaily(ctx context.Context, day time.Time) (workshop.QuoteMap, *errs.Error) {
	a.lock.Lock()
	a.calls = append(a.calls, day)
	a.lock.Unlock()
	if a.hook != nil {
		a.hook(day)
	}
	key := utils.YMD(day, "-", true)
	if err, ok := a.fails[key]; ok {
		return nil, err
	}
	res := make(workshop.QuoteMap)
	if a.empty[key] {
		return res, nil
	}
	res.Add(quoteOf("rb", "2105", day, 3000, 500, 8000))
	res.Add(quoteOf("rb", "2110", day, 3100, 900, 12000))
	res.Add(quoteOf("cu", "2105", day, 68000, 100, 2000))
	return res, nil
}

func (a *stubAdapter) sortedCalls() []string {
	a.lock.Lock()
	defer a.lock.Unlock()
	res := make([]string, len(a.calls))
	for i, d := range a.calls {
		res[i] = utils.YMD(d, "-", true)
	}
	sort.Strings(res)
	return res
}

func quoteOf(product, delivery string, day time.Time, price, volume, oi int64) *workshop.DailyQuote {
	p := decimal.NewFromInt(price)
	return &workshop.DailyQuote{
		Product:      product,
		Delivery:     delivery,
		Date:         day,
		Open:         p,
		High:         p.Add(decimal.NewFromInt(10)),
		Low:          p.Sub(decimal.NewFromInt(10)),
		Close:        p,
		Settlement:   p.Add(decimal.RequireFromString("0.5")),
		Volume:       volume,
		OpenInterest: oi,
	}
}

func day(text string) time.Time {
	d, err := utils.ParseDate(text)
	if err != nil {
		panic(err)
	}
	return d
}

func dayPtr(text string) *time.Time {
	d := day(text)
	return &d
}

func newTestCrawler(t *testing.T, adapters map[string]china.Adapter) (*Crawler, string) {
	store, err := workshop.LoadStore(workshop.DefaultPaths("../testdata/ref"))
	require.Nil(t, err)
	dir := t.TempDir()
	c := New(store, adapters, NewCsvSink(dir))
	c.Now = func() time.Time { return day("2021-04-30") }
	return c, dir
}

func readLines(t *testing.T, path string) []string {
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestCheckDate(t *testing.T) {
	earliest := workshop.DefEarliest[workshop.ExgSHFE]
	today := day("2021-04-10")
	cases := []struct {
		name  string
		begin *time.Time
		end   *time.Time
		code  int
	}{
		{"end before begin", dayPtr("2021-04-05"), dayPtr("2021-04-01"), errs.CodeInvalidRange},
		{"reversed and future", dayPtr("2021-05-01"), dayPtr("2021-04-01"), errs.CodeInvalidRange},
		{"begin too early", dayPtr("2001-01-01"), nil, errs.CodeRangeTooEarly},
		{"end too early", nil, dayPtr("2001-01-01"), errs.CodeRangeTooEarly},
		{"begin in future", dayPtr("2021-05-01"), nil, errs.CodeRangeInFuture},
		{"end in future", dayPtr("2021-04-01"), dayPtr("2021-05-01"), errs.CodeRangeInFuture},
	}
	for _, c := range cases {
		_, _, err := CheckDate(workshop.ExgSHFE, earliest, c.begin, c.end, today)
		if assert.NotNil(t, err, c.name) {
			assert.Equal(t, c.code, err.Code, c.name)
		}
	}
	b, e, err := CheckDate(workshop.ExgSHFE, earliest, nil, nil, today)
	require.Nil(t, err)
	assert.True(t, b.Equal(earliest))
	assert.True(t, e.Equal(today))
	b, e, err = CheckDate(workshop.ExgSHFE, earliest, dayPtr("2002-01-07"), dayPtr("2021-04-10"), today)
	require.Nil(t, err)
	assert.Equal(t, "2002-01-07", utils.YMD(b, "-", true))
	assert.Equal(t, "2021-04-10", utils.YMD(e, "-", true))
}

func TestCrawlInvalidExchange(t *testing.T) {
	stub := &stubAdapter{code: workshop.ExgSHFE}
	c, _ := newTestCrawler(t, map[string]china.Adapter{workshop.ExgSHFE: stub})
	_, err := c.Crawl(context.Background(), "LME", nil, nil)
	require.NotNil(t, err)
	assert.Equal(t, errs.CodeInvalidExchange, err.Code)
	// known code without a configured adapter
	_, err = c.Crawl(context.Background(), "dce", nil, nil)
	require.NotNil(t, err)
	assert.Equal(t, errs.CodeInvalidExchange, err.Code)
	assert.Empty(t, stub.calls)
}

func TestCrawlRangeCheckedFirst(t *testing.T) {
	stub := &stubAdapter{code: workshop.ExgSHFE}
	c, dir := newTestCrawler(t, map[string]china.Adapter{workshop.ExgSHFE: stub})
	_, err := c.Crawl(context.Background(), "shfe", dayPtr("2021-04-09"), dayPtr("2021-04-01"))
	require.NotNil(t, err)
	assert.Equal(t, errs.CodeInvalidRange, err.Code)
	_, err = c.Crawl(context.Background(), "shfe", dayPtr("2001-04-01"), nil)
	require.NotNil(t, err)
	assert.Equal(t, errs.CodeRangeTooEarly, err.Code)
	assert.Empty(t, stub.calls)
	_, statErr := os.Stat(filepath.Join(dir, workshop.ExgSHFE))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCrawlSkipsWeekend(t *testing.T) {
	stub := &stubAdapter{code: workshop.ExgSHFE}
	c, dir := newTestCrawler(t, map[string]china.Adapter{workshop.ExgSHFE: stub})
	sum, err := c.Crawl(context.Background(), "shfe", dayPtr("2021-04-08"), dayPtr("2021-04-12"))
	require.Nil(t, err)
	assert.Equal(t, []string{"2021-04-08", "2021-04-09", "2021-04-12"}, stub.sortedCalls())
	assert.Equal(t, 3, sum.Attempted)
	assert.Len(t, sum.Skipped, 2)
	assert.Empty(t, sum.Failed)
	assert.Len(t, sum.Results, 5)
	assert.Equal(t, 9, sum.Written)
	assert.Equal(t, StatusHoliday, sum.Results[2].Status)
	assert.Equal(t, StatusOk, sum.Results[4].Status)

	lines := readLines(t, filepath.Join(dir, "SHFE", "daily", "rb.csv"))
	require.Len(t, lines, 7)
	assert.Equal(t, strings.Join(workshop.QuoteFields, ","), lines[0])
	assert.Equal(t, "rb,2105,2021-04-08,3000,3010,2990,3000,3000.5,500,8000", lines[1])
	assert.True(t, strings.Contains(lines[5], "2021-04-12"))
	for _, line := range lines[1:] {
		assert.NotEqual(t, lines[0], line, "header repeated")
	}
}

func TestCrawlHolidayRange(t *testing.T) {
	stub := &stubAdapter{code: workshop.ExgSHFE}
	c, _ := newTestCrawler(t, map[string]china.Adapter{workshop.ExgSHFE: stub})
	// 2021-04-03..05 is a holiday range, 04-03 and 04-04 are also a weekend
	sum, err := c.Crawl(context.Background(), "SHFE", dayPtr("2021-04-02"), dayPtr("2021-04-06"))
	require.Nil(t, err)
	assert.Equal(t, []string{"2021-04-02", "2021-04-06"}, stub.sortedCalls())
	assert.Len(t, sum.Skipped, 3)
}

func TestCrawlFailureContinues(t *testing.T) {
	stub := &stubAdapter{
		code:  workshop.ExgSHFE,
		fails: map[string]*errs.Error{"2021-04-08": errs.NewMsg(errs.CodeNetFail, "status 404")},
		empty: map[string]bool{"2021-04-12": true},
	}
	c, dir := newTestCrawler(t, map[string]china.Adapter{workshop.ExgSHFE: stub})
	sum, err := c.Crawl(context.Background(), "SHFE", dayPtr("2021-04-07"), dayPtr("2021-04-12"))
	require.Nil(t, err)
	assert.Equal(t, 4, sum.Attempted)
	require.Len(t, sum.Failed, 1)
	fail := sum.Failed[0]
	assert.Equal(t, "2021-04-08", utils.YMD(fail.Date, "-", true))
	assert.Equal(t, errs.CodeNetFail, fail.Code)
	assert.Equal(t, errs.KindFetch, fail.Kind)
	assert.Equal(t, "SHFE", fail.Exchange)
	assert.Equal(t, StatusFailed, sum.Results[1].Status)
	assert.Equal(t, StatusEmpty, sum.Results[5].Status)

	lines := readLines(t, filepath.Join(dir, "SHFE", "daily", "cu.csv"))
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "2021-04-07")
	assert.Contains(t, lines[2], "2021-04-09")
}

func TestCrawlParallelKeepsOrder(t *testing.T) {
	stub := &stubAdapter{code: workshop.ExgSHFE}
	c, dir := newTestCrawler(t, map[string]china.Adapter{workshop.ExgSHFE: stub})
	c.Concurrency = 4
	sum, err := c.Crawl(context.Background(), "SHFE", dayPtr("2021-04-06"), dayPtr("2021-04-23"))
	require.Nil(t, err)
	want := []string{"2021-04-06", "2021-04-07", "2021-04-08", "2021-04-09", "2021-04-12", "2021-04-13",
		"2021-04-14", "2021-04-15", "2021-04-16", "2021-04-19", "2021-04-20", "2021-04-21", "2021-04-22",
		"2021-04-23"}
	assert.Equal(t, want, stub.sortedCalls())
	assert.Equal(t, len(want), sum.Attempted)
	for i := 1; i < len(sum.Results); i++ {
		assert.True(t, sum.Results[i-1].Date.Before(sum.Results[i].Date))
	}
	quotes, err := LoadDaily(dir, "SHFE", "cu")
	require.Nil(t, err)
	require.Len(t, quotes, len(want))
	for i, q := range quotes {
		assert.Equal(t, want[i], utils.YMD(q.Date, "-", true))
	}
}

func TestCrawlCanceled(t *testing.T) {
	stub := &stubAdapter{code: workshop.ExgSHFE}
	c, _ := newTestCrawler(t, map[string]china.Adapter{workshop.ExgSHFE: stub})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := c.Crawl(ctx, "SHFE", dayPtr("2021-04-06"), dayPtr("2021-04-09"))
	require.Nil(t, err)
	assert.True(t, sum.Canceled)
	assert.Equal(t, 0, sum.Attempted)
	assert.Empty(t, stub.calls)
}

func TestCrawlCanceledWhileFetching(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stub := &stubAdapter{code: workshop.ExgSHFE, hook: func(day time.Time) {
		if utils.YMD(day, "-", true) == "2021-04-07" {
			cancel()
		}
	}}
	c, dir := newTestCrawler(t, map[string]china.Adapter{workshop.ExgSHFE: stub})
	sum, err := c.Crawl(ctx, "SHFE", dayPtr("2021-04-06"), dayPtr("2021-04-09"))
	require.Nil(t, err)
	assert.True(t, sum.Canceled)
	assert.Equal(t, []string{"2021-04-06", "2021-04-07"}, stub.sortedCalls())
	assert.Equal(t, 2, sum.Attempted)
	require.Len(t, sum.Failed, 1)
	assert.Equal(t, errs.CodeCanceled, sum.Failed[0].Code)
	assert.Equal(t, errs.KindCanceled, sum.Failed[0].Kind)
	lines := readLines(t, filepath.Join(dir, "SHFE", "daily", "cu.csv"))
	assert.Len(t, lines, 2)

	// cancel during the only fetch of the range
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	stub = &stubAdapter{code: workshop.ExgSHFE, hook: func(time.Time) { cancel2() }}
	c, _ = newTestCrawler(t, map[string]china.Adapter{workshop.ExgSHFE: stub})
	sum, err = c.Crawl(ctx2, "SHFE", dayPtr("2021-04-06"), dayPtr("2021-04-06"))
	require.Nil(t, err)
	assert.True(t, sum.Canceled)
	require.Len(t, sum.Failed, 1)
	assert.Equal(t, errs.KindCanceled, sum.Failed[0].Kind)
}

func TestCrawlAll(t *testing.T) {
	adapters := map[string]china.Adapter{
		workshop.ExgSHFE: &stubAdapter{code: workshop.ExgSHFE},
		workshop.ExgINE:  &stubAdapter{code: workshop.ExgINE},
	}
	dce, err := china.New(workshop.ExgDCE, nil)
	require.Nil(t, err)
	adapters[workshop.ExgDCE] = dce
	c, _ := newTestCrawler(t, adapters)
	// INE has no data before 2018-03-26
	res, fails := c.CrawlAll(context.Background(), dayPtr("2018-01-02"), dayPtr("2018-01-03"))
	require.Len(t, fails, 1)
	assert.Equal(t, errs.CodeRangeTooEarly, fails[workshop.ExgINE].Code)
	require.Len(t, res, 2)
	assert.Equal(t, 2, res[workshop.ExgSHFE].Written/3)
	dceSum := res[workshop.ExgDCE]
	require.Len(t, dceSum.Failed, 2)
	assert.Equal(t, errs.KindNotImplemented, dceSum.Failed[0].Kind)
}

func TestCrawlSHFEDocument(t *testing.T) {
	gock.DisableNetworking()
	defer gock.Off()
	gock.New(china.HostSHFE).Get("/data/dailydata/kx/kx20210401.dat").Reply(200).
		File("../china/testdata/shfe_kx20210401.dat")
	shfe, err := china.New(workshop.ExgSHFE, nil)
	require.Nil(t, err)
	c, dir := newTestCrawler(t, map[string]china.Adapter{workshop.ExgSHFE: shfe})
	sum, err := c.Crawl(context.Background(), "SHFE", dayPtr("2021-04-01"), dayPtr("2021-04-01"))
	require.Nil(t, err)
	require.Empty(t, sum.Failed)
	assert.Equal(t, 16, sum.Results[0].Products)
	entries, dirErr := os.ReadDir(filepath.Join(dir, "SHFE", "daily"))
	require.NoError(t, dirErr)
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".csv"))
	}
	want := []string{"ag", "al", "au", "bu", "cu", "fu", "hc", "ni", "pb", "rb", "ru", "sn", "sp", "ss", "wr", "zn"}
	assert.Equal(t, want, names)
	for _, code := range []string{"sc", "nr", "lu", "bc"} {
		assert.NotContains(t, names, code)
	}
}
