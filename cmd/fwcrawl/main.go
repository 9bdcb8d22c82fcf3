package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/banbox/bntp"
	"github.com/futuresworkshop/workshop"
	"github.com/futuresworkshop/workshop/china"
	"github.com/futuresworkshop/workshop/config"
	"github.com/futuresworkshop/workshop/crawler"
	"github.com/futuresworkshop/workshop/errs"
	"github.com/futuresworkshop/workshop/log"
	"github.com/futuresworkshop/workshop/utils"
	"go.uber.org/zap"
)

type args struct {
	config   string
	exchange string
	begin    string
	end      string
	debug    bool
}

func main() {
	var a args
	flag.StringVar(&a.config, "config", "config.yml", "path of the yaml config")
	flag.StringVar(&a.exchange, "exchange", "all", "exchange code, or all")
	flag.StringVar(&a.begin, "begin", "", "first date, yyyy-mm-dd, default is the exchange's earliest date")
	flag.StringVar(&a.end, "end", "", "last date, yyyy-mm-dd, default is today")
	flag.BoolVar(&a.debug, "debug", false, "debug log level")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, &a)
	stop()
	_ = log.Sync()
	os.Exit(code)
}

func run(ctx context.Context, a *args) int {
	cfg, err := config.Load(a.config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Short())
		return 2
	}
	if cfg.Log != nil {
		if a.debug {
			cfg.Log.Level = "debug"
		}
		log.SetupLogger(cfg.Log)
	} else {
		log.Setup(a.debug, "")
	}
	bntp.LangCode = cfg.Ntp.Lang

	begin, err := parseDay("begin", a.begin)
	if err != nil {
		log.Error("invalid args", zap.Error(err))
		return 2
	}
	end, err := parseDay("end", a.end)
	if err != nil {
		log.Error("invalid args", zap.Error(err))
		return 2
	}
	store, err := workshop.LoadStore(cfg.StorePaths())
	if err != nil {
		return 1
	}
	codes := cfg.CrawlExchanges()
	if !strings.EqualFold(a.exchange, "all") {
		codes = []string{strings.ToUpper(a.exchange)}
	}
	adapters := make(map[string]china.Adapter)
	for _, code := range codes {
		adapter, err := china.New(code, cfg.FetchOptions(code))
		if err != nil {
			log.Error("create adapter fail", zap.String("exg", code), zap.Error(err))
			return 2
		}
		adapters[adapter.Code()] = adapter
	}
	sink, closeSink, err := openSink(cfg)
	if err != nil {
		log.Error("open sink fail", zap.String("kind", cfg.Sink.Kind), zap.Error(err))
		return 1
	}
	defer closeSink()

	c := crawler.New(store, adapters, sink)
	c.Concurrency = cfg.Crawl.Concurrency
	results := make(map[string]*crawler.Summary)
	fails := make(map[string]*errs.Error)
	if len(codes) == 1 {
		sum, err := c.Crawl(ctx, codes[0], begin, end)
		if err != nil {
			fails[codes[0]] = err
		} else {
			results[codes[0]] = sum
		}
	} else {
		results, fails = c.CrawlAll(ctx, begin, end)
	}
	exitCode := 0
	for _, code := range utils.SortedKeys(fails) {
		log.Error("crawl rejected", zap.String("exg", code), zap.Error(fails[code]))
		exitCode = 2
	}
	for _, code := range utils.SortedKeys(results) {
		logSummary(results[code])
		if results[code].Canceled && exitCode == 0 {
			exitCode = 1
		}
	}
	return exitCode
}

func parseDay(name, text string) (*time.Time, *errs.Error) {
	if text == "" {
		return nil, nil
	}
	day, err := utils.ParseDate(text)
	if err != nil {
		return nil, errs.NewMsg(errs.CodeParamInvalid, "-%s should be yyyy-mm-dd, got %s", name, text)
	}
	return &day, nil
}

func openSink(cfg *config.Config) (crawler.Sink, func(), *errs.Error) {
	if cfg.Sink.Kind == config.SinkDb {
		sink, err := crawler.OpenDbSink(cfg.Sink.Db)
		if err != nil {
			return nil, nil, err
		}
		return sink, func() {
			if err := sink.Close(); err != nil {
				log.Warn("close db sink fail", zap.Error(err))
			}
		}, nil
	}
	return crawler.NewCsvSink(cfg.Sink.Dir), func() {}, nil
}

func logSummary(sum *crawler.Summary) {
	fields := []zap.Field{
		zap.String("exg", sum.Exchange),
		zap.String("begin", utils.YMD(sum.Begin, "-", true)),
		zap.String("end", utils.YMD(sum.End, "-", true)),
		zap.Int("attempted", sum.Attempted),
		zap.Int("skipped", len(sum.Skipped)),
		zap.Int("failed", len(sum.Failed)),
		zap.Int("written", sum.Written),
	}
	if sum.Canceled {
		fields = append(fields, zap.Bool("canceled", true))
	}
	log.Info("summary", fields...)
	for _, f := range sum.Failed {
		log.Warn("failed day", zap.String("exg", f.Exchange), zap.String("day", utils.YMD(f.Date, "-", true)),
			zap.String("kind", f.Kind), zap.Int("code", f.Code), zap.String("msg", f.Msg))
	}
}
