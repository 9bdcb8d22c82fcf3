package config

import (
	"path/filepath"
	"strings"

	"github.com/banbox/bntp"
	"github.com/futuresworkshop/workshop"
	"github.com/futuresworkshop/workshop/crawler"
	"github.com/futuresworkshop/workshop/errs"
	"github.com/futuresworkshop/workshop/utils"
	"gopkg.in/yaml.v3"
)

/*
Load
read the yaml config at path. Relative paths inside are resolved against
the directory of the config file.
*/
func Load(path string) (*Config, *errs.Error) {
	data, err := utils.ReadFile(path)
	if err != nil {
		return nil, errs.NewMsg(errs.CodeConfigLoad, "read config %s: %v", path, err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errs.New(errs.CodeConfigLoad, err)
	}
	return Parse(data, filepath.Dir(absPath))
}

func Parse(data []byte, baseDir string) (*Config, *errs.Error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errs.NewMsg(errs.CodeConfigLoad, "parse config: %v", err)
	}
	if err := cfg.fill(baseDir); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) fill(baseDir string) *errs.Error {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}
	if c.Root == "" {
		c.Root = "."
	}
	c.Root = abs(c.Root)
	c.Paths.Exchange = abs(c.Paths.Exchange)
	c.Paths.Product = abs(c.Paths.Product)
	c.Paths.Holiday = abs(c.Paths.Holiday)
	c.Paths.StopLoss = abs(c.Paths.StopLoss)
	c.Paths.User = abs(c.Paths.User)
	if c.Crawl.Concurrency <= 0 {
		c.Crawl.Concurrency = crawler.DefConcurrency
	}
	for i, code := range c.Crawl.Exchanges {
		code = strings.ToUpper(strings.TrimSpace(code))
		if !utils.ArrContains(workshop.ExchangeCodes, code) {
			return errs.NewMsg(errs.CodeConfigLoad, "crawl.exchanges: unknown exchange %s", code)
		}
		c.Crawl.Exchanges[i] = code
	}
	c.Sink.Kind = strings.ToLower(strings.TrimSpace(c.Sink.Kind))
	switch c.Sink.Kind {
	case "":
		c.Sink.Kind = SinkCsv
	case SinkCsv:
	case SinkDb:
		if c.Sink.Db == nil {
			return errs.NewMsg(errs.CodeConfigLoad, "sink.db is required for sink kind db")
		}
	default:
		return errs.NewMsg(errs.CodeConfigLoad, "sink.kind should be csv or db, got %s", c.Sink.Kind)
	}
	if c.Sink.Dir == "" {
		c.Sink.Dir = filepath.Join(c.Root, defDataDir)
	} else {
		c.Sink.Dir = abs(c.Sink.Dir)
	}
	switch c.Ntp.Lang {
	case "":
		c.Ntp.Lang = bntp.LangNone
	case bntp.LangNone, bntp.LangZhCN:
	default:
		return errs.NewMsg(errs.CodeConfigLoad, "ntp.lang should be none or zh-CN, got %s", c.Ntp.Lang)
	}
	return nil
}

// StorePaths is the layout under Root with the explicit overrides applied.
func (c *Config) StorePaths() *workshop.Paths {
	res := workshop.DefaultPaths(c.Root)
	if c.Paths.Exchange != "" {
		res.Exchange = c.Paths.Exchange
	}
	if c.Paths.Product != "" {
		res.Product = c.Paths.Product
	}
	if c.Paths.Holiday != "" {
		res.Holiday = c.Paths.Holiday
	}
	if c.Paths.StopLoss != "" {
		res.StopLoss = c.Paths.StopLoss
	}
	if c.Paths.User != "" {
		res.User = c.Paths.User
	}
	return res
}

/*
FetchOptions
the adapter options of one exchange, the "default" entry overridden by
the entry keyed by the exchange code.
*/
func (c *Config) FetchOptions(code string) map[string]interface{} {
	res := make(map[string]interface{})
	for k, v := range c.Fetch[keyDefault] {
		res[k] = v
	}
	for key, items := range c.Fetch {
		if !strings.EqualFold(key, code) {
			continue
		}
		for k, v := range items {
			res[k] = v
		}
	}
	return res
}

// CrawlExchanges is what -exchange all walks.
func (c *Config) CrawlExchanges() []string {
	if len(c.Crawl.Exchanges) > 0 {
		return c.Crawl.Exchanges
	}
	return workshop.ExchangeCodes
}
