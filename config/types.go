package config

import (
	"github.com/futuresworkshop/workshop/crawler"
	"github.com/futuresworkshop/workshop/log"
)

// Config is the yaml file read by fwcrawl.
type Config struct {
	Root  string                            `yaml:"root"`
	Paths PathConfig                        `yaml:"paths"`
	Log   *log.Config                       `yaml:"log"`
	Fetch map[string]map[string]interface{} `yaml:"fetch"` // key: exchange code or "default"
	Crawl CrawlConfig                       `yaml:"crawl"`
	Sink  SinkConfig                        `yaml:"sink"`
	Ntp   NtpConfig                         `yaml:"ntp"`
}

// PathConfig overrides single table files, empty ones fall back to the layout under Root.
type PathConfig struct {
	Exchange string `yaml:"exchange"`
	Product  string `yaml:"product"`
	Holiday  string `yaml:"holiday"`
	StopLoss string `yaml:"stop_loss"`
	User     string `yaml:"user"`
}

type CrawlConfig struct {
	Concurrency int      `yaml:"concurrency"`
	Exchanges   []string `yaml:"exchanges"` // used by -exchange all, empty means every exchange
}

type SinkConfig struct {
	Kind string            `yaml:"kind"` // csv or db
	Dir  string            `yaml:"dir"`
	Db   *crawler.DbOption `yaml:"db"`
}

type NtpConfig struct {
	Lang string `yaml:"lang"` // zh-CN enables ntp correction from domestic servers
}
