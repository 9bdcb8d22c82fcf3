package crawler

import (
	"context"
	"time"

	"github.com/futuresworkshop/workshop"
	"github.com/futuresworkshop/workshop/china"
	"github.com/futuresworkshop/workshop/errs"
	"github.com/sasha-s/go-deadlock"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Crawler struct {
	Store       *workshop.Store
	Adapters    map[string]china.Adapter
	Sink        Sink
	Concurrency int              // parallel fetches per exchange
	Now         func() time.Time // defaults to bntp.Now
}

// Sink persists the records of one exchange day.
type Sink interface {
	Append(ctx context.Context, exchange string, quotes workshop.QuoteMap) *errs.Error
}

type Summary struct {
	Exchange  string
	Begin     time.Time
	End       time.Time
	Attempted int         // dates handed to the adapter
	Skipped   []time.Time // weekends and holidays
	Failed    []*DayFailure
	Results   []*DayResult // every date of the range, ascending
	Written   int          // records appended to the sink
	Canceled  bool
}

type DayResult struct {
	Date     time.Time
	Status   string
	Products int
	Records  int
}

type DayFailure struct {
	Exchange string
	Date     time.Time
	Code     int
	Kind     string // fetch, parse, not_implemented, other
	Msg      string
}

/*
CsvSink
append records to <Dir>/<EXCHANGE>/daily/<product>.csv
*/
type CsvSink struct {
	Dir   string
	lock  deadlock.Mutex
	files map[string]*deadlock.Mutex
}

type DbSink struct {
	db        *gorm.DB
	BatchSize int
}

type DbOption struct {
	Host     string            `yaml:"host" mapstructure:"host"`
	Port     int               `yaml:"port" mapstructure:"port"`
	User     string            `yaml:"user" mapstructure:"user"`
	Password string            `yaml:"password" mapstructure:"password"`
	Database string            `yaml:"database" mapstructure:"database"`
	SSLMode  string            `yaml:"ssl_mode" mapstructure:"ssl_mode"`
	Params   map[string]string `yaml:"params" mapstructure:"params"`
	DSN      string            `yaml:"dsn" mapstructure:"dsn"`
}

// QuoteRecord is the row of table daily_quotes.
type QuoteRecord struct {
	ID           uint            `gorm:"primaryKey"`
	Exchange     string          `gorm:"size:8;uniqueIndex:idx_daily_quote"`
	Product      string          `gorm:"size:16;uniqueIndex:idx_daily_quote"`
	Delivery     string          `gorm:"size:4;uniqueIndex:idx_daily_quote"`
	Date         time.Time       `gorm:"type:date;uniqueIndex:idx_daily_quote"`
	Open         decimal.Decimal `gorm:"type:numeric(20,6)"`
	High         decimal.Decimal `gorm:"type:numeric(20,6)"`
	Low          decimal.Decimal `gorm:"type:numeric(20,6)"`
	Close        decimal.Decimal `gorm:"type:numeric(20,6)"`
	Settlement   decimal.Decimal `gorm:"type:numeric(20,6)"`
	Volume       int64
	OpenInterest int64
}

// dayJob is one date of a crawl window, holidays are kept so results stay in date order.
type dayJob struct {
	day     time.Time
	holiday bool
	quotes  workshop.QuoteMap
	err     *errs.Error
}
