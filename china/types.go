package china

import (
	"context"
	"net/http"
	"time"

	"github.com/futuresworkshop/workshop"
	"github.com/futuresworkshop/workshop/errs"
)

/*
Adapter
fetch and normalize one day of settlement data of an exchange.
An empty map with nil error means the site has no data for that day.
*/
type Adapter interface {
	Code() string
	FetchDaily(ctx context.Context, day time.Time) (workshop.QuoteMap, *errs.Error)
}

// Fetcher returns the raw body of a url.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, *errs.Error)
}

type Options struct {
	TimeoutSecs int               `mapstructure:"timeout_secs"`
	Proxy       string            `mapstructure:"proxy"` // "no" disables environment proxy
	UserAgent   string            `mapstructure:"user_agent"`
	BaseUrl     string            `mapstructure:"base_url"`     // overrides the site host, used by mirrors and tests
	HostConcurr int               `mapstructure:"host_concurr"` // max parallel requests per host
	Headers     map[string]string `mapstructure:"headers"`
}

type HttpFetcher struct {
	Client      *http.Client
	Timeout     time.Duration
	UserAgent   string
	Headers     map[string]string
	HostConcurr int
}

/*
JsonExchange
SHFE and INE publish the same kx{YYYYMMDD}.dat document
*/
type JsonExchange struct {
	code     string
	baseUrl  string
	excludes map[string]bool // product codes listed by this site but owned by another exchange
	fetcher  Fetcher
}

type CFFEX struct {
	baseUrl string
	fetcher Fetcher
}

// Unsupported marks exchanges whose sites are not reachable without script evaluation.
type Unsupported struct {
	code string
}

type kxPayload struct {
	Rows []*kxRow `json:"o_curinstrument"`
}

type kxRow struct {
	ProductId     string      `json:"PRODUCTID"`
	ProductName   string      `json:"PRODUCTNAME"`
	DeliveryMonth interface{} `json:"DELIVERYMONTH"`
	Open          interface{} `json:"OPENPRICE"`
	High          interface{} `json:"HIGHESTPRICE"`
	Low           interface{} `json:"LOWESTPRICE"`
	Close         interface{} `json:"CLOSEPRICE"`
	Settlement    interface{} `json:"SETTLEMENTPRICE"`
	Volume        interface{} `json:"VOLUME"`
	OpenInterest  interface{} `json:"OPENINTEREST"`
}

type creator func(opt *Options, fetcher Fetcher) Adapter
