package workshop

import (
	"time"

	"github.com/shopspring/decimal"
)

type Exchange struct {
	Code     string    // 交易所代码，大写，如SHFE
	Name     string    // 显示名称
	Earliest time.Time // 最早可获取的历史日线日期
	Products []string  // 该交易所的品种代码，按品种表顺序
}

type Product struct {
	Symbol          string          // 品种代码，区分大小写
	Name            string          // 品种名称
	Exchange        string          // 所属交易所代码
	Fluctuation     decimal.Decimal // 最小变动价位
	Multiplier      int             // 合约乘数
	TradingSection  int             // 每日交易时段数，2~4
	OptionalSection int             // 0无；1夜盘；2延长收盘
	Sessions        []*Session
	StopLoss        StopLoss
}

/*
Clock
minute of day, 0~1439
*/
type Clock int

type Session struct {
	Open  Clock
	Close Clock // 小于Open表示跨越零点
}

type HolidayRange struct {
	Begin time.Time
	End   time.Time
}

type StopLoss struct {
	Exchange string
	Symbol   string
	Long     int
	Short    int
}

type MarketAccount struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

type TradingAccount struct {
	Broker   string `json:"broker"`
	Account  string `json:"account"`
	Password string `json:"password"`
}

type Account struct {
	Market  MarketAccount  `json:"tq_account"`
	Trading TradingAccount `json:"trading_account"`
}

/*
Paths
locations of the reference tables
*/
type Paths struct {
	Exchange string
	Product  string
	Holiday  string
	StopLoss string
	User     string
}

/*
DailyQuote
canonical daily settlement record of one contract
*/
type DailyQuote struct {
	Product      string
	Delivery     string // YYMM
	Date         time.Time
	Open         decimal.Decimal
	High         decimal.Decimal
	Low          decimal.Decimal
	Close        decimal.Decimal
	Settlement   decimal.Decimal
	Volume       int64
	OpenInterest int64
}

// QuoteMap groups daily quotes by product symbol, rows in source order.
type QuoteMap map[string][]*DailyQuote
