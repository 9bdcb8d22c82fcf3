package workshop

import (
	"time"

	"github.com/futuresworkshop/workshop/utils"
)

const (
	ExgSHFE  = "SHFE"
	ExgDCE   = "DCE"
	ExgCZCE  = "CZCE"
	ExgCFFEX = "CFFEX"
	ExgINE   = "INE"
)

var (
	// ExchangeCodes are the exchanges the crawler knows how to reach.
	ExchangeCodes = []string{ExgSHFE, ExgDCE, ExgCZCE, ExgCFFEX, ExgINE}

	// DefEarliest is used when the exchange table has no earliest column.
	DefEarliest = map[string]time.Time{
		ExgSHFE:  utils.Date(2002, 1, 7),
		ExgDCE:   utils.Date(2007, 1, 4),
		ExgCZCE:  utils.Date(2005, 4, 29),
		ExgCFFEX: utils.Date(2010, 4, 16),
		ExgINE:   utils.Date(2018, 3, 26),
	}
)

// QuoteFields is the on-disk column order of every per-product daily file.
var QuoteFields = []string{
	"product", "delivery", "date", "open", "high", "low", "close", "settlement", "volume", "open_interest",
}

var (
	colsExchange    = []string{"symbol", "name"}
	colsExchangeOpt = []string{"earliest"}
	colsProduct     = []string{"exchange", "symbol", "name", "fluctuation", "multiplier", "trading_section",
		"optional_section", "trading_time"}
	colsHoliday  = []string{"begin", "end"}
	colsStopLoss = []string{"exchange", "symbol", "long", "short"}
)

const (
	minSections = 2
	maxSections = 4
	// trading day starts at 18:00 of the previous calendar day
	tradingDayStart = Clock(18 * 60)
)

const (
	DirBasic    = "data/basic"
	DirSettings = "settings"
)
