package crawler

const (
	StatusOk      = "ok"
	StatusEmpty   = "empty" // adapter returned no data
	StatusFailed  = "failed"
	StatusHoliday = "holiday" // weekend or holiday, not fetched
)

const (
	DefConcurrency = 1
	tableQuotes    = "daily_quotes"
	defBatchSize   = 500
)

const (
	defPgHost    = "localhost"
	defPgPort    = 5432
	defPgSSLMode = "disable"
)
