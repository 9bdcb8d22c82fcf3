package crawler

import (
	"context"
	"fmt"
	"net/url"

	"github.com/futuresworkshop/workshop"
	"github.com/futuresworkshop/workshop/errs"
	"github.com/futuresworkshop/workshop/log"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

func (QuoteRecord) TableName() string {
	return tableQuotes
}

// OpenDbSink connect postgres and migrate table daily_quotes
func OpenDbSink(opt *DbOption) (*DbSink, *errs.Error) {
	dsn := opt.dsn()
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errs.New(errs.CodeNetFail, err)
	}
	if err = db.AutoMigrate(&QuoteRecord{}); err != nil {
		return nil, errs.New(errs.CodeIOWriteFail, err)
	}
	log.Info("db sink ready", zap.String("host", opt.Host), zap.String("db", opt.Database))
	return NewDbSink(db), nil
}

func NewDbSink(db *gorm.DB) *DbSink {
	return &DbSink{db: db, BatchSize: defBatchSize}
}

/*
Append
insert the records, rows already stored for the same
(exchange, product, delivery, date) are left untouched.
*/
func (s *DbSink) Append(ctx context.Context, exchange string, quotes workshop.QuoteMap) *errs.Error {
	rows := toRecords(exchange, quotes)
	if len(rows) == 0 {
		return nil
	}
	batch := s.BatchSize
	if batch <= 0 {
		batch = defBatchSize
	}
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, batch)
	if tx.Error != nil {
		return errs.New(errs.CodeIOWriteFail, tx.Error)
	}
	return nil
}

func (s *DbSink) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRecords(exchange string, quotes workshop.QuoteMap) []*QuoteRecord {
	res := make([]*QuoteRecord, 0, quotes.Count())
	for _, symbol := range quotes.Symbols() {
		for _, q := range quotes[symbol] {
			res = append(res, &QuoteRecord{
				Exchange:     exchange,
				Product:      q.Product,
				Delivery:     q.Delivery,
				Date:         q.Date,
				Open:         q.Open,
				High:         q.High,
				Low:          q.Low,
				Close:        q.Close,
				Settlement:   q.Settlement,
				Volume:       q.Volume,
				OpenInterest: q.OpenInterest,
			})
		}
	}
	return res
}

func (opt *DbOption) dsn() string {
	if opt.DSN != "" {
		return opt.DSN
	}
	host := opt.Host
	if host == "" {
		host = defPgHost
	}
	port := opt.Port
	if port == 0 {
		port = defPgPort
	}
	sslMode := opt.SSLMode
	if sslMode == "" {
		sslMode = defPgSSLMode
	}
	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", host, port),
	}
	if opt.User != "" {
		if opt.Password != "" {
			u.User = url.UserPassword(opt.User, opt.Password)
		} else {
			u.User = url.User(opt.User)
		}
	}
	if opt.Database != "" {
		u.Path = "/" + opt.Database
	}
	query := url.Values{}
	query.Set("sslmode", sslMode)
	for key, value := range opt.Params {
		if key == "" {
			continue
		}
		query.Set(key, value)
	}
	u.RawQuery = query.Encode()
	return u.String()
}
