package crawler

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/futuresworkshop/workshop"
	"github.com/futuresworkshop/workshop/errs"
	"github.com/futuresworkshop/workshop/utils"
)

/*
LoadDaily
read the stored daily file of a product, rows in file order
*/
func LoadDaily(dir, exchange, product string) ([]*workshop.DailyQuote, *errs.Error) {
	path := filepath.Join(dir, strings.ToUpper(exchange), "daily", product+".csv")
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errs.NewMsg(errs.CodeNotFound, "no daily file for %s %s", exchange, product)
		}
		return nil, errs.New(errs.CodeIOReadFail, err)
	}
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, errs.NewMsg(errs.CodeIOReadFail, "%s: %v", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	header := records[0]
	if len(header) > 0 {
		header[0] = utils.TrimBOM(header[0])
	}
	if strings.Join(header, ",") != strings.Join(workshop.QuoteFields, ",") {
		return nil, errs.NewMsg(errs.CodeIOReadFail, "%s: unexpected header %v", path, header)
	}
	res := make([]*workshop.DailyQuote, 0, len(records)-1)
	for i, rec := range records[1:] {
		q, err := workshop.ParseQuoteRow(rec)
		if err != nil {
			return nil, errs.NewMsg(errs.CodeIOReadFail, "%s:%d: %v", path, i+2, err)
		}
		res = append(res, q)
	}
	return res, nil
}

/*
MainContract
the contract with the largest open interest on day, higher volume wins a tie.
A sole contract is returned as is.
*/
func MainContract(quotes []*workshop.DailyQuote, day time.Time) (*workshop.DailyQuote, *errs.Error) {
	day = utils.DateOf(day)
	var best *workshop.DailyQuote
	for _, q := range quotes {
		if !utils.DateOf(q.Date).Equal(day) {
			continue
		}
		if best == nil || q.OpenInterest > best.OpenInterest ||
			(q.OpenInterest == best.OpenInterest && q.Volume > best.Volume) {
			best = q
		}
	}
	if best == nil {
		return nil, errs.NewMsg(errs.CodeNotFound, "no contract on %s", utils.YMD(day, "-", true))
	}
	return best, nil
}
