package china

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/futuresworkshop/workshop"
	"github.com/futuresworkshop/workshop/errs"
	"github.com/futuresworkshop/workshop/log"
	"github.com/futuresworkshop/workshop/utils"
	"go.uber.org/zap"
)

func (e *JsonExchange) Code() string {
	return e.code
}

func (e *JsonExchange) DailyUrl(day time.Time) string {
	return e.baseUrl + fmt.Sprintf(pathKx, utils.YMD(day, "", true))
}

func (e *JsonExchange) FetchDaily(ctx context.Context, day time.Time) (workshop.QuoteMap, *errs.Error) {
	data, err := e.fetcher.Fetch(ctx, e.DailyUrl(day))
	if err != nil {
		return nil, err
	}
	return e.parse(day, data)
}

func (e *JsonExchange) parse(day time.Time, data []byte) (workshop.QuoteMap, *errs.Error) {
	var payload kxPayload
	if err := utils.Unmarshal(data, &payload, utils.JsonNumStr); err != nil {
		return nil, errs.NewMsg(errs.CodeUnmarshalFail, "%s %s: %v", e.code, utils.YMD(day, "-", true), err)
	}
	day = utils.DateOf(day)
	res := make(workshop.QuoteMap)
	for _, row := range payload.Rows {
		if row == nil {
			continue
		}
		delivery := textOf(row.DeliveryMonth)
		rawId := strings.TrimSpace(row.ProductId)
		if skipDelivery[delivery] || skipProduct[rawId] {
			continue
		}
		symbol := productOf(rawId)
		if symbol == "" || e.excludes[symbol] || isCombo(delivery) {
			continue
		}
		if len(delivery) != 4 {
			log.Debug("skip row with bad delivery", zap.String("exg", e.code), zap.String("product", symbol),
				zap.String("delivery", delivery))
			continue
		}
		quote, err := buildQuote(symbol, delivery, day, row.Open, row.High, row.Low, row.Close,
			row.Settlement, row.Volume, row.OpenInterest)
		if err != nil {
			return nil, errs.NewMsg(errs.CodeUnmarshalFail, "%s %s%s: %v", e.code, symbol, delivery, err)
		}
		res.Add(quote)
	}
	return res, nil
}

func buildQuote(symbol, delivery string, day time.Time, vals ...interface{}) (*workshop.DailyQuote, error) {
	q := &workshop.DailyQuote{Product: symbol, Delivery: delivery, Date: day}
	var err error
	if q.Open, err = utils.ParseDecimal(vals[0]); err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if q.High, err = utils.ParseDecimal(vals[1]); err != nil {
		return nil, fmt.Errorf("high: %w", err)
	}
	if q.Low, err = utils.ParseDecimal(vals[2]); err != nil {
		return nil, fmt.Errorf("low: %w", err)
	}
	if q.Close, err = utils.ParseDecimal(vals[3]); err != nil {
		return nil, fmt.Errorf("close: %w", err)
	}
	if q.Settlement, err = utils.ParseDecimal(vals[4]); err != nil {
		return nil, fmt.Errorf("settlement: %w", err)
	}
	if q.Volume, err = utils.ParseInt64(vals[5]); err != nil {
		return nil, fmt.Errorf("volume: %w", err)
	}
	if q.OpenInterest, err = utils.ParseInt64(vals[6]); err != nil {
		return nil, fmt.Errorf("open_interest: %w", err)
	}
	return q, nil
}

func (e *CFFEX) Code() string {
	return workshop.ExgCFFEX
}

func (e *CFFEX) DailyUrl(day time.Time) string {
	day = day.In(utils.LocCN)
	return e.baseUrl + fmt.Sprintf(pathCffex, day.Format("200601"), day.Format("02"))
}

func (e *CFFEX) FetchDaily(ctx context.Context, day time.Time) (workshop.QuoteMap, *errs.Error) {
	data, err := e.fetcher.Fetch(ctx, e.DailyUrl(day))
	if err != nil {
		return nil, err
	}
	return parseCffex(day, data)
}

func parseCffex(day time.Time, data []byte) (workshop.QuoteMap, *errs.Error) {
	records, err := readXmlRecords(bytes.NewReader(data))
	if err != nil {
		if len(records) == 0 {
			return nil, errs.NewMsg(errs.CodeUnmarshalFail, "CFFEX %s: %v", utils.YMD(day, "-", true), err)
		}
		log.Warn("cffex xml broken, keep parsed records", zap.String("day", utils.YMD(day, "-", true)),
			zap.Int("num", len(records)), zap.Error(err))
	}
	day = utils.DateOf(day)
	res := make(workshop.QuoteMap)
	for _, rec := range records {
		instrument := rec["instrumentid"]
		if instrument == "" || isCombo(instrument) {
			continue
		}
		symbol := productOf(rec["productid"])
		expire := rec["expiredate"]
		if symbol == "" || len(expire) < 6 {
			continue
		}
		quote, err_ := buildQuote(symbol, expire[2:6], day, rec["openprice"], rec["highestprice"],
			rec["lowestprice"], rec["closeprice"], rec["settlementprice"], rec["volume"], rec["openinterest"])
		if err_ != nil {
			return nil, errs.NewMsg(errs.CodeUnmarshalFail, "CFFEX %s: %v", instrument, err_)
		}
		res.Add(quote)
	}
	return res, nil
}

/*
readXmlRecords
collect the second level elements of a document as tag->text maps.
The decoder is lenient: unknown entities and unclosed html-like tags are tolerated.
Records completed before a fatal syntax error are returned along with the error.
*/
func readXmlRecords(in io.Reader) ([]map[string]string, error) {
	dec := xml.NewDecoder(in)
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = utils.CharsetReader
	var (
		res   []map[string]string
		cur   map[string]string
		field string
		text  strings.Builder
		depth int
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return res, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth += 1
			if depth == 2 {
				cur = make(map[string]string)
			} else if depth == 3 {
				field = strings.ToLower(t.Name.Local)
				text.Reset()
			}
		case xml.CharData:
			if depth == 3 {
				text.Write(t)
			}
		case xml.EndElement:
			if depth == 3 && cur != nil {
				cur[field] = strings.TrimSpace(text.String())
			} else if depth == 2 && cur != nil {
				res = append(res, cur)
				cur = nil
			}
			depth -= 1
		}
	}
}

func (e *Unsupported) Code() string {
	return e.code
}

func (e *Unsupported) FetchDaily(ctx context.Context, day time.Time) (workshop.QuoteMap, *errs.Error) {
	return nil, errs.NewMsg(errs.CodeNotImplement, "%s daily data not implement", e.code)
}
