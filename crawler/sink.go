package crawler

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/futuresworkshop/workshop"
	"github.com/futuresworkshop/workshop/errs"
	"github.com/futuresworkshop/workshop/utils"
	"github.com/sasha-s/go-deadlock"
)

func NewCsvSink(dir string) *CsvSink {
	return &CsvSink{Dir: dir, files: make(map[string]*deadlock.Mutex)}
}

func (s *CsvSink) FilePath(exchange, product string) string {
	return filepath.Join(s.Dir, exchange, "daily", product+".csv")
}

func (s *CsvSink) fileLock(path string) *deadlock.Mutex {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.files == nil {
		s.files = make(map[string]*deadlock.Mutex)
	}
	lock, ok := s.files[path]
	if !ok {
		lock = &deadlock.Mutex{}
		s.files[path] = lock
	}
	return lock
}

/*
Append
write each product's rows to its own file. The header row is written only
when the file is new or empty, so repeated appends never repeat the header.
When a product fails, the error message lists the products already appended.
*/
func (s *CsvSink) Append(ctx context.Context, exchange string, quotes workshop.QuoteMap) *errs.Error {
	var written []string
	for _, symbol := range quotes.Symbols() {
		if ctx.Err() != nil {
			return partialErr(errs.New(errs.CodeCanceled, ctx.Err()), written)
		}
		if err := s.appendFile(s.FilePath(exchange, symbol), quotes[symbol]); err != nil {
			return partialErr(err, written)
		}
		written = append(written, symbol)
	}
	return nil
}

// partialErr names the products whose rows already reached disk before err.
func partialErr(err *errs.Error, written []string) *errs.Error {
	if len(written) == 0 {
		return err
	}
	err.Msg = fmt.Sprintf("%s, already written: %s", err.Msg, strings.Join(written, ","))
	err.Data = written
	return err
}

func (s *CsvSink) appendFile(path string, rows []*workshop.DailyQuote) *errs.Error {
	lock := s.fileLock(path)
	lock.Lock()
	defer lock.Unlock()
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return errs.New(errs.CodeIOWriteFail, err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return errs.New(errs.CodeIOWriteFail, err)
	}
	defer file.Close()
	st, err := file.Stat()
	if err != nil {
		return errs.New(errs.CodeIOWriteFail, err)
	}
	w := csv.NewWriter(file)
	if st.Size() == 0 {
		_ = w.Write(workshop.QuoteFields)
	}
	for _, q := range rows {
		_ = w.Write(q.Row())
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return errs.New(errs.CodeIOWriteFail, err)
	}
	if err = file.Sync(); err != nil {
		return errs.New(errs.CodeIOWriteFail, err)
	}
	return nil
}
