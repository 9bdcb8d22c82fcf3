package china

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/futuresworkshop/workshop/errs"
	"github.com/futuresworkshop/workshop/log"
	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"
)

var (
	hostFlowChans = make(map[string]chan struct{})
	hostFlowLock  deadlock.Mutex
)

func getHostFlowChan(host string, size int) chan struct{} {
	hostFlowLock.Lock()
	out, ok := hostFlowChans[host]
	if !ok {
		out = make(chan struct{}, size)
		hostFlowChans[host] = out
	}
	hostFlowLock.Unlock()
	return out
}

func NewHttpFetcher(opt *Options) (*HttpFetcher, *errs.Error) {
	if opt == nil {
		opt = &Options{}
	}
	client := &http.Client{}
	// 代理：优先使用传入的Proxy，"no"表示禁用环境变量代理
	switch opt.Proxy {
	case "":
	case "no":
		client.Transport = &http.Transport{Proxy: nil}
	default:
		proxy, err := url.Parse(opt.Proxy)
		if err != nil {
			return nil, errs.New(errs.CodeParamInvalid, err)
		}
		client.Transport = &http.Transport{Proxy: http.ProxyURL(proxy)}
	}
	res := &HttpFetcher{
		Client:      client,
		Timeout:     time.Duration(opt.TimeoutSecs) * time.Second,
		UserAgent:   opt.UserAgent,
		Headers:     make(map[string]string),
		HostConcurr: opt.HostConcurr,
	}
	if res.Timeout <= 0 {
		res.Timeout = DefTimeoutSecs * time.Second
	}
	if res.HostConcurr <= 0 {
		res.HostConcurr = DefHostConcurr
	}
	for k, v := range DefReqHeaders {
		res.Headers[k] = v
	}
	for k, v := range opt.Headers {
		res.Headers[k] = v
	}
	return res, nil
}

/*
Fetch
GET the url within the fetcher timeout.
Parallel requests to one host are limited by HostConcurr.
Non-200 status and transport errors give CodeNetFail, an expired deadline gives CodeTimeout.
*/
func (f *HttpFetcher) Fetch(ctx context.Context, link string) ([]byte, *errs.Error) {
	req, err := http.NewRequest(http.MethodGet, link, nil)
	if err != nil {
		return nil, errs.New(errs.CodeParamInvalid, err)
	}
	concurr := f.HostConcurr
	if concurr <= 0 {
		concurr = DefHostConcurr
	}
	sem := getHostFlowChan(req.URL.Host, concurr)
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return nil, errs.New(errs.CodeCanceled, ctx.Err())
	}
	defer func() {
		<-sem
	}()
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	req = req.WithContext(ctx)
	for k, v := range f.Headers {
		req.Header.Set(k, v)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	start := time.Now()
	rsp, err := client.Do(req)
	if err != nil {
		return nil, wrapNetErr(ctx, link, err)
	}
	defer rsp.Body.Close()
	data, err := io.ReadAll(rsp.Body)
	if err != nil {
		return nil, wrapNetErr(ctx, link, err)
	}
	log.Debug("fetch", zap.String("url", link), zap.Int("status", rsp.StatusCode),
		zap.Int("len", len(data)), zap.Duration("cost", time.Since(start)))
	if rsp.StatusCode != http.StatusOK {
		return nil, errs.NewMsg(errs.CodeNetFail, "%s: status %d", link, rsp.StatusCode)
	}
	return data, nil
}

func wrapNetErr(ctx context.Context, link string, err error) *errs.Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errs.NewMsg(errs.CodeTimeout, "%s: %v", link, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errs.NewMsg(errs.CodeTimeout, "%s: %v", link, err)
	}
	if errors.Is(err, context.Canceled) {
		return errs.NewMsg(errs.CodeCanceled, "%s: %v", link, err)
	}
	return errs.NewMsg(errs.CodeNetFail, "%s: %v", link, err)
}

/*
productOf
the raw product id may carry a suffix after '_', e.g. "cu_f    "
*/
func productOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if idx := strings.Index(raw, "_"); idx >= 0 {
		raw = raw[:idx]
	}
	return strings.TrimSpace(raw)
}

// isCombo reports spreads ("IF2104-IF2105", "SP a2105&a2109") and options ("IO2104-C-5000").
func isCombo(instrument string) bool {
	return strings.ContainsAny(instrument, "-&")
}

// textOf render a payload value as trimmed text
func textOf(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}
