package china

import (
	"strings"

	"github.com/futuresworkshop/workshop"
	"github.com/futuresworkshop/workshop/errs"
	"github.com/go-viper/mapstructure/v2"
)

/*
New
create the adapter of an exchange code. options accepts
timeout_secs, proxy, user_agent, base_url, host_concurr, headers
*/
func New(code string, options map[string]interface{}) (Adapter, *errs.Error) {
	opt, err := ParseOptions(options)
	if err != nil {
		return nil, err
	}
	fetcher, err := NewHttpFetcher(opt)
	if err != nil {
		return nil, err
	}
	return NewWithFetcher(code, opt, fetcher)
}

// NewWithFetcher create an adapter on a custom transport
func NewWithFetcher(code string, opt *Options, fetcher Fetcher) (Adapter, *errs.Error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	fn, ok := creators[code]
	if !ok {
		return nil, errs.NewMsg(errs.CodeInvalidExchange, "invalid exchange: %s", code)
	}
	if opt == nil {
		opt = &Options{}
	}
	return fn(opt, fetcher), nil
}

// NewAll create one adapter for every known exchange, sharing the same fetcher.
func NewAll(options map[string]interface{}) (map[string]Adapter, *errs.Error) {
	opt, err := ParseOptions(options)
	if err != nil {
		return nil, err
	}
	fetcher, err := NewHttpFetcher(opt)
	if err != nil {
		return nil, err
	}
	res := make(map[string]Adapter, len(workshop.ExchangeCodes))
	for _, code := range workshop.ExchangeCodes {
		res[code], err = NewWithFetcher(code, opt, fetcher)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

func ParseOptions(options map[string]interface{}) (*Options, *errs.Error) {
	opt := &Options{}
	if len(options) == 0 {
		return opt, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           opt,
	})
	if err != nil {
		return nil, errs.New(errs.CodeRunTime, err)
	}
	if err = dec.Decode(options); err != nil {
		return nil, errs.New(errs.CodeParamInvalid, err)
	}
	return opt, nil
}

func newSHFE(opt *Options, fetcher Fetcher) Adapter {
	return &JsonExchange{
		code:     workshop.ExgSHFE,
		baseUrl:  pickBase(opt, HostSHFE),
		excludes: ineCodes,
		fetcher:  fetcher,
	}
}

func newINE(opt *Options, fetcher Fetcher) Adapter {
	return &JsonExchange{
		code:    workshop.ExgINE,
		baseUrl: pickBase(opt, HostINE),
		fetcher: fetcher,
	}
}

func newCFFEX(opt *Options, fetcher Fetcher) Adapter {
	return &CFFEX{baseUrl: pickBase(opt, HostCFFEX), fetcher: fetcher}
}

func newUnsupported(code string) creator {
	return func(opt *Options, fetcher Fetcher) Adapter {
		return &Unsupported{code: code}
	}
}

func pickBase(opt *Options, host string) string {
	if opt != nil && opt.BaseUrl != "" {
		return strings.TrimRight(opt.BaseUrl, "/")
	}
	return host
}
