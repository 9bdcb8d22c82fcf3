package china

import (
	"github.com/futuresworkshop/workshop"
)

const (
	HostSHFE  = "http://www.shfe.com.cn"
	HostINE   = "http://www.ine.cn"
	HostCFFEX = "http://www.cffex.com.cn"

	pathKx    = "/data/dailydata/kx/kx%s.dat"
	pathCffex = "/sj/hqsj/rtj/%s/%s/index.xml"
)

const (
	DefTimeoutSecs = 15
	DefHostConcurr = 3
)

var DefReqHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	"Connection": "keep-alive",
	"Accept":     "*/*",
}

var (
	// 小计/期转现行，非合约
	skipDelivery = map[string]bool{"小计": true, "efp": true}
	// 总计行
	skipProduct = map[string]bool{"总计": true, "总计1": true, "总计2": true}
	// products listed in the SHFE document that belong to INE
	ineCodes = map[string]bool{"sc": true, "nr": true, "lu": true, "bc": true}
)

var creators = map[string]creator{
	workshop.ExgSHFE:  newSHFE,
	workshop.ExgINE:   newINE,
	workshop.ExgCFFEX: newCFFEX,
	workshop.ExgDCE:   newUnsupported(workshop.ExgDCE),
	workshop.ExgCZCE:  newUnsupported(workshop.ExgCZCE),
}
