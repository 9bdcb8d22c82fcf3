package utils

import "time"

// LocCN is the exchanges' civil time zone (UTC+8, no DST).
var LocCN = time.FixedZone("CST", 8*3600)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)
