package config

const (
	SinkCsv = "csv"
	SinkDb  = "db"
)

const (
	keyDefault = "default"
	defDataDir = "data"
)
