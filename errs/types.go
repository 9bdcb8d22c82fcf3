package errs

type Error struct {
	Code int
	Msg  string
	Data interface{}
}
