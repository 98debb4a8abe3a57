package transport

// Direction selects which half of a stream Shutdown closes.
type Direction int

const (
	Read Direction = iota + 1
	Write
	Both
)

func (d Direction) Valid() bool {
	return d >= Read && d <= Both
}

func (d Direction) Reads() bool {
	return d == Read || d == Both
}

func (d Direction) Writes() bool {
	return d == Write || d == Both
}

func (d Direction) String() string {
	switch d {
	case Read:
		return "read"
	case Write:
		return "write"
	case Both:
		return "both"
	default:
		return "invalid"
	}
}
