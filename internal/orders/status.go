package orders

type Status string

const (
	StatusPending Status = "PENDING"
	StatusDone    Status = "DONE"
	StatusCancel  Status = "CANCEL"
)

var validNext = map[Status]map[Status]bool{
	StatusPending: {StatusDone: true, StatusCancel: true},
	StatusDone:    {},
	StatusCancel:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusDone, StatusCancel:
		return Status(s), true
	}
	return "", false
}
