package orders

// Status is free text; the values below are the ones the dashboard knows about.
// Any status may be set to any other.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

const maxStatusLen = 20

func (s Status) IsPending() bool { return s == StatusPending }
