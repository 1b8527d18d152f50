package wire

// Status is the two-valued return code of every exported operation
type Status int16

// status codes, match SQL_SUCCESS and SQL_ERROR
const (
	Success Status = 0
	Error   Status = -1
)

// InterfaceVersion is the version of the extension protocol implemented here
const InterfaceVersion = 2

func (s Status) String() string {
	if s == Success {
		return "SUCCESS"
	}
	return "ERROR"
}
