package sink

// Outcome is the classified result of executing one statement.
type Outcome int

const (
	Success Outcome = iota
	SchemaMissing
	ConstraintViolation
	TransientError
	UnknownError
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case SchemaMissing:
		return "schema missing"
	case ConstraintViolation:
		return "constraint violation"
	case TransientError:
		return "transient error"
	default:
		return "unknown error"
	}
}
