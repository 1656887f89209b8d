package models

// ExistenceState is the outcome of a natural-key lookup.
type ExistenceState int

const (
	// StateUnknown means the lookup itself failed.
	StateUnknown ExistenceState = iota
	StateAbsent
	StateExists
)

func (s ExistenceState) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateExists:
		return "exists"
	}
	return "unknown"
}

// Existence carries the documentId when State is StateExists and the failure when it is StateUnknown.
type Existence struct {
	State      ExistenceState
	DocumentID string
	Err        error
}

func Exists(documentID string) Existence {
	return Existence{State: StateExists, DocumentID: documentID}
}

func Absent() Existence {
	return Existence{State: StateAbsent}
}

func Unknown(err error) Existence {
	return Existence{State: StateUnknown, Err: err}
}

func (e Existence) Found() bool { return e.State == StateExists }
