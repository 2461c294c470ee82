package commonModels

import "fmt"

type DocumentStatus string

const (
	StatusPending    DocumentStatus = "Pending"
	StatusProcessing DocumentStatus = "Processing"
	StatusReady      DocumentStatus = "Ready"
	StatusError      DocumentStatus = "Error"
)

var transitions = map[DocumentStatus][]DocumentStatus{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusReady, StatusError},
}

func CanTransition(from DocumentStatus, to DocumentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition wraps ErrInvalidTransition with both states.
func CheckTransition(from DocumentStatus, to DocumentStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

func (s DocumentStatus) IsTerminal() bool {
	return s == StatusReady || s == StatusError
}

func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusReady, StatusError:
		return true
	}
	return false
}
