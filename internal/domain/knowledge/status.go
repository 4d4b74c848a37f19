package knowledge

import (
	"fmt"

	"github.com/mindforge-ai/mindforge-backend/internal/platform/kberr"
)

// Status is the ingestion lifecycle state of a knowledge item.
type Status string

const (
	StatusCreated    Status = "CREATED"
	StatusProcessing Status = "PROCESSING"
	StatusSyncing    Status = "SYNCING"
	StatusUploaded   Status = "UPLOADED"
	StatusError      Status = "ERROR"
)

func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusProcessing, StatusSyncing, StatusUploaded, StatusError:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status ends an ingestion attempt. An ERROR
// item may still be resubmitted, which resets it to CREATED.
func (s Status) Terminal() bool {
	return s == StatusUploaded || s == StatusError
}

var statusEdges = map[Status]map[Status]bool{
	StatusCreated: {
		StatusProcessing: true,
		StatusSyncing:    true, // sync-sourced items only, see CanTransition
	},
	StatusProcessing: {
		StatusUploaded: true,
		StatusError:    true,
	},
	StatusSyncing: {
		StatusUploaded: true,
		StatusError:    true,
	},
	StatusError: {
		StatusCreated: true, // resubmission
	},
}

// CanTransition reports whether from -> to is a legal lifecycle edge for an
// item with the given source.
func CanTransition(from, to Status, source Source) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if to == StatusSyncing && source != SourceSync {
		return false
	}
	return statusEdges[from][to]
}

// ValidateTransition returns ErrInvalidTransition when from -> to is not a
// legal edge. The caller decides whether enforcement is active; the original
// system wrote any status at any time and strict-parity deployments can keep
// doing that via configuration.
func ValidateTransition(from, to Status, source Source) error {
	if CanTransition(from, to, source) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s (source=%s)", kberr.ErrInvalidTransition, from, to, source)
}
