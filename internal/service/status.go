package service

import "kelatic/internal/db"

// allowedTransitions is the appointment lifecycle. Completed, cancelled and
// no_show are terminal; history is preserved by never deleting rows.
var allowedTransitions = map[string][]string{
	db.StatusPending:    {db.StatusConfirmed, db.StatusCancelled},
	db.StatusConfirmed:  {db.StatusInProgress, db.StatusCompleted, db.StatusCancelled, db.StatusNoShow},
	db.StatusInProgress: {db.StatusCompleted, db.StatusCancelled},
}

func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsValidStatus(status string) bool {
	switch status {
	case db.StatusPending, db.StatusConfirmed, db.StatusInProgress,
		db.StatusCompleted, db.StatusCancelled, db.StatusNoShow:
		return true
	}
	return false
}
