package store

import "hms/backoffice/internal/models"

// transitionMap is the single source of truth for the visit lifecycle.
// Completion is reachable only through CompleteSession; the queue API never
// exposes the complete_session action directly.
var transitionMap = map[string][]string{
	"intake_complete":  {models.StatusAwaitingIntake},
	"start_session":    {models.StatusIntakeComplete},
	"pause_session":    {models.StatusInSession},
	"resume_session":   {models.StatusSessionPaused},
	"complete_session": {models.StatusInSession, models.StatusSessionPaused},
	"cancel":           {models.StatusAwaitingIntake, models.StatusIntakeComplete, models.StatusInSession, models.StatusSessionPaused},
}

// AllowedStatuses returns the from-statuses an action may leave, so the
// persistence layer can guard its updates with the same table.
func AllowedStatuses(action string) []string {
	allowed, ok := transitionMap[action]
	if !ok {
		return nil
	}
	out := make([]string, len(allowed))
	copy(out, allowed)
	return out
}

func ValidTransition(action, fromStatus string) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == fromStatus {
			return true
		}
	}
	return false
}
