package usecase

import (
	"clinic-booking/internal/data/entity"
)

type Action string

const (
	ActionRead     Action = "read"
	ActionConfirm  Action = "confirm"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
	ActionPay      Action = "payment"
	ActionNotes    Action = "notes"
)

// ActionSet is the result of AllowedActions.
type ActionSet map[Action]struct{}

func (s ActionSet) Has(a Action) bool {
	_, ok := s[a]
	return ok
}

// AllowedActions returns what p may do to a by role and ownership alone.
// Status preconditions are checked separately by the lifecycle manager.
func AllowedActions(p entity.Principal, a *entity.Appointment) ActionSet {
	set := ActionSet{}
	if !p.Valid() || a == nil {
		return set
	}

	grant := func(actions ...Action) {
		for _, act := range actions {
			set[act] = struct{}{}
		}
	}

	switch {
	case p.IsAdmin():
		grant(ActionRead, ActionConfirm, ActionCancel, ActionComplete, ActionPay, ActionNotes)
	case p.IsPatient() && p.ID == a.PatientID:
		grant(ActionRead, ActionCancel, ActionPay, ActionNotes)
	case p.IsDoctor() && p.ID == a.Doctor.DoctorID:
		grant(ActionRead, ActionConfirm, ActionCancel, ActionComplete, ActionNotes)
	}

	return set
}
