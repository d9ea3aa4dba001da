package domain

// AdStatus is the moderation state of an ad.
type AdStatus string

const (
	AdPending   AdStatus = "pending"
	AdActive    AdStatus = "active"
	AdRejected  AdStatus = "rejected"
	AdCompleted AdStatus = "completed"
	AdCancelled AdStatus = "cancelled"
)

// AdAction is an administrator's moderation command.
type AdAction string

const (
	ActionApprove  AdAction = "approve"
	ActionReject   AdAction = "reject"
	ActionComplete AdAction = "complete"
	ActionCancel   AdAction = "cancel"
)

var adTransitions = map[AdStatus]map[AdAction]AdStatus{
	AdPending: {
		ActionApprove: AdActive,
		ActionReject:  AdRejected,
	},
	AdActive: {
		ActionComplete: AdCompleted,
		ActionCancel:   AdCancelled,
	},
}

// ParseAdAction validates an action name received at the boundary.
func ParseAdAction(s string) (AdAction, error) {
	switch a := AdAction(s); a {
	case ActionApprove, ActionReject, ActionComplete, ActionCancel:
		return a, nil
	}
	return "", ValidationError{Field: "action", Msg: "unknown moderation action " + s}
}

// Valid reports whether s is a known status.
func (s AdStatus) Valid() bool {
	switch s {
	case AdPending, AdActive, AdRejected, AdCompleted, AdCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s AdStatus) Terminal() bool {
	return s.Valid() && len(adTransitions[s]) == 0
}

// Transition applies action to s.
func (s AdStatus) Transition(action AdAction) (AdStatus, error) {
	next, ok := adTransitions[s][action]
	if !ok {
		return s, ConflictError{Resource: "ad", Msg: "cannot " + string(action) + " an ad that is " + string(s)}
	}
	return next, nil
}
