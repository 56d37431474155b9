package animals

type Action string

const (
	ActionCheckOut      Action = "check_out"
	ActionCheckIn       Action = "check_in"
	ActionSilentCheckIn Action = "silent_check_in"
)

// inCage requerido para cada acción.
var transitionMap = map[Action]bool{
	ActionCheckOut:      true,
	ActionCheckIn:       false,
	ActionSilentCheckIn: false,
}

func ValidTransition(action Action, inCage bool) bool {
	from, ok := transitionMap[action]
	if !ok {
		return false
	}
	return from == inCage
}
