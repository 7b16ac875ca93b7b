package boot

// State is how far a hart has got through the reset sequence.
type State int

const (
	Reset State = iota
	EarlyTrapInstalled
	HartIdChecked
	// SectionsInitialized is only reached by the boot hart.
	SectionsInitialized
	InterruptsConfigured
	UserEntry
	Aborted
)

func (s State) String() string {
	switch s {
	case Reset:
		return "Reset"
	case EarlyTrapInstalled:
		return "EarlyTrapInstalled"
	case HartIdChecked:
		return "HartIdChecked"
	case SectionsInitialized:
		return "SectionsInitialized"
	case InterruptsConfigured:
		return "InterruptsConfigured"
	case UserEntry:
		return "UserEntry"
	case Aborted:
		return "Aborted"
	}
	return "State?"
}
