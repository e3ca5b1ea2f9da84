package resolution

// Classification is the verdict of the EncounterLedger for a key and locator.
type Classification int

const (
	// New means the key was never seen before. It is recorded with the locator.
	New Classification = iota
	// SeenSame means the key was seen before with an identical locator.
	SeenSame
	// Conflict means the key was seen before with a different locator.
	Conflict
)

func (c Classification) String() string {
	switch c {
	case New:
		return "new"
	case SeenSame:
		return "seen"
	case Conflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// EncounterLedger remembers the locator every key was first requested with. Entries are
// written once and never overwritten.
//
// EncounterLedger is not safe for concurrent use; the Coordinator guards it with its lock.
type EncounterLedger struct {
	locators map[ResourceKey]string
}

func NewEncounterLedger() *EncounterLedger {
	return &EncounterLedger{locators: make(map[ResourceKey]string)}
}

// Classify checks key and locator against the recorded encounters and records the key if
// it is New.
func (l *EncounterLedger) Classify(key ResourceKey, locator string) Classification {
	recorded, ok := l.locators[key]
	switch {
	case !ok:
		l.locators[key] = locator
		return New
	case recorded == locator:
		return SeenSame
	default:
		return Conflict
	}
}

// Locator returns the locator key was first encountered with.
func (l *EncounterLedger) Locator(key ResourceKey) (string, bool) {
	locator, ok := l.locators[key]
	return locator, ok
}
