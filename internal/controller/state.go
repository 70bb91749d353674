package controller

// State is a step of resolving one theme reference
type State int

const (
	StateIdle State = iota
	StateFetching
	StateExtracting
	StateResolvingRoot
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateExtracting:
		return "extracting"
	case StateResolvingRoot:
		return "resolving_root"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stage names reported in domain.ThemeError
const (
	StagePrepare = "prepare"
	StageFetch   = "fetch"
	StageExtract = "extract"
	StageResolve = "resolve"
)
