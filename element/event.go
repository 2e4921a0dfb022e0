package element

// Sub classifies the sub-state an Event reports, mirroring State plus a
// Custom marker for application-defined events (spec.md §6: "sub:
// enum{NONE,OPENING,RUNNING,PAUSED,FINISHED,STOPPED,ERROR,CUSTOM}").
type Sub uint8

const (
	SubNone Sub = iota
	SubOpening
	SubRunning
	SubPaused
	SubFinished
	SubStopped
	SubError
	SubCustom
)

func (s Sub) String() string {
	switch s {
	case SubOpening:
		return "OPENING"
	case SubRunning:
		return "RUNNING"
	case SubPaused:
		return "PAUSED"
	case SubFinished:
		return "FINISHED"
	case SubStopped:
		return "STOPPED"
	case SubError:
		return "ERROR"
	case SubCustom:
		return "CUSTOM"
	default:
		return "NONE"
	}
}

func subFromState(s State) Sub {
	switch s {
	case Opening:
		return SubOpening
	case Running:
		return SubRunning
	case Paused:
		return SubPaused
	case Finished:
		return SubFinished
	case Stopped:
		return SubStopped
	case Error:
		return SubError
	default:
		return SubNone
	}
}

// Type distinguishes what kind of event is being reported; StateChange
// is the only kind Base emits itself, CustomEvent is for
// application/element-reported events via ReportEvent.
type Type int

const (
	StateChange Type = iota
	CustomEvent
)

// Event is the packet delivered from the task thread to a registered
// callback: spec.md §6 "{from, type, sub-state, payload, size}". Handlers
// must not block (spec.md §6).
type Event struct {
	From    string
	Type    Type
	Sub     Sub
	Payload []byte
	Size    int
}
