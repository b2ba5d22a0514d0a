// Package notifier informs the user when a sensor opens or closes.
package notifier

// An Event reports that a sensor changed state.
type Event struct {
	Sensor string
	Open   bool
	Reason string
}

func (e Event) String() string {
	if e.Open {
		return e.Sensor + ": opened"
	}
	return e.Sensor + ": closed"
}

type Notifier interface {
	Notify(Event)
}

type Notifiers []Notifier

func (n Notifiers) Notify(e Event) {
	for _, l := range n {
		l.Notify(e)
	}
}
