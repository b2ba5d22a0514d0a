package notifier

import (
	"log/slog"
)

type SLogNotifier struct {
	Logger *slog.Logger
}

var _ Notifier = &SLogNotifier{}

func (s SLogNotifier) Notify(e Event) {
	s.Logger.Info(e.String(), "reason", e.Reason)
}
