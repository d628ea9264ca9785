package control

import (
	"fmt"
	"log/slog"

	"lautenbacher.net/goeffects/effect"
	u "lautenbacher.net/goeffects/util"
)

// Dispatch translates a command trigger from any command surface into
// the matching selection signal.
func (s *Selection) Dispatch(trigger *u.Trigger) error {
	slog.Debug("Dispatching command", "id", trigger.ID, "value", trigger.Value)
	switch trigger.ID {
	case u.CommandNext:
		s.RequestAdvance()
	case u.CommandClear:
		s.RequestClear()
	case u.CommandSelect:
		s.RequestSelect(trigger.Value)
	case u.CommandColor:
		s.ResetWithColor(effect.ColorFromHex(trigger.Value))
	default:
		return fmt.Errorf("unknown command %q", trigger.ID)
	}
	return nil
}
