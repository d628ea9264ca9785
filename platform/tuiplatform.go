package platform

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"lautenbacher.net/goeffects/config"
	"lautenbacher.net/goeffects/effect"
	"lautenbacher.net/goeffects/logging"
	"lautenbacher.net/goeffects/util"
)

// overrideColor is the color sent by the w key
const overrideColor = 0xFFFFFF

type TUIPlatform struct {
	*AbstractPlatform
	tviewapp     *tview.Application
	intro        *tview.TextView
	ledDisplay   *tview.TextView
	logView      *tview.TextView
	ossignalChan chan os.Signal
	groupNames   []string
	logFlushOnce sync.Once
}

func NewTUIPlatform(conf *config.Config, ossignalchan chan os.Signal) *TUIPlatform {
	inst := &TUIPlatform{
		ossignalChan: ossignalchan,
	}
	inst.AbstractPlatform = newAbstractPlatform(conf, inst.DisplayLeds)
	for name := range inst.segments {
		inst.groupNames = append(inst.groupNames, name)
	}
	slices.Sort(inst.groupNames)
	return inst
}

func (s *TUIPlatform) Start() error {
	s.initSimulationTUI()

	s.displayWg.Add(1)
	go s.displayDriver()

	return nil
}

func (s *TUIPlatform) Stop() {
	s.setInShutdown()

	// Now, signal the display driver to exit
	close(s.displayStopChan)
	// Wait for it to confirm it's done
	s.displayWg.Wait()

	if s.tviewapp != nil {
		s.tviewapp.Stop()
	}
}

// DisplayLeds renders the frame as text and queues it for the LED pane.
func (s *TUIPlatform) DisplayLeds(frame []effect.Color) {
	s.distributeFrame(frame)
	text := s.simulateLedDisplay()
	s.tviewapp.QueueUpdateDraw(func() {
		s.ledDisplay.SetText(text)
	})
}

// getIntroText generates the text for the top info pane.
func getIntroText() string {
	line1 := fmt.Sprintf("Hit [#ff0000]n[-] for the next effect, [#ff0000]c[-] to clear, [#ff0000]w[-] for white, [blue]0[-]...[blue]%d[-] to select an effect", int(effect.KindCount)-1)
	line2 := "Hit [#ff0000]q[-] to exit, [#ff0000]r[-] to reload, [#ff0000]Up/Down[-] to scroll logs"
	return line1 + "\n" + line2
}

func (s *TUIPlatform) initSimulationTUI() {
	s.tviewapp = tview.NewApplication()

	// --- Intro Pane ---
	s.intro = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	s.intro.SetText(getIntroText())
	s.intro.SetBorder(true).SetTitle(" GOEFFECTS Simulation ").SetTitleColor(tcell.ColorLightBlue)
	s.intro.SetBackgroundColor(tcell.NewRGBColor(20, 20, 20))

	// --- LED Display Pane ---
	s.ledDisplay = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	s.ledDisplay.SetBorder(true)
	s.ledDisplay.SetBackgroundColor(tcell.NewRGBColor(30, 30, 30))

	// --- Log Pane ---
	s.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetChangedFunc(func() {
			s.logView.ScrollToEnd()
			s.tviewapp.Draw()
		})
	s.logView.SetBorder(true).SetTitle(" Logs ").SetTitleColor(tcell.ColorLightBlue)
	s.logView.SetBackgroundColor(tcell.NewRGBColor(40, 40, 40))

	// --- Layout ---
	stripeHeight := (3 * len(s.groupNames)) + 2 // 3 per group, 2 for border

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(s.intro, 4, 0, false).
		AddItem(s.ledDisplay, stripeHeight, 0, false).
		AddItem(s.logView, 0, 1, true) // Flexible height, gets focus

	// --- Flush logs after first draw ---
	s.tviewapp.SetAfterDrawFunc(func(screen tcell.Screen) {
		s.logFlushOnce.Do(func() {
			logWriter := tview.ANSIWriter(s.logView)
			if err := logging.SetOutput(logWriter); err != nil {
				slog.Error("Failed to redirect logging to the TUI", "error", err)
			}
			close(s.readyChan) // Signal that the TUI is ready
		})
	})

	s.tviewapp.SetInputCapture(s.handleKey)

	// --- Start TUI ---
	go func() {
		if err := s.tviewapp.SetRoot(layout, true).Run(); err != nil {
			slog.Error("Error running TUI", "error", err)
			s.signal(os.Interrupt)
		}
	}()
}

// handleKey maps keys to commands and signals. Keys without a binding
// are passed on to the focused pane.
func (s *TUIPlatform) handleKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyCtrlC:
		s.signal(os.Interrupt)
		return nil
	case tcell.KeyUp:
		row, col := s.logView.GetScrollOffset()
		s.logView.ScrollTo(row-1, col)
		return nil
	case tcell.KeyDown:
		row, col := s.logView.GetScrollOffset()
		s.logView.ScrollTo(row+1, col)
		return nil
	case tcell.KeyRune:
		if trigger := keyTrigger(event.Rune(), time.Now()); trigger != nil {
			s.sendCommand(trigger)
			return nil
		}
		switch event.Rune() {
		case 'q', 'Q':
			s.signal(os.Interrupt)
			return nil
		case 'r', 'R':
			s.signal(syscall.SIGHUP)
			return nil
		}
	}
	return event
}

// signal never blocks the tview event loop. A signal still queued wins.
func (s *TUIPlatform) signal(sig os.Signal) {
	select {
	case s.ossignalChan <- sig:
	default:
		slog.Debug("Signal already pending, ignoring key", "signal", sig)
	}
}

// keyTrigger returns the command bound to a key, nil if there is none.
func keyTrigger(key rune, now time.Time) *util.Trigger {
	switch {
	case key == 'n' || key == 'N':
		return util.NewTrigger(util.CommandNext, 0, now)
	case key == 'c' || key == 'C':
		return util.NewTrigger(util.CommandClear, 0, now)
	case key == 'w' || key == 'W':
		return util.NewTrigger(util.CommandColor, overrideColor, now)
	case key >= '0' && key < '0'+rune(effect.KindCount):
		return util.NewTrigger(util.CommandSelect, int(key-'0'), now)
	}
	return nil
}

// simulateLedDisplay renders all segment groups, two text lines each.
func (s *TUIPlatform) simulateLedDisplay() string {
	var buf strings.Builder
	for _, name := range s.groupNames {
		segments := s.segments[name]
		tops := make([]string, len(segments))
		bots := make([]string, len(segments))
		for i, seg := range segments {
			tops[i], bots[i] = simulateLedSegment(seg)
		}

		buf.WriteString(" ")
		buf.WriteString(strings.Join(tops, ""))
		buf.WriteString("\n ")
		buf.WriteString(strings.Join(bots, ""))
		buf.WriteString("\n\n")
	}
	return buf.String()
}

// levels maps the mean channel value to the bottom and top block
// characters. Entries are checked in order, the first upper bound that
// is not exceeded wins.
var levels = []struct {
	upTo int
	top  string
	bot  string
}{
	{3, " ", "▁"}, {6, " ", "▂"}, {9, " ", "▃"}, {12, " ", "▄"},
	{15, " ", "▅"}, {18, " ", "▆"}, {21, " ", "▇"}, {24, " ", "█"},
	{27, "▁", "█"}, {30, "▂", "█"}, {33, "▃", "█"}, {36, "▄", "█"},
	{39, "▅", "█"}, {42, "▆", "█"}, {45, "▇", "█"}, {80, "█", "█"},
	{255, "▒", "█"},
}

// simulateLedSegment generates the two-line representation for a single segment.
func simulateLedSegment(segment *segment) (string, string) {
	if !segment.visible {
		length := segment.lastLed - segment.firstLed + 1
		return strings.Repeat(" ", length), strings.Repeat("·", length)
	}

	var buf1, buf2 strings.Builder
	buf1.Grow(len(segment.leds) * (len("[-][#000000]") + 3))
	buf2.Grow(len(segment.leds) * (len("[-][#000000]") + 3))

	for _, col := range segment.leds {
		if col.IsEmpty() {
			buf1.WriteString(" ")
			buf2.WriteString(" ")
			continue
		}
		value := (int(col.R) + int(col.G) + int(col.B) + 1) / 3
		colorStr := scaledColor(col)
		for _, l := range levels {
			if value <= l.upTo {
				buf1.WriteString(colorStr + l.top + "[-]")
				buf2.WriteString(colorStr + l.bot + "[-]")
				break
			}
		}
	}
	return buf1.String(), buf2.String()
}

// scaledColor returns the tview color tag of col at full brightness;
// the brightness itself is shown by the block height.
func scaledColor(col effect.Color) string {
	maxColor := max(col.R, col.G, col.B)
	if maxColor == 0 {
		return "[#000000]"
	}
	full := col.Scale(255 / float64(maxColor))
	return fmt.Sprintf("[#%06x]", full.Hex())
}
