package extractor

import "strings"

// State is the accumulator's position in a service-charge table.
type State int

const (
	StateIdle State = iota
	StateCollecting
)

func (s State) String() string {
	if s == StateCollecting {
		return "collecting"
	}
	return "idle"
}

// chargesTotalPhrase closes a service-charge table.
const chargesTotalPhrase = "Kiszámlázott díjak összesen"

// Accumulator buffers the lines of a service-charge table across pages.
//
// A table opens on a page classified SectionServiceCharges. Every following page is
// appended whatever its own header says, because continuation pages do not repeat
// the section title. The table closes on the first page that contains the total
// line; the buffered block is then handed back and the accumulator is idle again.
type Accumulator struct {
	state State
	buf   []string
}

// State returns the current state.
func (a *Accumulator) State() State {
	return a.state
}

// Pending returns how many lines are buffered for a table that has not closed yet.
func (a *Accumulator) Pending() int {
	return len(a.buf)
}

// Feed offers one page to the accumulator. When the page closes a table the
// complete block is returned with flushed set.
func (a *Accumulator) Feed(lines []string, section Section) (block []string, flushed bool) {
	switch {
	case a.state == StateIdle && section == SectionServiceCharges:
		a.state = StateCollecting
		a.buf = append(a.buf, lines...)
	case a.state == StateCollecting:
		a.buf = append(a.buf, lines...)
	default:
		return nil, false
	}

	if !containsChargesTotal(lines) {
		return nil, false
	}

	block = a.buf
	a.buf = nil
	a.state = StateIdle
	return block, true
}

// Reset drops any buffered lines and returns to idle.
func (a *Accumulator) Reset() {
	a.buf = nil
	a.state = StateIdle
}

func containsChargesTotal(lines []string) bool {
	for _, line := range lines {
		if strings.Contains(line, chargesTotalPhrase) {
			return true
		}
	}
	return false
}
