package engine

import (
	"slices"
	"time"

	"github.com/GriffinCanCode/gadgeto/internal/domain/bundle"
	"github.com/GriffinCanCode/gadgeto/internal/providers/live"
	"github.com/GriffinCanCode/gadgeto/internal/shared/types"
)

// Panel split bounds, in percent of the window given to the chat pane
const (
	DefaultPanelSplit = 50.0
	MinPanelSplit     = 10.0
	MaxPanelSplit     = 90.0
)

// state is owned by the loop goroutine
type state struct {
	mode       types.Mode
	entries    []types.ConversationEntry
	reasoning  []types.ReasoningEntry
	findings   []types.Finding
	selection  []int
	handle     *string
	inflight   int
	panelSplit float64

	// live replies still owed for messages sent before the last clear,
	// import or reload; they are skipped on arrival
	staleFrames int
	dirty      bool
	lastSaved  time.Time

	// set when the user declines a restore; an empty session must not
	// overwrite the bundle they kept
	keepStored bool
}

func newState() state {
	return state{
		mode:       types.ModeBackend,
		entries:    []types.ConversationEntry{},
		reasoning:  []types.ReasoningEntry{},
		findings:   []types.Finding{},
		selection:  []int{},
		panelSplit: DefaultPanelSplit,
	}
}

// View is a read-only copy of engine state for presentation
type View struct {
	Mode       types.Mode
	Entries    []types.ConversationEntry
	Reasoning  []types.ReasoningEntry
	Findings   []types.Finding
	Selection  []int
	Handle     string
	Pending    bool
	PanelSplit float64
	LiveState  live.State
	LastSaved  time.Time
}

// HasHandle reports whether a backend session is active
func (v View) HasHandle() bool {
	return v.Handle != ""
}

// Responses returns the agent entry texts in order
func (v View) Responses() []string {
	out := []string{}
	for _, e := range v.Entries {
		if e.IsAgent() {
			out = append(out, e.Text)
		}
	}
	return out
}

// IsSelected reports whether index is in the selection
func (v View) IsSelected(index int) bool {
	return slices.Contains(v.Selection, index)
}

func (s *state) view() View {
	v := View{
		Mode:       s.mode,
		Entries:    slices.Clone(s.entries),
		Reasoning:  slices.Clone(s.reasoning),
		Findings:   slices.Clone(s.findings),
		Selection:  slices.Clone(s.selection),
		Pending:    s.inflight > 0,
		PanelSplit: s.panelSplit,
		LastSaved:  s.lastSaved,
		LiveState:  live.StateClosed,
	}
	if s.handle != nil {
		v.Handle = *s.handle
	}
	return v
}

func (s *state) note(text string) {
	s.reasoning = append(s.reasoning, types.Note(text))
	s.dirty = true
}

// data snapshots the persisted part of the state
func (s *state) data() bundle.Data {
	split := s.panelSplit
	return bundle.FromState(s.entries, s.reasoning, s.findings, s.selection, &split)
}

// load replaces the conversation with a bundle's payload
func (s *state) load(d bundle.Data) {
	s.entries = d.Entries()
	s.reasoning = d.ReasoningEntries()
	s.findings = slices.Clone(d.TableData)
	s.selection = slices.Clone(d.SelectedMessages)
	s.panelSplit = DefaultPanelSplit
	if d.LeftPanelWidth != nil {
		s.panelSplit = clampSplit(*d.LeftPanelWidth)
	}
}

// reset empties every conversation sequence and drops the handle
func (s *state) reset() {
	s.entries = []types.ConversationEntry{}
	s.reasoning = []types.ReasoningEntry{}
	s.findings = []types.Finding{}
	s.selection = []int{}
	s.handle = nil
	s.retire()
	s.dirty = true
	s.keepStored = false
}

// retire forgets outstanding exchanges. Backend results are dropped by the
// epoch check; live replies are counted so their frames can be skipped.
func (s *state) retire() {
	if s.mode == types.ModeLive {
		s.staleFrames += s.inflight
	}
	s.inflight = 0
}

// blank reports whether nothing worth persisting has been recorded
func (s *state) blank() bool {
	return len(s.entries) == 0 && len(s.findings) == 0
}

func (s *state) adopt(id string) bool {
	if s.handle != nil && *s.handle == id {
		return false
	}
	s.handle = &id
	s.dirty = true
	return true
}

// toggle flips index in the selection, keeping insertion order
func (s *state) toggle(index int) {
	if i := slices.Index(s.selection, index); i >= 0 {
		s.selection = slices.Delete(s.selection, i, i+1)
	} else {
		s.selection = append(s.selection, index)
	}
	s.dirty = true
}

func (s *state) nextFindingID() int {
	next := 1
	for _, f := range s.findings {
		if f.ID >= next {
			next = f.ID + 1
		}
	}
	return next
}

func clampSplit(p float64) float64 {
	switch {
	case p < MinPanelSplit:
		return MinPanelSplit
	case p > MaxPanelSplit:
		return MaxPanelSplit
	}
	return p
}
