package transcript

import (
	"errors"
	"sort"
	"strings"

	"github.com/hupe1980/parlance/core"
)

// ErrFinalized is returned when Finalize is called more than once.
var ErrFinalized = errors.New("transcript: aggregator already finalized")

type turnState struct {
	role   core.Role
	text   strings.Builder
	sealed bool
}

// Aggregator folds events into turns keyed by sequence key. It must be driven
// from a single goroutine and is not restartable: build a new one per session.
type Aggregator struct {
	turns     map[int64]*turnState
	finalized bool
}

// New creates an empty aggregator.
func New() *Aggregator {
	return &Aggregator{turns: make(map[int64]*turnState)}
}

// OnEvent applies ev and reports whether it changed the aggregator. Events
// for sealed turns, events of unknown kind and any event after Finalize are
// ignored.
func (a *Aggregator) OnEvent(ev Event) bool {
	if a.finalized {
		return false
	}
	if ev.Kind != KindDelta && ev.Kind != KindFinal {
		return false
	}

	t, ok := a.turns[ev.SequenceKey]
	if !ok {
		t = &turnState{}
		a.turns[ev.SequenceKey] = t
	}
	if t.sealed {
		return false
	}
	if t.role == "" {
		t.role = ev.Role
	}

	switch ev.Kind {
	case KindDelta:
		t.text.WriteString(ev.Text)
	case KindFinal:
		if ev.Text != "" {
			t.text.Reset()
			t.text.WriteString(ev.Text)
		}
		t.sealed = true
	}
	return true
}

// Open returns the number of turns that are not sealed yet.
func (a *Aggregator) Open() int {
	n := 0
	for _, t := range a.turns {
		if !t.sealed {
			n++
		}
	}
	return n
}

// Snapshot returns the current turns in sequence order without sealing
// anything. Open turns are reported with Sealed=false.
func (a *Aggregator) Snapshot() core.Transcript {
	return a.collect(false)
}

// Finalize force-seals every open turn and returns the ordered transcript.
// It may be called once; later calls return ErrFinalized.
func (a *Aggregator) Finalize() (core.Transcript, error) {
	if a.finalized {
		return nil, ErrFinalized
	}
	a.finalized = true
	return a.collect(true), nil
}

func (a *Aggregator) collect(seal bool) core.Transcript {
	keys := make([]int64, 0, len(a.turns))
	for k := range a.turns {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make(core.Transcript, 0, len(keys))
	for _, k := range keys {
		t := a.turns[k]
		if seal {
			t.sealed = true
		}
		out = append(out, core.Turn{
			SequenceKey: k,
			Role:        t.role,
			Text:        t.text.String(),
			Sealed:      t.sealed,
		})
	}
	return out
}
