package trigger

import "github.com/etnz/dpkgdb/intern"

// Engine drives the pending/awaited state machine across an Arena's
// package instances. It keeps the pend -> awaiters back-index outside
// of intern.PkgInfo, the same way the diversion and override stores
// keep their back-pointers outside of intern.Node.
type Engine struct {
	arena    *intern.Arena
	awaiters map[intern.PkgID]map[intern.PkgID]bool
}

// NewEngine returns an Engine operating on arena.
func NewEngine(arena *intern.Arena) *Engine {
	return &Engine{arena: arena, awaiters: map[intern.PkgID]map[intern.PkgID]bool{}}
}

// NotePend adds trig to pend's pending-trigger list, transitioning its
// status to triggers-pending, or triggers-awaited if pend itself is
// still awaiting another package's trigger processing. Idempotent
// (trig_note_pend).
func (e *Engine) NotePend(pend *intern.PkgInfo, trig string) bool {
	for _, t := range pend.TrigPend {
		if t == trig {
			return false
		}
	}
	pend.TrigPend = append(pend.TrigPend, trig)

	if len(pend.TrigAwaited) > 0 {
		e.arena.SetStatus(pend, intern.StatTriggersAwaited)
	} else {
		e.arena.SetStatus(pend, intern.StatTriggersPending)
	}
	return true
}

// NoteAw records that aw is awaiting pend's trigger processing,
// transitioning aw's status to triggers-awaited. Idempotent
// (trig_note_aw).
func (e *Engine) NoteAw(pend, aw *intern.PkgInfo) bool {
	pendSet := e.arena.Pkgset(pend.Set)

	for _, name := range aw.TrigAwaited {
		if name == pendSet.Name {
			return false
		}
	}
	aw.TrigAwaited = append(aw.TrigAwaited, pendSet.Name)

	if e.awaiters[pend.ID] == nil {
		e.awaiters[pend.ID] = map[intern.PkgID]bool{}
	}
	e.awaiters[pend.ID][aw.ID] = true

	e.arena.SetStatus(aw, intern.StatTriggersAwaited)
	return true
}

// ClearAwaiters releases every awaiter linked to notpend once notpend
// has no pending triggers left of its own, transitioning each awaiter
// out of triggers-awaited when its last await clears (trig_clear_awaiters).
func (e *Engine) ClearAwaiters(notpend *intern.PkgInfo) {
	if len(notpend.TrigPend) > 0 {
		return
	}

	notpendSet := e.arena.Pkgset(notpend.Set)
	aws := e.awaiters[notpend.ID]
	delete(e.awaiters, notpend.ID)

	for awID := range aws {
		aw := e.arena.Pkg(awID)
		aw.TrigAwaited = removeString(aw.TrigAwaited, notpendSet.Name)
		if len(aw.TrigAwaited) > 0 {
			continue
		}
		if len(aw.TrigPend) > 0 {
			e.arena.SetStatus(aw, intern.StatTriggersPending)
		} else {
			e.arena.SetStatus(aw, intern.StatInstalled)
		}
	}
}

// NoteProcessed removes trig from pend's pending list once its
// processing has completed. When the last pending trigger clears, pend
// leaves triggers-pending (to triggers-awaited if it still awaits
// someone else, otherwise installed) and its own awaiters are
// released.
func (e *Engine) NoteProcessed(pend *intern.PkgInfo, trig string) {
	pend.TrigPend = removeString(pend.TrigPend, trig)
	if len(pend.TrigPend) > 0 {
		return
	}
	if len(pend.TrigAwaited) > 0 {
		e.arena.SetStatus(pend, intern.StatTriggersAwaited)
	} else {
		e.arena.SetStatus(pend, intern.StatInstalled)
	}
	e.ClearAwaiters(pend)
}

// Rehydrate rebuilds the pend -> awaiters index from the Triggers-Awaited
// lists the status journal loaded into the arena, so ClearAwaiters works
// after a fresh load the same way it does after in-process NoteAw calls.
func (e *Engine) Rehydrate() {
	e.awaiters = map[intern.PkgID]map[intern.PkgID]bool{}
	for _, aw := range e.arena.Pkgs() {
		for _, name := range aw.TrigAwaited {
			set := e.arena.LookupSet(name)
			if set == nil {
				continue
			}
			pend := e.arena.GetSingleton(set)
			if pend == nil {
				continue
			}
			if e.awaiters[pend.ID] == nil {
				e.awaiters[pend.ID] = map[intern.PkgID]bool{}
			}
			e.awaiters[pend.ID][aw.ID] = true
		}
	}
}

func removeString(list []string, s string) []string {
	for i, v := range list {
		if v == s {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
