package dpkgdb

import (
	"github.com/etnz/dpkgdb/dpkgerr"
	"github.com/etnz/dpkgdb/intern"
	"github.com/etnz/dpkgdb/trigger"
)

// ActivateTrigger activates the named trigger against pend. When aw is
// non-nil the activation awaits: aw is linked as an awaiter of pend
// and the activation is recorded in the deferred store against aw.
// The in-memory state changes immediately; call
// TriggerUnincorp.Write and Status.AppendUpdate to persist
// (trig_activate).
func (db *Database) ActivateTrigger(trig string, pend, aw *intern.PkgInfo) error {
	if err := trigger.ValidateName(trig); err != nil {
		return err
	}
	return db.activate(trig, pend, aw, trigger.TrigAwait)
}

// ActivateFileTrigger activates every file-trigger interest matching
// path (the path itself or any watched directory above it), on behalf
// of aw. Interests registered noawait pend their trigger without
// linking aw as an awaiter (trig_file).
func (db *Database) ActivateFileTrigger(path string, aw *intern.PkgInfo) error {
	if err := trigger.ValidatePath(path); err != nil {
		return err
	}
	for _, in := range db.TriggerFiles.Matching(path) {
		pend := db.Arena.GetSingleton(in.Pkg)
		if pend == nil {
			return dpkgerr.New(dpkgerr.AmbiguousPackage,
				"file trigger interest for %q names ambiguous package %q", in.Path, in.Pkg.Name)
		}
		policy := in.Policy
		if err := db.activate(in.Path, pend, aw, policy); err != nil {
			return err
		}
	}
	return nil
}

func (db *Database) activate(trig string, pend, aw *intern.PkgInfo, policy trigger.Await) error {
	// Only a package that made it through configuration can take a
	// trigger activation; anything earlier in its lifecycle will pick
	// the work up when it is configured (trig_record_activation).
	if pend.Status < intern.StatTriggersAwaited {
		return nil
	}
	db.Triggers.NotePend(pend, trig)
	if aw == nil || policy != trigger.TrigAwait {
		return nil
	}
	db.Triggers.NoteAw(pend, aw)
	return db.TriggerUnincorp.Add(trig, db.Arena.Pkgset(aw.Set))
}

// TriggerProcessed records that pend finished processing trig,
// releasing pend's awaiters once its last pending trigger clears, and
// drops the trigger's deferred activation.
func (db *Database) TriggerProcessed(pend *intern.PkgInfo, trig string) {
	db.Triggers.NoteProcessed(pend, trig)
	db.TriggerUnincorp.Remove(trig)
}
