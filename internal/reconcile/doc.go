// Package reconcile applies chat mutation results to an in-memory list of events.
//
// Reconcile is a pure function: it never modifies its input and performs no I/O.
// Targets of delete and reschedule mutations are located through an ordered table of
// match tiers. Tiers are evaluated most reliable first and the first tier that matches
// any eligible event decides the outcome:
//
//	delete:     id > exact title + same date > partial title + same date ("meeting" fallback)
//	reschedule: original_event_id > event.rescheduled_from > fuzzy title + original date
//
// Id tiers resolve a single event. Title tiers mark every event they match, since titles
// are not unique. A mutation that matches nothing leaves the events untouched; only a
// structurally invalid mutation is reported as an error (ErrMalformedMutation).
package reconcile
