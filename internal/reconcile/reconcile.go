// Package reconcile diffs a desired list of child records against the stored
// list and plans the create/update/delete operations that turn one into the
// other. It performs no I/O.
package reconcile

import (
	"errors"
	"fmt"
)

// ErrUnknownID is returned when a desired item names an identity that is not
// among the existing records.
var ErrUnknownID = errors.New("unknown identity")

// ItemError pins a failure to one desired item of one collection.
type ItemError struct {
	Collection string
	Index      int
	Err        error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s[%d]: %v", e.Collection, e.Index, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// Keys tells Compute how to identify and compare records.
type Keys[E, D any] struct {
	ExistingID func(E) int64
	// DesiredID reports the identity of a desired item, if it carries one.
	DesiredID func(D) (int64, bool)
	// Validate checks an item before anything is planned. Optional.
	Validate func(D) error
	// Equal suppresses updates for unchanged items. Optional; without it every
	// identified item is scheduled for update.
	Equal func(E, D) bool
}

// Update pairs a stored record with the desired state that replaces it.
type Update[E, D any] struct {
	Existing E
	Desired  D
}

type Plan[E, D any] struct {
	Create []D
	Update []Update[E, D]
	Delete []E
}

// Empty reports whether applying the plan would change nothing.
func (p Plan[E, D]) Empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// Compute plans the operations that make existing equal to desired.
//
// An empty or nil desired list deletes every existing record. A desired item
// naming an identity that does not exist fails with ErrUnknownID, and any
// validation failure rejects the whole collection: no partial plan is returned.
func Compute[E, D any](collection string, existing []E, desired []D, keys Keys[E, D]) (Plan[E, D], error) {
	var plan Plan[E, D]

	byID := make(map[int64]E, len(existing))
	for _, e := range existing {
		byID[keys.ExistingID(e)] = e
	}

	kept := make(map[int64]struct{}, len(desired))
	for i, d := range desired {
		if keys.Validate != nil {
			if err := keys.Validate(d); err != nil {
				return Plan[E, D]{}, &ItemError{Collection: collection, Index: i, Err: err}
			}
		}

		id, ok := keys.DesiredID(d)
		if !ok {
			plan.Create = append(plan.Create, d)
			continue
		}

		current, found := byID[id]
		if !found {
			return Plan[E, D]{}, &ItemError{Collection: collection, Index: i, Err: fmt.Errorf("%w %d", ErrUnknownID, id)}
		}
		if _, dup := kept[id]; dup {
			return Plan[E, D]{}, &ItemError{Collection: collection, Index: i, Err: fmt.Errorf("identity %d listed twice", id)}
		}
		kept[id] = struct{}{}

		if keys.Equal != nil && keys.Equal(current, d) {
			continue
		}
		plan.Update = append(plan.Update, Update[E, D]{Existing: current, Desired: d})
	}

	for _, e := range existing {
		if _, ok := kept[keys.ExistingID(e)]; !ok {
			plan.Delete = append(plan.Delete, e)
		}
	}

	return plan, nil
}
