package state

import (
	"errors"
	"fmt"
)

// Validate checks the structural invariants the reducer maintains: unique
// object ids, a selection that only names existing objects, uniquely named
// keyframes sorted by timestamp, and a usable timeline. It is run on every
// state that comes back across the command boundary.
func Validate(s State) error {
	var errs []error

	seen := make(map[string]bool, len(s.Objects))
	for i, o := range s.Objects {
		if o.ID == "" {
			errs = append(errs, fmt.Errorf("objects[%d]: empty id", i))
			continue
		}
		if seen[o.ID] {
			errs = append(errs, fmt.Errorf("objects[%d]: duplicate id %q", i, o.ID))
		}
		seen[o.ID] = true
	}

	for _, id := range s.SelectedIDs {
		if !seen[id] {
			errs = append(errs, fmt.Errorf("selection names unknown object %q", id))
		}
	}

	kfIDs := make(map[string]bool, len(s.Timeline.Keyframes))
	for i, kf := range s.Timeline.Keyframes {
		if kfIDs[kf.ID] {
			errs = append(errs, fmt.Errorf("keyframes[%d]: duplicate id %q", i, kf.ID))
		}
		kfIDs[kf.ID] = true
		if i > 0 && kf.Timestamp < s.Timeline.Keyframes[i-1].Timestamp {
			errs = append(errs, fmt.Errorf("keyframes[%d]: timestamp %g out of order", i, kf.Timestamp))
		}
	}

	if s.Timeline.FPS <= 0 {
		errs = append(errs, fmt.Errorf("timeline fps %d must be positive", s.Timeline.FPS))
	}
	if s.Timeline.Duration < 0 {
		errs = append(errs, fmt.Errorf("timeline duration %g is negative", s.Timeline.Duration))
	}

	return errors.Join(errs...)
}
