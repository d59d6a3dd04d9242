package state

import (
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/envelope"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/geometry"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/timeline"
)

// Apply returns the state that results from applying a to s. s itself is
// never modified and the result shares no memory with it.
//
// Every known action other than UNDO and REDO first pushes a snapshot of s
// onto the undo stack and clears the redo stack, even when its effect turns
// out to be empty (unknown id, locked object). Unknown action types return
// s unchanged.
func Apply(s State, a Action) State {
	switch a.Type {
	case ActionUndo:
		return undo(s)
	case ActionRedo:
		return redo(s)
	}

	effect, ok := effects[a.Type]
	if !ok {
		return s
	}

	next := s.Clone()
	next.UndoStack = append(next.UndoStack, s.Snapshot())
	next.RedoStack = []Snapshot{}
	effect(&next, a)
	return next
}

func undo(s State) State {
	if len(s.UndoStack) == 0 {
		return s
	}
	next := s.Clone()
	top := next.UndoStack[len(next.UndoStack)-1]
	next.UndoStack = next.UndoStack[:len(next.UndoStack)-1]
	next.RedoStack = append(next.RedoStack, next.Snapshot())
	next.restore(top)
	return next
}

func redo(s State) State {
	if len(s.RedoStack) == 0 {
		return s
	}
	next := s.Clone()
	top := next.RedoStack[len(next.RedoStack)-1]
	next.RedoStack = next.RedoStack[:len(next.RedoStack)-1]
	next.UndoStack = append(next.UndoStack, next.Snapshot())
	next.restore(top)
	return next
}

// effects mutate a private copy of the state in place.
var effects = map[ActionType]func(*State, Action){
	ActionAddObject:               addObject,
	ActionMoveObject:              moveObject,
	ActionRotateObject:            rotateObject,
	ActionDeleteObject:            deleteObject,
	ActionSetKeyframe:             setKeyframe,
	ActionToggleEnvelope:          toggleEnvelope,
	ActionSelectObject:            selectObject,
	ActionDeselectObject:          deselectObject,
	ActionClearSelection:          clearSelection,
	ActionAddKeyframe:             addKeyframe,
	ActionUpdateKeyframe:          updateKeyframe,
	ActionDeleteKeyframe:          deleteKeyframe,
	ActionUpdateObjectAtKeyframe:  updateObjectAtKeyframe,
	ActionSetTime:                 setTime,
	ActionApplyInterpolatedStates: applyInterpolatedStates,
}

func (s *State) record(a Action, objectID, keyframeID string, oldV, newV *ChangeValue) {
	s.ChangeHistory = append(s.ChangeHistory, ChangeEntry{
		Action:     a.Type,
		At:         a.At,
		ObjectID:   objectID,
		KeyframeID: keyframeID,
		OldValue:   oldV,
		NewValue:   newV,
	})
}

func addObject(s *State, a Action) {
	if a.Object == nil || a.Object.ID == "" || s.objectIndex(a.Object.ID) >= 0 {
		return
	}
	obj := a.Object.Clone()
	s.Objects = append(s.Objects, obj)
	logged := obj.Clone()
	s.record(a, obj.ID, "", nil, &ChangeValue{Object: &logged})
}

// editable returns the index of an existing, unlocked object or -1.
func (s *State) editable(id string) int {
	i := s.objectIndex(id)
	if i < 0 || s.Objects[i].Locked {
		return -1
	}
	return i
}

func moveObject(s *State, a Action) {
	i := s.editable(a.ObjectID)
	if i < 0 {
		return
	}
	oldPos, newPos := s.Objects[i].Position, a.Position
	s.Objects[i].Position = newPos
	s.record(a, a.ObjectID, "", &ChangeValue{Position: &oldPos}, &ChangeValue{Position: &newPos})
}

func rotateObject(s *State, a Action) {
	i := s.editable(a.ObjectID)
	if i < 0 {
		return
	}
	oldRot, newRot := s.Objects[i].Rotation, geometry.NormalizeAngle(a.Rotation)
	s.Objects[i].Rotation = newRot
	s.record(a, a.ObjectID, "", &ChangeValue{Rotation: &oldRot}, &ChangeValue{Rotation: &newRot})
}

func deleteObject(s *State, a Action) {
	i := s.editable(a.ObjectID)
	if i < 0 {
		return
	}
	old := s.Objects[i]
	s.Objects = append(s.Objects[:i], s.Objects[i+1:]...)
	s.SelectedIDs = without(s.SelectedIDs, a.ObjectID)
	s.record(a, a.ObjectID, "", &ChangeValue{Object: &old}, nil)
}

func setKeyframe(s *State, a Action) {
	if a.Index < 0 || a.Index >= len(s.Timeline.Keyframes) {
		return
	}
	s.CurrentKeyframeIndex = a.Index
	s.Timeline.CurrentTime = s.Timeline.Keyframes[a.Index].Timestamp
}

func toggleEnvelope(s *State, a Action) {
	s.Envelopes.Toggle(envelope.Kind(a.Envelope))
}

func selectObject(s *State, a Action) {
	if s.objectIndex(a.ObjectID) < 0 || s.IsSelected(a.ObjectID) {
		return
	}
	s.SelectedIDs = append(s.SelectedIDs, a.ObjectID)
}

func deselectObject(s *State, a Action) {
	s.SelectedIDs = without(s.SelectedIDs, a.ObjectID)
}

func clearSelection(s *State, _ Action) {
	s.SelectedIDs = []string{}
}

func addKeyframe(s *State, a Action) {
	if a.Keyframe == nil || timeline.IndexOf(s.Timeline.Keyframes, a.Keyframe.ID) >= 0 {
		return
	}
	kf := a.Keyframe.Clone()
	if kf.ObjectStates == nil {
		kf.ObjectStates = map[string]timeline.ObjectState{}
	}
	s.Timeline.Keyframes = timeline.InsertKeyframe(s.Timeline.Keyframes, kf)
	s.extendDuration(kf.Timestamp)
	logged := kf.Clone()
	s.record(a, "", kf.ID, nil, &ChangeValue{Keyframe: &logged})
}

func updateKeyframe(s *State, a Action) {
	i := timeline.IndexOf(s.Timeline.Keyframes, a.KeyframeID)
	if i < 0 || a.Patch == nil {
		return
	}
	old := s.Timeline.Keyframes[i].Clone()
	kf := &s.Timeline.Keyframes[i]
	if a.Patch.Timestamp != nil {
		kf.Timestamp = *a.Patch.Timestamp
	}
	if a.Patch.Label != nil {
		kf.Label = *a.Patch.Label
	}
	if len(a.Patch.ObjectStates) > 0 && kf.ObjectStates == nil {
		kf.ObjectStates = make(map[string]timeline.ObjectState, len(a.Patch.ObjectStates))
	}
	for id, os := range a.Patch.ObjectStates {
		kf.ObjectStates[id] = os.Clone()
	}
	updated := kf.Clone()
	timeline.SortKeyframes(s.Timeline.Keyframes)
	s.extendDuration(updated.Timestamp)
	s.record(a, "", a.KeyframeID, &ChangeValue{Keyframe: &old}, &ChangeValue{Keyframe: &updated})
}

func deleteKeyframe(s *State, a Action) {
	i := timeline.IndexOf(s.Timeline.Keyframes, a.KeyframeID)
	if i < 0 {
		return
	}
	old := s.Timeline.Keyframes[i]
	s.Timeline.Keyframes = append(s.Timeline.Keyframes[:i], s.Timeline.Keyframes[i+1:]...)
	if last := len(s.Timeline.Keyframes) - 1; s.CurrentKeyframeIndex > last {
		s.CurrentKeyframeIndex = max(last, 0)
	}
	s.record(a, "", a.KeyframeID, &ChangeValue{Keyframe: &old}, nil)
}

func updateObjectAtKeyframe(s *State, a Action) {
	i := timeline.IndexOf(s.Timeline.Keyframes, a.KeyframeID)
	if i < 0 || a.ObjectState == nil || a.ObjectID == "" {
		return
	}
	kf := &s.Timeline.Keyframes[i]
	if kf.ObjectStates == nil {
		kf.ObjectStates = map[string]timeline.ObjectState{}
	}
	var oldV *ChangeValue
	if prev, ok := kf.ObjectStates[a.ObjectID]; ok {
		oldV = &ChangeValue{ObjectState: &prev}
	}
	next := a.ObjectState.Clone()
	kf.ObjectStates[a.ObjectID] = next
	logged := next.Clone()
	s.record(a, a.ObjectID, a.KeyframeID, oldV, &ChangeValue{ObjectState: &logged})
}

func setTime(s *State, a Action) {
	t := a.Time
	if t < 0 {
		t = 0
	}
	if t > s.Timeline.Duration {
		t = s.Timeline.Duration
	}
	s.Timeline.CurrentTime = t
}

// applyInterpolatedStates writes playback poses back into the objects.
// Locked objects are animated too: the lock only guards against edits.
func applyInterpolatedStates(s *State, a Action) {
	for i := range s.Objects {
		st, ok := a.States[s.Objects[i].ID]
		if !ok {
			continue
		}
		obj := &s.Objects[i]
		obj.Position = st.Position
		obj.Rotation = geometry.NormalizeAngle(st.Rotation)
		obj.Hidden = !st.Visible
		if len(st.Properties) == 0 {
			continue
		}
		if obj.Properties == nil {
			obj.Properties = make(map[string]any, len(st.Properties))
		}
		for k, v := range timeline.CloneProperties(st.Properties) {
			obj.Properties[k] = v
		}
	}
}

func (s *State) extendDuration(t float64) {
	if t > s.Timeline.Duration {
		s.Timeline.Duration = t
	}
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
