// Package diff computes structured changelogs between contract snapshots:
// field-level changes by deep equality plus a line-based content diff of
// the free-text body. All functions are pure and deterministic.
package diff

import (
	"sort"

	"github.com/pactorhq/pactor/internal/models"
)

// Compute builds the changelog payload between two snapshots. prev is nil
// for the first version, in which case no field changes are emitted and
// the whole body counts as additions. Field changes are sorted by field
// key; the content change, if any, comes last in the persisted entry.
func Compute(prev *models.Snapshot, curr models.Snapshot) ([]models.FieldChange, *models.ContentChange) {
	if prev == nil {
		lines := SplitLines(curr.AnnexureData)
		if len(lines) == 0 {
			return nil, nil
		}

		return nil, &models.ContentChange{
			ChangeType: models.ChangeContentModified,
			DiffStats:  models.DiffStats{Additions: len(lines)},
		}
	}

	fields := diffFields(prev.FieldData, curr.FieldData)

	var content *models.ContentChange

	if prev.AnnexureData != curr.AnnexureData {
		additions, deletions := Stats(Lines(SplitLines(prev.AnnexureData), SplitLines(curr.AnnexureData)))
		content = &models.ContentChange{
			ChangeType: models.ChangeContentModified,
			DiffStats:  models.DiffStats{Additions: additions, Deletions: deletions},
		}
	}

	return fields, content
}

// diffFields emits one FieldChange per key present in either map whose
// values are not deeply equal. Unchanged keys are omitted.
func diffFields(oldFields, newFields map[string]models.FieldValue) []models.FieldChange {
	keys := make([]string, 0, len(oldFields)+len(newFields))
	seen := make(map[string]struct{}, len(oldFields)+len(newFields))

	for k := range oldFields {
		keys = append(keys, k)
		seen[k] = struct{}{}
	}

	for k := range newFields {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}

	sort.Strings(keys)

	var changes []models.FieldChange

	for _, k := range keys {
		oldVal, hadOld := oldFields[k]
		newVal, hasNew := newFields[k]

		switch {
		case !hadOld && hasNew:
			v := newVal
			changes = append(changes, models.FieldChange{Field: k, ChangeType: models.ChangeAdded, NewValue: &v})
		case hadOld && !hasNew:
			v := oldVal
			changes = append(changes, models.FieldChange{Field: k, ChangeType: models.ChangeRemoved, OldValue: &v})
		case hadOld && hasNew && !oldVal.Equal(newVal):
			o, n := oldVal, newVal
			changes = append(changes, models.FieldChange{Field: k, ChangeType: models.ChangeModified, OldValue: &o, NewValue: &n})
		}
	}

	return changes
}

// Changed reports whether two snapshots differ at all. VersioningService
// uses this for its idempotent no-op check before allocating a sequence.
func Changed(prev, curr models.Snapshot) bool {
	if prev.AnnexureData != curr.AnnexureData {
		return true
	}

	if len(prev.FieldData) != len(curr.FieldData) {
		return true
	}

	for k, oldVal := range prev.FieldData {
		newVal, ok := curr.FieldData[k]
		if !ok || !oldVal.Equal(newVal) {
			return true
		}
	}

	return false
}
