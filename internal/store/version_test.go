package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pactorhq/pactor/internal/models"
	"github.com/pactorhq/pactor/internal/store"
)

func TestVersionAppend(t *testing.T) {
	base, orgID := setupTestBase(t)
	cs := store.NewContractStore(base)
	vs := store.NewVersionStore(base)
	ctx := context.Background()

	c := createDraft(t, cs, orgID)

	v, entry, err := vs.Append(ctx, orgID, store.VersionWrite{
		ContractID:       c.ID,
		ExpectedSequence: c.CurrentSequence,
		FieldData:        c.FieldData,
		AnnexureData:     "revised body",
		CreatedByUserID:  "user-test",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if v.Sequence != 2 {
		t.Errorf("Sequence = %d, want 2", v.Sequence)
	}
	if entry.ToSequence != 2 {
		t.Errorf("ToSequence = %d, want 2", entry.ToSequence)
	}
	if entry.FromSequence == nil || *entry.FromSequence != 1 {
		t.Errorf("FromSequence = %v, want 1", entry.FromSequence)
	}

	// The CAS also advances the contract row.
	reloaded, err := cs.Get(ctx, orgID, c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if reloaded.CurrentSequence != 2 {
		t.Errorf("CurrentSequence = %d, want 2", reloaded.CurrentSequence)
	}
	if reloaded.AnnexureData != "revised body" {
		t.Errorf("AnnexureData = %q, want the appended body", reloaded.AnnexureData)
	}
}

// Business-column changes carried with the write land in the same CAS
// UPDATE; a conflicting append leaves them unapplied.
func TestVersionAppendBusinessColumns(t *testing.T) {
	base, orgID := setupTestBase(t)
	cs := store.NewContractStore(base)
	vs := store.NewVersionStore(base)
	ctx := context.Background()

	c := createDraft(t, cs, orgID)

	title := "Renamed Contract"
	_, _, err := vs.Append(ctx, orgID, store.VersionWrite{
		ContractID:       c.ID,
		ExpectedSequence: c.CurrentSequence,
		AnnexureData:     "revised body",
		CreatedByUserID:  "user-test",
		Business:         &models.UpdateContractRequest{Title: &title},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	reloaded, err := cs.Get(ctx, orgID, c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if reloaded.Title != title {
		t.Errorf("Title = %q, want %q", reloaded.Title, title)
	}
	if reloaded.AnnexureData != "revised body" {
		t.Errorf("AnnexureData = %q", reloaded.AnnexureData)
	}

	// A stale append must not apply its business columns either.
	other := "Sneaky Rename"
	_, _, err = vs.Append(ctx, orgID, store.VersionWrite{
		ContractID:       c.ID,
		ExpectedSequence: c.CurrentSequence, // stale: the append above advanced it
		AnnexureData:     "stale body",
		CreatedByUserID:  "user-test",
		Business:         &models.UpdateContractRequest{Title: &other},
	})
	if !errors.Is(err, models.ErrVersionConflict) {
		t.Fatalf("err = %v, want ErrVersionConflict", err)
	}

	reloaded, err = cs.Get(ctx, orgID, c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if reloaded.Title != title {
		t.Errorf("Title = %q after rejected append, want %q untouched", reloaded.Title, title)
	}
}

func TestVersionAppendStaleToken(t *testing.T) {
	base, orgID := setupTestBase(t)
	cs := store.NewContractStore(base)
	vs := store.NewVersionStore(base)
	ctx := context.Background()

	c := createDraft(t, cs, orgID)

	if _, _, err := vs.Append(ctx, orgID, store.VersionWrite{
		ContractID:       c.ID,
		ExpectedSequence: c.CurrentSequence,
		AnnexureData:     "v2",
		CreatedByUserID:  "user-test",
	}); err != nil {
		t.Fatalf("Append v2: %v", err)
	}

	// A second write still holding the old token must conflict, not overwrite.
	_, _, err := vs.Append(ctx, orgID, store.VersionWrite{
		ContractID:       c.ID,
		ExpectedSequence: c.CurrentSequence,
		AnnexureData:     "stale",
		CreatedByUserID:  "user-test",
	})
	if !errors.Is(err, models.ErrVersionConflict) {
		t.Errorf("err = %v, want ErrVersionConflict", err)
	}
}

// Appending to a contract outside DRAFT reports the live status and the
// actions still legal from it.
func TestVersionAppendOutsideDraft(t *testing.T) {
	base, orgID := setupTestBase(t)
	cs := store.NewContractStore(base)
	vs := store.NewVersionStore(base)
	ctx := context.Background()

	c := createDraft(t, cs, orgID)
	submitContract(t, cs, orgID, c.ID)

	_, _, err := vs.Append(ctx, orgID, store.VersionWrite{
		ContractID:       c.ID,
		ExpectedSequence: c.CurrentSequence,
		AnnexureData:     "late edit",
		CreatedByUserID:  "user-test",
	})

	ite, ok := models.IsInvalidTransition(err)
	if !ok {
		t.Fatalf("err = %v, want InvalidTransitionError", err)
	}
	if ite.Status != models.StatusPendingLegal {
		t.Errorf("carried status = %q, want %q", ite.Status, models.StatusPendingLegal)
	}
	if len(ite.Allowed) == 0 {
		t.Error("Allowed is empty, want the actions available from pending_legal")
	}
}

func TestVersionSequencesGapless(t *testing.T) {
	base, orgID := setupTestBase(t)
	cs := store.NewContractStore(base)
	vs := store.NewVersionStore(base)
	ctx := context.Background()

	c := createDraft(t, cs, orgID)

	for i := 0; i < 3; i++ {
		v, _, err := vs.Append(ctx, orgID, store.VersionWrite{
			ContractID:       c.ID,
			ExpectedSequence: c.CurrentSequence + i,
			AnnexureData:     "body",
			CreatedByUserID:  "user-test",
		})
		if err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
		if v.Sequence != c.CurrentSequence+i+1 {
			t.Errorf("Sequence = %d, want %d", v.Sequence, c.CurrentSequence+i+1)
		}
	}

	versions, hasMore, err := vs.List(ctx, orgID, models.VersionListQuery{ContractID: c.ID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if hasMore {
		t.Error("hasMore should be false")
	}
	if len(versions) != 4 {
		t.Fatalf("len = %d, want 4 (initial snapshot plus three appends)", len(versions))
	}
	// Newest first, no gaps.
	for i, v := range versions {
		if want := 4 - i; v.Sequence != want {
			t.Errorf("versions[%d].Sequence = %d, want %d", i, v.Sequence, want)
		}
	}
}

func TestVersionLatest(t *testing.T) {
	base, orgID := setupTestBase(t)
	cs := store.NewContractStore(base)
	vs := store.NewVersionStore(base)
	ctx := context.Background()

	c := createDraft(t, cs, orgID)

	// The create transaction already produced the baseline snapshot.
	latest, err := vs.Latest(ctx, orgID, c.ID)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest == nil || latest.Sequence != 1 {
		t.Fatalf("Latest = %+v, want the version 1 baseline", latest)
	}

	if _, _, err := vs.Append(ctx, orgID, store.VersionWrite{
		ContractID:       c.ID,
		ExpectedSequence: 1,
		AnnexureData:     "v2",
		CreatedByUserID:  "user-test",
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	latest, err = vs.Latest(ctx, orgID, c.ID)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest == nil || latest.Sequence != 2 {
		t.Errorf("Latest = %+v, want sequence 2", latest)
	}
}

func TestVersionGetChangelog(t *testing.T) {
	base, orgID := setupTestBase(t)
	cs := store.NewContractStore(base)
	vs := store.NewVersionStore(base)
	ctx := context.Background()

	c := createDraft(t, cs, orgID)

	oldVal := models.TextValue("net 30")
	newVal := models.TextValue("net 60")
	_, _, err := vs.Append(ctx, orgID, store.VersionWrite{
		ContractID:       c.ID,
		ExpectedSequence: c.CurrentSequence,
		FieldData:        map[string]models.FieldValue{"payment_terms": newVal},
		AnnexureData:     c.AnnexureData,
		FieldChanges: []models.FieldChange{
			{Field: "payment_terms", ChangeType: models.ChangeModified, OldValue: &oldVal, NewValue: &newVal},
		},
		CreatedByUserID: "user-test",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	entry, err := vs.GetChangelog(ctx, orgID, c.ID, 2)
	if err != nil {
		t.Fatalf("GetChangelog: %v", err)
	}
	if len(entry.FieldChanges) != 1 {
		t.Fatalf("FieldChanges len = %d, want 1", len(entry.FieldChanges))
	}
	fc := entry.FieldChanges[0]
	if fc.Field != "payment_terms" || fc.ChangeType != models.ChangeModified {
		t.Errorf("FieldChanges[0] = %+v", fc)
	}

	_, err = vs.GetChangelog(ctx, orgID, c.ID, 99)
	if !errors.Is(err, models.ErrVersionNotFound) {
		t.Errorf("missing sequence: err = %v, want ErrVersionNotFound", err)
	}
}
