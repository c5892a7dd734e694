package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/learning-tracker/internal/apperror"
	"github.com/sakif/learning-tracker/internal/model"
	"github.com/sakif/learning-tracker/internal/repository"
)

func newTestTechnologyService(t *testing.T) (*TechnologyService, *fakeKV) {
	t.Helper()
	kv := newFakeKV()
	svc := NewTechnologyService(kv, nil, testLogger(), TechnologyOptions{Clock: steppingClock()})
	return svc, kv
}

func addTech(t *testing.T, svc *TechnologyService, title string) *model.Technology {
	t.Helper()
	tech, err := svc.Append(context.Background(), TechnologyInput{Title: title})
	require.NoError(t, err)
	return tech
}

// =========================================================================
// LOAD TESTS
// =========================================================================

func TestLoad_MissingKeyIsEmpty(t *testing.T) {
	svc, _ := newTestTechnologyService(t)

	techs, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, techs)
	assert.Empty(t, techs)
}

func TestLoad_CorruptBlobIsEmpty(t *testing.T) {
	svc, kv := newTestTechnologyService(t)
	kv.data[repository.KeyTechnologies] = "{not json"

	techs, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, techs)
}

func TestLoad_StoreFailureIsEmpty(t *testing.T) {
	svc, kv := newTestTechnologyService(t)
	kv.getErr = errors.New("disk on fire")

	techs, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, techs)
}

func TestLoad_FillsDefaultsOnStoredRecords(t *testing.T) {
	svc, kv := newTestTechnologyService(t)
	kv.data[repository.KeyTechnologies] = `[{"id":7,"title":"Go"}]`

	techs, err := svc.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, techs, 1)
	assert.Equal(t, model.CategoryOther, techs[0].Category)
	assert.Equal(t, model.StatusNotStarted, techs[0].Status)
	assert.Equal(t, model.DifficultyBeginner, techs[0].Difficulty)
	assert.NotNil(t, techs[0].Resources)
}

func TestLoad_LatencyHonoursCancellation(t *testing.T) {
	kv := newFakeKV()
	svc := NewTechnologyService(kv, nil, testLogger(), TechnologyOptions{Latency: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// =========================================================================
// APPEND TESTS
// =========================================================================

func TestAppend_PersistsWithDefaults(t *testing.T) {
	svc, kv := newTestTechnologyService(t)

	tech, err := svc.Append(context.Background(), TechnologyInput{
		Title:     "  Go  ",
		Resources: []string{"https://go.dev", " ", "https://go.dev"},
	})
	require.NoError(t, err)

	assert.NotZero(t, tech.ID)
	assert.Equal(t, "Go", tech.Title)
	assert.Equal(t, model.CategoryOther, tech.Category)
	assert.Equal(t, model.StatusNotStarted, tech.Status)
	assert.Equal(t, []string{"https://go.dev"}, tech.Resources)
	assert.Equal(t, tech.CreatedAt, tech.UpdatedAt)

	var stored []model.Technology
	require.NoError(t, json.Unmarshal([]byte(kv.raw(repository.KeyTechnologies)), &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, tech.ID, stored[0].ID)
}

func TestAppend_IDsAreUnique(t *testing.T) {
	kv := newFakeKV()
	fixed := func() time.Time { return testNow }
	svc := NewTechnologyService(kv, nil, testLogger(), TechnologyOptions{Clock: fixed})

	seen := map[int64]bool{}
	for i := 0; i < 5; i++ {
		tech := addTech(t, svc, "same millisecond")
		assert.False(t, seen[tech.ID], "id %d reused", tech.ID)
		seen[tech.ID] = true
	}
}

func TestAppend_IDsNeverCollideWithStoredRecords(t *testing.T) {
	kv := newFakeKV()
	// stored id is far in the future relative to the clock
	kv.data[repository.KeyTechnologies] = `[{"id":99999999999999,"title":"Future"}]`
	svc := NewTechnologyService(kv, nil, testLogger(), TechnologyOptions{Clock: steppingClock()})

	tech := addTech(t, svc, "Now")
	assert.Greater(t, tech.ID, int64(99999999999999))
}

func TestAppend_StampsCreatedBy(t *testing.T) {
	kv := newFakeKV()
	who := &model.Identity{ID: 1, Username: "admin", Name: "Администратор", Role: model.RoleAdmin}
	svc := NewTechnologyService(kv, fakeIdentity{who: who}, testLogger(), TechnologyOptions{Clock: steppingClock()})

	tech := addTech(t, svc, "Go")
	assert.Equal(t, "Администратор", tech.CreatedBy)
}

func TestAppend_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input TechnologyInput
		field string
	}{
		{"blank title", TechnologyInput{Title: "   "}, "title"},
		{"unknown category", TechnologyInput{Title: "Go", Category: "cooking"}, "category"},
		{"unknown status", TechnologyInput{Title: "Go", Status: "done"}, "status"},
		{"unknown difficulty", TechnologyInput{Title: "Go", Difficulty: "expert"}, "difficulty"},
		{"past deadline", TechnologyInput{Title: "Go", Deadline: mustDate(t, "2026-02-28")}, "deadline"},
		{"bad resource", TechnologyInput{Title: "Go", Resources: []string{"ftp://x"}}, "resources"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, kv := newTestTechnologyService(t)

			_, err := svc.Append(context.Background(), tt.input)
			require.ErrorIs(t, err, apperror.ErrValidation)

			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.field, appErr.Field)
			assert.Zero(t, kv.writes)
		})
	}
}

func TestAppend_DeadlineTodayIsAllowed(t *testing.T) {
	svc, _ := newTestTechnologyService(t)

	tech, err := svc.Append(context.Background(), TechnologyInput{Title: "Go", Deadline: mustDate(t, "2026-03-01")})
	require.NoError(t, err)
	require.NotNil(t, tech.Deadline)
	assert.Equal(t, "2026-03-01", tech.Deadline.String())
}

func TestAppend_EmptyDeadlineMeansNone(t *testing.T) {
	svc, kv := newTestTechnologyService(t)

	// the form sends "" when no date was picked
	var in TechnologyInput
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Go","deadline":""}`), &in))

	tech, err := svc.Append(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, tech.Deadline)

	raw := kv.raw(repository.KeyTechnologies)
	assert.NotContains(t, raw, "deadline")
	assert.NotContains(t, raw, "0001-01-01")
}

func TestAppend_StoreWriteFailure(t *testing.T) {
	svc, kv := newTestTechnologyService(t)
	kv.setErr = errors.New("quota exceeded")

	_, err := svc.Append(context.Background(), TechnologyInput{Title: "Go"})
	assert.ErrorIs(t, err, apperror.ErrStorage)
}

func TestAppend_StoreReadFailureWritesNothing(t *testing.T) {
	svc, kv := newTestTechnologyService(t)
	kv.getErr = errors.New("locked")

	_, err := svc.Append(context.Background(), TechnologyInput{Title: "Go"})
	assert.ErrorIs(t, err, apperror.ErrStorage)
	assert.Zero(t, kv.writes)
}

// =========================================================================
// UPDATE / REMOVE TESTS
// =========================================================================

func TestUpdateByID_MergesPatch(t *testing.T) {
	svc, _ := newTestTechnologyService(t)
	tech := addTech(t, svc, "Go")

	status := model.StatusCompleted
	title := "Golang"
	updated, err := svc.UpdateByID(context.Background(), tech.ID, TechnologyPatch{Status: &status, Title: &title})
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.Equal(t, "Golang", updated.Title)
	assert.Equal(t, model.StatusCompleted, updated.Status)
	assert.Equal(t, tech.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(tech.UpdatedAt))
}

func TestUpdateByID_UnknownIDWritesNothing(t *testing.T) {
	svc, kv := newTestTechnologyService(t)
	addTech(t, svc, "Go")
	before := kv.raw(repository.KeyTechnologies)
	writes := kv.writes

	status := model.StatusCompleted
	updated, err := svc.UpdateByID(context.Background(), 42, TechnologyPatch{Status: &status})
	require.NoError(t, err)
	assert.Nil(t, updated)
	assert.Equal(t, before, kv.raw(repository.KeyTechnologies))
	assert.Equal(t, writes, kv.writes)
}

func TestUpdateByID_ClearDeadline(t *testing.T) {
	svc, _ := newTestTechnologyService(t)
	tech, err := svc.Append(context.Background(), TechnologyInput{Title: "Go", Deadline: mustDate(t, "2026-04-01")})
	require.NoError(t, err)

	updated, err := svc.UpdateByID(context.Background(), tech.ID, TechnologyPatch{ClearDeadline: true})
	require.NoError(t, err)
	assert.Nil(t, updated.Deadline)
}

func TestUpdateByID_EmptyDeadlineClears(t *testing.T) {
	svc, kv := newTestTechnologyService(t)
	tech, err := svc.Append(context.Background(), TechnologyInput{Title: "Go", Deadline: mustDate(t, "2026-04-01")})
	require.NoError(t, err)

	var patch TechnologyPatch
	require.NoError(t, json.Unmarshal([]byte(`{"deadline":""}`), &patch))

	updated, err := svc.UpdateByID(context.Background(), tech.ID, patch)
	require.NoError(t, err)
	assert.Nil(t, updated.Deadline)

	raw := kv.raw(repository.KeyTechnologies)
	assert.NotContains(t, raw, "deadline")
	assert.NotContains(t, raw, "0001-01-01")
}

func TestUpdateByID_RejectsInvalidStatus(t *testing.T) {
	svc, _ := newTestTechnologyService(t)
	tech := addTech(t, svc, "Go")

	bad := model.Status("finished")
	_, err := svc.UpdateByID(context.Background(), tech.ID, TechnologyPatch{Status: &bad})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestSetStatus(t *testing.T) {
	svc, _ := newTestTechnologyService(t)
	tech := addTech(t, svc, "Go")

	updated, err := svc.SetStatus(context.Background(), tech.ID, model.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, updated.Status)
}

func TestSetStatus_KeepsEmptyResourcesArray(t *testing.T) {
	svc, kv := newTestTechnologyService(t)
	tech := addTech(t, svc, "Go")

	updated, err := svc.SetStatus(context.Background(), tech.ID, model.StatusCompleted)
	require.NoError(t, err)
	assert.NotNil(t, updated.Resources)
	assert.Empty(t, updated.Resources)

	raw := kv.raw(repository.KeyTechnologies)
	assert.Contains(t, raw, `"resources":[]`)
	assert.NotContains(t, raw, `"resources":null`)
}

func TestRemoveByID(t *testing.T) {
	svc, _ := newTestTechnologyService(t)
	keep := addTech(t, svc, "Keep")
	drop := addTech(t, svc, "Drop")

	removed, err := svc.RemoveByID(context.Background(), drop.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.RemoveByID(context.Background(), drop.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	techs, err := svc.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, techs, 1)
	assert.Equal(t, keep.ID, techs[0].ID)
}

// =========================================================================
// BULK / RESOURCE TESTS
// =========================================================================

func TestBulkSetStatus(t *testing.T) {
	svc, _ := newTestTechnologyService(t)
	a := addTech(t, svc, "A")
	b := addTech(t, svc, "B")
	c := addTech(t, svc, "C")

	n, err := svc.BulkSetStatus(context.Background(), []int64{a.ID, c.ID, 12345}, model.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := svc.Get(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNotStarted, got.Status)

	got, err = svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
}

func TestBulkSetStatus_RequiresSelection(t *testing.T) {
	svc, _ := newTestTechnologyService(t)

	_, err := svc.BulkSetStatus(context.Background(), nil, model.StatusCompleted)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestAddResource(t *testing.T) {
	svc, _ := newTestTechnologyService(t)
	tech := addTech(t, svc, "Go")

	updated, err := svc.AddResource(context.Background(), tech.ID, " https://go.dev/doc ")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://go.dev/doc"}, updated.Resources)

	_, err = svc.AddResource(context.Background(), tech.ID, "https://go.dev/doc")
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = svc.AddResource(context.Background(), tech.ID, "not a url")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	missing, err := svc.AddResource(context.Background(), 1, "https://go.dev")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRemoveResource(t *testing.T) {
	svc, _ := newTestTechnologyService(t)
	tech, err := svc.Append(context.Background(), TechnologyInput{
		Title:     "Go",
		Resources: []string{"https://go.dev", "https://pkg.go.dev"},
	})
	require.NoError(t, err)

	updated, err := svc.RemoveResource(context.Background(), tech.ID, "https://go.dev")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://pkg.go.dev"}, updated.Resources)
}

// =========================================================================
// QUERY TESTS
// =========================================================================

func TestGet_NotFound(t *testing.T) {
	svc, _ := newTestTechnologyService(t)

	_, err := svc.Get(context.Background(), 1)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSearch(t *testing.T) {
	svc, _ := newTestTechnologyService(t)
	_, err := svc.Append(context.Background(), TechnologyInput{Title: "React", Category: model.CategoryFrontend})
	require.NoError(t, err)
	_, err = svc.Append(context.Background(), TechnologyInput{Title: "PostgreSQL", Description: "Relational DB", Category: model.CategoryDatabase})
	require.NoError(t, err)

	tests := []struct {
		query string
		want  []string
	}{
		{"react", []string{"React"}},
		{"RELATIONAL", []string{"PostgreSQL"}},
		{"front", []string{"React"}},
		{"", nil},
		{"   ", nil},
		{"rust", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := svc.Search(context.Background(), tt.query)
			require.NoError(t, err)
			titles := make([]string, 0, len(got))
			for _, g := range got {
				titles = append(titles, g.Title)
			}
			assert.ElementsMatch(t, tt.want, titles)
		})
	}
}

func TestStatistics(t *testing.T) {
	svc, _ := newTestTechnologyService(t)
	for _, in := range []TechnologyInput{
		{Title: "A", Status: model.StatusCompleted, Category: model.CategoryFrontend},
		{Title: "B", Status: model.StatusInProgress, Category: model.CategoryFrontend},
		{Title: "C", Difficulty: model.DifficultyAdvanced},
	} {
		_, err := svc.Append(context.Background(), in)
		require.NoError(t, err)
	}

	stats, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.InProgress)
	assert.Equal(t, 1, stats.NotStarted)
	assert.Equal(t, 33, stats.CompletionPercent)
	assert.Equal(t, 2, stats.ByCategory[model.CategoryFrontend])
	assert.Equal(t, 1, stats.ByDifficulty[model.DifficultyAdvanced])
}

func TestStatistics_Empty(t *testing.T) {
	svc, _ := newTestTechnologyService(t)

	stats, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.CompletionPercent)
}

// =========================================================================
// IMPORT / EXPORT TESTS
// =========================================================================

func TestExport_RoundTripsThroughRestore(t *testing.T) {
	svc, _ := newTestTechnologyService(t)
	addTech(t, svc, "Go")
	addTech(t, svc, "Rust")

	data, name, err := svc.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "technologies_2026-03-01.json", name)
	assert.Contains(t, string(data), "\n  {")

	before, err := svc.Load(context.Background())
	require.NoError(t, err)

	result, err := svc.Restore(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)

	after, err := svc.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.Equal(t, before[i].Title, after[i].Title)
		assert.True(t, before[i].CreatedAt.Equal(after[i].CreatedAt))
	}
}

func TestImport_MergeKeepsExisting(t *testing.T) {
	svc, _ := newTestTechnologyService(t)
	kv := svc.kv.(*fakeKV)
	kv.data[repository.KeyTechnologies] = `[{"id":1,"title":"Original"}]`

	result, err := svc.Import(context.Background(), []byte(`[
		{"id":1,"title":"Replacement"},
		{"id":2,"title":"New","status":"completed"},
		{"title":"No id"}
	]`))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)
	assert.Equal(t, 1, result.Duplicates)

	got, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Original", got.Title)

	techs, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, techs, 3)
}

func TestMergeImported_AddsNewKeepsExisting(t *testing.T) {
	svc, kv := newTestTechnologyService(t)
	kv.data[repository.KeyTechnologies] = `[{"id":1,"title":"Original"}]`

	added, err := svc.MergeImported(context.Background(), []model.Technology{
		{ID: 1, Title: "Replacement"},
		{ID: 2, Title: "New"},
		{Title: "No id"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	got, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Original", got.Title)

	techs, err := svc.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, techs, 3)
	assert.Equal(t, []string{}, techs[1].Resources)
}

func TestMergeImported_IsIdempotent(t *testing.T) {
	svc, kv := newTestTechnologyService(t)
	incoming := []model.Technology{
		{ID: 10, Title: "React"},
		{ID: 11, Title: "Go", Status: model.StatusInProgress},
	}

	first, err := svc.MergeImported(context.Background(), incoming)
	require.NoError(t, err)
	assert.Equal(t, 2, first)
	after := kv.raw(repository.KeyTechnologies)
	writes := kv.writes

	second, err := svc.MergeImported(context.Background(), incoming)
	require.NoError(t, err)
	assert.Zero(t, second)
	assert.Equal(t, after, kv.raw(repository.KeyTechnologies))
	assert.Equal(t, writes, kv.writes, "nothing new, nothing written")
}

func TestImport_SameFileTwiceAddsNothing(t *testing.T) {
	svc, _ := newTestTechnologyService(t)
	file := []byte(`[{"id":1,"title":"React"},{"id":2,"title":"Go"}]`)

	result, err := svc.Import(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)

	result, err = svc.Import(context.Background(), file)
	require.NoError(t, err)
	assert.Zero(t, result.Added)
	assert.Equal(t, 2, result.Duplicates)

	techs, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, techs, 2)
}

func TestImport_AllRejectedNamesTheReason(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		reason  string
	}{
		{"missing title", `[{"description":"x"}]`, "each entry needs a title"},
		{"bad status", `[{"title":"Go","status":"done"}]`, `unknown status "done"`},
		{"bad category", `[{"title":"Go","category":"cooking"}]`, `unknown category "cooking"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestTechnologyService(t)

			_, err := svc.Import(context.Background(), []byte(tt.payload))
			require.ErrorIs(t, err, apperror.ErrMalformedImport)
			assert.Contains(t, apperror.MessageOf(err), tt.reason)
		})
	}
}

func TestImport_DropsInvalidEntries(t *testing.T) {
	svc, _ := newTestTechnologyService(t)

	result, err := svc.Import(context.Background(), []byte(`[
		{"title":"Good"},
		{"description":"no title"},
		{"title":"Bad status","status":"done"}
	]`))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	require.Len(t, result.Rejected, 2)
	assert.Equal(t, 2, result.Rejected[0].Index)
	assert.Equal(t, 3, result.Rejected[1].Index)
	assert.Contains(t, result.Message(), "dropped 2 invalid entries")
}

func TestImport_MalformedWritesNothing(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `{{{`},
		{"object", `{"title":"Go"}`},
		{"array of strings", `["Go"]`},
		{"no valid entries", `[{"description":"x"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, kv := newTestTechnologyService(t)

			_, err := svc.Import(context.Background(), []byte(tt.payload))
			assert.ErrorIs(t, err, apperror.ErrMalformedImport)
			assert.Zero(t, kv.writes)
		})
	}
}

func TestReplaceAll(t *testing.T) {
	svc, _ := newTestTechnologyService(t)
	addTech(t, svc, "Old")

	stored, err := svc.ReplaceAll(context.Background(), []model.Technology{
		{ID: 10, Title: "Fresh"},
	})
	require.NoError(t, err)
	require.Len(t, stored, 1)

	techs, err := svc.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, techs, 1)
	assert.Equal(t, int64(10), techs[0].ID)
	assert.Equal(t, model.CategoryOther, techs[0].Category)
}

func TestReplaceAll_EmptyClearsCollection(t *testing.T) {
	svc, kv := newTestTechnologyService(t)
	addTech(t, svc, "Old")

	_, err := svc.ReplaceAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", kv.raw(repository.KeyTechnologies))
}

// =========================================================================
// SEED TESTS
// =========================================================================

func TestSeedDemoData(t *testing.T) {
	svc, _ := newTestTechnologyService(t)

	seeded, err := svc.SeedDemoData(context.Background())
	require.NoError(t, err)
	assert.True(t, seeded)

	techs, err := svc.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, techs, 3)
	assert.Equal(t, "React", techs[0].Title)

	seeded, err = svc.SeedDemoData(context.Background())
	require.NoError(t, err)
	assert.False(t, seeded, "existing collection must not be reseeded")

	tech := addTech(t, svc, "After seed")
	assert.Greater(t, tech.ID, int64(3))
}

func TestSeedDemoData_LeavesEmptyCollectionAlone(t *testing.T) {
	svc, kv := newTestTechnologyService(t)
	kv.data[repository.KeyTechnologies] = "[]"

	seeded, err := svc.SeedDemoData(context.Background())
	require.NoError(t, err)
	assert.False(t, seeded)
}
