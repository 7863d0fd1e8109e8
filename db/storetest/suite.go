// ABOUTME: Conformance tests every Store backend must pass
// ABOUTME: Backends call Run from their own tests with a constructor for a fresh store
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harperreed/orgmap/db"
	"github.com/harperreed/orgmap/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store; the suite closes it.
type Factory func(t *testing.T) db.Store

// Run executes the full contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s db.Store)
	}{
		{"Accounts", testAccounts},
		{"CreateAndGet", testCreateAndGet},
		{"CreateConflict", testCreateConflict},
		{"StorageOrder", testStorageOrder},
		{"FindAcrossAccounts", testFindAcrossAccounts},
		{"SavePersonsKeepsCreatedAt", testSavePersonsKeepsCreatedAt},
		{"BulkUpdate", testBulkUpdate},
		{"BulkUpdateIsAtomic", testBulkUpdateIsAtomic},
		{"DeleteGuard", testDeleteGuard},
		{"DeleteDetachesFromManager", testDeleteDetachesFromManager},
		{"LastWriteWins", testLastWriteWins},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

const acct = "acct-1"

func newPerson(email, manager string, reportees ...string) models.Person {
	p := models.Person{Email: email, Name: email, AccountID: acct, Reportees: reportees}
	if manager != "" {
		p.ReportingTo = []string{manager}
	}
	p.Normalize()
	return p
}

// Seed writes ceo -> mgr -> ic into acct.
func Seed(t *testing.T, s db.Store) {
	ctx := context.Background()
	for _, p := range []models.Person{
		newPerson("ceo@x.io", "", "mgr@x.io"),
		newPerson("mgr@x.io", "ceo@x.io", "ic@x.io"),
		newPerson("ic@x.io", "mgr@x.io"),
	} {
		p := p
		require.NoError(t, s.CreatePerson(ctx, &p))
	}
}

func emails(persons []models.Person) []string {
	out := make([]string, len(persons))
	for i, p := range persons {
		out[i] = p.Email
	}
	return out
}

func get(t *testing.T, s db.Store, email string) *models.Person {
	p, err := s.GetPerson(context.Background(), acct, email)
	require.NoError(t, err)
	return p
}

func testAccounts(t *testing.T, s db.Store) {
	ctx := context.Background()

	_, err := s.GetAccount(ctx, "missing")
	assert.ErrorIs(t, err, db.ErrNotFound)

	a := &models.Account{Name: "Zeta", Active: true, BusinessUnit: []string{"Cloud"}}
	require.NoError(t, s.SaveAccount(ctx, a))
	require.NotEmpty(t, a.ID)
	created := a.CreatedAt

	b := &models.Account{ID: "b-id", Name: "Alpha", Locations: []models.Location{{City: "Pune", Country: "India"}}}
	require.NoError(t, s.SaveAccount(ctx, b))

	all, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Alpha", all[0].Name)

	a.Name = "Zeta Corp"
	require.NoError(t, s.SaveAccount(ctx, a))
	got, err := s.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Zeta Corp", got.Name)
	assert.Equal(t, []string{"Cloud"}, got.BusinessUnit)
	assert.WithinDuration(t, created, got.CreatedAt, time.Second)
}

func testCreateAndGet(t *testing.T, s db.Store) {
	Seed(t, s)

	p := get(t, s, "MGR@X.IO")
	assert.Equal(t, "mgr@x.io", p.Email)
	assert.Equal(t, []string{"ceo@x.io"}, p.ReportingTo)
	assert.Equal(t, []string{"ic@x.io"}, p.Reportees)
	assert.Equal(t, models.SentimentUnknown, p.Sentiment)
	assert.False(t, p.CreatedAt.IsZero())

	_, err := s.GetPerson(context.Background(), acct, "ghost@x.io")
	assert.ErrorIs(t, err, db.ErrNotFound)
	_, err = s.GetPerson(context.Background(), "other", "mgr@x.io")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func testCreateConflict(t *testing.T, s db.Store) {
	Seed(t, s)
	dup := newPerson("CEO@x.io", "")
	err := s.CreatePerson(context.Background(), &dup)
	assert.ErrorIs(t, err, db.ErrConflict)

	other := newPerson("ceo@x.io", "")
	other.AccountID = "acct-2"
	assert.NoError(t, s.CreatePerson(context.Background(), &other), "same email in another account")
}

func testStorageOrder(t *testing.T, s db.Store) {
	ctx := context.Background()
	Seed(t, s)

	ic := get(t, s, "ic@x.io")
	ic.Designation = "Engineer"
	require.NoError(t, s.SavePersons(ctx, acct, []models.Person{*ic, newPerson("new@x.io", "")}))

	all, err := s.ListPersons(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, []string{"ceo@x.io", "mgr@x.io", "ic@x.io", "new@x.io"}, emails(all))
	assert.Equal(t, "Engineer", all[2].Designation)

	none, err := s.ListPersons(ctx, "empty")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func testFindAcrossAccounts(t *testing.T, s db.Store) {
	ctx := context.Background()
	Seed(t, s)
	twin := newPerson("mgr@x.io", "")
	twin.AccountID = "acct-2"
	require.NoError(t, s.CreatePerson(ctx, &twin))

	found, err := s.FindPersonsByEmail(ctx, "Mgr@x.io")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, acct, found[0].AccountID)
	assert.Equal(t, "acct-2", found[1].AccountID)

	found, err = s.FindPersonsByEmail(ctx, "ghost@x.io")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func testSavePersonsKeepsCreatedAt(t *testing.T, s db.Store) {
	ctx := context.Background()
	Seed(t, s)
	before := get(t, s, "ceo@x.io")

	update := before.Clone()
	update.CreatedAt = time.Time{}
	update.AccountID = ""
	update.Name = "Chief"
	require.NoError(t, s.SavePersons(ctx, acct, []models.Person{update}))

	after := get(t, s, "ceo@x.io")
	assert.Equal(t, "Chief", after.Name)
	assert.Equal(t, acct, after.AccountID)
	assert.WithinDuration(t, before.CreatedAt, after.CreatedAt, time.Millisecond)
	assert.False(t, after.UpdatedAt.Before(before.UpdatedAt))
}

func testBulkUpdate(t *testing.T, s db.Store) {
	ctx := context.Background()
	Seed(t, s)

	err := s.ApplyBulkUpdate(ctx, acct, []models.RelationUpdate{
		{Email: "ic@x.io", ReportingTo: []string{"ceo@x.io"}, Reportees: []string{}},
		{Email: "mgr@x.io", ReportingTo: []string{"ceo@x.io"}, Reportees: []string{}},
		{Email: "ceo@x.io", ReportingTo: []string{}, Reportees: []string{"mgr@x.io", "ic@x.io"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"ceo@x.io"}, get(t, s, "ic@x.io").ReportingTo)
	assert.Empty(t, get(t, s, "mgr@x.io").Reportees)
	ceo := get(t, s, "ceo@x.io")
	assert.Equal(t, []string{"mgr@x.io", "ic@x.io"}, ceo.Reportees)
	assert.Equal(t, "ceo@x.io", ceo.Name, "profile fields untouched")
}

func testBulkUpdateIsAtomic(t *testing.T, s db.Store) {
	ctx := context.Background()
	Seed(t, s)

	err := s.ApplyBulkUpdate(ctx, acct, []models.RelationUpdate{
		{Email: "ic@x.io", ReportingTo: []string{"ceo@x.io"}, Reportees: []string{}},
		{Email: "ghost@x.io", ReportingTo: []string{}, Reportees: []string{}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrNotFound))

	assert.Equal(t, []string{"mgr@x.io"}, get(t, s, "ic@x.io").ReportingTo, "no partial write")
}

func testDeleteGuard(t *testing.T, s db.Store) {
	ctx := context.Background()
	Seed(t, s)

	err := s.DeletePerson(ctx, acct, "mgr@x.io")
	assert.ErrorIs(t, err, db.ErrHasReportees)
	assert.Contains(t, err.Error(), "1 direct report")
	get(t, s, "mgr@x.io")

	assert.ErrorIs(t, s.DeletePerson(ctx, acct, "ghost@x.io"), db.ErrNotFound)
}

func testDeleteDetachesFromManager(t *testing.T, s db.Store) {
	ctx := context.Background()
	Seed(t, s)

	require.NoError(t, s.DeletePerson(ctx, acct, "IC@x.io"))
	_, err := s.GetPerson(ctx, acct, "ic@x.io")
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.Empty(t, get(t, s, "mgr@x.io").Reportees)

	all, err := s.ListPersons(ctx, acct)
	require.NoError(t, err)
	assert.Equal(t, []string{"ceo@x.io", "mgr@x.io"}, emails(all))
}

// Two editors load the same record and save in turn; the later save wins
// without any conflict being reported.
func testLastWriteWins(t *testing.T, s db.Store) {
	ctx := context.Background()
	Seed(t, s)

	first := get(t, s, "ic@x.io")
	second := get(t, s, "ic@x.io")

	first.Designation = "Staff Engineer"
	require.NoError(t, s.SavePersons(ctx, acct, []models.Person{*first}))
	second.Location = "Berlin"
	require.NoError(t, s.SavePersons(ctx, acct, []models.Person{*second}))

	final := get(t, s, "ic@x.io")
	assert.Equal(t, "Berlin", final.Location)
	assert.Empty(t, final.Designation, "first editor's change silently lost")
}
