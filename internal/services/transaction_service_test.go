package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/amqp"
	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/query"
	"bilancio/internal/report"
	"bilancio/internal/storage/memory"
)

const owner = "owner-1"

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.TransactionChangedMessage
	err  error
}

func (p *recordingPublisher) PublishTransactionChanged(_ context.Context, msg *amqp.TransactionChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

type fixture struct {
	svc      *TransactionService
	store    *memory.Store
	pub      *recordingPublisher
	reports  *report.Cached
	category string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.New()
	catID := uuid.NewString()
	require.NoError(t, store.CreateCategory(context.Background(), core.Category{ID: catID, OwnerID: owner, Name: "Продукты"}))

	reports := report.NewCached(report.NewService(store, report.Options{}), cache.NewLocalStore(50, time.Minute))
	pub := &recordingPublisher{}
	svc := NewTransactionService(store, query.NewBuilder(100), reports, reports, pub)
	return fixture{svc: svc, store: store, pub: pub, reports: reports, category: catID}
}

func input(cents int64, typ core.TransactionType, date core.Date, desc string) core.TransactionInput {
	return core.TransactionInput{Amount: core.Cents(cents), Description: desc, Date: date, Type: typ}
}

func TestCreateAssignsIdentityAndPublishes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := input(150000, core.Expense, core.NewDate(2024, 5, 3), "  Аренда  ")
	in.CategoryID = f.category
	got, err := f.svc.Create(ctx, owner, in)
	require.NoError(t, err)

	_, err = uuid.Parse(got.ID)
	assert.NoError(t, err)
	assert.Equal(t, owner, got.OwnerID)
	assert.Equal(t, "Аренда", got.Description)
	assert.False(t, got.CreatedAt.IsZero())

	stored, err := f.svc.Get(ctx, owner, got.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Amount, stored.Amount)

	require.Len(t, f.pub.msgs, 1)
	assert.Equal(t, amqp.OpCreated, f.pub.msgs[0].Operation)
	assert.Equal(t, []int{2024}, f.pub.msgs[0].Years)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	date := core.NewDate(2024, 1, 1)

	tests := []struct {
		name string
		in   core.TransactionInput
		want error
	}{
		{"zero amount", input(0, core.Expense, date, "x"), core.ErrInvalidAmount},
		{"empty description", input(100, core.Expense, date, "   "), core.ErrEmptyDescription},
		{"bad type", input(100, "transfer", date, "x"), core.ErrInvalidType},
		{"missing date", input(100, core.Income, core.Date{}, "x"), core.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, owner, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, f.pub.msgs)
}

func TestCreateRejectsForeignCategory(t *testing.T) {
	f := newFixture(t)
	in := input(100, core.Expense, core.NewDate(2024, 1, 1), "x")
	in.CategoryID = f.category

	_, err := f.svc.Create(context.Background(), "owner-2", in)
	assert.ErrorIs(t, err, core.ErrNotFound)

	in.CategoryID = "not-a-uuid"
	_, err = f.svc.Create(context.Background(), owner, in)
	assert.ErrorIs(t, err, core.ErrInvalidFilter)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker down")

	got, err := f.svc.Create(context.Background(), owner, input(100, core.Income, core.NewDate(2024, 1, 1), "x"))
	require.NoError(t, err)

	_, err = f.store.Get(context.Background(), owner, got.ID)
	assert.NoError(t, err)
}

func TestUpdatePreservesIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, owner, input(100, core.Expense, core.NewDate(2023, 12, 31), "old"))
	require.NoError(t, err)

	amount := core.Cents(250)
	desc := "new"
	date := core.NewDate(2024, 1, 2)
	updated, err := f.svc.Update(ctx, owner, created.ID, core.TransactionPatch{Amount: &amount, Description: &desc, Date: &date})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, amount, updated.Amount)
	assert.Equal(t, core.Expense, updated.Type)

	require.Len(t, f.pub.msgs, 2)
	assert.Equal(t, []int{2023, 2024}, f.pub.msgs[1].Years)
}

func TestUpdateAndDeleteOtherOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, owner, input(100, core.Expense, core.NewDate(2024, 1, 1), "x"))
	require.NoError(t, err)

	desc := "stolen"
	_, err = f.svc.Update(ctx, "owner-2", created.ID, core.TransactionPatch{Description: &desc})
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, "owner-2", created.ID), core.ErrNotFound)

	require.NoError(t, f.svc.Delete(ctx, owner, created.ID))
	_, err = f.svc.Get(ctx, owner, created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, amqp.OpDeleted, f.pub.msgs[len(f.pub.msgs)-1].Operation)
}

func TestUpdateKeepsDanglingCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := input(100, core.Expense, core.NewDate(2024, 1, 1), "x")
	in.CategoryID = f.category
	created, err := f.svc.Create(ctx, owner, in)
	require.NoError(t, err)

	f.store.DeleteCategory(owner, f.category)

	notes := "still editable"
	same := f.category
	_, err = f.svc.Update(ctx, owner, created.ID, core.TransactionPatch{Notes: &notes, CategoryID: &same})
	assert.NoError(t, err)
}

func TestListPagesAndSearches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 1; i <= 12; i++ {
		in := input(int64(i*100), core.Expense, core.NewDate(2024, 3, i), "Покупка")
		if i == 7 {
			in.Notes = "Продукты на неделю"
		}
		_, err := f.svc.Create(ctx, owner, in)
		require.NoError(t, err)
	}

	page, err := f.svc.List(ctx, owner, core.FilterSpec{})
	require.NoError(t, err)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 10)
	assert.Equal(t, core.NewDate(2024, 3, 12), page.Items[0].Date)

	page, err = f.svc.List(ctx, owner, core.FilterSpec{Search: "продукты", Page: 1, Limit: 5})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, core.Cents(700), page.Items[0].Amount)

	_, err = f.svc.List(ctx, owner, core.FilterSpec{Type: "transfer"})
	assert.ErrorIs(t, err, core.ErrInvalidFilter)
}

func TestWritesInvalidateCachedReports(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, owner, input(1000, core.Income, core.NewDate(2024, 2, 1), "salary"))
	require.NoError(t, err)
	before, err := f.reports.Yearly(ctx, owner, 2024)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, owner, input(400, core.Expense, core.NewDate(2024, 2, 2), "food"))
	require.NoError(t, err)
	after, err := f.reports.Yearly(ctx, owner, 2024)
	require.NoError(t, err)

	assert.Equal(t, core.Cents(1000), before.Balance)
	assert.Equal(t, core.Cents(600), after.Balance)

	sum, err := f.svc.Summary(ctx, owner, core.DateRange{Start: core.NewDate(2024, 2, 2)})
	require.NoError(t, err)
	assert.Equal(t, core.Cents(400), sum.TotalExpense)
	assert.Equal(t, 1, sum.TransactionCount)
}

func TestSeedDefaultCategories(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	n, err := SeedDefaultCategories(ctx, store, owner)
	require.NoError(t, err)
	assert.Equal(t, len(core.DefaultCategories()), n)

	n, err = SeedDefaultCategories(ctx, store, owner)
	require.NoError(t, err)
	assert.Zero(t, n)

	cats, err := store.ListCategories(ctx, owner)
	require.NoError(t, err)
	require.Len(t, cats, len(core.DefaultCategories()))
	for _, c := range cats {
		assert.Equal(t, owner, c.OwnerID)
		assert.True(t, c.Default)
	}
}
