package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

// fakeDB fails every statement whose first argument is in bad.
type fakeDB struct {
	bad   map[string]bool
	execs int
}

func (f *fakeDB) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	res := &fakeBatch{}
	for _, q := range b.QueuedQueries {
		var err error
		if f.bad[q.Arguments[0].(string)] {
			err = errors.New("violates foreign key constraint")
		}
		res.errs = append(res.errs, err)
	}
	return res
}

func (f *fakeDB) Exec(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
	f.execs++
	if f.bad[args[0].(string)] {
		return pgconn.CommandTag{}, errors.New("violates foreign key constraint")
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

type fakeBatch struct {
	errs []error
	i    int
}

func (b *fakeBatch) Exec() (pgconn.CommandTag, error) {
	err := b.errs[b.i]
	b.i++
	return pgconn.CommandTag{}, err
}

func (b *fakeBatch) Query() (pgx.Rows, error) { return nil, errors.New("not supported") }
func (b *fakeBatch) QueryRow() pgx.Row { return nil }
func (b *fakeBatch) Close() error { return nil }

func keyOf(s string) string { return s }
func argsOf(s string) []any { return []any{s} }

func TestUpsertAll_CleanBatch(t *testing.T) {
	db := &fakeDB{}
	var result SeedResult

	n := upsertAll(context.Background(), db, "races", "INSERT", []string{"1", "2", "3"}, keyOf, argsOf, &result)

	assert.Equal(t, 3, n)
	assert.Empty(t, result.Errors)
	assert.Zero(t, db.execs)
}

func TestUpsertAll_FailedRowDoesNotCountRolledBackRows(t *testing.T) {
	db := &fakeDB{bad: map[string]bool{"2": true}}
	var result SeedResult

	n := upsertAll(context.Background(), db, "races", "INSERT", []string{"1", "2", "3"}, keyOf, argsOf, &result)

	assert.Equal(t, 2, n)
	assert.Equal(t, 3, db.execs, "the rolled back chunk is replayed row by row")
	assert.Equal(t, []string{"upsert races 2: violates foreign key constraint"}, result.Errors)
}
