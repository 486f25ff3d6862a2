package postgres

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/rollcall/internal/models"
	"github.com/classtrack/rollcall/internal/testutil"
)

func TestStudents(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("create when absent", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := &StudentRepo{DB: tx}

			student, err := repo.GetOrCreateStudent(t.Context(), "2021630123", "Ana Torres")

			require.NoError(t, err)
			assert.NotZero(t, student.ID)
			assert.Equal(t, "2021630123", student.StudentNumber)
			assert.Equal(t, "Ana Torres", student.FullName)
		})
	})

	t.Run("return existing on same number", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := &StudentRepo{DB: tx}

			first, err := repo.GetOrCreateStudent(t.Context(), "2021630123", "Ana Torres")
			require.NoError(t, err)

			// The number is the natural key, a different display name on a
			// later call must not create a second identity
			second, err := repo.GetOrCreateStudent(t.Context(), "2021630123", "A. Torres")
			require.NoError(t, err)

			assert.Equal(t, first.ID, second.ID)
			assert.Equal(t, "Ana Torres", second.FullName, "first recorded name wins")
		})
	})

	t.Run("concurrent calls resolve to one row", func(t *testing.T) {
		// Run on the pool, not inside a transaction: the point is the race
		// between independent connections
		repo := &StudentRepo{DB: pg.Pool}

		const n = 8
		ids := make([]uuid.UUID, n)
		errs := make([]error, n)

		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				var student models.Student
				student, errs[i] = repo.GetOrCreateStudent(t.Context(), "2021630999", "Luis Vega")
				ids[i] = student.ID
			}()
		}
		wg.Wait()

		for i := range n {
			require.NoError(t, errs[i])
			assert.Equal(t, ids[0], ids[i], "every call must land on the same student row")
		}
	})

	t.Run("losing insert still reads winner committed after snapshot", func(t *testing.T) {
		// The winner's row is in flight in an open transaction: the loser's
		// statement snapshot predates the commit, ON CONFLICT waits and
		// skips, and the same-statement read-back sees nothing. The re-read
		// with a fresh snapshot must resolve to the winner's row.
		tx, err := pg.Pool.Begin(t.Context())
		require.NoError(t, err)
		defer tx.Rollback(t.Context()) // nolint:errcheck

		winner, err := (&StudentRepo{DB: tx}).GetOrCreateStudent(t.Context(), "2021631000", "Rosa Lima")
		require.NoError(t, err)

		type outcome struct {
			student models.Student
			err     error
		}
		loserDone := make(chan outcome, 1)
		go func() {
			var o outcome
			o.student, o.err = (&StudentRepo{DB: pg.Pool}).GetOrCreateStudent(t.Context(), "2021631000", "R. Lima")
			loserDone <- o
		}()

		// Give the loser time to block on the in-flight index entry
		time.Sleep(200 * time.Millisecond)
		require.NoError(t, tx.Commit(t.Context()))

		loser := <-loserDone
		require.NoError(t, loser.err, "losing a race is not an error")
		assert.Equal(t, winner.ID, loser.student.ID, "loser must land on the winner's row")
	})
}
