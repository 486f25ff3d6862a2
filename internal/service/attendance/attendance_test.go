package attendance

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classtrack/rollcall/internal/logger"
	"github.com/classtrack/rollcall/internal/models"
	"github.com/classtrack/rollcall/internal/repository/postgres"
	"github.com/classtrack/rollcall/internal/testutil"
)

func TestService_Record(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	storage := postgres.NewStorage(pg.Pool)
	service := NewService(storage, logger.NewNoOpLogger())

	newSession := func(t *testing.T, status string) models.Session {
		t.Helper()

		teacher, err := storage.Teacher().CreateTeacher(t.Context(), uuid.NewString()+"@rollcall.test", "Test Teacher", "hashedpassword")
		require.NoError(t, err)
		session, err := storage.Session().CreateSession(t.Context(), teacher.ID, "Distributed Systems", "3CM2")
		require.NoError(t, err)

		if status == models.SessionInactive {
			session, err = storage.Session().CloseSession(t.Context(), session.ID)
			require.NoError(t, err)
		}

		return session
	}

	identity := func() Identity {
		return Identity{
			StudentNumber: uuid.NewString(),
			FullName:      "Ana Torres",
			SourceURL:     "https://portal.example/credential/abc",
		}
	}

	t.Run("first attempt accepted", func(t *testing.T) {
		session := newSession(t, models.SessionActive)
		id := identity()

		result := service.Record(t.Context(), session.ID, id)

		require.Equal(t, OutcomeAccepted, result.Outcome)
		assert.Empty(t, result.Reason)
		assert.Equal(t, id.StudentNumber, result.Student.StudentNumber)
		assert.Equal(t, id.StudentNumber, result.Record.Payload.StudentNumber)
		assert.Equal(t, session.ID, result.Record.SessionID)
	})

	t.Run("second attempt duplicate without write", func(t *testing.T) {
		session := newSession(t, models.SessionActive)
		id := identity()

		first := service.Record(t.Context(), session.ID, id)
		require.Equal(t, OutcomeAccepted, first.Outcome)

		second := service.Record(t.Context(), session.ID, id)

		require.Equal(t, OutcomeDuplicate, second.Outcome)
		assert.Equal(t, first.Record.ID, second.Record.ID, "existing record reported back")
		assert.Equal(t, first.Student.ID, second.Student.ID)

		entries, err := storage.Attendance().ListSessionRecords(t.Context(), session.ID)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("inactive session rejected", func(t *testing.T) {
		session := newSession(t, models.SessionInactive)

		result := service.Record(t.Context(), session.ID, identity())

		require.Equal(t, OutcomeRejected, result.Outcome)
		assert.Equal(t, ReasonSessionNotActive, result.Reason)
	})

	t.Run("unknown session rejected as not active", func(t *testing.T) {
		result := service.Record(t.Context(), uuid.New(), identity())

		require.Equal(t, OutcomeRejected, result.Outcome)
		assert.Equal(t, ReasonSessionNotActive, result.Reason)
	})

	t.Run("same student may attend another session", func(t *testing.T) {
		first := newSession(t, models.SessionActive)
		second := newSession(t, models.SessionActive)
		id := identity()

		require.Equal(t, OutcomeAccepted, service.Record(t.Context(), first.ID, id).Outcome)
		require.Equal(t, OutcomeAccepted, service.Record(t.Context(), second.ID, id).Outcome)
	})

	t.Run("concurrent redemptions yield one accept", func(t *testing.T) {
		session := newSession(t, models.SessionActive)
		id := identity()

		const n = 10
		results := make([]Result, n)

		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = service.Record(t.Context(), session.ID, id)
			}()
		}
		wg.Wait()

		accepted, duplicate := 0, 0
		for _, result := range results {
			switch result.Outcome {
			case OutcomeAccepted:
				accepted++
			case OutcomeDuplicate:
				duplicate++
			default:
				t.Fatalf("unexpected outcome %q reason %q", result.Outcome, result.Reason)
			}
		}

		assert.Equal(t, 1, accepted, "exactly one attempt wins")
		assert.Equal(t, n-1, duplicate, "everyone else sees the duplicate outcome")

		entries, err := storage.Attendance().ListSessionRecords(t.Context(), session.ID)
		require.NoError(t, err)
		assert.Len(t, entries, 1, "exactly one record exists afterwards")
	})
}
