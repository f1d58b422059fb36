package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func TestRecipientRepo_SelectEligible(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRecipientRepo(db)

	ctx := context.Background()
	from := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)
	a := uuid.Must(uuid.NewV4())
	b := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`SELECT r\.id\s+FROM recipients r`).
		WithArgs(from, to, "connect-reminder").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(a).AddRow(b))

	got, err := r.SelectEligible(ctx, "connect-reminder", from, to)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{a, b}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipientRepo_SelectEligible_Empty(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRecipientRepo(db)

	from := time.Now().Add(-25 * time.Hour)
	to := from.Add(time.Hour)
	mock.ExpectQuery(`SELECT r\.id\s+FROM recipients r`).
		WithArgs(from, to, "connect-reminder").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	got, err := r.SelectEligible(context.Background(), "connect-reminder", from, to)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestRecipientRepo_SelectEligible_QueryError(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRecipientRepo(db)

	boom := errors.New("connection reset")
	from := time.Now().Add(-25 * time.Hour)
	to := from.Add(time.Hour)
	mock.ExpectQuery(`SELECT r\.id\s+FROM recipients r`).
		WithArgs(from, to, "connect-reminder").
		WillReturnError(boom)

	_, err := r.SelectEligible(context.Background(), "connect-reminder", from, to)
	require.ErrorIs(t, err, boom)
}

func TestSubscriptionRepo_GetByRecipient(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSubscriptionRepo(db)

	owner := uuid.Must(uuid.NewV4())
	created := time.Now().UTC()
	mock.ExpectQuery(`SELECT endpoint, recipient_id, p256dh, auth, platform, created_at\s+FROM push_subscriptions WHERE recipient_id=\$1`).
		WithArgs(owner).
		WillReturnRows(pgxmock.NewRows([]string{"endpoint", "recipient_id", "p256dh", "auth", "platform", "created_at"}).
			AddRow("https://push.example.net/send/a", owner, []byte{0x04, 0x01}, []byte("0123456789abcdef"), "web", created))

	got, err := r.GetByRecipient(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "https://push.example.net/send/a", got[0].Endpoint)
	require.Equal(t, owner, got[0].RecipientID)
	require.Equal(t, []byte("0123456789abcdef"), got[0].Auth)
}

func TestSubscriptionRepo_DeleteByEndpoint_Idempotent(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSubscriptionRepo(db)

	mock.ExpectExec(`DELETE FROM push_subscriptions WHERE endpoint=\$1`).
		WithArgs("https://push.example.net/send/a").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.DeleteByEndpoint(context.Background(), "https://push.example.net/send/a"))

	// Second delete of the same endpoint affects zero rows and still succeeds.
	mock.ExpectExec(`DELETE FROM push_subscriptions WHERE endpoint=\$1`).
		WithArgs("https://push.example.net/send/a").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.NoError(t, r.DeleteByEndpoint(context.Background(), "https://push.example.net/send/a"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationLogRepo_MarkSent_Idempotent(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewNotificationLogRepo(db)

	id := uuid.Must(uuid.NewV4())
	mock.ExpectExec(`INSERT INTO notification_log`).
		WithArgs(id, "connect-reminder").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.MarkSent(context.Background(), id, "connect-reminder"))

	// Conflict path: zero rows inserted, no error.
	mock.ExpectExec(`INSERT INTO notification_log`).
		WithArgs(id, "connect-reminder").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	require.NoError(t, r.MarkSent(context.Background(), id, "connect-reminder"))
	require.NoError(t, mock.ExpectationsWereMet())
}
