package credentials

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockSQLStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLStore(db), mock
}

var (
	selectCred = regexp.QuoteMeta("SELECT cred_value FROM client_credentials WHERE cred_key = ?")
	upsertCred = `INSERT INTO client_credentials .* ON DUPLICATE KEY UPDATE cred_value = VALUES\(cred_value\)`
	deleteCred = regexp.QuoteMeta("DELETE FROM client_credentials WHERE cred_key = ?")
)

// TestSQLStore replays the shared Store behaviour against the statements a
// MySQL server would receive.
func TestSQLStore(t *testing.T) {
	s, mock := newMockSQLStore(t)
	value := func(v string) *sqlmock.Rows { return sqlmock.NewRows([]string{"cred_value"}).AddRow(v) }
	empty := func() *sqlmock.Rows { return sqlmock.NewRows([]string{"cred_value"}) }

	mock.ExpectQuery(selectCred).WithArgs(TokenKey).WillReturnRows(empty())
	mock.ExpectExec(upsertCred).WithArgs(TokenKey, "tok-1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(upsertCred).WithArgs(UserKey, `{"id":"u1"}`, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(upsertCred).WithArgs(TokenKey, "tok-2", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(selectCred).WithArgs(TokenKey).WillReturnRows(value("tok-2"))
	mock.ExpectExec(deleteCred).WithArgs(TokenKey).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteCred).WithArgs(TokenKey).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(selectCred).WithArgs(TokenKey).WillReturnRows(empty())
	mock.ExpectQuery(selectCred).WithArgs(UserKey).WillReturnRows(value(`{"id":"u1"}`))

	exerciseStore(t, s)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSQLStoreWrapsDriverErrors(t *testing.T) {
	s, mock := newMockSQLStore(t)
	boom := errors.New("connection lost")
	ctx := context.Background()

	mock.ExpectQuery(selectCred).WithArgs(TokenKey).WillReturnError(boom)
	if _, ok, err := s.Get(ctx, TokenKey); !errors.Is(err, boom) || ok {
		t.Fatalf("Get = ok:%v err:%v", ok, err)
	}

	mock.ExpectExec(upsertCred).WillReturnError(boom)
	if err := s.Set(ctx, TokenKey, "t"); !errors.Is(err, boom) {
		t.Fatalf("Set err = %v", err)
	}

	mock.ExpectExec(deleteCred).WillReturnError(boom)
	if err := s.Delete(ctx, TokenKey); !errors.Is(err, boom) {
		t.Fatalf("Delete err = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSQLStoreEnsureSchema(t *testing.T) {
	s, mock := newMockSQLStore(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS client_credentials")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
