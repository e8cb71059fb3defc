package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// A database/sql driver that accepts every statement, records it and reports
// one affected row, so the SQL the repositories emit can be asserted without
// a MySQL server. Queries yield idRows rows with a single int64 id column.

type sqlRecorder struct {
	mu     sync.Mutex
	stmts  []string
	idRows int
}

func (r *sqlRecorder) record(q string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stmts = append(r.stmts, q)
}

func (r *sqlRecorder) statements() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.stmts...)
}

type recConnector struct{ rec *sqlRecorder }

func (c recConnector) Connect(context.Context) (driver.Conn, error) {
	return &recConn{rec: c.rec}, nil
}
func (c recConnector) Driver() driver.Driver { return recDriver{c.rec} }

type recDriver struct{ rec *sqlRecorder }

func (d recDriver) Open(string) (driver.Conn, error) { return &recConn{rec: d.rec}, nil }

type recConn struct{ rec *sqlRecorder }

func (c *recConn) Prepare(query string) (driver.Stmt, error) {
	return &recStmt{rec: c.rec, query: query}, nil
}
func (c *recConn) Close() error              { return nil }
func (c *recConn) Begin() (driver.Tx, error) { return recTx{}, nil }

type recTx struct{}

func (recTx) Commit() error   { return nil }
func (recTx) Rollback() error { return nil }

type recStmt struct {
	rec   *sqlRecorder
	query string
}

func (s *recStmt) Close() error  { return nil }
func (s *recStmt) NumInput() int { return -1 }

func (s *recStmt) Exec([]driver.Value) (driver.Result, error) {
	s.rec.record(s.query)
	return driver.RowsAffected(1), nil
}

func (s *recStmt) Query([]driver.Value) (driver.Rows, error) {
	s.rec.record(s.query)
	return &recRows{remaining: s.rec.idRows}, nil
}

type recRows struct{ remaining int }

func (r *recRows) Columns() []string { return []string{"id"} }
func (r *recRows) Close() error      { return nil }

func (r *recRows) Next(dest []driver.Value) error {
	if r.remaining == 0 {
		return io.EOF
	}
	r.remaining--
	dest[0] = int64(42)
	return nil
}

func newRecordedDB(t *testing.T, idRows int) (*gorm.DB, *sqlRecorder) {
	t.Helper()
	rec := &sqlRecorder{idRows: idRows}
	sqlDB := sql.OpenDB(recConnector{rec: rec})
	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:                 logger.Discard,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, rec
}

// stmtIndex returns the position of the first statement containing substr.
func stmtIndex(t *testing.T, stmts []string, substr string) int {
	t.Helper()
	for i, s := range stmts {
		if strings.Contains(s, substr) {
			return i
		}
	}
	t.Fatalf("no statement contains %q in %v", substr, stmts)
	return -1
}

func TestRequestDeleteRemovesDependentsFirst(t *testing.T) {
	db, rec := newRecordedDB(t, 0)
	repo := NewRequestRepository(db)

	require.NoError(t, repo.Delete(5))

	stmts := rec.statements()
	reviews := stmtIndex(t, stmts, "`reviews`")
	proofs := stmtIndex(t, stmts, "`completion_proofs`")
	reads := stmtIndex(t, stmts, "`message_reads`")
	messages := stmtIndex(t, stmts, "DELETE FROM `chat_messages`")
	notifs := stmtIndex(t, stmts, "`notifications`")
	requests := stmtIndex(t, stmts, "`service_requests`")

	for _, child := range []int{reviews, proofs, reads, messages, notifs} {
		assert.Less(t, child, requests)
	}
	// read rows are scoped through the conversation's messages
	assert.Contains(t, stmts[reads], "`chat_messages`")
}

func TestUserDeleteCascades(t *testing.T) {
	db, rec := newRecordedDB(t, 1)
	repo := NewUserRepository(db)

	require.NoError(t, repo.Delete(7))

	stmts := rec.statements()
	plucked := stmtIndex(t, stmts, "SELECT `id` FROM `service_requests`")
	assert.Contains(t, stmts[plucked], "client_id")

	reviews := stmtIndex(t, stmts, "`reviews`")
	requests := stmtIndex(t, stmts, "DELETE FROM `service_requests`")
	inbox := stmtIndex(t, stmts, "recipient_id")
	user := stmtIndex(t, stmts, "DELETE FROM `users`")

	assert.Less(t, reviews, requests)
	assert.Less(t, requests, user)
	assert.Less(t, inbox, user)
}

func TestProviderDeleteCascades(t *testing.T) {
	db, rec := newRecordedDB(t, 1)
	repo := NewProviderRepository(db)

	require.NoError(t, repo.Delete(3))

	stmts := rec.statements()
	plucked := stmtIndex(t, stmts, "SELECT `id` FROM `service_requests`")
	assert.Contains(t, stmts[plucked], "provider_id")

	requests := stmtIndex(t, stmts, "DELETE FROM `service_requests`")
	listings := stmtIndex(t, stmts, "`offered_services`")
	periods := stmtIndex(t, stmts, "`unavailable_periods`")
	schedule := stmtIndex(t, stmts, "DELETE FROM `provider_availabilities`")
	inbox := stmtIndex(t, stmts, "recipient_id")
	prov := stmtIndex(t, stmts, "DELETE FROM `providers`")

	for _, owned := range []int{requests, listings, periods, schedule, inbox} {
		assert.Less(t, owned, prov)
	}
	// periods are scoped through the provider's schedule rows
	assert.Contains(t, stmts[periods], "`provider_availabilities`")
	assert.Less(t, periods, schedule)
}

func TestCountByProviderAndStatus(t *testing.T) {
	db, rec := newRecordedDB(t, 1)
	repo := NewRequestRepository(db)

	n, err := repo.CountByProviderAndStatus(3, []string{"pending_provider_acceptance"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	stmts := rec.statements()
	count := stmtIndex(t, stmts, "count(*)")
	assert.Contains(t, stmts[count], "provider_id")
	assert.Contains(t, stmts[count], "status")
}
