package clickhouse

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/domain"
)

type fakeRow struct {
	value int64
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.value
	return nil
}

type fakeBatch struct {
	rows        [][]any
	appendErrAt int
	sendErr     error
	sent        bool
	aborted     bool
}

func (b *fakeBatch) Append(v ...any) error {
	if b.appendErrAt > 0 && len(b.rows)+1 == b.appendErrAt {
		return errors.New("append failed")
	}
	b.rows = append(b.rows, v)
	return nil
}

func (b *fakeBatch) Send() error {
	b.sent = true
	return b.sendErr
}

func (b *fakeBatch) Abort() error {
	b.aborted = true
	return nil
}

type fakeConn struct {
	execs    []string
	row      fakeRow
	batch    *fakeBatch
	prepared int
	pingErr  error
}

func (c *fakeConn) Exec(ctx context.Context, query string, args ...any) error {
	c.execs = append(c.execs, query)
	return nil
}

func (c *fakeConn) QueryRow(ctx context.Context, query string, args ...any) scanner {
	return c.row
}

func (c *fakeConn) PrepareBatch(ctx context.Context, query string) (batch, error) {
	c.prepared++
	return c.batch, nil
}

func (c *fakeConn) Ping(ctx context.Context) error { return c.pingErr }
func (c *fakeConn) Close() error                   { return nil }

func TestLastIncidentID(t *testing.T) {
	s := &Store{conn: &fakeConn{row: fakeRow{value: 120}}}
	last, err := s.LastIncidentID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(120), last)

	s = &Store{conn: &fakeConn{row: fakeRow{err: errors.New("table missing")}}}
	_, err = s.LastIncidentID(context.Background())
	assert.Error(t, err)
}

func TestAppendIncidents(t *testing.T) {
	b := &fakeBatch{}
	c := &fakeConn{batch: b}
	s := &Store{conn: c}
	region := "kicukiro"

	err := s.AppendIncidents(context.Background(), []domain.Incident{
		{IncidentID: 1, TsMin: 30, RegionID: &region, NodeID: 4, Latitude: -1.97, Longitude: 30.1, Severity: domain.SeverityMedium},
		{IncidentID: 2, TsMin: 31, NodeID: 5, Latitude: -1.98, Longitude: 30.2, Severity: domain.SeverityLow},
	})
	require.NoError(t, err)
	assert.True(t, b.sent)
	require.Len(t, b.rows, 2)
	assert.Equal(t, []any{int64(1), int32(30), (*string)(nil), &region, int64(4), -1.97, 30.1, "medium"}, b.rows[0])
}

func TestAppendIncidentsEmptyIsNoop(t *testing.T) {
	c := &fakeConn{batch: &fakeBatch{}}
	require.NoError(t, (&Store{conn: c}).AppendIncidents(context.Background(), nil))
	assert.Equal(t, 0, c.prepared)
}

func TestAppendIncidentsAbortsOnFailure(t *testing.T) {
	b := &fakeBatch{appendErrAt: 2}
	s := &Store{conn: &fakeConn{batch: b}}

	err := s.AppendIncidents(context.Background(), []domain.Incident{{IncidentID: 1}, {IncidentID: 2}})
	require.Error(t, err)
	assert.True(t, b.aborted)
	assert.False(t, b.sent)
}

func TestEnsureSchemaAndHealth(t *testing.T) {
	c := &fakeConn{}
	s := &Store{conn: c}
	require.NoError(t, s.EnsureSchema(context.Background()))
	require.Len(t, c.execs, 1)
	assert.Contains(t, c.execs[0], "ENGINE = MergeTree()")

	assert.NoError(t, s.Health(context.Background()))
	c.pingErr = errors.New("down")
	assert.Error(t, s.Health(context.Background()))
}
