package database

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDB captures the last query sent
type recordingDB struct {
	query string
	vars  map[string]interface{}
}

func (r *recordingDB) Connect(ctx context.Context) error { return nil }
func (r *recordingDB) Close() error                      { return nil }
func (r *recordingDB) Ping(ctx context.Context) error    { return nil }

func (r *recordingDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	r.query, r.vars = query, vars
	return nil, nil
}

func (r *recordingDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	_, err := r.Query(ctx, query, vars)
	return nil, err
}

func (r *recordingDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := r.Query(ctx, query, vars)
	return err
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"Database index `handshake_pair` already contains ['a', 'b'], with record `handshake:x`": true,
		"Database record `handshake:x` already exists":                                          true,
		"Parse error: unexpected token":                                                          false,
		"":                                                                                       false,
	}
	for msg, want := range cases {
		assert.Equal(t, want, IsUniqueViolation(msg), msg)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, classify("index `signal_direction` already contains"), ErrDuplicate)
	assert.ErrorIs(t, classify("syntax error"), ErrQuery)
}

func TestTxBuilder_NamespacesVariables(t *testing.T) {
	t.Parallel()

	tb := NewTxBuilder()
	m1 := tb.Add("UPDATE a SET x = $key, y = $key_hash", map[string]interface{}{"key": 1, "key_hash": 2})
	m2 := tb.Add("UPDATE b SET x = $key", map[string]interface{}{"key": 3})

	query, vars := tb.Build()
	require.Equal(t, 2, tb.Len())

	assert.True(t, strings.HasPrefix(query, "BEGIN TRANSACTION;"))
	assert.True(t, strings.HasSuffix(query, "COMMIT TRANSACTION;"))
	assert.Contains(t, query, "$"+m1["key"]+",")
	assert.Contains(t, query, "$"+m1["key_hash"])
	assert.Contains(t, query, "$"+m2["key"])
	assert.Equal(t, 1, vars[m1["key"]])
	assert.Equal(t, 2, vars[m1["key_hash"]])
	assert.Equal(t, 3, vars[m2["key"]])
}

func TestAtomicBatch_EmptyIsNoop(t *testing.T) {
	t.Parallel()

	db := &recordingDB{}
	require.NoError(t, NewAtomicBatch().Execute(context.Background(), db))
	assert.Empty(t, db.query)
}

func TestApplySchema_SendsEveryStatementInOneTransaction(t *testing.T) {
	t.Parallel()

	stmts := SchemaStatements()
	require.NotEmpty(t, stmts)
	for _, s := range stmts {
		assert.True(t, strings.HasPrefix(s, "DEFINE "), s)
		assert.NotContains(t, s, "--")
	}

	db := &recordingDB{}
	require.NoError(t, ApplySchema(context.Background(), db))
	assert.Contains(t, db.query, "DEFINE INDEX IF NOT EXISTS handshake_pair ON handshake FIELDS partnership_a, partnership_b UNIQUE;")
	assert.Contains(t, db.query, "signal_direction")
	assert.Equal(t, len(stmts)+2, strings.Count(db.query, ";"))
}
