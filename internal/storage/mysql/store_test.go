package mysql

import (
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	cfg := &Config{Host: "db.internal", Port: 3306, User: "caseflow", Password: "s3cret", Database: "caseflow"}
	assert.Equal(t, "caseflow:s3cret@tcp(db.internal:3306)/caseflow?parseTime=true", buildDSN(cfg, cfg.Database))
	assert.Equal(t, "caseflow:s3cret@tcp(db.internal:3306)/?parseTime=true", buildDSN(cfg, ""))

	cfg.Password = ""
	cfg.TLS = "true"
	assert.Equal(t, "caseflow@tcp(db.internal:3306)/caseflow?parseTime=true&tls=true", buildDSN(cfg, cfg.Database))

	cfg.TLS = "skip-verify"
	assert.Equal(t, "caseflow@tcp(db.internal:3306)/caseflow?parseTime=true&tls=skip-verify", buildDSN(cfg, cfg.Database))
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements(schema)
	assert.NotEmpty(t, stmts)
	for _, stmt := range stmts {
		assert.NotEmpty(t, stmt)
		assert.NotContains(t, stmt, ";")
	}
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(errors.New("syntax error")))
	assert.True(t, isRetryableError(errors.New("dial tcp: connection refused")))
	assert.True(t, isRetryableError(errors.New("driver: bad connection")))
	assert.True(t, isRetryableError(errors.New("MySQL server has gone away")))
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, isDuplicateKey(&mysql.MySQLError{Number: 1062}))
	assert.False(t, isDuplicateKey(&mysql.MySQLError{Number: 1452}))
	assert.False(t, isDuplicateKey(errors.New("duplicate entry")))

	assert.True(t, isForeignKeyViolation(&mysql.MySQLError{Number: 1452}))
	assert.True(t, isForeignKeyViolation(&mysql.MySQLError{Number: 1451}))
	assert.False(t, isForeignKeyViolation(&mysql.MySQLError{Number: 1062}))
}
