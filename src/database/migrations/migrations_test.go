package migrations

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestRunOnceRecordsAndSkips(t *testing.T) {
	db := newSQLite(t)
	calls := 0
	fn := func(tx *gorm.DB) error { calls++; return nil }

	require.NoError(t, RunOnce(db, "00099_test", fn))
	require.NoError(t, RunOnce(db, "00099_test", fn))
	require.Equal(t, 1, calls)

	var count int64
	require.NoError(t, db.Model(&DataMigration{}).Where("id = ?", "00099_test").Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestRunOnceFailureIsNotRecorded(t *testing.T) {
	db := newSQLite(t)

	err := RunOnce(db, "00098_fails", func(tx *gorm.DB) error { return errors.New("boom") })
	require.ErrorContains(t, err, "boom")

	var count int64
	require.NoError(t, db.Model(&DataMigration{}).Count(&count).Error)
	require.Equal(t, int64(0), count)
}

func TestRunOnceValidatesInput(t *testing.T) {
	db := newSQLite(t)
	require.NoError(t, RunOnce(nil, "x", nil))
	require.Error(t, RunOnce(db, "", func(*gorm.DB) error { return nil }))
	require.Error(t, RunOnce(db, "x", nil))
}

func TestRunNormalizesLegacyRows(t *testing.T) {
	db := newSQLite(t)
	require.NoError(t, db.Exec("CREATE TABLE orders (id TEXT PRIMARY KEY, side TEXT)").Error)
	require.NoError(t, db.Exec("CREATE TABLE positions (pair TEXT PRIMARY KEY, qty REAL, avg REAL)").Error)
	require.NoError(t, db.Exec("INSERT INTO orders (id, side) VALUES ('a', 'buy'), ('b', 'SELL')").Error)
	require.NoError(t, db.Exec("INSERT INTO positions (pair, qty, avg) VALUES ('KASUSDC', 0, 0.05)").Error)

	require.NoError(t, Run(db))

	var sides []string
	require.NoError(t, db.Raw("SELECT side FROM orders ORDER BY id").Scan(&sides).Error)
	require.Equal(t, []string{"BUY", "SELL"}, sides)

	var avg float64
	require.NoError(t, db.Raw("SELECT avg FROM positions WHERE pair = 'KASUSDC'").Scan(&avg).Error)
	require.Equal(t, 0.0, avg)

	require.NoError(t, Run(db))
}

func TestConfigureSQLite(t *testing.T) {
	require.NoError(t, ConfigureSQLite(newSQLite(t)))
}
