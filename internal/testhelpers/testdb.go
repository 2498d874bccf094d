package testhelpers

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"time2care_backend/database"
	"time2care_backend/internal/auth"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var dbCounter atomic.Int64

// NewTestDB создает отдельную in-memory SQLite базу на каждый тест
// и прогоняет миграции.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbCounter.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Не удалось открыть тестовую БД")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Одно соединение: иначе разные соединения увидят разные in-memory базы
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db), "Миграция тестовой БД не должна падать")
	return db
}

// NewTestHasher - bcrypt с минимальной стоимостью, чтобы тесты были быстрыми
func NewTestHasher(t *testing.T) *auth.Hasher {
	t.Helper()
	hasher, err := auth.NewHasher(bcrypt.MinCost, 4)
	require.NoError(t, err)
	return hasher
}

// NewTestTokenIssuer - выпуск токенов с фиксированным секретом
func NewTestTokenIssuer(t *testing.T) *auth.TokenIssuer {
	t.Helper()
	tokens, err := auth.NewTokenIssuer("test-secret-key-for-time2care", 0)
	require.NoError(t, err)
	return tokens
}
