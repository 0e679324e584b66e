package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yanizio/peneus/internal/config"
	"github.com/yanizio/peneus/internal/database"
	"github.com/yanizio/peneus/internal/mail"
	"github.com/yanizio/peneus/internal/role"
)

func q(s string) string { return regexp.QuoteMeta(s) }

func newMock(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return database.New(sqlx.NewDb(raw, "mysql")), mock
}

func testConfig() *config.Config {
	return &config.Config{
		App:  config.App{Name: "peneus"},
		HTTP: config.HTTP{ListenAddr: ":0", MetricsWhitelist: []string{"127.0.0.1"}},
		Security: config.Security{
			CsrfSecret:     "fedcba9876543210fedcba9876543210",
			SessionHashKey: "0123456789abcdef0123456789abcdef",
		},
	}
}

func TestRouter(t *testing.T) {
	db, _ := newMock(t)
	log := zap.NewNop().Sugar()
	cfg := testConfig()

	reg, err := handlers(cfg, db, mail.NewLog(log), log)
	require.NoError(t, err)
	assert.Equal(t, []string{"account", "management", "security"}, reg.Names())
	h := router(cfg, reg, nil, log)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api?handler=security&action=token", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Body.String(), `"token"`)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api?handler=account&action=status", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api?handler=missing&action=x", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	r.RemoteAddr = "192.0.2.7:4000"
	r.Header.Set("X-Forwarded-For", "127.0.0.1")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)

	r = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	r.RemoteAddr = "127.0.0.1:4000"
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "peneus_http_requests_total")
}

func TestHandlers_RejectsMissingSessionKey(t *testing.T) {
	db, _ := newMock(t)
	cfg := testConfig()
	cfg.Security.SessionHashKey = ""
	_, err := handlers(cfg, db, mail.NewLog(nil), zap.NewNop().Sugar())
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	db, mock := newMock(t)
	show := q("SHOW TABLES LIKE ?")

	mock.ExpectQuery(show).WithArgs("account").
		WillReturnRows(sqlmock.NewRows([]string{"Tables_in_app"}).AddRow("account"))
	mock.ExpectQuery(show).WithArgs("accountrole").
		WillReturnRows(sqlmock.NewRows([]string{"Tables_in_app"}))
	mock.ExpectExec(q("CREATE TABLE `accountrole` (")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("CREATE OR REPLACE VIEW `accountview` AS SELECT")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, migrate(context.Background(), db, zap.NewNop().Sugar()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_StopsOnFailure(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(q("SHOW TABLES LIKE ?")).WithArgs("account").
		WillReturnRows(sqlmock.NewRows([]string{"Tables_in_app"}))
	mock.ExpectExec(q("CREATE TABLE `account` (")).WillReturnError(errors.New("denied"))

	err := migrate(context.Background(), db, zap.NewNop().Sugar())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParseRole(t *testing.T) {
	for in, want := range map[string]role.Role{"admin": role.Admin, "10": role.Editor, "none": role.None} {
		got, err := parseRole(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := parseRole("owner")
	assert.Error(t, err)
}
