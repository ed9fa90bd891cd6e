package main

import (
    "bytes"
    "database/sql"
    "database/sql/driver"
    "encoding/json"
    "fmt"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/go-sql-driver/mysql"
    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/car-marketplace/internal/config"
    "github.com/iliyamo/car-marketplace/internal/model"
)

func mockOpener(t *testing.T) (opener, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })
    open := func() (*sql.DB, config.DBConfig, error) {
        return db, config.DBConfig{BcryptCost: 4}, nil
    }
    return open, mock
}

func execute(t *testing.T, open opener, args ...string) (string, error) {
    t.Helper()
    var out bytes.Buffer
    root := newRootCmd(open, zerolog.Nop())
    root.SetOut(&out)
    root.SetErr(&out)
    root.SetArgs(args)
    err := root.Execute()
    return out.String(), err
}

func TestCreateAdmin(t *testing.T) {
    open, mock := mockOpener(t)
    now := time.Now()
    mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
        WithArgs("root@example.com", sqlmock.AnyArg(), model.RoleAdmin, "Boss", sqlmock.AnyArg(), true).
        WillReturnResult(sqlmock.NewResult(7, 1))
    mock.ExpectQuery(regexp.QuoteMeta("SELECT created_at, updated_at FROM users WHERE id=?")).
        WithArgs(uint64(7)).
        WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
    mock.ExpectClose()

    out, err := execute(t, open, "create-admin", "Root@Example.com", "secret12", "--name", "Boss")
    require.NoError(t, err)
    assert.Contains(t, out, "admin created: id=7 email=root@example.com")
}

func TestCreateAdminExisting(t *testing.T) {
    open, mock := mockOpener(t)
    mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
        WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
    mock.ExpectClose()

    out, err := execute(t, open, "create-admin", "root@example.com", "secret12")
    require.NoError(t, err)
    assert.Contains(t, out, "already exists")
}

func TestCreateAdminNeedsTwoArgs(t *testing.T) {
    open, _ := mockOpener(t)
    _, err := execute(t, open, "create-admin", "root@example.com")
    assert.Error(t, err)
}

func TestSettingsSetOnlyChangedFlags(t *testing.T) {
    open, mock := mockOpener(t)
    now := time.Now()
    mock.ExpectExec(regexp.QuoteMeta("INSERT INTO settings")).WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectExec(regexp.QuoteMeta("UPDATE settings SET updated_at = CURRENT_TIMESTAMP(3), slogan = ? WHERE id = ?")).
        WithArgs("SMK Dealership", model.SettingsID).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(regexp.QuoteMeta("INSERT INTO settings")).WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery(regexp.QuoteMeta("FROM settings WHERE id=?")).
        WillReturnRows(sqlmock.NewRows([]string{"id", "phone", "email", "address", "work_hours", "slogan", "created_at", "updated_at"}).
            AddRow(1, "+7 495", "info@car-shop.ru", "Moscow", "9-20", "SMK Dealership", now, now))
    mock.ExpectClose()

    out, err := execute(t, open, "settings", "set", "--slogan", "SMK Dealership")
    require.NoError(t, err)
    assert.Contains(t, out, "slogan:     SMK Dealership")
}

func TestSettingsSetWithoutFlags(t *testing.T) {
    open, _ := mockOpener(t)
    _, err := execute(t, open, "settings", "set")
    assert.ErrorContains(t, err, "nothing to update")
}

var userCols = []string{"id", "email", "password_hash", "role", "name", "phone", "is_active", "refresh_token_hash", "created_at", "updated_at"}

// expectOwners lines up lookups for every demo owner.  The first one already
// exists with id 1; the rest are inserted with ids 2..n.
func expectOwners(mock sqlmock.Sqlmock, now time.Time) {
    for i, email := range demoOwners {
        q := mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=?")).WithArgs(email)
        if i == 0 {
            q.WillReturnRows(sqlmock.NewRows(userCols).
                AddRow(1, email, "hash", "owner", "Existing", "+7 111", true, nil, now, now))
            continue
        }
        q.WillReturnRows(sqlmock.NewRows(userCols))
        id := int64(i + 1)
        mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
            WithArgs(email, sqlmock.AnyArg(), model.RoleOwner, fmt.Sprintf("Владелец owner%d", i+1),
                fmt.Sprintf("+7 900 000 00 %02d", i+1), true).
            WillReturnResult(sqlmock.NewResult(id, 1))
        mock.ExpectQuery(regexp.QuoteMeta("SELECT created_at, updated_at FROM users WHERE id=?")).
            WithArgs(uint64(id)).
            WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
    }
}

func expectCars(t *testing.T, mock sqlmock.Sqlmock, now time.Time) int {
    var demo []model.Car
    require.NoError(t, json.Unmarshal(demoCarsJSON, &demo))
    require.NotEmpty(t, demo)
    for i := range demo {
        args := make([]driver.Value, 24)
        for j := range args {
            args[j] = sqlmock.AnyArg()
        }
        owner := uint64(i%len(demoOwners) + 1)
        args[16], args[17] = model.CarAvailable, model.ModerationApproved
        args[19], args[23] = owner, owner
        if owner == 1 {
            args[20] = "Existing"
        }
        mock.ExpectExec(regexp.QuoteMeta("INSERT INTO cars")).
            WithArgs(args...).
            WillReturnResult(sqlmock.NewResult(int64(100+i), 1))
        mock.ExpectQuery(regexp.QuoteMeta("SELECT created_at, updated_at FROM cars WHERE id=?")).
            WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
    }
    return len(demo)
}

func TestSeed(t *testing.T) {
    open, mock := mockOpener(t)
    now := time.Now()
    mock.ExpectExec(regexp.QuoteMeta("INSERT INTO settings")).WillReturnResult(sqlmock.NewResult(1, 1))
    expectOwners(mock, now)
    n := expectCars(t, mock, now)
    mock.ExpectClose()

    out, err := execute(t, open, "seed")
    require.NoError(t, err)
    assert.Contains(t, out, fmt.Sprintf("seeded: owners=%d cars=%d", len(demoOwners), n))
}

func TestSeedClearRemovesCarsOwnersAndSettings(t *testing.T) {
    open, mock := mockOpener(t)
    now := time.Now()
    mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cars")).WillReturnResult(sqlmock.NewResult(0, 3))
    mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE role = ?")).
        WithArgs(model.RoleOwner).WillReturnResult(sqlmock.NewResult(0, 5))
    mock.ExpectExec(regexp.QuoteMeta("DELETE FROM settings WHERE id = ?")).
        WithArgs(model.SettingsID).WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(regexp.QuoteMeta("INSERT INTO settings")).WillReturnResult(sqlmock.NewResult(1, 1))
    expectOwners(mock, now)
    expectCars(t, mock, now)
    mock.ExpectClose()

    _, err := execute(t, open, "seed", "--clear")
    require.NoError(t, err)
}

func TestSeedStopsOnFailedInsert(t *testing.T) {
    open, mock := mockOpener(t)
    mock.ExpectExec(regexp.QuoteMeta("INSERT INTO settings")).WillReturnResult(sqlmock.NewResult(1, 1))
    mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=?")).WillReturnRows(sqlmock.NewRows(userCols))
    mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnError(sql.ErrConnDone)
    mock.ExpectClose()

    _, err := execute(t, open, "seed")
    assert.ErrorContains(t, err, demoOwners[0])
}
