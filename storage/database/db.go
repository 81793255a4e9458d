package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/trezcool/goose"

	"github.com/trezcool/darasa/core"
	appfs "github.com/trezcool/darasa/fs"
)

func open(dbName string, admin bool, conf *core.Config) (*sql.DB, error) {
	usr := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		usr = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   conf.Database.Engine,
		User:     usr,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return sql.Open(conf.Database.Engine, u.String())
}

func Open(conf *core.Config) (*sql.DB, error) {
	return open(conf.Database.Name, false, conf)
}

// ping waits for the database to be ready, backing off 100ms longer between
// each attempt.
func ping(db *sql.DB) error {
	var err error
	for attempts := 1; attempts <= 30; attempts++ {
		if err = db.Ping(); err == nil {
			return nil
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}
	return errors.Wrap(err, "DB ping timeout")
}

func exists(db *sql.DB, query string, args ...interface{}) (bool, error) {
	var found bool
	if err := db.QueryRow(query, args...).Scan(&found); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return found, nil
}

func createAppUser(db *sql.DB, conf *core.Config) error {
	if conf.Database.User == "" {
		return nil
	}
	found, err := exists(db, "SELECT true FROM pg_roles WHERE rolname = $1", conf.Database.User)
	if err != nil {
		return errors.Wrap(err, "checking app user")
	}
	if !found {
		q := fmt.Sprintf("CREATE USER %s CREATEDB ENCRYPTED PASSWORD '%s'", conf.Database.User, conf.Database.Password)
		if _, err = db.Exec(q); err != nil {
			return errors.Wrap(err, "creating app user")
		}
	}
	return nil
}

func createDB(db *sql.DB, conf *core.Config) error {
	found, err := exists(db, "SELECT true FROM pg_database WHERE datname = $1", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "checking DB")
	}
	if !found {
		if _, err = db.Exec(fmt.Sprintf("CREATE DATABASE %s", conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// CreateIfNotExist provisions the app user and database, connecting as the
// admin user first when one is configured.
func CreateIfNotExist(conf *core.Config) error {
	db, err := open("postgres", true, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	if err = ping(db); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	if err = createAppUser(db, conf); err != nil {
		return err
	}

	// create the DB as the app user so it owns it
	appDB, err := open("postgres", false, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = appDB.Close() }()
	return createDB(appDB, conf)
}

func Migrate(db *sql.DB) error {
	if err := goose.RunFS("up", db, appfs.FS, "migrations"); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}
