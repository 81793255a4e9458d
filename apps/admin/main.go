package main

import (
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/darasa/core"
	logsvc "github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/storage/database"
	sqlxrepos "github.com/trezcool/darasa/storage/database/sqlx"
)

func main() {
	defer os.Exit(0)

	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer db.Close()
	if err = db.Ping(); err != nil {
		logger.Fatal(fmt.Sprintf("pinging database: %v", err), err)
	}

	cli := commandLine{
		db:      db,
		usrRepo: sqlxrepos.NewUserRepository(sqlx.NewDb(db, "postgres")),
	}
	if err = cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %s", err), err)
		}
		os.Exit(1)
	}
}
