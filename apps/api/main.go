package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/announcement"
	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/core/video"
	appfs "github.com/trezcool/darasa/fs"
	cachesvc "github.com/trezcool/darasa/services/cache"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	storagesvc "github.com/trezcool/darasa/services/storage"
	"github.com/trezcool/darasa/storage/database"
	sqlxrepos "github.com/trezcool/darasa/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	var logger core.Logger
	if conf.RollbarToken != "" {
		logger = logsvc.NewRollbarLogger(
			log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
			conf,
		)
	} else {
		zl := logsvc.NewZapLogger(conf)
		defer zl.Sync()
		logger = zl
	}
	logger.Enable(!conf.Debug)

	ctx := context.Background()

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}()
	sdb := sqlx.NewDb(db, "postgres")

	// set up cache; stats fall back to the DB without it
	var cache progress.Cache
	if conf.Redis.Addr != "" {
		redisCache, err := cachesvc.NewRedisCache(ctx, conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up redis: %v", err), err)
		}
		defer redisCache.Close()
		cache = redisCache
	}

	// set up object storage
	uploader, err := storagesvc.NewS3Uploader(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up object storage: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(sdb), mailSvc, conf, logger)
	videoSvc := video.NewService(sqlxrepos.NewVideoRepository(sdb), uploader, logger)
	classroomSvc := classroom.NewService(sqlxrepos.NewClassroomRepository(sdb), usrSvc)
	announcementSvc := announcement.NewService(sqlxrepos.NewAnnouncementRepository(sdb), classroomSvc)
	progressSvc := progress.NewService(sqlxrepos.NewProgressRepository(sdb), cache, conf)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	translator := newTranslator()
	core.InitValidators(validator.New(), translator)
	user.InitValidators(core.Validate, translator)

	core.ParseEmailTemplates(appfs.FS, conf, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:            conf,
		Logger:          logger,
		UserSvc:         usrSvc,
		VideoSvc:        videoSvc,
		ClassroomSvc:    classroomSvc,
		AnnouncementSvc: announcementSvc,
		ProgressSvc:     progressSvc,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Shutdown(shutdownCtx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
