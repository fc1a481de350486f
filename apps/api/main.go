package main

import (
	"context"
	"expvar"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/services/realtime"
	"github.com/trezcool/darasa/storage/database"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	sqlxrepos "github.com/trezcool/darasa/storage/database/sqlx"
	redisstore "github.com/trezcool/darasa/storage/redis"
)

type repositories struct {
	users  user.Repository
	school school.Repository
	closer io.Closer
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	ctx := context.Background()

	// set up loggers
	zl, err := logsvc.NewZapLogger(conf)
	if err != nil {
		panic(fmt.Sprintf("setting up zap: %v", err))
	}
	logger := logsvc.NewRollbarLogger(zl.Named("api"), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	defer func() { _ = logger.Sync() }()

	dbLogger := logsvc.NewRollbarLogger(zl.Named("db"), conf)

	// set up storage
	repos, err := setUpStorage(ctx, conf)
	if err != nil {
		logger.Fatal("setting up storage", err, map[string]interface{}{"driver": conf.StorageDriver})
	}
	defer func() {
		if repos.closer == nil {
			return
		}
		if err = repos.closer.Close(); err != nil {
			dbLogger.Error("closing database", err)
		}
	}()

	// set up the token denylist
	var denylist auth.Denylist
	if conf.Redis.Addr != "" {
		rdb, err := redisstore.Open(ctx, conf.Redis)
		if err != nil {
			logger.Fatal("connecting to redis", err, map[string]interface{}{"addr": conf.Redis.Addr})
		}
		defer func() { _ = rdb.Close() }()
		denylist = redisstore.NewDenylist(rdb)
	} else {
		logger.Warn("redis is not configured: revoked tokens are kept in memory")
		denylist = auth.NewMemoryDenylist()
	}

	// =========================================================================
	// Initialize App

	logger.Info("Application initializing", map[string]interface{}{"version": conf.Build, "env": conf.Env})
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	school.InitValidators(validate, translator)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridApiKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	hub := realtime.NewHub(conf.Realtime, logger)
	metrics := echoapi.NewMetrics(hub)

	usrSvc := user.NewService(repos.users, repos.school, mailSvc, conf)
	tokens := auth.NewTokenManager(conf.SecretKey, conf.JWTIssuer, conf.JWTExpirationDelta)
	authSvc := auth.NewService(usrSvc, tokens, denylist, validate)
	schoolSvc := school.NewService(repos.school, usrSvc, metrics.CountMarks(hub))

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(conf.StorageDriver)
	expvar.Publish("realtimeClients", expvar.Func(func() interface{} { return hub.Count() }))

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error("debug server closed", err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			Validate:   validate,
			Translator: translator,
			AuthSvc:    authSvc,
			UserSvc:    usrSvc,
			SchoolSvc:  schoolSvc,
			Hub:        hub,
			Metrics:    metrics,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal("server error", err)

	case sig := <-server.ShutdownSignal():
		logger.Info("Start shutdown...", map[string]interface{}{"signal": sig.String()})

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(ctx, conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error("could not stop server gracefully", err)

			if err = server.Close(); err != nil {
				logger.Fatal("could not force stop server", err)
			}
		}
	}
}

func setUpStorage(ctx context.Context, conf *core.Config) (repositories, error) {
	switch conf.StorageDriver {
	case core.StorageDriverMemory:
		db := inmemdb.Open()
		return repositories{
			users:  inmemdb.NewUserRepository(db),
			school: inmemdb.NewSchoolRepository(db),
		}, nil

	case core.StorageDriverPostgres:
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return repositories{}, err
		}
		db, err := database.Open(ctx, conf)
		if err != nil {
			return repositories{}, err
		}
		if err = database.Migrate(db.DB); err != nil {
			_ = db.Close()
			return repositories{}, err
		}
		return repositories{
			users:  sqlxrepos.NewUserRepository(db),
			school: sqlxrepos.NewSchoolRepository(db),
			closer: db,
		}, nil

	default:
		return repositories{}, errors.Errorf("unknown storage driver %q", conf.StorageDriver)
	}
}
