package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	echoapi "github.com/syllabix/syllabix/apps/api/echo"
	"github.com/syllabix/syllabix/core"
	"github.com/syllabix/syllabix/core/cluster"
	"github.com/syllabix/syllabix/core/course"
	"github.com/syllabix/syllabix/core/department"
	"github.com/syllabix/syllabix/core/honour"
	"github.com/syllabix/syllabix/core/regulation"
	"github.com/syllabix/syllabix/core/roster"
	"github.com/syllabix/syllabix/core/user"
	emailsvc "github.com/syllabix/syllabix/services/email"
	logsvc "github.com/syllabix/syllabix/services/logger"
	"github.com/syllabix/syllabix/services/metrics"
	"github.com/syllabix/syllabix/storage/database"
	"github.com/syllabix/syllabix/storage/database/sqlxrepos"
)

type mailService interface {
	core.EmailService
	Wait()
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger, err := logsvc.NewRollbarLogger(conf)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}
	defer logger.Close()

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("failed to close database", err)
		}
	}()

	registry := prometheus.NewRegistry()
	mtr := metrics.New(registry)

	// set up services
	var mailSvc mailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	defer mailSvc.Wait()

	regSvc := regulation.NewService(db, sqlxrepos.NewRegulationRepository(db))
	deps := echoapi.ServerDeps{
		Conf:    conf,
		Logger:  logger,
		Metrics: mtr,

		UserSvc:       user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, conf),
		DepartmentSvc: department.NewService(sqlxrepos.NewDepartmentRepository(db)),
		RegulationSvc: regSvc,
		ClusterSvc:    cluster.NewService(db, sqlxrepos.NewClusterRepository(db), mtr),
		CourseSvc:     course.NewService(db, sqlxrepos.NewCourseRepository(db), regSvc),
		HonourSvc:     honour.NewService(sqlxrepos.NewHonourRepository(db), regSvc),
		RosterSvc:     roster.NewService(sqlxrepos.NewRosterRepository(db)),
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	deps.Validate = validator.New()
	deps.Translator = core.NewTranslator()
	echoapi.InitValidators(deps.Validate, deps.Translator)

	core.ParseEmailTemplates(logger)

	user.LoadCommonPasswords(logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - prometheus collectors of the API.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(deps)

	go func() {
		server.Start()
	}()
	logger.Info("API listening on " + conf.Server.Address)

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
