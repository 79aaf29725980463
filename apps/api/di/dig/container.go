package dig_container

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/enrollment"
	"github.com/trezcool/darasa/core/session"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	meetingsvc "github.com/trezcool/darasa/services/meeting"
	"github.com/trezcool/darasa/storage/database"
	sqlxrepos "github.com/trezcool/darasa/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*database.DB, core.DB) {
	setUp := func() (*database.DB, error) {
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

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService()
	}
	return emailsvc.NewSendgridService(logger)
}

func newMeetingService(conf *core.Config, logger core.Logger) (core.MeetingService, core.RecordingScheduler) {
	if conf.Zoom.ClientID != "" {
		zoom := meetingsvc.NewZoomService(logger, conf)
		return zoom, meetingsvc.NewRecordingScheduler(zoom, logger)
	}
	dummy := meetingsvc.NewDummyService()
	return dummy, dummy
}

func newSessionRepository(db core.DB) session.Repository {
	return sqlxrepos.NewSessionRepository(db)
}

func newEnrollmentRepository(db core.DB) (enrollment.Repository, attendance.Roster) {
	repo := sqlxrepos.NewEnrollmentRepository(db)
	return repo, repo
}

func newAttendanceRepository(db core.DB) attendance.Repository {
	return sqlxrepos.NewAttendanceRepository(db)
}

func newSessionService(
	db core.DB,
	repo session.Repository,
	seeder *attendance.Seeder,
	meetingSvc core.MeetingService,
	recordings core.RecordingScheduler,
	mailSvc core.EmailService,
	clock core.Clock,
	conf *core.Config,
) session.Service {
	return session.NewService(db, repo, seeder, meetingSvc, recordings, mailSvc, clock, conf)
}

func newEnrollmentService(
	db core.DB,
	repo enrollment.Repository,
	mailSvc core.EmailService,
	clock core.Clock,
	conf *core.Config,
) enrollment.Service {
	return enrollment.NewService(db, repo, mailSvc, clock, conf)
}

func newServerDeps(
	conf *core.Config,
	logger core.Logger,
	sessSvc session.Service,
	enrSvc enrollment.Service,
	validate *validator.Validate,
	translator ut.Translator,
) echoapi.ServerDeps {
	return echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		SessionSvc:    sessSvc,
		EnrollmentSvc: enrSvc,
		Validate:      validate,
		Translator:    translator,
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newEmailService))
	must(c.Provide(newMeetingService))
	must(c.Provide(core.NewClock))
	must(c.Provide(newSessionRepository))
	must(c.Provide(newEnrollmentRepository))
	must(c.Provide(newAttendanceRepository))
	must(c.Provide(attendance.NewSeeder))
	must(c.Provide(newSessionService))
	must(c.Provide(newEnrollmentService))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))
	must(c.Provide(newServerDeps))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
