package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/syllabix/syllabix/core"
	"github.com/syllabix/syllabix/core/course"
	"github.com/syllabix/syllabix/core/department"
	"github.com/syllabix/syllabix/core/regulation"
	"github.com/syllabix/syllabix/core/user"
	"github.com/syllabix/syllabix/storage/database/sqlxrepos"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errEmptyPassword = errors.New("password cannot be empty")
)

type commandLine struct {
	db       *sqlx.DB
	usrRepo  user.Repository
	validate *validator.Validate

	deptSvc *department.Service
	regSvc  *regulation.Service
	crsSvc  *course.Service
}

func newCommandLine(db *sqlx.DB) *commandLine {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	regulation.InitValidators(validate, translator)
	course.InitValidators(validate, translator)

	regSvc := regulation.NewService(db, sqlxrepos.NewRegulationRepository(db))
	return &commandLine{
		db:       db,
		usrRepo:  sqlxrepos.NewUserRepository(db),
		validate: validate,
		deptSvc:  department.NewService(sqlxrepos.NewDepartmentRepository(db)),
		regSvc:   regSvc,
		crsSvc:   course.NewService(db, sqlxrepos.NewCourseRepository(db), regSvc),
	}
}

func newRootCmd(cli *commandLine) *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Syllabix administration tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		cli.addUserCmd(),
		cli.resetPasswordCmd(),
		cli.migrateCmd(),
		cli.importCmd(),
	)
	return root
}

// promptPassword reads a password from the terminal without echoing it.
func promptPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), "Enter password:")
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	if len(pwd) == 0 {
		return "", errEmptyPassword
	}
	return string(pwd), nil
}
