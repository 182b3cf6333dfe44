// Package cli implements narratorctl, the admin command line of the narrator
// backend: schema migrations, fixture seeding and read-only session
// inspection against the same database the API server uses.
package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/go-narrator-backend/internal/repo"
	"github.com/tbourn/go-narrator-backend/internal/sysutil"
)

// AppName is the binary name.
const AppName = "narratorctl"

// app is the state shared by subcommands. It is filled by the root's
// persistent pre-run.
type app struct {
	driver   string
	target   string
	logLevel string
	jsonOut  bool

	log zerolog.Logger
	// open is swapped in tests.
	open func(driver, target string) (*gorm.DB, error)
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	a := &app{open: repo.Open}

	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "Admin CLI for the narrator backend",
		Long:          "narratorctl migrates the schema, seeds game fixtures and inspects sessions.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()
			a.resolve()
			a.log = sysutil.NewLogger(cmd.ErrOrStderr(), a.logLevel, true, AppName)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")

	f := cmd.PersistentFlags()
	f.StringVar(&a.driver, "driver", "", "database driver: sqlite, postgres or mysql (env DB_DRIVER)")
	f.StringVar(&a.target, "db", "", "sqlite path or DSN (env DB_PATH / DB_DSN)")
	f.StringVar(&a.logLevel, "log-level", "", "log level (env LOG_LEVEL)")
	f.BoolVar(&a.jsonOut, "json", false, "output in JSON format")

	cmd.AddCommand(
		newMigrateCmd(a),
		newSeedCmd(a),
		newReplayCmd(a),
		newBoardCmd(a),
	)
	return cmd
}

// resolve fills unset flags from the environment, then from defaults.
func (a *app) resolve() {
	a.driver = sysutil.FirstNonEmpty(a.driver, os.Getenv("DB_DRIVER"), repo.DriverSQLite)
	if a.driver == repo.DriverSQLite {
		a.target = sysutil.FirstNonEmpty(a.target, os.Getenv("DB_PATH"), "narrator.db")
	} else {
		a.target = sysutil.FirstNonEmpty(a.target, os.Getenv("DB_DSN"))
	}
	a.logLevel = sysutil.FirstNonEmpty(a.logLevel, os.Getenv("LOG_LEVEL"), "info")
}

// withDB opens the database for one command and closes it afterwards.
func (a *app) withDB(fn func(db *gorm.DB) error) error {
	db, err := a.open(a.driver, a.target)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	return fn(db)
}
