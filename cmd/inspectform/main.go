package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"

	"github.com/lox/inspectform/internal/archive"
	"github.com/lox/inspectform/internal/form"
	"github.com/lox/inspectform/internal/logger"
	"github.com/lox/inspectform/internal/sink"
	"github.com/lox/inspectform/internal/store"
)

type Globals struct {
	DB        string `help:"Path to SQLite database." default:"data/inspectform.db" env:"INSPECTFORM_DB"`
	LogLevel  string `help:"Log level." default:"info" enum:"debug,info,warn,error" env:"LOG_LEVEL"`
	LogFormat string `help:"Log format." default:"console" enum:"console,json" env:"LOG_FORMAT"`
}

type CLI struct {
	Globals

	Serve   ServeCmd   `cmd:"" help:"Run the inspection form server."`
	Export  ExportCmd  `cmd:"" help:"Export the form as an xlsx workbook."`
	Preview PreviewCmd `cmd:"" help:"Print the export preview table."`
	Dates   DatesCmd   `cmd:"" help:"List archived inspection dates, newest first."`
	Reset   ResetCmd   `cmd:"" help:"Clear the form and start a new inspection."`
	Delete  DeleteCmd  `cmd:"" help:"Delete an archived inspection."`
	Set     SetCmd     `cmd:"" help:"Edit a form value."`
}

// App is bound into every command's Run method.
type App struct {
	Ctx     context.Context
	Store   *store.Store
	Session *form.Session
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("inspectform"),
		kong.Description("Daily water treatment inspection form."),
		kong.UsageOnError(),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	logger.New(cli.LogLevel, cli.LogFormat)

	db, err := store.Open(cli.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	app, err := newApp(db)
	if err != nil {
		log.Fatal().Err(err).Msg("init")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	app.Ctx = ctx

	if err := kctx.Run(app); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(db *sql.DB) (*App, error) {
	st := store.New(db)
	if err := st.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &App{
		Ctx:     context.Background(),
		Store:   st,
		Session: form.NewSession(archive.New(st)),
	}, nil
}

// SinkFlags configures where exported workbooks are delivered.
type SinkFlags struct {
	Sink      string `help:"Export destination." default:"fs" enum:"fs,s3,ftp" env:"EXPORT_SINK"`
	ExportDir string `help:"Directory for the fs sink." default:"exports" env:"EXPORT_DIR"`

	S3Bucket    string `name:"s3-bucket" help:"S3 bucket." env:"S3_BUCKET"`
	S3Region    string `name:"s3-region" help:"S3 region." env:"AWS_REGION"`
	S3Endpoint  string `name:"s3-endpoint" help:"S3-compatible endpoint URL." env:"S3_ENDPOINT"`
	S3Prefix    string `name:"s3-prefix" help:"Key prefix for uploaded workbooks." env:"S3_PREFIX"`
	S3PathStyle bool   `name:"s3-path-style" help:"Use path-style S3 addressing." env:"S3_PATH_STYLE"`
	S3AccessKey string `name:"s3-access-key" help:"Static S3 access key." env:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `name:"s3-secret-key" help:"Static S3 secret key." env:"S3_SECRET_ACCESS_KEY"`

	FTPAddr     string `help:"FTP server host:port." env:"FTP_ADDR"`
	FTPUser     string `help:"FTP user." env:"FTP_USER"`
	FTPPassword string `help:"FTP password." env:"FTP_PASSWORD"`
	FTPDir      string `help:"FTP upload directory." env:"FTP_DIR"`
}

func (f SinkFlags) Open(ctx context.Context) (sink.Sink, error) {
	return sink.Open(ctx, sink.Config{
		Driver:      f.Sink,
		Dir:         f.ExportDir,
		S3Bucket:    f.S3Bucket,
		S3Region:    f.S3Region,
		S3Endpoint:  f.S3Endpoint,
		S3Prefix:    f.S3Prefix,
		S3PathStyle: f.S3PathStyle,
		S3AccessKey: f.S3AccessKey,
		S3SecretKey: f.S3SecretKey,
		FTPAddr:     f.FTPAddr,
		FTPUser:     f.FTPUser,
		FTPPassword: f.FTPPassword,
		FTPDir:      f.FTPDir,
	})
}
