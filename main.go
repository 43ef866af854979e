package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kthxat/ferry/app"
	_ "github.com/kthxat/ferry/backends/ftp"
	"github.com/kthxat/ferry/config"
	"github.com/kthxat/ferry/logging"
)

const (
	appID          = "ferry"
	appName        = "Ferry"
	appAuthor      = `Carl Kittelberger`
	appDescription = "Single-file transfers over FTP and FTPS."
)

const (
	exitTransferFailed = 1
	exitUsage          = 2
)

var (
	appDevelopmentStartTime = mustParseTime(time.Parse(time.RFC1123, "Fri, 05 Apr 2019 00:00:00 CET"))
	appBuildTime            = time.Now()
	appVersion              = ""
)

func mustParseTime(t time.Time, err error) time.Time {
	if err != nil {
		panic(err)
	}
	return t
}

func printHeader(w io.Writer) {
	var yearStr string
	if appBuildTime.Year() > appDevelopmentStartTime.Year() {
		yearStr = fmt.Sprintf("%d\u2013%d", appDevelopmentStartTime.Year(), appBuildTime.Year())
	} else {
		yearStr = fmt.Sprintf("%d", appBuildTime.Year())
	}

	fmt.Fprintln(w, appName)
	if len(appVersion) > 0 {
		fmt.Fprintf(w, "\tVersion %s\n", appVersion)
	}
	fmt.Fprintf(w, "\t\u00a9 %s %s\n", yearStr, appAuthor)
	fmt.Fprintln(w)
}

const (
	metaLogger = "logger"
	metaConfig = "config"
)

func loggerFrom(c *cli.Context) *zap.SugaredLogger {
	return c.App.Metadata[metaLogger].(*zap.SugaredLogger)
}

func configFrom(c *cli.Context) *config.Config {
	return c.App.Metadata[metaConfig].(*config.Config)
}

func setup(c *cli.Context) error {
	if err := config.ReadConfig(appID, c.String("config")); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to read config: %s", err), exitUsage)
	}
	cfg, err := config.GetConfig()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Invalid config: %s", err), exitUsage)
	}
	if cfg.Server == nil {
		cfg.Server = &config.ServerConfig{Port: app.DefaultPort}
	}

	levelName := cfg.LogLevel
	if c.IsSet("log-level") {
		levelName = c.String("log-level")
	}
	logger, err := logging.NewFromName(c.App.ErrWriter, levelName)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	if levelName == "debug" {
		printHeader(c.App.ErrWriter)
		logger.Debugf("Resolved configuration:\n%s", spew.Sdump(cfg.Redacted()))
	}

	c.App.Metadata[metaLogger] = logger
	c.App.Metadata[metaConfig] = cfg
	return nil
}

func transferFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "tls",
			Usage: "use explicit FTP over TLS (AUTH TLS, PROT P)",
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "server port (default from config, else 21)",
		},
		&cli.StringFlag{
			Name:    "user",
			Aliases: []string{"u"},
			Usage:   "user name; anonymous login if user or password is missing",
		},
		&cli.StringFlag{
			Name:    "password",
			Usage:   "password",
			EnvVars: []string{"FERRY_PASSWORD"},
		},
	}
}

func uploadFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:  "remote-dir",
			Usage: "remote directory to change into before uploading",
		},
		&cli.BoolFlag{
			Name:  "create-dir",
			Usage: "create the remote directory if it cannot be entered",
		},
	}, transferFlags()...)
}

// buildRequest merges command line arguments and flags over the configured
// server defaults. Positional arguments are ADDRESS FROM TO, where ADDRESS
// may be omitted if the config names a server.
func buildRequest(c *cli.Context, server *config.ServerConfig, op app.Operation) (req app.Request, secure bool, err error) {
	args := c.Args().Slice()
	switch {
	case len(args) == 3:
		req.Address = args[0]
		args = args[1:]
	case len(args) == 2 && len(server.Address) > 0:
		req.Address = server.Address
	default:
		err = fmt.Errorf("expected %s", c.Command.ArgsUsage)
		return
	}
	if op == app.OperationUpload {
		req.LocalPath, req.RemotePath = args[0], args[1]
	} else {
		req.RemotePath, req.LocalPath = args[0], args[1]
	}

	req.Port = server.Port
	if c.IsSet("port") {
		req.Port = c.Int("port")
	}
	req.User = server.User
	if c.IsSet("user") {
		req.User = c.String("user")
	}
	req.Password = server.Password
	if c.IsSet("password") {
		req.Password = c.String("password")
	}
	secure = server.TLS
	if c.IsSet("tls") {
		secure = c.Bool("tls")
	}

	if op == app.OperationUpload {
		req.RemoteDir = server.RemoteDir
		if c.IsSet("remote-dir") {
			req.RemoteDir = c.String("remote-dir")
		}
		req.CreateDir = server.CreateDir
		if c.IsSet("create-dir") {
			req.CreateDir = c.Bool("create-dir")
		}
	}
	return
}

func transferAction(op app.Operation) cli.ActionFunc {
	return func(c *cli.Context) error {
		req, secure, err := buildRequest(c, configFrom(c).Server, op)
		if err != nil {
			cli.ShowCommandHelp(c, c.Command.Name)
			return cli.Exit(err.Error(), exitUsage)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger := loggerFrom(c)
		defer logger.Sync()

		transferer := &app.Transferer{
			Logger:        logger,
			BackendConfig: config.GetBackendConfig,
		}

		var result *app.Result
		switch {
		case op == app.OperationUpload && secure:
			result = transferer.UploadToFTPS(ctx, req)
		case op == app.OperationUpload:
			result = transferer.UploadToFTP(ctx, req)
		case secure:
			result = transferer.DownloadFromFTPS(ctx, req)
		default:
			result = transferer.DownloadFromFTP(ctx, req)
		}

		if !result.OK() {
			// The failure has already been logged.
			return cli.Exit("", exitTransferFailed)
		}
		return nil
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    appID,
		Usage:   appDescription,
		Version: appVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "one of debug, info, warning, error, critical",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "read configuration from `FILE` instead of the default locations",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:      "upload",
				Usage:     "store a local file on the server",
				ArgsUsage: "[ADDRESS] LOCAL REMOTE",
				Flags:     uploadFlags(),
				Action:    transferAction(app.OperationUpload),
			},
			{
				Name:      "download",
				Usage:     "fetch a remote file into a local file",
				ArgsUsage: "[ADDRESS] REMOTE LOCAL",
				Flags:     transferFlags(),
				Action:    transferAction(app.OperationDownload),
			},
		},
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}
}
