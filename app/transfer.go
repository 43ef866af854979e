// Package app implements single-file transfers over FTP and FTPS.
//
// Every operation opens its own connection, performs exactly one transfer and
// closes the connection again before returning. Failures never escape as
// panics: they are logged with their category and reported through the
// returned Result.
package app

import (
	"context"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/kthxat/ferry/backends"
)

const DefaultPort = 21

const (
	plainBackendID  = "ftp"
	secureBackendID = "ftps"

	anonymousUser     = "anonymous"
	anonymousPassword = "anonymous@"
)

// Logger receives all progress and error reporting. *zap.SugaredLogger
// satisfies it.
type Logger interface {
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

type Operation int

const (
	OperationUpload Operation = iota
	OperationDownload
)

func (o Operation) String() string {
	if o == OperationDownload {
		return "download"
	}
	return "upload"
}

// Request describes one transfer.
type Request struct {
	// Address of the server, optionally prefixed with a scheme such as
	// "ftp://".
	Address string

	// Port defaults to DefaultPort when zero.
	Port       int
	LocalPath  string
	RemotePath string

	// RemoteDir is changed into before uploading. Ignored for downloads.
	RemoteDir string
	User      string
	Password  string

	// CreateDir creates RemoteDir if changing into it is rejected.
	CreateDir bool
}

// Result is the outcome of one transfer.
type Result struct {
	ID          string
	Operation   Operation
	Secure      bool
	Host        string
	Destination string
	Bytes       int64
	Duration    time.Duration

	// Err is nil on success, a *TransferError otherwise.
	Err      error
	// CloseErr is set if terminating the connection failed. It does not
	// change the outcome recorded in Err.
	CloseErr error
}

// OK reports whether the transfer itself succeeded.
func (r *Result) OK() bool {
	return r.Err == nil
}

// Combined returns the transfer error and the teardown error as one error,
// or nil if neither occurred.
func (r *Result) Combined() error {
	return multierr.Combine(r.Err, r.CloseErr)
}

// Transferer runs transfers. It keeps no per-call state and may be used from
// multiple goroutines at once.
type Transferer struct {
	Logger Logger

	// Resolve looks up the backend for an ID. Defaults to backends.GetByID.
	Resolve func(id string) *backends.BackendDescriptor

	// BackendConfig returns the configuration of a backend. May be nil.
	BackendConfig func(id string) *viper.Viper
}

func New(logger Logger) *Transferer {
	return &Transferer{Logger: logger}
}

func (t *Transferer) UploadToFTP(ctx context.Context, req Request) *Result {
	return t.run(ctx, plainBackendID, OperationUpload, req)
}

func (t *Transferer) DownloadFromFTP(ctx context.Context, req Request) *Result {
	return t.run(ctx, plainBackendID, OperationDownload, req)
}

func (t *Transferer) UploadToFTPS(ctx context.Context, req Request) *Result {
	return t.run(ctx, secureBackendID, OperationUpload, req)
}

func (t *Transferer) DownloadFromFTPS(ctx context.Context, req Request) *Result {
	return t.run(ctx, secureBackendID, OperationDownload, req)
}

// StripScheme removes everything up to and including the last "://".
func StripScheme(address string) string {
	if i := strings.LastIndex(address, "://"); i >= 0 {
		return address[i+len("://"):]
	}
	return address
}

func (t *Transferer) logger() Logger {
	if t.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return t.Logger
}

func (t *Transferer) resolve(id string) *backends.BackendDescriptor {
	if t.Resolve != nil {
		return t.Resolve(id)
	}
	return backends.GetByID(id)
}

func (t *Transferer) backendConfig(id string) *viper.Viper {
	if t.BackendConfig == nil {
		return nil
	}
	return t.BackendConfig(id)
}

// fail logs err under its category and returns it.
func (t *Transferer) fail(err error) error {
	te := classify(err)
	t.logger().Errorf("%s: %v", te.Category.logPrefix(), te.Err)
	return te
}

func validate(req Request, secure bool) (port int, err error) {
	port = req.Port
	if port == 0 {
		port = DefaultPort
	}
	if port < 0 || port > 65535 {
		err = newError(CategoryInvalidConfig, errors.Errorf("invalid port %d", req.Port))
		return
	}
	if secure && (len(req.User) == 0) != (len(req.Password) == 0) {
		err = newError(CategoryInvalidConfig, ErrPartialCredentials)
	}
	return
}

func (t *Transferer) run(ctx context.Context, backendID string, op Operation, req Request) (result *Result) {
	log := t.logger()
	started := time.Now()
	result = &Result{
		ID:        xid.New().String(),
		Operation: op,
		Host:      StripScheme(req.Address),
	}

	descriptor := t.resolve(backendID)
	if descriptor == nil {
		result.Err = t.fail(newError(CategoryInvalidConfig,
			errors.Wrap(backends.ErrUnknownBackend, backendID)))
		return
	}
	result.Secure = descriptor.Secure
	protocol := "FTP"
	if descriptor.Secure {
		protocol = "FTPS"
	}

	port, err := validate(req, descriptor.Secure)
	if err != nil {
		result.Err = t.fail(err)
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}

	log.Debugf("Transfer %s: %s via %s to %s:%d", result.ID, op, protocol, result.Host, port)

	conn, err := descriptor.Dial(&backends.BackendConstructionParams{
		Context: ctx,
		Address: net.JoinHostPort(result.Host, strconv.Itoa(port)),
		Host:    result.Host,
		Config:  t.backendConfig(backendID),
	})
	if err != nil {
		result.Err = t.fail(err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			result.CloseErr = newError(CategoryTeardown, err)
			log.Errorf("Error during %s quit: %v", protocol, err)
		}
		result.Duration = time.Since(started)
	}()

	if err := login(conn, req); err != nil {
		result.Err = t.fail(err)
		return
	}

	dir, err := conn.CurrentDir()
	if err != nil {
		result.Err = t.fail(err)
		return
	}
	log.Infof("Connected to %s, initial dir: %s", result.Host, dir)

	switch op {
	case OperationUpload:
		err = t.upload(conn, req, result)
	case OperationDownload:
		err = t.download(conn, req, result)
	}
	if err != nil {
		result.Err = t.fail(err)
		return
	}

	log.Debugf("Transfer %s: %s %s in %s", result.ID, op,
		humanize.Bytes(uint64(result.Bytes)), time.Since(started).Round(time.Millisecond))
	return
}

// login uses the given credentials if both are set and falls back to an
// anonymous login otherwise.
func login(conn backends.Conn, req Request) error {
	if len(req.User) > 0 && len(req.Password) > 0 {
		return conn.Login(req.User, req.Password)
	}
	return conn.Login(anonymousUser, anonymousPassword)
}

// enterRemoteDir changes into dir. A rejected change is logged and, unless
// createDir is set, the transfer continues in the current directory.
func (t *Transferer) enterRemoteDir(conn backends.Conn, dir string, createDir bool) error {
	err := conn.ChangeDir(dir)
	if err == nil {
		return nil
	}
	if classify(err).Category != CategoryPermission {
		return err
	}

	log := t.logger()
	log.Errorf("Error navigating to directory %s: %v", dir, err)
	if !createDir {
		return nil
	}

	log.Infof("Directory %s does not exist. Creating it.", dir)
	if err := conn.MakeDir(dir); err != nil {
		return err
	}
	return conn.ChangeDir(dir)
}

func (t *Transferer) upload(conn backends.Conn, req Request, result *Result) error {
	log := t.logger()

	if len(req.RemoteDir) > 0 {
		if err := t.enterRemoteDir(conn, req.RemoteDir, req.CreateDir); err != nil {
			return err
		}
	}

	f, err := os.Open(req.LocalPath)
	if err != nil {
		return newError(CategoryMissingSource, err)
	}
	defer f.Close()

	// Opening a directory succeeds on most platforms; refuse it before STOR.
	info, err := f.Stat()
	if err != nil {
		return newError(CategoryMissingSource, err)
	}
	if info.IsDir() {
		return newError(CategoryMissingSource,
			&fs.PathError{Op: "open", Path: req.LocalPath, Err: syscall.EISDIR})
	}

	src := &progressReader{
		Reader:   f,
		callback: func(n int) { UploadProgress(log, n) },
	}
	if err := conn.Store(req.RemotePath, src); err != nil {
		return err
	}

	result.Bytes = src.total
	result.Destination = req.RemotePath
	log.Infof("File uploaded to %s", req.RemotePath)
	return nil
}

func (t *Transferer) download(conn backends.Conn, req Request, result *Result) error {
	log := t.logger()

	f, err := os.Create(req.LocalPath)
	if err != nil {
		return newError(CategoryMissingSource, err)
	}

	dest := &progressWriter{
		Writer:   f,
		callback: func(n int) { DownloadProgress(log, n) },
	}
	err = conn.Retrieve(req.RemotePath, dest)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = errors.Wrapf(closeErr, "closing %s", req.LocalPath)
	}
	if err != nil {
		return err
	}

	result.Bytes = dest.total
	result.Destination = req.LocalPath
	log.Infof("File downloaded to %s", req.LocalPath)
	return nil
}
