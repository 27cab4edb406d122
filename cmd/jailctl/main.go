// Command jailctl runs SoftJail imports and exports against the configured
// store without the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/softjail/internal/blob"
	"github.com/JonMunkholm/softjail/internal/blob/s3"
	"github.com/JonMunkholm/softjail/internal/config"
	"github.com/JonMunkholm/softjail/internal/core"
	"github.com/JonMunkholm/softjail/internal/logging"
	"github.com/JonMunkholm/softjail/internal/store"
)

// Exit codes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitUsage      = 2
	exitValidation = 3
	exitDB         = 4
)

type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, err: err}
}

// exitCode picks the process exit code for err.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.code
	}
	switch {
	case errors.Is(err, core.ErrUnknownKind), errors.Is(err, core.ErrInvalidFilter):
		return exitUsage
	case errors.Is(err, core.ErrMalformedPayload), errors.Is(err, core.ErrPayloadTooLarge):
		return exitValidation
	case errors.Is(err, core.ErrForeignKey), errors.Is(err, core.ErrDuplicateKey), errors.Is(err, core.ErrStoreUnavailable):
		return exitDB
	}
	return exitFailure
}

// app holds what subcommands share. The service is opened lazily so --help
// works without a store.
type app struct {
	getenv  func(string) string
	stdout  io.Writer
	service *core.Service
	closers []func() error
}

func (a *app) open(ctx context.Context) (*core.Service, error) {
	if a.service != nil {
		return a.service, nil
	}
	cfg, err := config.LoadFrom(a.getenv)
	if err != nil {
		return nil, withCode(exitUsage, err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	db, err := store.Open(ctx, store.Config{
		Driver:          cfg.Store.Driver,
		URL:             cfg.Store.URL,
		SQLitePath:      cfg.Store.SQLitePath,
		MaxConns:        cfg.Store.MaxConns,
		MinConns:        cfg.Store.MinConns,
		MaxConnLifetime: cfg.Store.MaxConnLifetime,
		MaxConnIdleTime: cfg.Store.MaxConnIdleTime,
	})
	if err != nil {
		return nil, withCode(exitDB, err)
	}
	a.closers = append(a.closers, db.Close)

	archive, err := blob.Open(ctx, blob.Config{
		Driver: cfg.Archive.Driver,
		FSRoot: cfg.Archive.FSRoot,
		S3: s3.Config{
			Region:          cfg.Archive.S3Region,
			Bucket:          cfg.Archive.S3Bucket,
			Endpoint:        cfg.Archive.S3Endpoint,
			AccessKeyID:     cfg.Archive.S3AccessKeyID,
			SecretAccessKey: cfg.Archive.S3SecretAccessKey,
			PathStyle:       cfg.Archive.S3PathStyle,
		},
	})
	if err != nil {
		return nil, err
	}

	a.service = core.NewService(db, archive, nil, cfg)
	return a.service, nil
}

func (a *app) close() {
	for _, c := range a.closers {
		c()
	}
	a.closers = nil
	a.service = nil
}

func newRootCmd(getenv func(string) string, stdout io.Writer) (*cobra.Command, *app) {
	a := &app{getenv: getenv, stdout: stdout}

	root := &cobra.Command{
		Use:           "jailctl",
		Short:         "Import and export SoftJail records",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.AddCommand(newImportCmd(a), newExportCmd(a), newHistoryCmd(a), newKindsCmd(a))
	return root, a
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	root, a := newRootCmd(os.Getenv, os.Stdout)
	err := root.ExecuteContext(ctx)
	a.close()
	stop()

	if err != nil {
		msg := core.MapError(err)
		fmt.Fprintf(os.Stderr, "jailctl: %v\n", err)
		if core.IsUserFacing(err) {
			fmt.Fprintf(os.Stderr, "%s (Code: %s). %s\n", msg.Message, msg.Code, msg.Action)
		}
	}
	os.Exit(exitCode(err))
}
