package main

import (
    "context"
    "net/http"
    "os/signal"
    "syscall"
    "time"

    "github.com/pkg/errors"
    "github.com/spf13/cobra"
    "go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
    var warm bool
    cmd := &cobra.Command{
        Use:   "serve",
        Short: "Run the HTTP server",
        RunE: func(cmd *cobra.Command, _ []string) error {
            ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
            defer stop()

            a, err := loadApp(ctx, opts)
            if err != nil {
                return err
            }
            defer func() { _ = a.logger.Sync() }()
            if warm {
                a.warm(ctx)
            }
            return a.serve(ctx)
        },
    }
    cmd.Flags().BoolVar(&warm, "warm", true, "prefetch every collection in each language before listening")
    return cmd
}

// warm fills the cache in the background so first visitors get a snapshot.
func (a *app) warm(ctx context.Context) {
    for _, lang := range a.cfg.Site.Languages {
        a.content.Aggregator(lang).Snapshot(ctx)
    }
}

func (a *app) serve(ctx context.Context) error {
    server := &http.Server{
        Addr:         ":" + a.cfg.Server.Port,
        Handler:      a.server.Router(),
        ReadTimeout:  a.cfg.Server.ReadTimeout,
        WriteTimeout: a.cfg.Server.WriteTimeout,
        IdleTimeout:  a.cfg.Server.IdleTimeout,
    }
    logger := a.logger.Named("http").With(zap.String("addr", server.Addr))

    errCh := make(chan error, 1)
    go func() {
        logger.Info("holding web listening", zap.String("env", a.cfg.Environment))
        if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            errCh <- err
        }
        close(errCh)
    }()

    select {
    case err := <-errCh:
        if err != nil {
            return errors.Wrap(err, "http server")
        }
        return nil
    case <-ctx.Done():
    }
    logger.Info("shutdown signal received; draining requests")

    shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
    defer cancel()
    if err := server.Shutdown(shutdownCtx); err != nil {
        logger.Error("graceful shutdown failed", zap.Error(err))
        return errors.Wrap(err, "shutdown")
    }
    a.store.Wait()
    return nil
}
