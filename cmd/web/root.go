package main

import (
    "context"
    "os"
    "time"

    "github.com/pkg/errors"
    "github.com/spf13/cobra"
    "go.uber.org/zap"

    "finitefield.org/holding-web/internal/cache"
    "finitefield.org/holding-web/internal/cms"
    "finitefield.org/holding-web/internal/content"
    "finitefield.org/holding-web/internal/handlers"
    "finitefield.org/holding-web/internal/i18n"
    "finitefield.org/holding-web/internal/nav"
    "finitefield.org/holding-web/internal/platform/config"
    "finitefield.org/holding-web/internal/platform/observability"
    "finitefield.org/holding-web/internal/retry"
)

type rootOptions struct {
    envFile string
}

func newRootCmd() *cobra.Command {
    opts := &rootOptions{}
    cmd := &cobra.Command{
        Use:          "holding-web",
        Short:        "Bilingual corporate site backed by a headless CMS",
        Long:         "Serves the site (the default when no subcommand is given) or renders its sitemap.",
        SilenceUsage: true,
    }
    cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file read before the environment (empty to skip)")

    serve := newServeCmd(opts)
    cmd.Flags().AddFlagSet(serve.Flags())
    cmd.RunE = serve.RunE
    cmd.AddCommand(serve)
    cmd.AddCommand(newSitemapCmd(opts))
    return cmd
}

// app is the wired process: content layer plus HTTP handlers.
type app struct {
    cfg     config.Config
    logger  *zap.Logger
    store   *cache.Store
    content *content.Service
    server  *handlers.Server
}

func loadApp(ctx context.Context, opts *rootOptions) (*app, error) {
    cfg, err := config.Load(ctx, config.WithEnvFile(opts.envFile))
    if err != nil {
        return nil, errors.Wrap(err, "load configuration")
    }
    logger, err := observability.NewLogger(cfg.Environment)
    if err != nil {
        return nil, errors.Wrap(err, "initialise logger")
    }
    return newApp(cfg, logger)
}

func newApp(cfg config.Config, logger *zap.Logger) (*app, error) {
    bundle, err := i18n.Default(cfg.Site.DefaultLang)
    if err != nil {
        return nil, errors.Wrap(err, "load locales")
    }

    fallback := nav.DefaultFallback()
    if cfg.Site.MenuFile != "" {
        raw, err := os.ReadFile(cfg.Site.MenuFile)
        if err != nil {
            return nil, errors.Wrap(err, "read fallback menu")
        }
        if fallback, err = nav.ParseFallback(raw); err != nil {
            return nil, errors.Wrap(err, "parse fallback menu")
        }
    }

    client := cms.NewClient(cfg.CMS.BaseURL,
        cms.WithTimeout(cfg.CMS.Timeout),
        cms.WithRetryPolicy(retry.Policy{MaxRetries: cfg.CMS.MaxRetries, BaseDelay: cfg.CMS.RetryBaseDelay}),
        cms.WithDefaultLang(cfg.CMS.DefaultLang),
        cms.WithLogger(logger.Named("cms")),
    )
    store := cache.New(
        cache.WithRevalidateTimeout(cfg.Cache.RevalidateTimeout),
        cache.WithMaxDetailEntries(cfg.Cache.MaxDetailEntries),
        cache.WithLogger(logger.Named("cache")),
    )
    svc := content.NewService(client, store,
        content.WithWindows(cfg.Cache.StaticWindow, cfg.Cache.VolatileWindow),
        content.WithSearchWindow(cfg.Cache.SearchWindow),
        content.WithFallbackMenu(fallback),
        content.WithTranslator(bundle),
        content.WithDefaultLang(cfg.Site.DefaultLang),
        content.WithLogger(logger.Named("content")),
    )

    server, err := handlers.New(handlers.Config{
        Content:       svc,
        Bundle:        bundle,
        Site:          cfg.Site,
        Scroll:        cfg.Scroll,
        Analytics:     cfg.Analytics,
        SecureCookies: cfg.Server.SecureCookies,
        Logger:        logger.Named("http"),
        Now:           time.Now,
    })
    if err != nil {
        return nil, errors.Wrap(err, "build handlers")
    }
    return &app{cfg: cfg, logger: logger, store: store, content: svc, server: server}, nil
}
