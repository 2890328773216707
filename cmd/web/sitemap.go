package main

import (
    "os"

    "github.com/pkg/errors"
    "github.com/spf13/cobra"

    "finitefield.org/holding-web/internal/cms"
)

func newSitemapCmd(opts *rootOptions) *cobra.Command {
    var output string
    cmd := &cobra.Command{
        Use:   "sitemap",
        Short: "Fetch the blog list and write sitemap.xml",
        RunE: func(cmd *cobra.Command, _ []string) error {
            a, err := loadApp(cmd.Context(), opts)
            if err != nil {
                return err
            }
            defer func() { _ = a.logger.Sync() }()
            return a.writeSitemap(cmd, output)
        },
    }
    cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
    return cmd
}

func (a *app) writeSitemap(cmd *cobra.Command, output string) error {
    if _, err := a.content.Posts(cmd.Context(), cms.LangEnglish); err != nil {
        return errors.Wrap(err, "fetch blog posts")
    }
    body, err := a.server.Sitemap()
    if err != nil {
        return errors.Wrap(err, "render sitemap")
    }
    if output == "" {
        _, err = cmd.OutOrStdout().Write(body)
        return errors.Wrap(err, "write sitemap")
    }
    return errors.Wrap(os.WriteFile(output, body, 0o644), "write sitemap")
}
