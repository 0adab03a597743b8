package main

import (
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/terrastat/lisa-cli/internal/fetch"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download a boundary shapefile archive",
	Long:  "Downloads a polygon boundary archive from an FTP or HTTP mirror into the data directory.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rawURL, _ := cmd.Flags().GetString("url")
		dest, _ := cmd.Flags().GetString("dest")
		if rawURL == "" {
			return eris.New("fetch: --url is required")
		}
		if dest == "" {
			dest = cfg.Fetch.DestDir
		}
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return eris.Wrapf(err, "fetch: create dest dir %s", dest)
		}

		u, err := url.Parse(rawURL)
		if err != nil {
			return eris.Wrap(err, "fetch: parse url")
		}
		name := path.Base(u.Path)
		if name == "" || name == "/" || name == "." {
			return eris.Errorf("fetch: cannot derive a file name from %s", rawURL)
		}
		target := filepath.Join(dest, name)

		timeout := time.Duration(cfg.Fetch.TimeoutSecs) * time.Second

		var n int64
		switch u.Scheme {
		case "ftp":
			f := fetch.NewFTPFetcher(fetch.FTPOptions{Timeout: timeout})
			n, err = f.DownloadToFile(ctx, rawURL, target)
		case "http", "https":
			f := fetch.NewHTTPFetcher(fetch.HTTPOptions{
				Timeout:   timeout,
				UserAgent: cfg.Fetch.UserAgent,
				Limiter:   rate.NewLimiter(rate.Limit(cfg.Fetch.RatePerSec), 1),
			})
			n, err = f.DownloadToFile(ctx, rawURL, target)
		default:
			return eris.Errorf("fetch: unsupported scheme %q", u.Scheme)
		}
		if err != nil {
			return eris.Wrap(err, "fetch")
		}

		zap.L().Info("fetch: download complete",
			zap.String("url", rawURL),
			zap.String("target", target),
			zap.Int64("bytes", n),
		)
		fmt.Printf("Downloaded %s (%d bytes)\n", target, n)

		extract, _ := cmd.Flags().GetBool("extract")
		if extract && filepath.Ext(target) == ".zip" {
			paths, err := fetch.ExtractArchive(target, dest)
			if err != nil {
				return eris.Wrap(err, "fetch")
			}
			if shpPath, err := fetch.ShapefilePath(paths); err == nil {
				fmt.Printf("Extracted %d files, shapefile at %s\n", len(paths), shpPath)
			} else {
				fmt.Printf("Extracted %d files\n", len(paths))
			}
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().String("url", "", "ftp:// or http(s):// URL of the boundary archive")
	fetchCmd.Flags().String("dest", "", "destination directory (default from config)")
	fetchCmd.Flags().Bool("extract", true, "extract downloaded .zip archives in place")
	rootCmd.AddCommand(fetchCmd)
}
