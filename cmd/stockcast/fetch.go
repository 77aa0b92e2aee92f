package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/stockcast/internal/drive"
	"github.com/andresuchdata/stockcast/internal/storage"
	"github.com/andresuchdata/stockcast/pkg/logger"
)

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Download input sheets from a Google Drive folder",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "credentials",
				Usage:   "Service account credentials JSON",
				EnvVars: []string{"GOOGLE_DRIVE_CREDENTIALS_FILE"},
			},
			&cli.StringFlag{
				Name:    "folder-id",
				Usage:   "Drive folder to download from",
				EnvVars: []string{"GOOGLE_DRIVE_FOLDER_ID"},
			},
			&cli.StringFlag{
				Name:  "folder-path",
				Usage: "Resolve the folder by path (e.g. inventory/2024) instead of ID",
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Download directory (defaults to DRIVE_DOWNLOAD_DIR)",
			},
			&cli.StringSliceFlag{
				Name:  "name",
				Usage: "Only download files with this name; repeatable",
			},
		},
		Action: func(c *cli.Context) error {
			cfg := configFrom(c).Drive

			credentials := firstNonEmpty(c.String("credentials"), cfg.CredentialsFile)
			if credentials == "" {
				return fmt.Errorf("drive credentials file is required")
			}
			svc, err := drive.NewServiceFromFile(c.Context, credentials)
			if err != nil {
				return err
			}

			folderID := firstNonEmpty(c.String("folder-id"), cfg.FolderID)
			if p := c.String("folder-path"); p != "" {
				if folderID, err = svc.FindFolderByPath(c.Context, p); err != nil {
					return err
				}
			}
			if folderID == "" {
				return fmt.Errorf("either --folder-id or --folder-path is required")
			}

			paths, err := drive.NewDownloader(svc).DownloadFolder(c.Context, drive.DownloadOptions{
				FolderID:    folderID,
				DownloadDir: firstNonEmpty(c.String("dir"), cfg.DownloadDir),
				Names:       c.StringSlice("name"),
			})
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(c.App.Writer, p)
			}
			return nil
		},
	}
}

func pullCommand() *cli.Command {
	return &cli.Command{
		Name:  "pull",
		Usage: "Download sheets or exported results from the configured object storage",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "Object key prefix to list",
			},
			&cli.StringFlag{
				Name:  "key",
				Usage: "Single object to download, relative to --prefix",
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Download directory",
				Value: "./data/tmp/storage",
			},
		},
		Action: func(c *cli.Context) error {
			store, err := storage.New(configFrom(c).Storage)
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("STORAGE_PROVIDER is not set")
			}

			paths, err := pullObjects(c.Context, store, c.String("prefix"), c.String("key"), c.String("dir"))
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(c.App.Writer, p)
			}
			return nil
		},
	}
}

// pullObjects downloads key, or every supported sheet under prefix, keeping
// the layout below prefix.
func pullObjects(ctx context.Context, store storage.ObjectStorage, prefix, key, destDir string) ([]string, error) {
	var keys []string

	if key != "" {
		keys = []string{resolveObjectKey(prefix, key)}
	} else {
		listPrefix := strings.TrimSpace(prefix)
		objects, err := store.ListObjects(ctx, listPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects for prefix %s: %w", listPrefix, err)
		}
		for _, obj := range objects {
			if drive.Supported(obj.Key) {
				keys = append(keys, obj.Key)
			}
		}
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("no CSV or XLSX files found for prefix %s", prefix)
	}

	localPaths := make([]string, 0, len(keys))
	for _, k := range keys {
		localPath := filepath.Join(destDir, objectRelativePath(prefix, k))
		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to prepare directory for %s: %w", localPath, err)
		}
		if err := store.DownloadObject(ctx, k, localPath); err != nil {
			return nil, err
		}
		logger.Log.Info().Str("key", k).Str("path", localPath).Msg("downloaded object")
		localPaths = append(localPaths, localPath)
	}

	sort.Strings(localPaths)
	return localPaths, nil
}

func resolveObjectKey(prefix, key string) string {
	if key == "" {
		return strings.TrimSpace(prefix)
	}
	if prefix == "" {
		return strings.TrimPrefix(key, "/")
	}

	prefixTrimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	keyTrimmed := strings.TrimPrefix(strings.TrimSpace(key), "/")

	if strings.HasPrefix(keyTrimmed, prefixTrimmed) {
		return keyTrimmed
	}
	return fmt.Sprintf("%s/%s", prefixTrimmed, keyTrimmed)
}

func objectRelativePath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	prefixTrimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	rel := strings.TrimPrefix(key, prefixTrimmed+"/")
	if rel == "" || rel == key {
		return filepath.Base(key)
	}
	return rel
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
