package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"hourtrim/db"
	"hourtrim/storage"

	"github.com/spf13/cobra"
)

type checkResult struct {
	name   string
	err    error
	detail string
	skip   bool
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "检查 ffmpeg、目录、MySQL、Redis 和 MinIO 是否可用",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		results := []checkResult{
			checkBinary("ffmpeg", cfg.FFmpegPath),
			checkBinary("ffprobe", cfg.FFprobePath),
			checkDir("audio_files", cfg.AudioDir()),
			checkDir("trimmed_files", cfg.TrimmedDir()),
			checkMySQL(ctx),
			checkRedis(ctx),
			checkMinio(ctx),
		}

		rows := make([][]string, 0, len(results))
		failed := 0
		for _, r := range results {
			status := "ok"
			detail := r.detail
			switch {
			case r.skip:
				status = "skipped"
			case r.err != nil:
				status = "FAILED"
				detail = r.err.Error()
				failed++
			}
			rows = append(rows, []string{r.name, status, detail})
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, renderTable([]string{"Component", "Status", "Detail"}, rows, shouldColorize(out)))
		if failed > 0 {
			return fmt.Errorf("%d check(s) failed", failed)
		}
		return nil
	},
}

func checkBinary(name, path string) checkResult {
	resolved, err := exec.LookPath(path)
	return checkResult{name: name, err: err, detail: resolved}
}

func checkDir(name, dir string) checkResult {
	info, err := os.Stat(dir)
	if err == nil && !info.IsDir() {
		err = errors.New("not a directory")
	}
	return checkResult{name: name, err: err, detail: dir}
}

func checkMySQL(ctx context.Context) checkResult {
	conn, err := db.Connect(ctx, cfg)
	if err != nil {
		return checkResult{name: "mysql", err: err}
	}
	defer conn.Close()
	return checkResult{name: "mysql", detail: cfg.DBHost + ":" + cfg.DBPort + "/" + cfg.DBName}
}

func checkRedis(ctx context.Context) checkResult {
	if !cfg.RedisEnabled {
		return checkResult{name: "redis", skip: true, detail: "REDIS_ENABLED=false"}
	}
	client, err := db.ConnectRedis(ctx, cfg)
	if err != nil {
		return checkResult{name: "redis", err: err}
	}
	defer client.Close()
	if err := db.CheckRedis(ctx, client); err != nil {
		return checkResult{name: "redis", err: err}
	}
	return checkResult{name: "redis", detail: cfg.RedisAddr()}
}

func checkMinio(ctx context.Context) checkResult {
	if !cfg.ArchiveEnabled() {
		return checkResult{name: "minio", skip: true, detail: "MINIO_ENDPOINT not set"}
	}
	archiver, err := storage.NewMinioArchiver(ctx, cfg)
	if err != nil {
		return checkResult{name: "minio", err: err}
	}
	if err := archiver.Check(ctx); err != nil {
		return checkResult{name: "minio", err: err}
	}
	return checkResult{name: "minio", detail: cfg.MinioEndpoint + "/" + cfg.MinioBucket}
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
