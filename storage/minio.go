package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"hourtrim/config"
	"hourtrim/core/audio"
	"hourtrim/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ArchivePrefix is the object prefix mirroring public/trimmed_files.
const ArchivePrefix = "trimmed_files"

// MinioArchiver copies trimmed outputs into a MinIO bucket.
type MinioArchiver struct {
	client *minio.Client
	bucket string
}

// NewMinioArchiver 初始化 MinIO 客户端并确保存储桶存在
func NewMinioArchiver(ctx context.Context, cfg *config.Config) (*MinioArchiver, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	a := &MinioArchiver{client: client, bucket: cfg.MinioBucket}
	if err := a.ensureBucket(ctx, cfg.MinioRegion); err != nil {
		return nil, err
	}
	logger.Info("MinIO archiver ready",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))
	return a, nil
}

func (a *MinioArchiver) ensureBucket(ctx context.Context, region string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// 检查存储桶是否存在
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("检查存储桶失败: %w", err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("创建存储桶失败: %w", err)
	}
	logger.Info("成功创建存储桶", logger.String("bucket", a.bucket))
	return nil
}

// ObjectName returns the key a trimmed file is stored under.
func ObjectName(relativePath, localFile string) string {
	return path.Join(ArchivePrefix, strings.Trim(relativePath, "/"), filepath.Base(localFile))
}

// Archive uploads localFile to trimmed_files/<relativePath>/<name>.
func (a *MinioArchiver) Archive(ctx context.Context, relativePath, localFile string) error {
	object := ObjectName(relativePath, localFile)
	opts := minio.PutObjectOptions{ContentType: audio.ContentTypeFor(localFile)}
	info, err := a.client.FPutObject(ctx, a.bucket, object, localFile, opts)
	if err != nil {
		return fmt.Errorf("上传文件到 MinIO 失败: %w", err)
	}
	logger.Info("archived trimmed file",
		logger.String("object", object),
		logger.Int64("size", info.Size))
	return nil
}

// Check lists one object to verify credentials and bucket access.
func (a *MinioArchiver) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: ArchivePrefix + "/", MaxKeys: 1}) {
		if obj.Err != nil {
			return fmt.Errorf("列出对象失败: %w", obj.Err)
		}
		break
	}
	return nil
}
