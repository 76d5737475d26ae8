// Package s3 предоставляет функционал для загрузки кэша треков из Amazon S3
package s3

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("s3")

// Config содержит настройки для S3
type Config struct {
	Region     string
	AccessKey  string
	SecretKey  string
	Endpoint   string
	BucketName string
	Prefix     string
}

// objectLister часть клиента S3, перечисляющая объекты
type objectLister interface {
	ListObjectsV2PagesWithContext(ctx aws.Context, input *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, opts ...request.Option) error
}

// objectDownloader часть s3manager.Downloader
type objectDownloader interface {
	DownloadWithContext(ctx aws.Context, w io.WriterAt, input *s3.GetObjectInput, opts ...func(*s3manager.Downloader)) (int64, error)
}

// Result итог синхронизации
type Result struct {
	Downloaded int
	Skipped    int
}

// Syncer скачивает файлы кэша из бакета в локальный каталог
type Syncer struct {
	client     objectLister
	downloader objectDownloader
	config     *Config
	root       string
	ext        string
}

// NewSyncer создает синхронизатор для каталога root.
// Скачиваются только объекты с расширением ext.
func NewSyncer(config *Config, root, ext string) (*Syncer, error) {
	if config.BucketName == "" {
		return nil, fmt.Errorf("не указан бакет S3")
	}

	awsConfig := &aws.Config{
		Region: aws.String(config.Region),
	}
	if config.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(config.AccessKey, config.SecretKey, "")
	}

	// Если указан endpoint, добавляем его
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AWS сессии: %w", err)
	}

	return newSyncer(s3.New(sess), s3manager.NewDownloader(sess), config, root, ext), nil
}

func newSyncer(client objectLister, downloader objectDownloader, config *Config, root, ext string) *Syncer {
	return &Syncer{
		client:     client,
		downloader: downloader,
		config:     config,
		root:       root,
		ext:        "." + strings.TrimPrefix(ext, "."),
	}
}

// Sync скачивает отсутствующие и измененные файлы. Файл с тем же размером
// считается актуальным. Каждый файл сначала пишется во временный
// и затем переименовывается, поэтому индексатор не видит недокачанных файлов.
func (s *Syncer) Sync(ctx context.Context) (Result, error) {
	var (
		result  Result
		objects []*s3.Object
	)

	err := s.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.config.BucketName),
		Prefix: aws.String(s.config.Prefix),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		objects = append(objects, page.Contents...)
		return true
	})
	if err != nil {
		return result, fmt.Errorf("ошибка получения списка объектов: %w", err)
	}

	for _, obj := range objects {
		key := aws.StringValue(obj.Key)
		rel, ok := s.localPath(key)
		if !ok {
			continue
		}
		dest := filepath.Join(s.root, rel)

		if info, err := os.Stat(dest); err == nil && info.Size() == aws.Int64Value(obj.Size) {
			result.Skipped++
			continue
		}

		if err := s.download(ctx, key, dest); err != nil {
			return result, err
		}
		result.Downloaded++
		log.Infow("файл загружен", "key", key, "path", dest)
	}
	return result, nil
}

// localPath возвращает путь объекта относительно каталога кэша
func (s *Syncer) localPath(key string) (string, bool) {
	if strings.HasSuffix(key, "/") || !strings.EqualFold(filepath.Ext(key), s.ext) {
		return "", false
	}
	rel := strings.TrimPrefix(strings.TrimPrefix(key, s.config.Prefix), "/")
	rel = filepath.FromSlash(rel)
	if rel == "" || !filepath.IsLocal(rel) {
		log.Warnw("пропущен объект с недопустимым путем", "key", key)
		return "", false
	}
	return rel, true
}

func (s *Syncer) download(ctx context.Context, key, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("ошибка создания каталога: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".kura-sync-*")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, err = s.downloader.DownloadWithContext(ctx, tmp, &s3.GetObjectInput{
		Bucket: aws.String(s.config.BucketName),
		Key:    aws.String(key),
	})
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("ошибка скачивания %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("ошибка сохранения %s: %w", dest, err)
	}
	return nil
}
