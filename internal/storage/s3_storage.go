package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
)

type S3Options struct {
	Region          string
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	UsePathStyle    bool
	MaxUploadMB     int64
}

// s3API: подмножество клиента S3, которое использует хранилище.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage хранит файлы объявлений в бакете S3 (или совместимом хранилище).
type S3Storage struct {
	client         s3API
	bucket         string
	publicBaseURL  string
	maxUploadBytes int64
}

func NewS3Storage(ctx context.Context, opts S3Options) (*S3Storage, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("storage: не задан бакет S3")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось загрузить конфигурацию AWS: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	baseURL := opts.PublicBaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
	}

	return newS3Storage(client, opts.Bucket, baseURL, opts.MaxUploadMB), nil
}

func newS3Storage(client s3API, bucket, publicBaseURL string, maxUploadMB int64) *S3Storage {
	return &S3Storage{
		client:         client,
		bucket:         bucket,
		publicBaseURL:  strings.TrimSuffix(publicBaseURL, "/"),
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}
}

// Save загружает файл в бакет. Размер ограничивается так же, как для диска.
func (s *S3Storage) Save(ctx context.Context, listingID uuid.UUID, originalName, contentType string, r io.Reader) (entity.MediaRef, error) {
	body, err := io.ReadAll(io.LimitReader(r, s.maxUploadBytes+1))
	if err != nil {
		return entity.MediaRef{}, fmt.Errorf("storage: ошибка чтения файла: %w", err)
	}
	if int64(len(body)) > s.maxUploadBytes {
		return entity.MediaRef{}, fmt.Errorf("storage: размер файла превышает лимит %d байт", s.maxUploadBytes)
	}

	key := objectKey(listingID, originalName)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return entity.MediaRef{}, fmt.Errorf("storage: не удалось загрузить объект %s: %w", key, err)
	}

	return entity.MediaRef{
		Key:         key,
		URL:         s.publicBaseURL + "/" + key,
		ContentType: contentType,
	}, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: не удалось удалить объект %s: %w", key, err)
	}
	return nil
}
