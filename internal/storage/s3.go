package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type URLMode string

const (
	URLModePublic    URLMode = "public"
	URLModePresigned URLMode = "presigned"
)

type s3Storage struct {
	client  *s3.Client
	presign *s3.PresignClient
	config  S3Config
}

type S3Config struct {
	Bucket string
	// Folder is the key prefix List reads from.
	Folder string
	// EndpointURL overrides the AWS endpoint, e.g. for MinIO.
	EndpointURL string
	URLMode     URLMode
	// PublicBaseURL is prepended to keys in public mode. Defaults to the
	// path-style endpoint URL.
	PublicBaseURL string
	PresignedTTL  time.Duration
}

func NewS3Storage(ctx context.Context, s S3Config) (Storage, error) {
	if strings.TrimSpace(s.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if s.URLMode == "" {
		s.URLMode = URLModePublic
	}
	if s.URLMode != URLModePublic && s.URLMode != URLModePresigned {
		return nil, fmt.Errorf("unsupported s3 url mode: %s", s.URLMode)
	}
	if s.PresignedTTL <= 0 {
		s.PresignedTTL = 15 * time.Minute
	}

	c, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	s3Client := s3.NewFromConfig(c, func(o *s3.Options) {
		if s.EndpointURL != "" {
			o.BaseEndpoint = aws.String(s.EndpointURL)
		}
		o.UsePathStyle = true
	})

	if s.PublicBaseURL == "" {
		endpoint := s.EndpointURL
		if endpoint == "" {
			endpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", c.Region)
		}
		s.PublicBaseURL = fmt.Sprintf("%s/%s", strings.TrimRight(endpoint, "/"), s.Bucket)
	}

	return &s3Storage{
		client:  s3Client,
		presign: s3.NewPresignClient(s3Client),
		config:  s,
	}, nil
}

func (s *s3Storage) Upload(ctx context.Context, input UploadInput) (*Asset, error) {
	data, err := os.ReadFile(input.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", input.Path, err)
	}

	key := path.Join(input.Folder, input.Name)
	contentType := http.DetectContentType(data)

	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}); err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	u, err := s.objectURL(ctx, key)
	if err != nil {
		return nil, err
	}

	return &Asset{
		ID:        key,
		URL:       u,
		Folder:    input.Folder,
		Format:    strings.TrimPrefix(path.Ext(key), "."),
		Bytes:     int64(len(data)),
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (s *s3Storage) List(ctx context.Context) ([]Asset, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.config.Bucket),
	}
	if s.config.Folder != "" {
		input.Prefix = aws.String(strings.TrimSuffix(s.config.Folder, "/") + "/")
	}

	assets := []Asset{}
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list S3 objects: %w", err)
		}

		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}

			u, err := s.objectURL(ctx, key)
			if err != nil {
				return nil, err
			}

			asset := Asset{
				ID:     key,
				URL:    u,
				Folder: s.config.Folder,
				Format: strings.TrimPrefix(path.Ext(key), "."),
				Bytes:  aws.ToInt64(object.Size),
			}
			if object.LastModified != nil {
				asset.CreatedAt = object.LastModified.UTC()
			}
			assets = append(assets, asset)
		}
	}

	return assets, nil
}

func (s *s3Storage) objectURL(ctx context.Context, key string) (string, error) {
	if s.config.URLMode == URLModePublic {
		escapedKey := strings.ReplaceAll(url.PathEscape(key), "%2F", "/")
		return fmt.Sprintf("%s/%s", strings.TrimRight(s.config.PublicBaseURL, "/"), escapedKey), nil
	}

	request, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.config.PresignedTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}

	return request.URL, nil
}
