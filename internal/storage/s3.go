package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// MaxImageSize is the largest accepted upload (5 MB)
const MaxImageSize = 5 << 20

// ImageUploader defines the interface for uploading images.
// This interface allows for easy mocking in tests.
type ImageUploader interface {
	UploadProfilePicture(ctx context.Context, file multipart.File, header *multipart.FileHeader, userID string) (*UploadResult, error)
	UploadSessionImage(ctx context.Context, file multipart.File, header *multipart.FileHeader, userID string) (*UploadResult, error)
}

// Ensure S3Uploader implements ImageUploader
var _ ImageUploader = (*S3Uploader)(nil)

// S3Uploader handles image uploads to AWS S3
type S3Uploader struct {
	client  *s3.Client
	bucket  string
	region  string
	baseURL string
}

// UploadResult contains the result of an S3 upload
type UploadResult struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Bucket string `json:"bucket"`
	Size   int64  `json:"size"`
}

// NewS3Uploader creates a new S3 uploader
func NewS3Uploader(region, bucket, baseURL string) (*S3Uploader, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Uploader{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		region:  region,
		baseURL: baseURL,
	}, nil
}

// CheckBucketAccess verifies the configured bucket is reachable
func (u *S3Uploader) CheckBucketAccess(ctx context.Context) error {
	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(u.bucket),
	})
	if err != nil {
		return fmt.Errorf("cannot access bucket %s: %w", u.bucket, err)
	}
	return nil
}

// UploadProfilePicture stores a user's avatar under profile-pictures/{userID}/
func (u *S3Uploader) UploadProfilePicture(ctx context.Context, file multipart.File, header *multipart.FileHeader, userID string) (*UploadResult, error) {
	key := fmt.Sprintf("profile-pictures/%s/%s%s", userID, uuid.New().String(), imageExt(header.Filename))
	return u.upload(ctx, file, header, key)
}

// UploadSessionImage stores a session photo under session-images/{year}/{month}/{userID}/
func (u *S3Uploader) UploadSessionImage(ctx context.Context, file multipart.File, header *multipart.FileHeader, userID string) (*UploadResult, error) {
	now := time.Now()
	key := fmt.Sprintf("session-images/%d/%02d/%s/%s%s",
		now.Year(), now.Month(), userID, uuid.New().String(), imageExt(header.Filename))
	return u.upload(ctx, file, header, key)
}

func (u *S3Uploader) upload(ctx context.Context, file multipart.File, header *multipart.FileHeader, key string) (*UploadResult, error) {
	if header.Size > MaxImageSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", header.Size, MaxImageSize)
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > MaxImageSize {
		return nil, fmt.Errorf("file too large (max %d bytes)", int64(MaxImageSize))
	}

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(u.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentTypeForExt(imageExt(header.Filename))),
		CacheControl: aws.String("max-age=86400"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		Key:    key,
		URL:    u.PublicURL(key),
		Bucket: u.bucket,
		Size:   int64(len(data)),
	}, nil
}

// DeleteObject removes an object, used when replacing profile pictures
func (u *S3Uploader) DeleteObject(ctx context.Context, key string) error {
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	return err
}

// PublicURL builds the CDN or S3 URL for a stored object
func (u *S3Uploader) PublicURL(key string) string {
	if u.baseURL != "" {
		return strings.TrimSuffix(u.baseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
}

func imageExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	default:
		return ".jpg"
	}
}

func contentTypeForExt(ext string) string {
	switch ext {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
