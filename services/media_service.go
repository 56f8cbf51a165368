package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/kuidando/kuidando/config"
	"github.com/nfnt/resize"
)

const (
	// MaxPhotoSize bounds a single uploaded report photo.
	MaxPhotoSize = 5 * 1024 * 1024
	// feed images are center-cropped squares; thumbnails keep aspect ratio
	feedImageSize  = 1080
	thumbnailWidth = 320
)

var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// MediaService stores report photos and returns publicly resolvable URLs.
type MediaService interface {
	UploadReportImage(ctx context.Context, fileHeader *multipart.FileHeader, reportID string) (imageURL, thumbnailURL string, err error)
}

type mediaService struct {
	Config *config.Config
	client *s3.Client
}

// NewMediaService builds the S3-backed media service.
func NewMediaService(conf *config.Config) (MediaService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(conf.AwsRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			conf.AwsAccessKeyID,
			conf.AwsSecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config, %v", err)
	}

	return &mediaService{
		Config: conf,
		client: s3.NewFromConfig(cfg),
	}, nil
}

// ValidatePhoto checks the file type and size before any decode work.
func ValidatePhoto(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxPhotoSize {
		return fmt.Errorf("file size exceeds limit of %d bytes", MaxPhotoSize)
	}
	mimeType := fileHeader.Header.Get("Content-Type")
	if !allowedPhotoTypes[mimeType] {
		return fmt.Errorf("invalid file type: %s", mimeType)
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return fmt.Errorf("unsupported file extension: %s", ext)
	}
	return nil
}

// UploadReportImage decodes the photo, derives a feed-size image and a
// thumbnail, and uploads both under the report's key prefix.
func (s *mediaService) UploadReportImage(ctx context.Context, fileHeader *multipart.FileHeader, reportID string) (string, string, error) {
	if err := ValidatePhoto(fileHeader); err != nil {
		return "", "", err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open file: %v", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return "", "", fmt.Errorf("failed to decode image: %v", err)
	}

	feedImg := imaging.Fill(img, feedImageSize, feedImageSize, imaging.Center, imaging.Lanczos)
	thumbnailImg := resize.Resize(thumbnailWidth, 0, img, resize.Lanczos3)

	feedKey := fmt.Sprintf("reports/%s/%s.jpg", reportID, uuid.New().String())
	thumbKey := fmt.Sprintf("reports/%s/thumb_%s.jpg", reportID, uuid.New().String())

	feedURL, err := s.encodeAndUpload(ctx, feedImg, feedKey)
	if err != nil {
		return "", "", err
	}
	thumbURL, err := s.encodeAndUpload(ctx, thumbnailImg, thumbKey)
	if err != nil {
		return "", "", err
	}

	return feedURL, thumbURL, nil
}

func (s *mediaService) encodeAndUpload(ctx context.Context, img image.Image, key string) (string, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, nil); err != nil {
		return "", fmt.Errorf("failed to encode image: %v", err)
	}

	bucketName := s.Config.S3Bucket
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("image/jpeg"),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		log.Printf("error uploading file to S3: %v", err)
		return "", fmt.Errorf("failed to upload file to S3: %v", err)
	}

	fileURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucketName, s.Config.AwsRegion, key)
	return fileURL, nil
}
