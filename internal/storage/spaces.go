package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/rs/zerolog/log"
)

// SpacesStorage keeps files in a DigitalOcean Spaces bucket under
// uploads/<kind>/ and hands out CDN URLs.
type SpacesStorage struct {
	client   *s3.S3
	bucket   string
	cdnURL   string
	endpoint string
}

func NewSpacesStorage(endpoint, region, bucket, cdnURL, accessKey, secretKey string) (*SpacesStorage, error) {
	config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(false),
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &SpacesStorage{
		client:   s3.New(sess),
		bucket:   bucket,
		cdnURL:   strings.TrimSuffix(cdnURL, "/"),
		endpoint: endpoint,
	}, nil
}

func (ss *SpacesStorage) key(kind Kind, name string) string {
	return fmt.Sprintf("uploads/%s/%s", kind, name)
}

func (ss *SpacesStorage) url(key string) string {
	return ss.cdnURL + "/" + key
}

func (ss *SpacesStorage) SaveFile(ctx context.Context, kind Kind, fileHeader *multipart.FileHeader, stem string) (FileInfo, error) {
	name := storedName(fileHeader.Filename, stem)
	log.Debug().Str("original", fileHeader.Filename).Str("stored", name).Msg("[storage] spaces upload normalized")

	src, err := fileHeader.Open()
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	key := ss.key(kind, name)
	_, err = ss.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(ss.bucket),
		Key:         aws.String(key),
		Body:        src,
		ContentType: aws.String(getContentType(name)),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("[storage] failed to upload file to Spaces")
		return FileInfo{}, fmt.Errorf("failed to upload to Spaces: %w", err)
	}
	return FileInfo{Name: name, URL: ss.url(key), Size: fileHeader.Size}, nil
}

func (ss *SpacesStorage) Open(ctx context.Context, kind Kind, name string) (io.ReadCloser, FileInfo, error) {
	if err := checkName(name); err != nil {
		return nil, FileInfo{}, err
	}
	key := ss.key(kind, name)
	out, err := ss.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, FileInfo{}, spacesErr(err)
	}
	info := FileInfo{Name: name, URL: ss.url(key), Size: aws.Int64Value(out.ContentLength)}
	if out.LastModified != nil {
		info.ModTime = *out.LastModified
	}
	return out.Body, info, nil
}

func (ss *SpacesStorage) Delete(ctx context.Context, kind Kind, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	key := ss.key(kind, name)
	// DeleteObject succeeds for missing keys, so check first
	if _, err := ss.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return spacesErr(err)
	}
	_, err := ss.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("[storage] failed to delete file from Spaces")
		return err
	}
	return nil
}

func (ss *SpacesStorage) List(ctx context.Context, kind Kind) ([]FileInfo, error) {
	prefix := fmt.Sprintf("uploads/%s/", kind)
	out := []FileInfo{}
	err := ss.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(ss.bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			info := FileInfo{
				Name: strings.TrimPrefix(key, prefix),
				URL:  ss.url(key),
				Size: aws.Int64Value(obj.Size),
			}
			if obj.LastModified != nil {
				info.ModTime = *obj.LastModified
			}
			out = append(out, info)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModTime.After(out[j].ModTime) })
	return out, nil
}

func spacesErr(err error) error {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return ErrNotFound
		}
	}
	return err
}
