package repo

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dimes/zprovision/model"
	"github.com/dimes/zprovision/provlog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Store stores artifact files in S3 under
// <group path>/<artifact>/<version>/<file name> keys
type S3Store struct {
	svc        *s3.S3
	bucketName string
}

// NewS3Store returns an artifact store backed by S3
func NewS3Store(svc *s3.S3, bucketName string) *S3Store {
	return &S3Store{
		svc:        svc,
		bucketName: bucketName,
	}
}

// Setup creates the bucket with the given name
func (s *S3Store) Setup() error {
	createBucketInput := &s3.CreateBucketInput{
		Bucket: aws.String(s.bucketName),
	}

	if s.svc.Config.Region != nil {
		createBucketInput.CreateBucketConfiguration = &s3.CreateBucketConfiguration{
			LocationConstraint: s.svc.Config.Region,
		}
	}

	_, err := s.svc.CreateBucket(createBucketInput)
	if err != nil {
		if awsErr, ok := err.(awserr.Error); !ok || awsErr.Code() != s3.ErrCodeBucketAlreadyOwnedByYou {
			return fmt.Errorf("Error creating bucket %s: %+v", s.bucketName, err)
		}

		provlog.Warningf("Bucket %s already existed. It will be used as is", s.bucketName)
	}

	return nil
}

// ListVersions lists version prefixes published for the coordinate identity
func (s *S3Store) ListVersions(coordinate model.Coordinate) ([]string, error) {
	prefix := artifactPrefix(coordinate) + "/"
	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucketName),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	}

	versions := make([]string, 0)
	err := s.svc.ListObjectsV2Pages(input, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, commonPrefix := range page.CommonPrefixes {
			version := strings.TrimSuffix(strings.TrimPrefix(*commonPrefix.Prefix, prefix), "/")
			if version != "" {
				versions = append(versions, version)
			}
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("Error listing versions for %s: %+v", coordinate.String(), err)
	}

	return versions, nil
}

// Download fetches the artifact file into destination
func (s *S3Store) Download(coordinate model.Coordinate, destination string) error {
	if err := os.MkdirAll(filepath.Dir(destination), 0755); err != nil {
		return fmt.Errorf("Error creating directory for %s: %+v", destination, err)
	}

	file, err := os.Create(destination)
	if err != nil {
		return fmt.Errorf("Error creating %s: %+v", destination, err)
	}
	defer file.Close()

	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(artifactKey(coordinate)),
	}

	if _, err := s3manager.NewDownloaderWithClient(s.svc).Download(file, input); err != nil {
		os.Remove(destination)
		if awsErr, ok := err.(awserr.Error); ok && awsErr.Code() == s3.ErrCodeNoSuchKey {
			return fmt.Errorf("Artifact %s not found in bucket %s: %w", coordinate.String(),
				s.bucketName, ErrArtifactNotFound)
		}
		return fmt.Errorf("Error downloading %s: %+v", coordinate.String(), err)
	}

	return nil
}

// Upload stores the local file under the coordinate's key
func (s *S3Store) Upload(coordinate model.Coordinate, source string) error {
	file, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("Error opening %s: %+v", source, err)
	}
	defer file.Close()

	uploadInput := &s3manager.UploadInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(artifactKey(coordinate)),
		Body:   file,
	}

	if _, err := s3manager.NewUploaderWithClient(s.svc).Upload(uploadInput); err != nil {
		return fmt.Errorf("Error uploading %s: %+v", coordinate.String(), err)
	}

	return nil
}

func artifactPrefix(coordinate model.Coordinate) string {
	return path.Join(strings.ReplaceAll(coordinate.Group, ".", "/"), coordinate.Artifact)
}

func artifactKey(coordinate model.Coordinate) string {
	return path.Join(artifactPrefix(coordinate), coordinate.Version, FileName(coordinate))
}
