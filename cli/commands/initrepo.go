package commands

import (
	"context"
	"fmt"

	"github.com/dimes/zprovision/provlog"
	"github.com/dimes/zprovision/repo"

	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/s3"
	"golang.org/x/sync/errgroup"
)

type initRepo struct{}

func (i *initRepo) Describe() string {
	return "Initializes a remote artifact repository"
}

func (i *initRepo) Exec(workingDir string, args ...string) error {
	provlog.Infof("Welcome to the repository setup")
	provlog.Infof("If the resources don't exist, then they can be created for you.")

	bucketName := readLineWithPrompt("S3 bucket for artifact storage", repo.IsValidName, "")
	tableName := readLineWithPrompt("Dynamo table name for the version index",
		repo.IsValidName, "zprovision-artifact-versions")
	region := readLineWithPrompt("AWS region", repo.IsValidName, "us-east-1")
	profile := readLineWithPrompt("(Optional) AWS credentials profile",
		func(input string) error {
			if input == "" {
				return nil
			}
			return repo.IsValidName(input)
		}, "")

	provlog.Infof(`

			S3 Bucket: %s
			Version Table: %s
			Region: %s
			AWS Profile: %s

			`, bucketName, tableName, region, profile)
	if ok, err := getYnConfirmation("Is this correct"); !ok || err != nil {
		return fmt.Errorf("User must re-enter information")
	}

	sess := NewSession(region, profile)
	store := repo.NewS3Store(s3.New(sess), bucketName)
	index := repo.NewDynamoIndex(dynamodb.New(sess), tableName)

	if ok, err := getYnConfirmation("Create resources"); ok {
		group, _ := errgroup.WithContext(context.Background())
		group.Go(store.Setup)
		group.Go(index.Setup)
		if err := group.Wait(); err != nil {
			return fmt.Errorf("Error creating repository resources: %+v", err)
		}
	} else if err != nil {
		return fmt.Errorf("Error getting confirmation for resource creation: %+v", err)
	}

	provlog.Infof("Repository %s is ready", bucketName)
	return nil
}
