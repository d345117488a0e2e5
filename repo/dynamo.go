package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/dimes/zprovision/model"
	"github.com/dimes/zprovision/provlog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
)

const (
	coordinateKey = "coordinate"
	versionKey    = "version"
)

// DynamoIndex stores the set of published versions per coordinate identity in
// a DynamoDB table keyed by (coordinate, version)
type DynamoIndex struct {
	svc       *dynamodb.DynamoDB
	tableName string
}

type dynamoVersionEntry struct {
	Coordinate  string `dynamodbav:"coordinate"`
	Version     string `dynamodbav:"version"`
	PublishedAt int64  `dynamodbav:"publishedAt,omitempty"`
}

// NewDynamoIndex returns a version index backed by DynamoDB
func NewDynamoIndex(svc *dynamodb.DynamoDB, tableName string) *DynamoIndex {
	return &DynamoIndex{
		svc:       svc,
		tableName: tableName,
	}
}

// Setup creates the version index table if it does not exist
func (d *DynamoIndex) Setup() error {
	ctx, ctxCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ctxCancel()

	describeTableInput := &dynamodb.DescribeTableInput{
		TableName: aws.String(d.tableName),
	}
	_, err := d.svc.DescribeTableWithContext(ctx, describeTableInput)
	if err == nil {
		provlog.Warningf("Table %s already existed. It will be used as is", d.tableName)
		return nil
	}

	if awsErr, ok := err.(awserr.Error); !ok || awsErr.Code() != dynamodb.ErrCodeResourceNotFoundException {
		return fmt.Errorf("Error checking existence of table %s: %+v", d.tableName, err)
	}

	createTableInput := &dynamodb.CreateTableInput{
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{
				AttributeName: aws.String(coordinateKey),
				AttributeType: aws.String(dynamodb.ScalarAttributeTypeS),
			},
			{
				AttributeName: aws.String(versionKey),
				AttributeType: aws.String(dynamodb.ScalarAttributeTypeS),
			},
		},
		KeySchema: []*dynamodb.KeySchemaElement{
			{
				AttributeName: aws.String(coordinateKey),
				KeyType:       aws.String(dynamodb.KeyTypeHash),
			},
			{
				AttributeName: aws.String(versionKey),
				KeyType:       aws.String(dynamodb.KeyTypeRange),
			},
		},
		ProvisionedThroughput: &dynamodb.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(1),
			WriteCapacityUnits: aws.Int64(1),
		},
		TableName: aws.String(d.tableName),
	}

	if _, err := d.svc.CreateTableWithContext(ctx, createTableInput); err != nil {
		return fmt.Errorf("Error creating table %s: %+v", d.tableName, err)
	}

	createCtx, createCtxCancel := context.WithTimeout(context.Background(), time.Minute)
	defer createCtxCancel()

	for {
		describeTableOutput, err := d.svc.DescribeTableWithContext(createCtx, describeTableInput)
		if err == nil && *describeTableOutput.Table.TableStatus == dynamodb.TableStatusActive {
			return nil
		}
		if createCtx.Err() != nil {
			return fmt.Errorf("Timed out waiting for table %s to become active", d.tableName)
		}
		time.Sleep(5 * time.Second)
	}
}

// GetVersions returns all versions registered for the coordinate identity
func (d *DynamoIndex) GetVersions(coordinate model.Coordinate) ([]string, error) {
	expressionValues := map[string]*dynamodb.AttributeValue{
		":coordinate": {
			S: aws.String(coordinate.Key()),
		},
	}

	queryInput := &dynamodb.QueryInput{
		TableName:                 aws.String(d.tableName),
		KeyConditionExpression:    aws.String(fmt.Sprintf("%s = :coordinate", coordinateKey)),
		ExpressionAttributeValues: expressionValues,
		ConsistentRead:            aws.Bool(true),
	}

	versions := make([]string, 0)
	err := d.svc.QueryPages(queryInput, func(page *dynamodb.QueryOutput, lastPage bool) bool {
		for _, item := range page.Items {
			entry := &dynamoVersionEntry{}
			if err := dynamodbattribute.UnmarshalMap(item, entry); err != nil {
				provlog.Debugf("Skipping malformed version entry for %s: %+v", coordinate.Key(), err)
				continue
			}
			versions = append(versions, entry.Version)
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("Error querying versions for %s: %+v", coordinate.Key(), err)
	}

	return versions, nil
}

// RegisterVersion records a published version for the coordinate identity
func (d *DynamoIndex) RegisterVersion(coordinate model.Coordinate) error {
	if !coordinate.HasVersion() {
		return fmt.Errorf("Cannot register %s without a version", coordinate.String())
	}

	entry := &dynamoVersionEntry{
		Coordinate:  coordinate.Key(),
		Version:     coordinate.Version,
		PublishedAt: time.Now().Unix(),
	}

	item, err := dynamodbattribute.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("Error marshaling version entry %+v: %+v", entry, err)
	}

	putItemInput := &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	}

	if _, err := d.svc.PutItem(putItemInput); err != nil {
		return fmt.Errorf("Error persisting version entry for %s: %+v", coordinate.String(), err)
	}

	return nil
}
