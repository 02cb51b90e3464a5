package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/campaign-optimizer/internal/engine"
)

// AWSStorage provides AWS-backed storage using DynamoDB and S3
type AWSStorage struct {
	dynamoDB  *dynamodb.Client
	s3Client  *s3.Client
	tableName string
	bucket    string
	region    string
}

// DynamoDBItem represents an item stored in DynamoDB
type DynamoDBItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	Data      string `dynamodbav:"Data"`
	Timestamp string `dynamodbav:"Timestamp"`
	TTL       int64  `dynamodbav:"TTL,omitempty"`
}

// NewAWSStorage creates a new AWS storage instance
func NewAWSStorage(ctx context.Context, tableName, bucket, region, profile string) (*AWSStorage, error) {
	var cfg aws.Config
	var err error

	if profile != "" {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
			awsconfig.WithSharedConfigProfile(profile),
		)
	} else {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &AWSStorage{
		dynamoDB:  dynamodb.NewFromConfig(cfg),
		s3Client:  s3.NewFromConfig(cfg),
		tableName: tableName,
		bucket:    bucket,
		region:    region,
	}, nil
}

// SaveBatchToS3 writes the full batch result under a date-partitioned key.
func (s *AWSStorage) SaveBatchToS3(ctx context.Context, result *engine.BatchResult) error {
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling batch: %w", err)
	}

	key := fmt.Sprintf("batches/%s/%s.json",
		result.CompletedAt.UTC().Format("2006/01/02"),
		result.BatchID)
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(jsonData),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("putting batch to S3: %w", err)
	}
	return nil
}

// SaveBatchSummary stores the summary record in DynamoDB with a 90 day TTL.
func (s *AWSStorage) SaveBatchSummary(ctx context.Context, summary BatchSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}

	item := DynamoDBItem{
		PK:        "BATCH#SUMMARY",
		SK:        summary.CompletedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Data:      string(data),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		TTL:       time.Now().Add(90 * 24 * time.Hour).Unix(),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshaling item: %w", err)
	}

	_, err = s.dynamoDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("putting item to DynamoDB: %w", err)
	}
	return nil
}

// BatchSummaries retrieves summary records between two instants.
func (s *AWSStorage) BatchSummaries(ctx context.Context, from, to time.Time) ([]BatchSummary, error) {
	result, err := s.dynamoDB.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND SK BETWEEN :from AND :to"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":   &types.AttributeValueMemberS{Value: "BATCH#SUMMARY"},
			":from": &types.AttributeValueMemberS{Value: from.UTC().Format("2006-01-02T15:04:05Z")},
			":to":   &types.AttributeValueMemberS{Value: to.UTC().Format("2006-01-02T15:04:05Z")},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("querying DynamoDB: %w", err)
	}

	var summaries []BatchSummary
	for _, item := range result.Items {
		var dbItem DynamoDBItem
		if err := attributevalue.UnmarshalMap(item, &dbItem); err != nil {
			continue
		}
		var summary BatchSummary
		if err := json.Unmarshal([]byte(dbItem.Data), &summary); err != nil {
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
