package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/models"
)

type dynamoItemAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoImportRunRepository implements ImportRunRepo using DynamoDB
type DynamoImportRunRepository struct {
	client dynamoItemAPI
	table  string
}

// NewDynamoImportRunRepository creates a DynamoDB backed import run repository
func NewDynamoImportRunRepository(client *dynamodb.Client, table string) *DynamoImportRunRepository {
	return &DynamoImportRunRepository{client: client, table: table}
}

func (r *DynamoImportRunRepository) Record(ctx context.Context, run *models.ImportRun) error {
	item, err := attributevalue.MarshalMap(run)
	if err != nil {
		return fmt.Errorf("marshal import run: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &r.table,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

func (r *DynamoImportRunRepository) Get(ctx context.Context, runID string) (*models.ImportRun, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"run_id": runID})
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &r.table,
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	var run models.ImportRun
	if err := attributevalue.UnmarshalMap(out.Item, &run); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &run, nil
}
