package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dennisdiepolder/workforce/internal/types"
	"github.com/rs/zerolog"
)

const attrID = "ID"

// dynamoAPI is the subset of *dynamodb.Client the store calls
type dynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoDBStore implements Store on a DynamoDB table keyed by call ID
type DynamoDBStore struct {
	client dynamoAPI
	table  string
	logger zerolog.Logger
}

// NewDynamoDBStore creates a new DynamoDB store
func NewDynamoDBStore(ctx context.Context, cfg DynamoConfig, logger zerolog.Logger) (*DynamoDBStore, error) {
	logger = logger.With().Str("component", "dynamo_store").Logger()

	var client *dynamodb.Client
	if cfg.Mode == DynamoModeLocal {
		// Static credentials against the local endpoint; LoadDefaultConfig
		// would query IMDS and hang on EC2 hosts.
		client = dynamodb.New(dynamodb.Options{
			Region:       cfg.Region,
			BaseEndpoint: aws.String(cfg.Endpoint),
			Credentials:  credentials.NewStaticCredentialsProvider("local", "local", ""),
		})
		if err := CreateTableIfNotExist(ctx, client, cfg.CallsTable, logger); err != nil {
			return nil, err
		}
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = dynamodb.NewFromConfig(awsCfg)
	}

	logger.Info().
		Str("mode", string(cfg.Mode)).
		Str("region", cfg.Region).
		Str("table", cfg.CallsTable).
		Msg("DynamoDB store initialized")

	return &DynamoDBStore{client: client, table: cfg.CallsTable, logger: logger}, nil
}

func callKey(id string) map[string]dbtypes.AttributeValue {
	return map[string]dbtypes.AttributeValue{attrID: &dbtypes.AttributeValueMemberS{Value: id}}
}

func (s *DynamoDBStore) LoadAll(ctx context.Context) ([]types.Call, error) {
	calls := []types.Call{}
	pages := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{TableName: aws.String(s.table)})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan calls: %w", err)
		}
		var batch []types.Call
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal calls: %w", err)
		}
		calls = append(calls, batch...)
	}
	return calls, nil
}

func (s *DynamoDBStore) Create(ctx context.Context, c types.Call) (string, error) {
	if c.ID == "" {
		c.ID = NewID()
	}
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal call: %w", err)
	}
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(attrID))).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.table),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to save call: %w", err)
	}
	return c.ID, nil
}

// buildUpdate translates a patch into SET/REMOVE clauses guarded by the item existing.
// ok is false when the patch carries no field changes.
func buildUpdate(p types.Patch) (expr expression.Expression, ok bool, err error) {
	var update expression.UpdateBuilder
	set := func(name string, v any) {
		update = update.Set(expression.Name(name), expression.Value(v))
		ok = true
	}

	if p.Name != nil {
		set("Name", *p.Name)
	}
	if p.Phone != nil {
		set("Phone", *p.Phone)
	}
	if p.Address != nil {
		set("Address", *p.Address)
	}
	if p.Priority != nil {
		set("Priority", *p.Priority)
	}
	if p.Status != nil {
		set("Status", *p.Status)
	}
	if p.Notes != nil {
		set("Notes", *p.Notes)
	}
	if p.ClearSchedule {
		update = update.Remove(expression.Name("ScheduledAt"))
		ok = true
	} else if p.ScheduledAt != nil {
		set("ScheduledAt", *p.ScheduledAt)
	}
	if !ok {
		return expression.Expression{}, false, nil
	}
	if p.UpdatedAt != nil {
		update = update.Set(expression.Name("UpdatedAt"), expression.Value(*p.UpdatedAt))
	}

	expr, err = expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(attrID))).
		Build()
	return expr, true, err
}

func (s *DynamoDBStore) Update(ctx context.Context, id string, p types.Patch) error {
	expr, ok, err := buildUpdate(p)
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}
	if !ok {
		return s.ensureExists(ctx, id)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       callKey(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	var ccf *dbtypes.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update call: %w", err)
	}
	return nil
}

func (s *DynamoDBStore) ensureExists(ctx context.Context, id string) error {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(s.table),
		Key:                      callKey(id),
		ProjectionExpression:     aws.String("#id"),
		ExpressionAttributeNames: map[string]string{"#id": attrID},
	})
	if err != nil {
		return fmt.Errorf("failed to get call: %w", err)
	}
	if len(out.Item) == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *DynamoDBStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       callKey(id),
	})
	if err != nil {
		return fmt.Errorf("failed to delete call: %w", err)
	}
	return nil
}
