package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hotwellkz/course-api/internal/domain"
)

// CompletionRepo stores lesson-completion facts.
// PK: account_id, SK: lesson_id — the composite key is the uniqueness
// constraint; duplicate marking is rejected by the store, not by
// client-side checks.
type CompletionRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCompletionRepo(client *dynamodb.Client, tableName string) *CompletionRepo {
	return &CompletionRepo{client: client, tableName: tableName}
}

// CreateIfAbsent records the completion fact unless one already exists
// for the (account, lesson) pair. A losing duplicate write is a
// successful no-op; completed_at of the original record is preserved.
func (r *CompletionRepo) CreateIfAbsent(ctx context.Context, rec *domain.CompletionRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal completion: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(account_id)"),
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return nil
	}
	return err
}

// Exists reports whether a completion fact is recorded for the pair.
func (r *CompletionRepo) Exists(ctx context.Context, accountID, lessonID string) (bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("account_id", accountID, "lesson_id", lessonID),
	})
	if err != nil {
		return false, err
	}
	return out.Item != nil, nil
}

// ListByAccount returns every completion fact for the account.
func (r *CompletionRepo) ListByAccount(ctx context.Context, accountID string) ([]domain.CompletionRecord, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("account_id = :aid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":aid": &types.AttributeValueMemberS{Value: accountID},
		},
	})
	if err != nil {
		return nil, err
	}
	var recs []domain.CompletionRecord
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}
