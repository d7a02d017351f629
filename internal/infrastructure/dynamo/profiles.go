package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hotwellkz/course-api/internal/domain"
)

// ProfileRepo provides typed DynamoDB operations for the profiles table.
// The tokens attribute is only ever mutated through Debit's conditional
// update; there is no unguarded write path to it.
type ProfileRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewProfileRepo(client *dynamodb.Client, tableName string) *ProfileRepo {
	return &ProfileRepo{client: client, tableName: tableName}
}

func (r *ProfileRepo) Get(ctx context.Context, accountID string) (*domain.Profile, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("account_id", accountID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("profile not found: %w", domain.ErrNotFound)
	}
	var p domain.Profile
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateIfAbsent writes the profile only when no record exists for the
// account. An existing profile is left untouched and reported as
// success, so registration repair on login can never clobber a balance.
func (r *ProfileRepo) CreateIfAbsent(ctx context.Context, p *domain.Profile) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
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

// UpsertMerge refreshes the email snapshot but writes tokens and
// created_at only when absent. Repeated federated sign-ins therefore
// never reset or duplicate an existing balance.
func (r *ProfileRepo) UpsertMerge(ctx context.Context, p *domain.Profile) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("account_id", p.AccountID),
		UpdateExpression: aws.String("SET email = :e, tokens = if_not_exists(tokens, :t), created_at = if_not_exists(created_at, :c)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: p.Email},
			":t": &types.AttributeValueMemberN{Value: strconv.Itoa(p.Tokens)},
			":c": &types.AttributeValueMemberS{Value: p.CreatedAt.UTC().Format(time.RFC3339Nano)},
		},
	})
	return err
}

// Debit decrements tokens by amount in a single conditional update.
// The condition makes the read-modify-write atomic server-side: two
// concurrent debits can never both act on the same pre-debit balance,
// and the balance can never go negative. A failed condition — missing
// profile or insufficient funds — returns (false, nil).
func (r *ProfileRepo) Debit(ctx context.Context, accountID string, amount int) (bool, error) {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("account_id", accountID),
		ConditionExpression: aws.String("attribute_exists(account_id) AND tokens >= :amt"),
		UpdateExpression:    aws.String("SET tokens = tokens - :amt"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":amt": &types.AttributeValueMemberN{Value: strconv.Itoa(amount)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
