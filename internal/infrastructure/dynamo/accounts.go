package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/centry-onboarding/internal/domain"
)

// API is the subset of the DynamoDB client the account repo uses.
type API interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// AccountRepo provides typed DynamoDB operations for the accounts table.
// PK: email. Every write is a single-item conditional operation.
type AccountRepo struct {
	client    API
	tableName string
	now       func() time.Time
}

func NewAccountRepo(client API, tableName string) *AccountRepo {
	return &AccountRepo{client: client, tableName: tableName, now: time.Now}
}

// Create inserts a new account, failing with domain.ErrDuplicateIdentity when
// the email is already taken.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("%w: marshal account: %w", domain.ErrPersistence, err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#c0)"),
		ExpressionAttributeNames: map[string]string{"#c0": fieldEmail},
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("create account: %w", domain.ErrDuplicateIdentity)
		}
		return fmt.Errorf("%w: put account: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get account: %w", domain.ErrPersistence, err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, fmt.Errorf("%w: unmarshal account: %w", domain.ErrPersistence, err)
	}
	return &a, nil
}

// ReplaceOTP overwrites the pending code digest and expiry unconditionally.
func (r *AccountRepo) ReplaceOTP(ctx context.Context, email, digest string, expiresAt time.Time) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldOTPDigest:    digest,
		fieldOTPExpiresAt: expiresAt.UTC(),
		fieldUpdatedAt:    r.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	ue = ue.withCondition(map[string]string{"#c0": fieldEmail}, nil)
	return r.update(ctx, email, ue, "attribute_exists(#c0)", domain.ErrNotFound)
}

// MarkVerified sets is_verified and clears the pending code, provided the
// stored digest is still the one the caller checked.
func (r *AccountRepo) MarkVerified(ctx context.Context, email, digest string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldIsVerified: true,
		fieldUpdatedAt:  r.now().UTC(),
	}, fieldOTPDigest, fieldOTPExpiresAt)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	ue = ue.withCondition(
		map[string]string{"#c0": fieldOTPDigest},
		map[string]types.AttributeValue{":c0": &types.AttributeValueMemberS{Value: digest}},
	)
	return r.update(ctx, email, ue, "#c0 = :c0", domain.ErrInvalidCode)
}

// SetPIN stores the PIN hash on a verified account. Missing and unverified
// accounts both fail with domain.ErrNotVerifiedOrNotFound.
func (r *AccountRepo) SetPIN(ctx context.Context, email, pinHash string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldPINHash:   pinHash,
		fieldUpdatedAt: r.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	ue = ue.withCondition(
		map[string]string{"#c0": fieldIsVerified},
		map[string]types.AttributeValue{":c0": &types.AttributeValueMemberBOOL{Value: true}},
	)
	return r.update(ctx, email, ue, "#c0 = :c0", domain.ErrNotVerifiedOrNotFound)
}

// Ping checks that the accounts table is reachable.
func (r *AccountRepo) Ping(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return fmt.Errorf("%w: describe table: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (r *AccountRepo) update(ctx context.Context, email string, ue updateExpr, cond string, condErr error) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldEmail, email),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("update account: %w", condErr)
		}
		return fmt.Errorf("%w: update account: %w", domain.ErrPersistence, err)
	}
	return nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
