package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dioinnovo/voicelead/internal/dialogue"
)

// dynamoAPI is the slice of the DynamoDB client the store needs. Tests
// substitute a stub.
type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// sessionItem is the DynamoDB row shape. The table needs a string hash key
// "sessionId" and a TTL attribute on "expiresAt".
type sessionItem struct {
	SessionID string `dynamodbav:"sessionId"`
	Phase     string `dynamodbav:"phase"`
	State     []byte `dynamodbav:"state"`
	UpdatedAt string `dynamodbav:"updatedAt"`
	ExpiresAt int64  `dynamodbav:"expiresAt"`
}

// DynamoStore checkpoints dialogue state in DynamoDB, relying on the
// table's TTL to reap abandoned sessions.
type DynamoStore struct {
	client    dynamoAPI
	tableName string
	ttl       time.Duration
}

// NewDynamoStore builds a DynamoDB-backed store. A ttl <= 0 falls back to
// DefaultTTL.
func NewDynamoStore(client dynamoAPI, tableName string, ttl time.Duration) *DynamoStore {
	if client == nil {
		panic("session: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("session: table name cannot be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DynamoStore{client: client, tableName: tableName, ttl: ttl}
}

var _ Store = (*DynamoStore)(nil)

func (s *DynamoStore) Save(ctx context.Context, state *dialogue.State) error {
	if state == nil || state.SessionID == "" {
		return errors.New("session: state with session_id required")
	}
	data, err := state.Marshal()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	item, err := attributevalue.MarshalMap(sessionItem{
		SessionID: state.SessionID,
		Phase:     string(state.Phase),
		State:     data,
		UpdatedAt: now.Format(time.RFC3339Nano),
		ExpiresAt: now.Add(s.ttl).Unix(),
	})
	if err != nil {
		return fmt.Errorf("session: dynamo marshal: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("session: dynamo put: %w", err)
	}
	return nil
}

func (s *DynamoStore) Get(ctx context.Context, sessionID string) (*dialogue.State, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"sessionId": &types.AttributeValueMemberS{Value: sessionID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("session: dynamo get: %w", err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}
	var item sessionItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("session: dynamo unmarshal: %w", err)
	}
	// DynamoDB TTL deletion lags; treat expired rows as gone.
	if item.ExpiresAt > 0 && time.Now().Unix() >= item.ExpiresAt {
		return nil, ErrNotFound
	}
	return dialogue.UnmarshalState(item.State)
}

func (s *DynamoStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"sessionId": &types.AttributeValueMemberS{Value: sessionID},
		},
	}); err != nil {
		return fmt.Errorf("session: dynamo delete: %w", err)
	}
	return nil
}
