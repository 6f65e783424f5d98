package session

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dioinnovo/voicelead/internal/dialogue"
)

// fakeDynamo keeps items in memory keyed by sessionId.
type fakeDynamo struct {
	items map[string]map[string]types.AttributeValue
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	key := in.Item["sessionId"].(*types.AttributeValueMemberS).Value
	f.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	key := in.Key["sessionId"].(*types.AttributeValueMemberS).Value
	item, ok := f.items[key]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	key := in.Key["sessionId"].(*types.AttributeValueMemberS).Value
	delete(f.items, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestDynamoStoreRoundTrip(t *testing.T) {
	fake := newFakeDynamo()
	store := NewDynamoStore(fake, "sessions", 0)
	ctx := context.Background()

	state := dialogue.NewState("d-1")
	state.Phase = dialogue.PhasePainPoint
	state.Lead.Company = "Acme"
	require.NoError(t, store.Save(ctx, state))

	got, err := store.Get(ctx, "d-1")
	require.NoError(t, err)
	assert.Equal(t, dialogue.PhasePainPoint, got.Phase)
	assert.Equal(t, "Acme", got.Lead.Company)
}

func TestDynamoStoreGetMissing(t *testing.T) {
	store := NewDynamoStore(newFakeDynamo(), "sessions", 0)
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDynamoStoreExpiredItemIsGone(t *testing.T) {
	fake := newFakeDynamo()
	store := NewDynamoStore(fake, "sessions", time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, dialogue.NewState("d-2")))

	// rewrite the row with an expiry in the past
	item := fake.items["d-2"]
	expired, err := attributevalue.Marshal(time.Now().Add(-time.Minute).Unix())
	require.NoError(t, err)
	item["expiresAt"] = expired

	_, err = store.Get(ctx, "d-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDynamoStoreDelete(t *testing.T) {
	fake := newFakeDynamo()
	store := NewDynamoStore(fake, "sessions", 0)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, dialogue.NewState("d-3")))
	require.NoError(t, store.Delete(ctx, "d-3"))

	_, err := store.Get(ctx, "d-3")
	assert.ErrorIs(t, err, ErrNotFound)
}
