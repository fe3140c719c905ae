package flagstore

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
)

type fakeDynamo struct {
	getOut       *dynamodb.GetItemOutput
	getErr       error
	putErr       error
	lastGetInput *dynamodb.GetItemInput
	lastPutInput *dynamodb.PutItemInput
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.lastGetInput = in
	return f.getOut, f.getErr
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func mustNewDynamoStore(t *testing.T, db *fakeDynamo) *DynamoStore {
	t.Helper()
	s, err := NewDynamoStore(db, "flags-table")
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2026, 2, 17, 12, 0, 0, 0, time.UTC) }
	return s
}

func keyValue(t *testing.T, key map[string]types.AttributeValue, attr string) string {
	t.Helper()
	v, err := strAttr(key, attr)
	require.NoError(t, err)
	return v
}

func TestDynamoStore_GetHappyPath(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"PK":    &types.AttributeValueMemberS{Value: "FLAGS#anonymous"},
		"SK":    &types.AttributeValueMemberS{Value: "FLAG#chatOpenedFlag"},
		"value": &types.AttributeValueMemberS{Value: "true"},
	}}}
	s := mustNewDynamoStore(t, db)

	v, ok, err := s.Get(context.Background(), "chatOpenedFlag")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "true", v)
	require.Equal(t, "FLAGS#anonymous", keyValue(t, db.lastGetInput.Key, "PK"))
	require.Equal(t, "FLAG#chatOpenedFlag", keyValue(t, db.lastGetInput.Key, "SK"))
	require.True(t, *db.lastGetInput.ConsistentRead)
}

func TestDynamoStore_GetMissingItem(t *testing.T) {
	s := mustNewDynamoStore(t, &fakeDynamo{getOut: &dynamodb.GetItemOutput{}})
	_, ok, err := s.Get(context.Background(), "chatOpenedFlag")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDynamoStore_GetItemError(t *testing.T) {
	s := mustNewDynamoStore(t, &fakeDynamo{getErr: errors.New("boom")})
	_, _, err := s.Get(context.Background(), "chatOpenedFlag")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Get get item")
}

func TestDynamoStore_GetMalformedValue(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"value": &types.AttributeValueMemberN{Value: "1"},
	}}}
	s := mustNewDynamoStore(t, db)
	_, _, err := s.Get(context.Background(), "chatOpenedFlag")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a string")
}

func TestDynamoStore_SetWritesNamespacedItemWithTTL(t *testing.T) {
	db := &fakeDynamo{}
	s := mustNewDynamoStore(t, db)
	s.Namespace("dana")

	require.NoError(t, s.Set(context.Background(), "customerPersonalizedFlag", "true"))

	item := db.lastPutInput.Item
	require.Equal(t, "flags-table", *db.lastPutInput.TableName)
	require.Equal(t, "FLAGS#dana", keyValue(t, item, "PK"))
	require.Equal(t, "FLAG#customerPersonalizedFlag", keyValue(t, item, "SK"))
	require.Equal(t, "true", keyValue(t, item, "value"))
	require.Equal(t, "2026-02-17T12:00:00Z", keyValue(t, item, "updatedAt"))
	want := time.Date(2026, 3, 19, 12, 0, 0, 0, time.UTC).Unix()
	require.Equal(t, strconv.FormatInt(want, 10), item["ttl"].(*types.AttributeValueMemberN).Value)
}

func TestDynamoStore_SetError(t *testing.T) {
	s := mustNewDynamoStore(t, &fakeDynamo{putErr: errors.New("ProvisionedThroughputExceededException")})
	err := s.Set(context.Background(), "chatOpenedFlag", "true")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Set")
}

func TestNewDynamoStore_Validation(t *testing.T) {
	_, err := NewDynamoStore(nil, "flags-table")
	require.ErrorContains(t, err, "must not be nil")

	_, err = NewDynamoStore(&fakeDynamo{}, " ")
	require.ErrorContains(t, err, "must not be empty")
}

func TestNamespace_BlankFallsBackToDefault(t *testing.T) {
	s := NewMemoryStore()
	s.Namespace("dana")
	require.Equal(t, "dana", s.current())
	s.Namespace("  ")
	require.Equal(t, DefaultNamespace, s.current())
}
