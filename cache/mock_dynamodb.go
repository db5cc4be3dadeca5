package cache

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MockDynamoDBClient implements DynamoDBAPI with an in-memory table so
// the DynamoDB provider can be exercised without AWS.
type MockDynamoDBClient struct {
	mu     sync.Mutex
	items  map[string]map[string]types.AttributeValue
	exists bool
}

// NewMockDynamoDBClient creates a new mock DynamoDB client
func NewMockDynamoDBClient() *MockDynamoDBClient {
	return &MockDynamoDBClient{
		items: make(map[string]map[string]types.AttributeValue),
	}
}

// CreateTable marks the mock table as existing
func (m *MockDynamoDBClient) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.exists = true
	return &dynamodb.CreateTableOutput{}, nil
}

// DescribeTable reports whether the mock table exists
func (m *MockDynamoDBClient) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.exists {
		return nil, &types.ResourceNotFoundException{Message: aws.String("table not found")}
	}
	return &dynamodb.DescribeTableOutput{}, nil
}

// GetItem retrieves an item by its hash key
func (m *MockDynamoDBClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := hashKey(params.Key)
	item, ok := m.items[key]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

// PutItem stores an item by its hash key
func (m *MockDynamoDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[hashKey(params.Item)] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

// DeleteItem removes an item by its hash key
func (m *MockDynamoDBClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, hashKey(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

// hashKey extracts the string hash key from a key or item map
func hashKey(attrs map[string]types.AttributeValue) string {
	if v, ok := attrs["key"].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}
