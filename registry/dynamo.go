package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DDBClient is the subset of the DynamoDB API the store uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoStore persists environments in a DynamoDB table, giving every node
// of a cluster the same registry view. A PutItem replaces the whole item, so
// label overwrite is atomic without coordination.
//
// Table schema:
//   - Partition key: label (string)
//   - Attribute: document (string) - JSON-encoded Environment
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name epsel-environments \
//	  --attribute-definitions AttributeName=label,AttributeType=S \
//	  --key-schema AttributeName=label,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
type DynamoStore struct {
	client    DDBClient
	tableName string
}

// NewDynamoStore creates a Store over a DynamoDB table.
func NewDynamoStore(client DDBClient, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName}
}

// Put implements Store.
func (s *DynamoStore) Put(ctx context.Context, env *Environment) error {
	doc, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode environment %q: %w", env.Label, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"label":    &types.AttributeValueMemberS{Value: env.Label},
			"document": &types.AttributeValueMemberS{Value: string(doc)},
		},
	})
	if err != nil {
		return fmt.Errorf("write environment %q to table %s: %w", env.Label, s.tableName, err)
	}
	return nil
}

// Get implements Store.
func (s *DynamoStore) Get(ctx context.Context, label string) (*Environment, error) {
	resp, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"label": &types.AttributeValueMemberS{Value: label},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("read environment %q from table %s: %w", label, s.tableName, err)
	}
	if len(resp.Item) == 0 {
		return nil, &ErrUnknownLabel{Label: label}
	}

	docAttr, ok := resp.Item["document"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("environment %q in table %s has no document attribute", label, s.tableName)
	}

	var env Environment
	if err := json.Unmarshal([]byte(docAttr.Value), &env); err != nil {
		return nil, fmt.Errorf("decode environment %q: %w", label, err)
	}
	return &env, nil
}

// Delete implements Store.
func (s *DynamoStore) Delete(ctx context.Context, label string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"label": &types.AttributeValueMemberS{Value: label},
		},
	})
	if err != nil {
		return fmt.Errorf("delete environment %q from table %s: %w", label, s.tableName, err)
	}
	return nil
}

// List implements Store.
func (s *DynamoStore) List(ctx context.Context) ([]string, error) {
	var labels []string
	var startKey map[string]types.AttributeValue
	for {
		resp, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:            aws.String(s.tableName),
			ProjectionExpression: aws.String("#lbl"),
			ExpressionAttributeNames: map[string]string{
				"#lbl": "label",
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("list environments in table %s: %w", s.tableName, err)
		}
		for _, item := range resp.Items {
			if attr, ok := item["label"].(*types.AttributeValueMemberS); ok {
				labels = append(labels, attr.Value)
			}
		}
		if len(resp.LastEvaluatedKey) == 0 {
			break
		}
		startKey = resp.LastEvaluatedKey
	}
	sort.Strings(labels)
	return labels, nil
}
