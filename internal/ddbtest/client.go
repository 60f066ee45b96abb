// Package ddbtest provides an in-memory stand-in for the DynamoDB item API used in tests.
package ddbtest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type table struct {
	partitionKey string
	sortKey      string
	items        map[string]map[string]types.AttributeValue
}

// Client keeps tables in memory. It is safe for concurrent use.
type Client struct {
	mu     sync.Mutex
	tables map[string]*table

	// GetErr, PutErr and DescribeErr, when set, fail every call of that operation.
	GetErr      error
	PutErr      error
	DescribeErr error

	// BeforePut runs before each put is applied, with the lock released.
	BeforePut func(input *dynamodb.PutItemInput)

	gets, puts int
}

// NewClient returns an empty client. Add tables with AddTable.
func NewClient() *Client {
	return &Client{tables: make(map[string]*table)}
}

// AddTable creates an empty table with the given key schema.
func (c *Client) AddTable(name, partitionKey, sortKey string) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[name] = &table{
		partitionKey: partitionKey,
		sortKey:      sortKey,
		items:        make(map[string]map[string]types.AttributeValue),
	}
	return c
}

// Calls returns the number of GetItem and PutItem calls served so far.
func (c *Client) Calls() (gets, puts int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gets, c.puts
}

// Items returns a snapshot of the items of a table, sorted by key.
func (c *Client) Items(name string) []map[string]types.AttributeValue {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tables[name]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(t.items))
	for k := range t.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]map[string]types.AttributeValue, 0, len(keys))
	for _, k := range keys {
		out = append(out, t.items[k])
	}
	return out
}

// Seed stores item directly, bypassing any configured failure.
func (c *Client) Seed(name string, item map[string]types.AttributeValue) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, err := c.lookup(name)
	if err != nil {
		return err
	}
	key, err := t.keyOf(item)
	if err != nil {
		return err
	}
	t.items[key] = item
	return nil
}

func (c *Client) lookup(name string) (*table, error) {
	t, ok := c.tables[name]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found: Table: " + name + " not found")}
	}
	return t, nil
}

func (t *table) keyOf(attrs map[string]types.AttributeValue) (string, error) {
	parts := make([]string, 0, 2)
	for _, name := range []string{t.partitionKey, t.sortKey} {
		if name == "" {
			continue
		}
		s, ok := attrs[name].(*types.AttributeValueMemberS)
		if !ok {
			return "", fmt.Errorf("ValidationException: One of the required keys was not given a value: %s", name)
		}
		parts = append(parts, s.Value)
	}
	return strings.Join(parts, "\x00"), nil
}

func (c *Client) GetItem(ctx context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.GetErr != nil {
		return nil, c.GetErr
	}
	t, err := c.lookup(aws.ToString(params.TableName))
	if err != nil {
		return nil, err
	}
	key, err := t.keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: t.items[key]}, nil
}

func (c *Client) PutItem(ctx context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.BeforePut != nil {
		c.BeforePut(params)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	if c.PutErr != nil {
		return nil, c.PutErr
	}
	t, err := c.lookup(aws.ToString(params.TableName))
	if err != nil {
		return nil, err
	}
	key, err := t.keyOf(params.Item)
	if err != nil {
		return nil, err
	}
	t.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (c *Client) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.DescribeErr != nil {
		return nil, c.DescribeErr
	}
	name := aws.ToString(params.TableName)
	t, err := c.lookup(name)
	if err != nil {
		return nil, err
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   aws.String(name),
		TableStatus: types.TableStatusActive,
		ItemCount:   aws.Int64(int64(len(t.items))),
	}}, nil
}
