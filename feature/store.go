package feature

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/sarthak-bm-ai/Feature-Store-CRUD/internal/metrics"
)

// Client is the subset of the DynamoDB API the store uses. *dynamodb.Client
// satisfies it.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Gateway reads and writes whole records.
type Gateway interface {
	// GetRecord returns ErrNotFound when no live record exists for the key.
	GetRecord(ctx context.Context, entity EntityRef, category string) (*Record, error)

	// PutRecord unconditionally replaces the stored item with r.
	PutRecord(ctx context.Context, r *Record) error
}

// table is the resolved handle for one entity kind.
type table struct {
	name string
	kind EntityKind
}

// Store implements Gateway over DynamoDB.
type Store struct {
	client Client
	config Config
	tables *xsync.MapOf[EntityKind, *table]
	now    func() time.Time
}

// NewStore creates a new Store instance.
func NewStore(client Client, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
		tables: xsync.NewMapOf[EntityKind, *table](),
		now:    time.Now,
	}
}

// Config returns the validated configuration of the store.
func (s *Store) Config() Config { return s.config }

// table returns the handle for kind, resolving it on first use.
func (s *Store) table(kind EntityKind) *table {
	t, _ := s.tables.LoadOrCompute(kind, func() *table {
		return &table{name: s.config.TableFor(kind), kind: kind}
	})
	return t
}

// GetRecord retrieves the record for entity and category, returning ErrNotFound if
// missing or expired.
func (s *Store) GetRecord(ctx context.Context, entity EntityRef, category string) (*Record, error) {
	t := s.table(entity.Kind)
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(t.name),
		Key:            entity.key(category),
		ConsistentRead: aws.Bool(s.config.ConsistentRead),
	})
	metrics.StorageLatency("GetItem", t.name, start)
	if err != nil {
		metrics.StorageCall("GetItem", t.name, metrics.OutcomeError)
		return nil, &StoreError{Op: "GetItem", Table: t.name, Err: err}
	}
	if result.Item == nil || IsExpired(result.Item, s.now()) {
		metrics.StorageCall("GetItem", t.name, metrics.OutcomeNotFound)
		return nil, ErrNotFound
	}
	metrics.StorageCall("GetItem", t.name, metrics.OutcomeFound)
	return DecodeItem(t.kind, result.Item)
}

// PutRecord writes r, replacing any existing item with the same key. When the store
// has a RecordTTL and r has no expiry, the ttl is stamped from r's update time.
func (s *Store) PutRecord(ctx context.Context, r *Record) error {
	t := s.table(r.Entity.Kind)
	if r.ExpiresAt == nil && s.config.RecordTTL > 0 {
		stamped := *r
		stamped.ExpiresAt = expiryFor(r.Meta.UpdatedAt, s.config.RecordTTL)
		r = &stamped
	}
	item, err := EncodeItem(r)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.name),
		Item:      item,
	})
	metrics.StorageLatency("PutItem", t.name, start)
	if err != nil {
		metrics.StorageCall("PutItem", t.name, metrics.OutcomeError)
		return &StoreError{Op: "PutItem", Table: t.name, Err: err}
	}
	metrics.StorageCall("PutItem", t.name, metrics.OutcomeOK)
	return nil
}

// Ping describes both tables and returns the names of those that are active.
func (s *Store) Ping(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	var (
		active []string
		errs   []error
	)
	for _, kind := range Kinds {
		t := s.table(kind)
		out, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(t.name),
		})
		if err != nil {
			metrics.StorageCall("DescribeTable", t.name, metrics.OutcomeError)
			errs = append(errs, &StoreError{Op: "DescribeTable", Table: t.name, Err: err})
			continue
		}
		metrics.StorageCall("DescribeTable", t.name, metrics.OutcomeOK)
		if out.Table != nil && out.Table.TableStatus == types.TableStatusActive {
			active = append(active, t.name)
		}
	}
	return active, errors.Join(errs...)
}
