// Package dynamostore implements repository.Store on DynamoDB.
//
// Each entity lives in its own table named <prefix><entity>.  Reservations
// are also copied into the reservation_slots table, keyed by
// "<space_id>#<date>" and id, in the same transaction as every write, so the
// overlap check reads a space's day with a strongly consistent query.
// Global secondary indexes only serve lookups that may trail the tables:
// spaces by zone and zone assignments by responsible.  Numeric identifiers come from an atomic counter item per entity
// in the counters table, so concurrent writers never reuse an id.
// Referential checks that MySQL performs with foreign keys are done in
// process and reported with the same repository sentinels.
package dynamostore

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

	"github.com/iliyamo/space-reservation/internal/repository"
)

// API is the subset of *dynamodb.Client used by the store.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

// Table and index names, without prefix.
const (
	tableZones            = "zones"
	tableSpaces           = "spaces"
	tableReservations     = "reservations"
	tableReservationSlots = "reservation_slots"
	tableUsers            = "users"
	tableResponsibles     = "responsibles"
	tableZoneResponsibles = "zone_responsibles"
	tableResources        = "resources"
	tableSpaceResources   = "space_resources"
	tableActivityTypes    = "activity_types"
	tableStatuses         = "statuses"
	tableCounters         = "counters"

	indexZone        = "zone-index"
	indexResponsible = "responsible-index"
)

// Store bundles the entity repositories sharing one client.
type Store struct {
	api    API
	prefix string
	now    func() time.Time

	zones         *ZoneRepo
	spaces        *SpaceRepo
	reservations  *ReservationRepo
	users         *UserRepo
	responsibles  *ResponsibleRepo
	assignments   *ZoneResponsibleRepo
	resources     *ResourceRepo
	activityTypes *ActivityTypeRepo
	statuses      *StatusRepo
}

var _ repository.Store = (*Store)(nil)

// New wraps a client.  Tables must exist; see EnsureTables.
func New(api API, tablePrefix string) *Store {
	s := &Store{api: api, prefix: tablePrefix, now: time.Now}
	s.zones = &ZoneRepo{s: s}
	s.spaces = &SpaceRepo{s: s}
	s.reservations = &ReservationRepo{s: s}
	s.users = &UserRepo{s: s}
	s.responsibles = &ResponsibleRepo{s: s}
	s.assignments = &ZoneResponsibleRepo{s: s}
	s.resources = &ResourceRepo{s: s}
	s.activityTypes = &ActivityTypeRepo{s: s}
	s.statuses = &StatusRepo{s: s}
	return s
}

func (s *Store) Zones() repository.ZoneRepository                 { return s.zones }
func (s *Store) Spaces() repository.SpaceRepository               { return s.spaces }
func (s *Store) Reservations() repository.ReservationRepository   { return s.reservations }
func (s *Store) Users() repository.UserRepository                 { return s.users }
func (s *Store) Responsibles() repository.ResponsibleRepository   { return s.responsibles }
func (s *Store) Resources() repository.ResourceRepository         { return s.resources }
func (s *Store) ActivityTypes() repository.ActivityTypeRepository { return s.activityTypes }
func (s *Store) Statuses() repository.StatusRepository            { return s.statuses }

func (s *Store) ZoneResponsibles() repository.ZoneResponsibleRepository { return s.assignments }

// Backend returns repository.BackendDynamoDB.
func (s *Store) Backend() string { return repository.BackendDynamoDB }

// Ping describes the statuses table, which exists once the store is
// initialised.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: s.table(tableStatuses)})
	return err
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *Store) Close() error { return nil }

func (s *Store) table(name string) *string { return aws.String(s.prefix + name) }

// timestamp returns the current time at the resolution MySQL DATETIME keeps.
func (s *Store) timestamp() time.Time { return s.now().UTC().Truncate(time.Second) }

func numAttr(n uint64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatUint(n, 10)}
}

func strAttr(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

func idKey(id uint64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"id": numAttr(id)}
}

// nextID increments the counter of entity and returns the new value.
func (s *Store) nextID(ctx context.Context, entity string) (uint64, error) {
	out, err := s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 s.table(tableCounters),
		Key:                       map[string]types.AttributeValue{"name": strAttr(entity)},
		UpdateExpression:          aws.String("ADD #v :one"),
		ExpressionAttributeNames:  map[string]string{"#v": "value"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":one": numAttr(1)},
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", entity, err)
	}
	var c struct {
		Value uint64 `dynamodbav:"value"`
	}
	if err := attributevalue.UnmarshalMap(out.Attributes, &c); err != nil {
		return 0, fmt.Errorf("next %s id: %w", entity, err)
	}
	return c.Value, nil
}

// get loads one item into out, returning repository.ErrNotFound when the
// key is absent.
func (s *Store) get(ctx context.Context, table string, key map[string]types.AttributeValue, out any) error {
	res, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      s.table(table),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return err
	}
	if len(res.Item) == 0 {
		return repository.ErrNotFound
	}
	return attributevalue.UnmarshalMap(res.Item, out)
}

// exists reports whether key is present in table.
func (s *Store) exists(ctx context.Context, table string, key map[string]types.AttributeValue) (bool, error) {
	var discard map[string]any
	err := s.get(ctx, table, key, &discard)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// put writes item.  When cond is set and fails, condErr is returned.
func (s *Store) put(ctx context.Context, table string, item any, cond string, condErr error) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return err
	}
	in := &dynamodb.PutItemInput{TableName: s.table(table), Item: av}
	if cond != "" {
		in.ConditionExpression = aws.String(cond)
	}
	if _, err := s.api.PutItem(ctx, in); err != nil {
		return conditionError(err, condErr)
	}
	return nil
}

// remove deletes key, returning repository.ErrNotFound when it is absent.
func (s *Store) remove(ctx context.Context, table string, key map[string]types.AttributeValue, keyAttr string) error {
	_, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           s.table(table),
		Key:                 key,
		ConditionExpression: aws.String("attribute_exists(" + keyAttr + ")"),
	})
	return conditionError(err, repository.ErrNotFound)
}

// conditionError maps a failed condition, alone or inside a cancelled
// transaction, to condErr.
func conditionError(err, condErr error) error {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return condErr
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, r := range tce.CancellationReasons {
			if aws.ToString(r.Code) == "ConditionalCheckFailed" {
				return condErr
			}
		}
	}
	return err
}

// transact applies ops atomically.  When a condition fails, condErr is
// returned.
func (s *Store) transact(ctx context.Context, condErr error, ops ...types.TransactWriteItem) error {
	_, err := s.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: ops})
	return conditionError(err, condErr)
}

func (s *Store) putOp(table string, item map[string]types.AttributeValue, cond string, values map[string]types.AttributeValue) types.TransactWriteItem {
	p := &types.Put{TableName: s.table(table), Item: item, ExpressionAttributeValues: values}
	if cond != "" {
		p.ConditionExpression = aws.String(cond)
	}
	return types.TransactWriteItem{Put: p}
}

func (s *Store) deleteOp(table string, key map[string]types.AttributeValue, cond string, values map[string]types.AttributeValue) types.TransactWriteItem {
	d := &types.Delete{TableName: s.table(table), Key: key, ExpressionAttributeValues: values}
	if cond != "" {
		d.ConditionExpression = aws.String(cond)
	}
	return types.TransactWriteItem{Delete: d}
}

func (s *Store) updateOp(table string, key map[string]types.AttributeValue, update, cond string, values map[string]types.AttributeValue) types.TransactWriteItem {
	u := &types.Update{
		TableName:                 s.table(table),
		Key:                       key,
		UpdateExpression:          aws.String(update),
		ExpressionAttributeValues: values,
	}
	if cond != "" {
		u.ConditionExpression = aws.String(cond)
	}
	return types.TransactWriteItem{Update: u}
}

// scan reads every item of table into out, which must point to a slice.
func (s *Store) scan(ctx context.Context, table string, out any) error {
	var (
		items []map[string]types.AttributeValue
		start map[string]types.AttributeValue
	)
	for {
		res, err := s.api.Scan(ctx, &dynamodb.ScanInput{
			TableName:         s.table(table),
			ExclusiveStartKey: start,
		})
		if err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}
		items = append(items, res.Items...)
		if len(res.LastEvaluatedKey) == 0 {
			break
		}
		start = res.LastEvaluatedKey
	}
	return attributevalue.UnmarshalListOfMaps(items, out)
}

// query reads every item whose attr equals value, through index when set.
// Reads of the base table are strongly consistent; index reads cannot be.
func (s *Store) query(ctx context.Context, table, index, attr string, value types.AttributeValue, out any) error {
	var (
		items []map[string]types.AttributeValue
		start map[string]types.AttributeValue
	)
	for {
		in := &dynamodb.QueryInput{
			TableName:                 s.table(table),
			KeyConditionExpression:    aws.String("#k = :v"),
			ExpressionAttributeNames:  map[string]string{"#k": attr},
			ExpressionAttributeValues: map[string]types.AttributeValue{":v": value},
			ExclusiveStartKey:         start,
		}
		if index != "" {
			in.IndexName = aws.String(index)
		} else {
			in.ConsistentRead = aws.Bool(true)
		}
		res, err := s.api.Query(ctx, in)
		if err != nil {
			return fmt.Errorf("query %s: %w", table, err)
		}
		items = append(items, res.Items...)
		if len(res.LastEvaluatedKey) == 0 {
			break
		}
		start = res.LastEvaluatedKey
	}
	return attributevalue.UnmarshalListOfMaps(items, out)
}

// count returns the number of items in table.
func (s *Store) count(ctx context.Context, table string) (int, error) {
	var (
		total int
		start map[string]types.AttributeValue
	)
	for {
		res, err := s.api.Scan(ctx, &dynamodb.ScanInput{
			TableName:         s.table(table),
			Select:            types.SelectCount,
			ExclusiveStartKey: start,
		})
		if err != nil {
			return 0, fmt.Errorf("count %s: %w", table, err)
		}
		total += int(res.Count)
		if len(res.LastEvaluatedKey) == 0 {
			return total, nil
		}
		start = res.LastEvaluatedKey
	}
}

// requireRef returns repository.ErrConflict when key is missing from
// table.  It mirrors a foreign key violation.
func (s *Store) requireRef(ctx context.Context, table string, key map[string]types.AttributeValue, what string) error {
	ok, err := s.exists(ctx, table, key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s does not exist", repository.ErrConflict, what)
	}
	return nil
}
