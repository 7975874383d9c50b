// Package dynamotest provides an in-memory stand-in for the DynamoDB
// operations used by dynamostore.  It understands the key schemas and
// global secondary indexes declared through CreateTable and the small
// expression vocabulary the store emits: equality key conditions,
// conditions joined by AND made of attribute_exists / attribute_not_exists
// and "a = :x" terms, "SET a = :x" and "ADD a :n" updates.  Transactions
// check every condition before applying any write.
package dynamotest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type item = map[string]types.AttributeValue

type table struct {
	hash    string
	rng     string
	indexes map[string]string
	items   map[string]item
	// indexed is what global secondary indexes see while IndexLag is set.
	indexed map[string]item
}

// Fake is a goroutine-safe in-memory DynamoDB.
type Fake struct {
	// PageSize, when positive, limits Scan and Query pages so callers
	// exercise LastEvaluatedKey handling.
	PageSize int

	// IndexLag makes queries on global secondary indexes see the tables
	// as of the last SyncIndexes call, the way a real index trails its
	// table.  Base table reads are unaffected.
	IndexLag bool

	mu     sync.Mutex
	tables map[string]*table
}

// New returns an empty fake with no tables.
func New() *Fake {
	return &Fake{tables: map[string]*table{}}
}

func scalar(av types.AttributeValue) (string, bool) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return "S:" + v.Value, true
	case *types.AttributeValueMemberN:
		return "N:" + v.Value, true
	}
	return "", false
}

func (t *table) key(it item) (string, error) {
	h, ok := scalar(it[t.hash])
	if !ok {
		return "", fmt.Errorf("missing key attribute %s", t.hash)
	}
	if t.rng == "" {
		return h, nil
	}
	r, ok := scalar(it[t.rng])
	if !ok {
		return "", fmt.Errorf("missing key attribute %s", t.rng)
	}
	return h + "|" + r, nil
}

func clone(it item) item {
	out := make(item, len(it))
	for k, v := range it {
		out[k] = v
	}
	return out
}

func (f *Fake) lookup(name *string) (*table, error) {
	t, ok := f.tables[aws.ToString(name)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("table not found: " + aws.ToString(name))}
	}
	return t, nil
}

func resolve(name string, names map[string]string) string {
	if strings.HasPrefix(name, "#") {
		return names[name]
	}
	return name
}

// checkCondition evaluates a conjunction of attribute_exists(x),
// attribute_not_exists(x) and "x = :v" terms against the current item,
// which is nil when absent.
func checkCondition(cond *string, names map[string]string, values map[string]types.AttributeValue, cur item) error {
	if cond == nil || strings.TrimSpace(*cond) == "" {
		return nil
	}
	for _, term := range strings.Split(*cond, " AND ") {
		ok, err := evalTerm(strings.TrimSpace(term), names, values, cur)
		if err != nil {
			return err
		}
		if !ok {
			return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}
	return nil
}

func evalTerm(expr string, names map[string]string, values map[string]types.AttributeValue, cur item) (bool, error) {
	if lhs, rhs, ok := strings.Cut(expr, "="); ok {
		attr := resolve(strings.TrimSpace(lhs), names)
		want, ok := scalar(values[strings.TrimSpace(rhs)])
		if !ok {
			return false, fmt.Errorf("missing value in condition %q", expr)
		}
		got, ok := scalar(cur[attr])
		return ok && got == want, nil
	}
	open, closing := strings.Index(expr, "("), strings.LastIndex(expr, ")")
	if open < 0 || closing < open {
		return false, fmt.Errorf("unsupported condition %q", expr)
	}
	fn := strings.TrimSpace(expr[:open])
	attr := resolve(strings.TrimSpace(expr[open+1:closing]), names)
	_, has := cur[attr]
	switch fn {
	case "attribute_exists":
		return has, nil
	case "attribute_not_exists":
		return !has, nil
	}
	return false, fmt.Errorf("unsupported condition %q", expr)
}

func (f *Fake) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.TableName)
	if _, ok := f.tables[name]; ok {
		return nil, &types.ResourceInUseException{Message: aws.String("table already exists: " + name)}
	}
	t := &table{indexes: map[string]string{}, items: map[string]item{}}
	for _, k := range in.KeySchema {
		if k.KeyType == types.KeyTypeHash {
			t.hash = aws.ToString(k.AttributeName)
		} else {
			t.rng = aws.ToString(k.AttributeName)
		}
	}
	for _, gsi := range in.GlobalSecondaryIndexes {
		for _, k := range gsi.KeySchema {
			if k.KeyType == types.KeyTypeHash {
				t.indexes[aws.ToString(gsi.IndexName)] = aws.ToString(k.AttributeName)
			}
		}
	}
	f.tables[name] = t
	return &dynamodb.CreateTableOutput{TableDescription: &types.TableDescription{
		TableName:   in.TableName,
		TableStatus: types.TableStatusCreating,
	}}, nil
}

func (f *Fake) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.lookup(in.TableName)
	if err != nil {
		return nil, err
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   in.TableName,
		TableStatus: types.TableStatusActive,
		ItemCount:   aws.Int64(int64(len(t.items))),
	}}, nil
}

func (f *Fake) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.lookup(in.TableName)
	if err != nil {
		return nil, err
	}
	k, err := t.key(in.Key)
	if err != nil {
		return nil, err
	}
	out := &dynamodb.GetItemOutput{}
	if it, ok := t.items[k]; ok {
		out.Item = clone(it)
	}
	return out, nil
}

func (f *Fake) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.lookup(in.TableName)
	if err != nil {
		return nil, err
	}
	k, err := t.key(in.Item)
	if err != nil {
		return nil, err
	}
	if err := checkCondition(in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, t.items[k]); err != nil {
		return nil, err
	}
	t.items[k] = clone(in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *Fake) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.lookup(in.TableName)
	if err != nil {
		return nil, err
	}
	k, err := t.key(in.Key)
	if err != nil {
		return nil, err
	}
	if err := checkCondition(in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, t.items[k]); err != nil {
		return nil, err
	}
	delete(t.items, k)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *Fake) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.lookup(in.TableName)
	if err != nil {
		return nil, err
	}
	k, err := t.key(in.Key)
	if err != nil {
		return nil, err
	}
	cur := t.items[k]
	if err := checkCondition(in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, cur); err != nil {
		return nil, err
	}
	next, changed, err := applyUpdate(in.Key, cur, aws.ToString(in.UpdateExpression), in.ExpressionAttributeNames, in.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}
	t.items[k] = next

	out := &dynamodb.UpdateItemOutput{}
	switch in.ReturnValues {
	case types.ReturnValueUpdatedNew:
		out.Attributes = changed
	case types.ReturnValueAllNew:
		out.Attributes = clone(next)
	}
	return out, nil
}

// applyUpdate returns the item produced by expr and the attributes it
// changed, leaving cur untouched.
func applyUpdate(key, cur item, expr string, names map[string]string, values map[string]types.AttributeValue) (item, item, error) {
	next := clone(key)
	for a, v := range cur {
		next[a] = v
	}
	changed := item{}

	expr = strings.TrimSpace(expr)
	switch {
	case strings.HasPrefix(expr, "SET "):
		for _, assign := range strings.Split(strings.TrimPrefix(expr, "SET "), ",") {
			parts := strings.SplitN(assign, "=", 2)
			if len(parts) != 2 {
				return nil, nil, fmt.Errorf("unsupported update %q", expr)
			}
			attr := resolve(strings.TrimSpace(parts[0]), names)
			v, ok := values[strings.TrimSpace(parts[1])]
			if !ok {
				return nil, nil, fmt.Errorf("missing value for %q", parts[1])
			}
			next[attr], changed[attr] = v, v
		}
	case strings.HasPrefix(expr, "ADD "):
		fields := strings.Fields(strings.TrimPrefix(expr, "ADD "))
		if len(fields) != 2 {
			return nil, nil, fmt.Errorf("unsupported update %q", expr)
		}
		attr := resolve(fields[0], names)
		delta, ok := values[fields[1]].(*types.AttributeValueMemberN)
		if !ok {
			return nil, nil, fmt.Errorf("ADD needs a number value")
		}
		var base int64
		if n, ok := next[attr].(*types.AttributeValueMemberN); ok {
			base, _ = strconv.ParseInt(n.Value, 10, 64)
		}
		d, _ := strconv.ParseInt(delta.Value, 10, 64)
		v := &types.AttributeValueMemberN{Value: strconv.FormatInt(base+d, 10)}
		next[attr], changed[attr] = v, v
	default:
		return nil, nil, fmt.Errorf("unsupported update %q", expr)
	}
	return next, changed, nil
}

// TransactWriteItems applies every operation or none.  A failed condition
// cancels the transaction with one reason per operation, in order.
func (f *Fake) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	type write struct {
		t    *table
		k    string
		next item // nil deletes
	}
	var (
		writes  []write
		reasons []types.CancellationReason
		failed  bool
		seen    = map[string]bool{}
	)
	for _, op := range in.TransactItems {
		var (
			tableName     *string
			key           item
			cond          *string
			names         map[string]string
			values        map[string]types.AttributeValue
			conditionOnly bool
		)
		switch {
		case op.Put != nil:
			tableName, key, cond, names, values = op.Put.TableName, op.Put.Item, op.Put.ConditionExpression, op.Put.ExpressionAttributeNames, op.Put.ExpressionAttributeValues
		case op.Delete != nil:
			tableName, key, cond, names, values = op.Delete.TableName, op.Delete.Key, op.Delete.ConditionExpression, op.Delete.ExpressionAttributeNames, op.Delete.ExpressionAttributeValues
		case op.Update != nil:
			tableName, key, cond, names, values = op.Update.TableName, op.Update.Key, op.Update.ConditionExpression, op.Update.ExpressionAttributeNames, op.Update.ExpressionAttributeValues
		case op.ConditionCheck != nil:
			tableName, key, cond, names, values = op.ConditionCheck.TableName, op.ConditionCheck.Key, op.ConditionCheck.ConditionExpression, op.ConditionCheck.ExpressionAttributeNames, op.ConditionCheck.ExpressionAttributeValues
			conditionOnly = true
		default:
			return nil, fmt.Errorf("empty transaction item")
		}
		t, err := f.lookup(tableName)
		if err != nil {
			return nil, err
		}
		k, err := t.key(key)
		if err != nil {
			return nil, err
		}
		id := aws.ToString(tableName) + "/" + k
		if seen[id] {
			return nil, fmt.Errorf("transaction touches %s twice", id)
		}
		seen[id] = true
		cur := t.items[k]
		if err := checkCondition(cond, names, values, cur); err != nil {
			var ccf *types.ConditionalCheckFailedException
			if !errors.As(err, &ccf) {
				return nil, err
			}
			failed = true
			reasons = append(reasons, types.CancellationReason{Code: aws.String("ConditionalCheckFailed"), Message: ccf.Message})
			continue
		}
		reasons = append(reasons, types.CancellationReason{Code: aws.String("None")})

		switch {
		case conditionOnly:
		case op.Put != nil:
			writes = append(writes, write{t: t, k: k, next: clone(op.Put.Item)})
		case op.Delete != nil:
			writes = append(writes, write{t: t, k: k})
		case op.Update != nil:
			next, _, err := applyUpdate(key, cur, aws.ToString(op.Update.UpdateExpression), names, values)
			if err != nil {
				return nil, err
			}
			writes = append(writes, write{t: t, k: k, next: next})
		}
	}
	if failed {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled, please refer cancellation reasons for specific reasons"),
			CancellationReasons: reasons,
		}
	}
	for _, w := range writes {
		if w.next == nil {
			delete(w.t.items, w.k)
		} else {
			w.t.items[w.k] = w.next
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

// SyncIndexes lets lagging indexes catch up with their tables.
func (f *Fake) SyncIndexes() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tables {
		t.indexed = make(map[string]item, len(t.items))
		for k, it := range t.items {
			t.indexed[k] = clone(it)
		}
	}
}

// page returns the items after start, limited to PageSize, and the key to
// resume from.
func (f *Fake) page(t *table, src map[string]item, match func(item) bool, start item) ([]item, item, error) {
	keys := make([]string, 0, len(src))
	for k, it := range src {
		if match(it) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if len(start) > 0 {
		sk, err := t.key(start)
		if err != nil {
			return nil, nil, err
		}
		i := sort.SearchStrings(keys, sk)
		if i < len(keys) && keys[i] == sk {
			i++
		}
		keys = keys[i:]
	}
	var last item
	if f.PageSize > 0 && len(keys) > f.PageSize {
		keys = keys[:f.PageSize]
		lk := src[keys[len(keys)-1]]
		last = item{t.hash: lk[t.hash]}
		if t.rng != "" {
			last[t.rng] = lk[t.rng]
		}
	}
	out := make([]item, 0, len(keys))
	for _, k := range keys {
		out = append(out, clone(src[k]))
	}
	return out, last, nil
}

func (f *Fake) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.lookup(in.TableName)
	if err != nil {
		return nil, err
	}
	items, last, err := f.page(t, t.items, func(item) bool { return true }, in.ExclusiveStartKey)
	if err != nil {
		return nil, err
	}
	out := &dynamodb.ScanOutput{Count: int32(len(items)), ScannedCount: int32(len(items)), LastEvaluatedKey: last}
	if in.Select != types.SelectCount {
		out.Items = items
	}
	return out, nil
}

// Query supports a single equality key condition, "attr = :v" or "#k = :v".
func (f *Fake) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.lookup(in.TableName)
	if err != nil {
		return nil, err
	}
	keyAttr, src := t.hash, t.items
	if in.IndexName != nil {
		var ok bool
		if keyAttr, ok = t.indexes[*in.IndexName]; !ok {
			return nil, fmt.Errorf("unknown index %s", *in.IndexName)
		}
		if aws.ToBool(in.ConsistentRead) {
			return nil, fmt.Errorf("consistent reads are not supported on global secondary indexes")
		}
		if f.IndexLag {
			src = t.indexed
		}
	}
	parts := strings.SplitN(aws.ToString(in.KeyConditionExpression), "=", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("unsupported key condition %q", aws.ToString(in.KeyConditionExpression))
	}
	attr := resolve(strings.TrimSpace(parts[0]), in.ExpressionAttributeNames)
	if attr != keyAttr {
		return nil, fmt.Errorf("key condition on %s, index key is %s", attr, keyAttr)
	}
	want, ok := scalar(in.ExpressionAttributeValues[strings.TrimSpace(parts[1])])
	if !ok {
		return nil, fmt.Errorf("missing key condition value")
	}
	items, last, err := f.page(t, src, func(it item) bool {
		got, ok := scalar(it[attr])
		return ok && got == want
	}, in.ExclusiveStartKey)
	if err != nil {
		return nil, err
	}
	return &dynamodb.QueryOutput{Items: items, Count: int32(len(items)), LastEvaluatedKey: last}, nil
}

// Len returns the number of items in a table, for assertions.
func (f *Fake) Len(tableName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tables[tableName]; ok {
		return len(t.items)
	}
	return 0
}
