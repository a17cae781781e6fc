package store

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/Alijeyrad/medtrack_backend/internal/schema"
)

// fakeDynamo understands exactly the expressions the backend emits.
type fakeDynamo struct {
	mu     sync.Mutex
	items  map[string]map[string]types.AttributeValue
	tables map[string]bool

	writes      int
	beforeWrite func(f *fakeDynamo)
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{
		items:  make(map[string]map[string]types.AttributeValue),
		tables: make(map[string]bool),
	}
}

func attrString(v types.AttributeValue) string {
	switch x := v.(type) {
	case *types.AttributeValueMemberS:
		return x.Value
	case *types.AttributeValueMemberN:
		return x.Value
	}
	return ""
}

func itemKey(k map[string]types.AttributeValue) string {
	return attrString(k[attrPK]) + "\x00" + attrString(k[attrSK])
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[itemKey(in.Key)]}, nil
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pk := attrString(in.ExpressionAttributeValues[":pk"])
	var keys []string
	for k := range f.items {
		if strings.HasPrefix(k, pk+"\x00") {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	out := &dynamodb.QueryOutput{}
	for _, k := range keys {
		out.Items = append(out.Items, f.items[k])
	}
	return out, nil
}

func (f *fakeDynamo) conditionHolds(expr *string, values map[string]types.AttributeValue, key map[string]types.AttributeValue) bool {
	if expr == nil {
		return true
	}
	cur, exists := f.items[itemKey(key)]
	switch *expr {
	case "attribute_not_exists(pk)":
		return !exists
	case "#v = :v":
		return exists && attrString(cur[attrVersion]) == attrString(values[":v"])
	}
	return false
}

func (f *fakeDynamo) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	if f.beforeWrite != nil {
		hook := f.beforeWrite
		f.beforeWrite = nil
		hook(f)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++

	for _, it := range in.TransactItems {
		switch {
		case it.Put != nil:
			if !f.conditionHolds(it.Put.ConditionExpression, it.Put.ExpressionAttributeValues, it.Put.Item) {
				return nil, &types.TransactionCanceledException{Message: aws.String("condition failed")}
			}
		case it.Delete != nil:
			if !f.conditionHolds(it.Delete.ConditionExpression, it.Delete.ExpressionAttributeValues, it.Delete.Key) {
				return nil, &types.TransactionCanceledException{Message: aws.String("condition failed")}
			}
		}
	}
	for _, it := range in.TransactItems {
		switch {
		case it.Put != nil:
			f.items[itemKey(it.Put.Item)] = it.Put.Item
		case it.Delete != nil:
			delete(f.items, itemKey(it.Delete.Key))
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (f *fakeDynamo) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[aws.ToString(in.TableName)] = true
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeDynamo) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.tables[aws.ToString(in.TableName)] {
		return nil, &types.ResourceNotFoundException{Message: aws.String("no table")}
	}
	return &dynamodb.DescribeTableOutput{}, nil
}

func TestDynamo_RetriesOnVersionConflict(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	s := New(NewDynamo(fake, "medtrack_test"))

	if err := s.BloodStock.Put(ctx, schema.BloodStock{Group: "A+", Units: 1}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	// A concurrent writer lands between our read and our write.
	fake.beforeWrite = func(f *fakeDynamo) {
		if _, err := s.BloodStock.Update(ctx, "A+", func(b *schema.BloodStock) error {
			b.SetUnits(b.Units + 10)
			return nil
		}); err != nil {
			t.Errorf("concurrent Update() error = %v", err)
		}
	}

	got, err := s.BloodStock.Update(ctx, "A+", func(b *schema.BloodStock) error {
		b.SetUnits(b.Units + 1)
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Units != 12 {
		t.Errorf("units = %d, want 12 (both writers applied)", got.Units)
	}
}

func TestDynamo_ConflictAfterRetries(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	d := NewDynamo(fake, "medtrack_test")

	var hook func(f *fakeDynamo)
	hook = func(f *fakeDynamo) {
		f.mu.Lock()
		row := f.items[itemKey(key("t", "1"))]
		v, _ := strconv.Atoi(attrString(row[attrVersion]))
		row[attrVersion] = &types.AttributeValueMemberN{Value: strconv.Itoa(v + 1)}
		f.mu.Unlock()
		f.beforeWrite = hook
	}

	_ = d.Mutate(ctx, "t", "1", func([]byte, bool) ([]byte, map[string]string, error) {
		return []byte("{}"), nil, nil
	})
	fake.beforeWrite = hook

	err := d.Mutate(ctx, "t", "1", func([]byte, bool) ([]byte, map[string]string, error) {
		return []byte(`{"x":1}`), nil, nil
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Mutate() error = %v, want ErrConflict", err)
	}
}

func TestDynamo_SkipDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	s := New(NewDynamo(fake, "medtrack_test"))
	_ = s.Wards.Put(ctx, schema.Ward{Name: "ICU", Total: 20, Occupied: 16})

	before := fake.writes
	if _, err := s.Wards.Update(ctx, "ICU", func(*schema.Ward) error { return ErrNoChange }); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if fake.writes != before {
		t.Errorf("writes = %d, want %d", fake.writes, before)
	}
}

func TestDynamo_WriteItems(t *testing.T) {
	d := NewDynamo(nil, "tbl")
	old := dynamoRow{version: 3, idx: map[string]string{"patient_id": "p1", "doctor_id": "d1"}}

	items := d.writeItems("appointments", "a1", old, true, []byte("{}"), map[string]string{"patient_id": "p1", "doctor_id": "d2"})

	// row put, one delete for the stale doctor index, two index puts
	if len(items) != 4 {
		t.Fatalf("len(items) = %d, want 4", len(items))
	}
	row := items[0].Put
	if aws.ToString(row.ConditionExpression) != "#v = :v" || attrString(row.ExpressionAttributeValues[":v"]) != "3" {
		t.Errorf("row condition = %v %v", aws.ToString(row.ConditionExpression), row.ExpressionAttributeValues)
	}
	if attrString(row.Item[attrVersion]) != "4" {
		t.Errorf("new version = %s, want 4", attrString(row.Item[attrVersion]))
	}
	if del := items[1].Delete; del == nil || attrString(del.Key[attrPK]) != "appointments#doctor_id#d1" {
		t.Errorf("items[1] = %+v, want delete of stale doctor index", items[1])
	}
}

func TestDynamo_EnsureTable(t *testing.T) {
	ctx := context.Background()
	d := NewDynamo(newFakeDynamo(), "medtrack_test")

	created, err := d.EnsureTable(ctx)
	if err != nil || !created {
		t.Fatalf("EnsureTable() = %v, %v; want created", created, err)
	}
	created, err = d.EnsureTable(ctx)
	if err != nil || created {
		t.Fatalf("second EnsureTable() = %v, %v; want existing", created, err)
	}
}
