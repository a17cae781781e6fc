package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

const (
	attrPK      = "pk"
	attrSK      = "sk"
	attrData    = "data"
	attrVersion = "version"
	attrIdx     = "idx_"
)

// Dynamo keeps all logical tables in one DynamoDB table.
//
//	row:   pk=<table>                    sk=<id>  data, version, idx_<name>
//	index: pk=<table>#<index>#<value>    sk=<id>  data
//
// Scan and ListBy are single partition queries. Every write is one
// transaction guarded by the row version, so index copies never drift.
type Dynamo struct {
	api   DynamoAPI
	table string
}

func NewDynamo(api DynamoAPI, table string) *Dynamo {
	return &Dynamo{api: api, table: table}
}

func indexPK(table, index, value string) string {
	return table + "#" + index + "#" + value
}

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: pk},
		attrSK: &types.AttributeValueMemberS{Value: sk},
	}
}

func (d *Dynamo) Get(ctx context.Context, table, id string) ([]byte, error) {
	out, err := d.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            key(table, id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get %s/%s: %w", table, id, err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	return stringAttr(out.Item, attrData), nil
}

type dynamoRow struct {
	data    []byte
	version int64
	idx     map[string]string
}

func (d *Dynamo) load(ctx context.Context, table, id string) (dynamoRow, bool, error) {
	out, err := d.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            key(table, id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return dynamoRow{}, false, fmt.Errorf("dynamodb get %s/%s: %w", table, id, err)
	}
	if len(out.Item) == 0 {
		return dynamoRow{}, false, nil
	}

	row := dynamoRow{data: stringAttr(out.Item, attrData), idx: make(map[string]string)}
	if n, ok := out.Item[attrVersion].(*types.AttributeValueMemberN); ok {
		row.version, _ = strconv.ParseInt(n.Value, 10, 64)
	}
	for k, v := range out.Item {
		if name, ok := strings.CutPrefix(k, attrIdx); ok {
			if s, ok := v.(*types.AttributeValueMemberS); ok {
				row.idx[name] = s.Value
			}
		}
	}
	return row, true, nil
}

func (d *Dynamo) Mutate(ctx context.Context, table, id string, fn Mutation) error {
	for i := 0; i < maxRetries; i++ {
		old, exists, err := d.load(ctx, table, id)
		if err != nil {
			return err
		}

		data, idx, err := fn(old.data, exists)
		if errors.Is(err, errSkip) {
			return nil
		}
		if err != nil {
			return err
		}

		_, err = d.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: d.writeItems(table, id, old, exists, data, idx),
		})
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			continue
		}
		if err != nil {
			return fmt.Errorf("dynamodb write %s/%s: %w", table, id, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %s/%s", ErrConflict, table, id)
}

// writeItems builds the transaction for one row write: the row itself,
// guarded by its version, plus a put per current index value and a delete
// per index value that went away.
func (d *Dynamo) writeItems(table, id string, old dynamoRow, exists bool, data []byte, idx map[string]string) []types.TransactWriteItem {
	row := key(table, id)
	row[attrData] = &types.AttributeValueMemberS{Value: string(data)}
	row[attrVersion] = &types.AttributeValueMemberN{Value: strconv.FormatInt(old.version+1, 10)}
	for name, v := range idx {
		row[attrIdx+name] = &types.AttributeValueMemberS{Value: v}
	}

	put := &types.Put{TableName: aws.String(d.table), Item: row}
	if exists {
		put.ConditionExpression = aws.String("#v = :v")
		put.ExpressionAttributeNames = map[string]string{"#v": attrVersion}
		put.ExpressionAttributeValues = map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberN{Value: strconv.FormatInt(old.version, 10)},
		}
	} else {
		put.ConditionExpression = aws.String("attribute_not_exists(pk)")
	}

	items := []types.TransactWriteItem{{Put: put}}

	names := make([]string, 0, len(old.idx))
	for name := range old.idx {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if v := old.idx[name]; idx[name] != v {
			items = append(items, types.TransactWriteItem{Delete: &types.Delete{
				TableName: aws.String(d.table),
				Key:       key(indexPK(table, name, v), id),
			}})
		}
	}

	names = names[:0]
	for name := range idx {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		item := key(indexPK(table, name, idx[name]), id)
		item[attrData] = &types.AttributeValueMemberS{Value: string(data)}
		items = append(items, types.TransactWriteItem{Put: &types.Put{TableName: aws.String(d.table), Item: item}})
	}
	return items
}

func (d *Dynamo) Scan(ctx context.Context, table string) ([][]byte, error) {
	return d.query(ctx, table)
}

func (d *Dynamo) ListBy(ctx context.Context, table, index, value string) ([][]byte, error) {
	return d.query(ctx, indexPK(table, index, value))
}

func (d *Dynamo) query(ctx context.Context, pk string) ([][]byte, error) {
	p := dynamodb.NewQueryPaginator(d.api, &dynamodb.QueryInput{
		TableName:              aws.String(d.table),
		KeyConditionExpression: aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{
			"#pk": attrPK,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
		},
		ConsistentRead: aws.Bool(true),
	})

	var out [][]byte
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("dynamodb query %s: %w", pk, err)
		}
		for _, item := range page.Items {
			out = append(out, stringAttr(item, attrData))
		}
	}
	return out, nil
}

func (d *Dynamo) Delete(ctx context.Context, table, id string) error {
	for i := 0; i < maxRetries; i++ {
		old, exists, err := d.load(ctx, table, id)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}

		items := []types.TransactWriteItem{{Delete: &types.Delete{
			TableName:           aws.String(d.table),
			Key:                 key(table, id),
			ConditionExpression: aws.String("#v = :v"),
			ExpressionAttributeNames: map[string]string{
				"#v": attrVersion,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":v": &types.AttributeValueMemberN{Value: strconv.FormatInt(old.version, 10)},
			},
		}}}
		for name, v := range old.idx {
			items = append(items, types.TransactWriteItem{Delete: &types.Delete{
				TableName: aws.String(d.table),
				Key:       key(indexPK(table, name, v), id),
			}})
		}

		_, err = d.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			continue
		}
		if err != nil {
			return fmt.Errorf("dynamodb delete %s/%s: %w", table, id, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %s/%s", ErrConflict, table, id)
}

func (d *Dynamo) Close() error { return nil }

// EnsureTable creates the backing table with on-demand billing unless it
// already exists.
func (d *Dynamo) EnsureTable(ctx context.Context) (created bool, err error) {
	_, err = d.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(d.table)})
	if err == nil {
		return false, nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return false, fmt.Errorf("describe table %s: %w", d.table, err)
	}

	_, err = d.api.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(d.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrPK), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrSK), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrPK), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(attrSK), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return false, fmt.Errorf("create table %s: %w", d.table, err)
	}
	return true, nil
}

func stringAttr(item map[string]types.AttributeValue, name string) []byte {
	if s, ok := item[name].(*types.AttributeValueMemberS); ok {
		return []byte(s.Value)
	}
	return nil
}
