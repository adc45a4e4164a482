package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/fakturan-dev/catalog-service/internal/domain"
)

// counterKey is the reserved item holding the id sequence. Product ids
// start at 1, so listing filters on id > 0 to exclude it.
const counterKey = 0

// productItem is the DynamoDB shape of a product. Prices travel as strings
// to keep decimal precision, and the *_lc shadows back case-insensitive
// substring filtering, which contains() alone cannot do.
type productItem struct {
	ID          int64     `dynamodbav:"id"`
	ArticleNo   string    `dynamodbav:"article_no"`
	ArticleNoLC string    `dynamodbav:"article_no_lc"`
	Name        string    `dynamodbav:"product"`
	NameLC      string    `dynamodbav:"product_lc"`
	InPrice     string    `dynamodbav:"in_price"`
	Price       string    `dynamodbav:"price"`
	Unit        string    `dynamodbav:"unit"`
	InStock     int64     `dynamodbav:"in_stock"`
	Description *string   `dynamodbav:"description"`
	CreatedAt   time.Time `dynamodbav:"created_at"`
	UpdatedAt   time.Time `dynamodbav:"updated_at"`
}

func toItem(p *domain.Product) productItem {
	return productItem{
		ID:          p.ID,
		ArticleNo:   p.ArticleNo,
		ArticleNoLC: strings.ToLower(p.ArticleNo),
		Name:        p.Name,
		NameLC:      strings.ToLower(p.Name),
		InPrice:     p.InPrice.String(),
		Price:       p.Price.String(),
		Unit:        p.Unit,
		InStock:     p.InStock,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromItem(item productItem) (domain.Product, error) {
	inPrice, err := decimal.NewFromString(item.InPrice)
	if err != nil {
		return domain.Product{}, fmt.Errorf("parsing in_price: %w", err)
	}
	price, err := decimal.NewFromString(item.Price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("parsing price: %w", err)
	}
	return domain.Product{
		ID:          item.ID,
		ArticleNo:   item.ArticleNo,
		Name:        item.Name,
		InPrice:     inPrice,
		Price:       price,
		Unit:        item.Unit,
		InStock:     item.InStock,
		Description: item.Description,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}, nil
}

type DynamoStore struct {
	client *dynamodb.Client
	table  string
}

// NewDynamoClient builds a DynamoDB client. A non-empty endpoint switches to
// a local instance with static credentials.
func NewDynamoClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if endpoint != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

func NewDynamoStore(client *dynamodb.Client, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

func (s *DynamoStore) EnsureSchema(ctx context.Context) error {
	_, err := s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(domain.ColID), AttributeType: types.ScalarAttributeTypeN},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(domain.ColID), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			return nil
		}
		return fmt.Errorf("creating table: %w", err)
	}
	waiter := dynamodb.NewTableExistsWaiter(s.client)
	return waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)}, 2*time.Minute)
}

func (s *DynamoStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	return err
}

func (s *DynamoStore) Close() error {
	return nil
}

func idKey(id int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		domain.ColID: &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", id)},
	}
}

// nextID atomically increments the sequence item and returns the new value.
func (s *DynamoStore) nextID(ctx context.Context) (int64, error) {
	update := expression.Add(expression.Name("seq"), expression.Value(1))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return 0, fmt.Errorf("building sequence update: %w", err)
	}
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       idKey(counterKey),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		UpdateExpression:          expr.Update(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return 0, fmt.Errorf("incrementing id sequence: %w", err)
	}
	var seq struct {
		Seq int64 `dynamodbav:"seq"`
	}
	if err := attributevalue.UnmarshalMap(out.Attributes, &seq); err != nil {
		return 0, fmt.Errorf("unmarshaling id sequence: %w", err)
	}
	return seq.Seq, nil
}

func (s *DynamoStore) Create(ctx context.Context, p *domain.Product) error {
	id, err := s.nextID(ctx)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now

	av, err := attributevalue.MarshalMap(toItem(p))
	if err != nil {
		return fmt.Errorf("marshaling product: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("putting product: %w", err)
	}
	return nil
}

func (s *DynamoStore) Get(ctx context.Context, id int64) (*domain.Product, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       idKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	if out.Item == nil || id == counterKey {
		return nil, ErrProductNotFound
	}
	var item productItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshaling product: %w", err)
	}
	p, err := fromItem(item)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *DynamoStore) List(ctx context.Context, f ListFilter) ([]domain.Product, int64, error) {
	cond := expression.Name(domain.ColID).GreaterThan(expression.Value(counterKey))
	if f.ArticleNo != "" {
		cond = cond.And(expression.Name("article_no_lc").Contains(strings.ToLower(f.ArticleNo)))
	}
	if f.Name != "" {
		cond = cond.And(expression.Name("product_lc").Contains(strings.ToLower(f.Name)))
	}
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		cond = cond.And(expression.Or(
			expression.Name("article_no_lc").Contains(term),
			expression.Name("product_lc").Contains(term),
		))
	}
	expr, err := expression.NewBuilder().WithFilter(cond).Build()
	if err != nil {
		return nil, 0, fmt.Errorf("building filter expression: %w", err)
	}

	var items []productItem
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                 aws.String(s.table),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		FilterExpression:          expr.Filter(),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning products: %w", err)
		}
		var pageItems []productItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageItems); err != nil {
			return nil, 0, fmt.Errorf("unmarshaling products: %w", err)
		}
		items = append(items, pageItems...)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	total := int64(len(items))

	start := f.Offset
	if start > total {
		start = total
	}
	end := total
	if f.Limit > 0 && start+f.Limit < end {
		end = start + f.Limit
	}

	products := make([]domain.Product, 0, end-start)
	for _, item := range items[start:end] {
		p, err := fromItem(item)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, nil
}

func (s *DynamoStore) Update(ctx context.Context, id int64, cs domain.ChangeSet) (*domain.Product, error) {
	if id <= counterKey {
		return nil, ErrProductNotFound
	}
	update := expression.Set(expression.Name(domain.ColUpdatedAt), expression.Value(time.Now().UTC()))
	if cs.ArticleNo != nil {
		update = update.
			Set(expression.Name(domain.ColArticleNo), expression.Value(*cs.ArticleNo)).
			Set(expression.Name("article_no_lc"), expression.Value(strings.ToLower(*cs.ArticleNo)))
	}
	if cs.Name != nil {
		update = update.
			Set(expression.Name(domain.ColName), expression.Value(*cs.Name)).
			Set(expression.Name("product_lc"), expression.Value(strings.ToLower(*cs.Name)))
	}
	if cs.InPrice != nil {
		update = update.Set(expression.Name(domain.ColInPrice), expression.Value(cs.InPrice.String()))
	}
	if cs.Price != nil {
		update = update.Set(expression.Name(domain.ColPrice), expression.Value(cs.Price.String()))
	}
	if cs.Unit != nil {
		update = update.Set(expression.Name(domain.ColUnit), expression.Value(*cs.Unit))
	}
	if cs.InStock != nil {
		update = update.Set(expression.Name(domain.ColInStock), expression.Value(*cs.InStock))
	}
	if cs.Description != nil {
		update = update.Set(expression.Name(domain.ColDescription), expression.Value(*cs.Description))
	}

	condition := expression.AttributeExists(expression.Name(domain.ColID))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(condition).Build()
	if err != nil {
		return nil, fmt.Errorf("building update expression: %w", err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       idKey(id),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("updating product: %w", err)
	}

	var item productItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, fmt.Errorf("unmarshaling product: %w", err)
	}
	p, err := fromItem(item)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *DynamoStore) Delete(ctx context.Context, id int64) error {
	if id <= counterKey {
		return ErrProductNotFound
	}
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.table),
		Key:                 idKey(id),
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrProductNotFound
		}
		return fmt.Errorf("deleting product: %w", err)
	}
	return nil
}
