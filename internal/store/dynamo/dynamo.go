// Package dynamo stores employee records in DynamoDB.
//
// Each employee is one item in the employees table keyed by employee_id.
// Email uniqueness is held by a second table with one item per claimed
// address. An insert writes both items in a single transaction guarded by
// attribute_not_exists, so a lost race surfaces as a cancelled transaction.
package dynamo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/JonMunkholm/intake/internal/config"
	"github.com/JonMunkholm/intake/internal/core"
)

// API is the subset of *dynamodb.Client the store uses.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
}

// Tables names the two tables the store writes to.
type Tables struct {
	Employees string
	Unique    string
}

// Store is a core.Store backed by DynamoDB.
type Store struct {
	client API
	tables Tables
}

// New wraps an existing client.
func New(client API, tables Tables) *Store {
	return &Store{client: client, tables: tables}
}

// Open builds a client from the default AWS credential chain and makes one
// ListTables call to prove the endpoint answers. The tables themselves may
// not exist yet, so migrate can run through Open too. Failures wrap
// core.ErrUnavailable.
func Open(ctx context.Context, cfg config.DynamoConfig) (*Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: load aws config: %w", core.ErrUnavailable, err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return open(ctx, client, Tables{Employees: cfg.EmployeesTable, Unique: cfg.UniqueTable})
}

func open(ctx context.Context, client API, tables Tables) (*Store, error) {
	s := New(client, tables)
	if err := s.reachable(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// reachable lists at most one table; any failure means the service or the
// credentials are unusable.
func (s *Store) reachable(ctx context.Context) error {
	if _, err := s.client.ListTables(ctx, &dynamodb.ListTablesInput{Limit: aws.Int32(1)}); err != nil {
		return fmt.Errorf("%w: list tables: %w", core.ErrUnavailable, err)
	}
	return nil
}

// employeeItem is the stored shape of an employee.
type employeeItem struct {
	EmployeeID    int64  `dynamodbav:"employee_id"`
	Name          string `dynamodbav:"name"`
	Email         string `dynamodbav:"email"`
	Phone         string `dynamodbav:"phone"`
	Department    string `dynamodbav:"department"`
	DateOfJoining string `dynamodbav:"date_of_joining"`
	Role          string `dynamodbav:"role"`
	CreatedAt     string `dynamodbav:"created_at"`
}

func toItem(rec core.EmployeeRecord) employeeItem {
	return employeeItem{
		EmployeeID:    rec.EmployeeID,
		Name:          rec.Name,
		Email:         rec.Email,
		Phone:         rec.Phone,
		Department:    string(rec.Department),
		DateOfJoining: rec.DateOfJoining.Format(core.DateLayout),
		Role:          rec.Role,
		CreatedAt:     rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (it employeeItem) record() (core.EmployeeRecord, error) {
	doj, err := time.Parse(core.DateLayout, it.DateOfJoining)
	if err != nil {
		return core.EmployeeRecord{}, fmt.Errorf("employee %d: date_of_joining: %w", it.EmployeeID, err)
	}
	rec := core.EmployeeRecord{
		EmployeeID:    it.EmployeeID,
		Name:          it.Name,
		Email:         it.Email,
		Phone:         it.Phone,
		Department:    core.Department(it.Department),
		DateOfJoining: doj,
		Role:          it.Role,
	}
	if it.CreatedAt != "" {
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, it.CreatedAt); err != nil {
			return core.EmployeeRecord{}, fmt.Errorf("employee %d: created_at: %w", it.EmployeeID, err)
		}
	}
	return rec, nil
}

// EmailConstraintPK is the unique-table key claimed by an email address.
func EmailConstraintPK(email string) string {
	h := sha256.Sum256([]byte("employee#email#" + core.NormalizeEmail(email)))
	return hex.EncodeToString(h[:16])
}

func employeeKey(id int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"employee_id": &types.AttributeValueMemberN{Value: strconv.FormatInt(id, 10)},
	}
}

func constraintKey(email string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: EmailConstraintPK(email)},
	}
}

// FindConflicting returns the records holding id or email, ordered by id.
func (s *Store) FindConflicting(ctx context.Context, employeeID int64, email string) ([]core.EmployeeRecord, error) {
	var out []core.EmployeeRecord

	rec, err := s.Get(ctx, employeeID)
	switch {
	case err == nil:
		out = append(out, rec)
	case !errors.Is(err, core.ErrNotFound):
		return nil, err
	}

	holder, ok, err := s.emailHolder(ctx, email)
	if err != nil {
		return nil, err
	}
	if ok && holder != employeeID {
		rec, err := s.Get(ctx, holder)
		switch {
		case err == nil:
			out = append(out, rec)
		case errors.Is(err, core.ErrNotFound):
			// Orphaned claim; the insert transaction will still refuse it.
			out = append(out, core.EmployeeRecord{EmployeeID: holder, Email: core.NormalizeEmail(email)})
		default:
			return nil, err
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

// emailHolder returns the employee id that has claimed email.
func (s *Store) emailHolder(ctx context.Context, email string) (int64, bool, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tables.Unique),
		Key:            constraintKey(email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return 0, false, classify(err)
	}
	if result.Item == nil {
		return 0, false, nil
	}

	var claim struct {
		EmployeeID int64 `dynamodbav:"employee_id"`
	}
	if err := attributevalue.UnmarshalMap(result.Item, &claim); err != nil {
		return 0, false, fmt.Errorf("unmarshal email claim: %w", err)
	}
	return claim.EmployeeID, true, nil
}

// Insert writes the employee item and its email claim in one transaction.
func (s *Store) Insert(ctx context.Context, rec core.EmployeeRecord) error {
	item, err := attributevalue.MarshalMap(toItem(rec))
	if err != nil {
		return fmt.Errorf("marshal employee: %w", err)
	}

	email := core.NormalizeEmail(rec.Email)
	items := []types.TransactWriteItem{
		{
			Put: &types.Put{
				TableName:           aws.String(s.tables.Employees),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(employee_id)"),
			},
		},
		{
			Put: &types.Put{
				TableName: aws.String(s.tables.Unique),
				Item: map[string]types.AttributeValue{
					"pk":          &types.AttributeValueMemberS{Value: EmailConstraintPK(email)},
					"field_name":  &types.AttributeValueMemberS{Value: core.FieldEmail},
					"field_value": &types.AttributeValueMemberS{Value: email},
					"employee_id": &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.EmployeeID, 10)},
				},
				ConditionExpression: aws.String("attribute_not_exists(pk)"),
			},
		},
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	return mapInsertError(err, rec.EmployeeID, email)
}

// mapInsertError converts a cancelled transaction into core.ErrDuplicate
// naming the item whose condition failed.
func mapInsertError(err error, employeeID int64, email string) error {
	if err == nil {
		return nil
	}

	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		for i, reason := range txErr.CancellationReasons {
			if reason.Code == nil || *reason.Code != "ConditionalCheckFailed" {
				continue
			}
			if i == 0 {
				return fmt.Errorf("%w: employee_id %d", core.ErrDuplicate, employeeID)
			}
			return fmt.Errorf("%w: email %s", core.ErrDuplicate, email)
		}
		return fmt.Errorf("insert employee %d: %w", employeeID, err)
	}

	return classify(err)
}

// Get returns the record with the given id.
func (s *Store) Get(ctx context.Context, employeeID int64) (core.EmployeeRecord, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tables.Employees),
		Key:            employeeKey(employeeID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return core.EmployeeRecord{}, classify(err)
	}
	if result.Item == nil {
		return core.EmployeeRecord{}, core.ErrNotFound
	}

	var it employeeItem
	if err := attributevalue.UnmarshalMap(result.Item, &it); err != nil {
		return core.EmployeeRecord{}, fmt.Errorf("unmarshal employee: %w", err)
	}
	return it.record()
}

// Ping describes both tables and requires them to be active.
func (s *Store) Ping(ctx context.Context) error {
	for _, table := range []string{s.tables.Employees, s.tables.Unique} {
		out, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(table),
		})
		if err != nil {
			return fmt.Errorf("describe table %s: %w", table, err)
		}
		if out.Table != nil && out.Table.TableStatus != types.TableStatusActive {
			return fmt.Errorf("table %s is %s", table, out.Table.TableStatus)
		}
	}
	return nil
}

// Migrate creates both tables with on-demand billing. Existing tables are
// left untouched.
func (s *Store) Migrate(ctx context.Context) error {
	specs := []struct {
		name string
		key  string
		typ  types.ScalarAttributeType
	}{
		{s.tables.Employees, "employee_id", types.ScalarAttributeTypeN},
		{s.tables.Unique, "pk", types.ScalarAttributeTypeS},
	}

	for _, spec := range specs {
		_, err := s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
			TableName: aws.String(spec.name),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(spec.key), KeyType: types.KeyTypeHash},
			},
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String(spec.key), AttributeType: spec.typ},
			},
			BillingMode: types.BillingModePayPerRequest,
		})
		var inUse *types.ResourceInUseException
		if err != nil && !errors.As(err, &inUse) {
			return fmt.Errorf("create table %s: %w", spec.name, err)
		}
	}
	return nil
}

// Close is a no-op; the SDK client holds no long-lived connections to release.
func (s *Store) Close() error { return nil }

// classify maps SDK errors onto core sentinels.
func classify(err error) error {
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %w", core.ErrUnavailable, err)
	}
	var throttled *types.ProvisionedThroughputExceededException
	if errors.As(err, &throttled) {
		return fmt.Errorf("%w: %w", core.ErrUnavailable, err)
	}
	return err
}
