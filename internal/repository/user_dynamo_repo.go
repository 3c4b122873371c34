package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"dailydevq/internal/domain"
)

// emailGuardPrefix marca los items que reservan un email en la tabla de usuarios.
// No tienen atributo email, asi que nunca aparecen en el indice por email.
const emailGuardPrefix = "EMAIL#"

// dynamoAPI es el subconjunto del cliente DynamoDB que usa el repositorio.
type dynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// DynamoTableOptions describe la tabla de usuarios y sus indices secundarios.
type DynamoTableOptions struct {
	Table           string
	EmailIndex      string
	ExternalIDIndex string // vacio: las busquedas por external id recorren la tabla
}

// DynamoUserRepository implementa UserRepository sobre una tabla DynamoDB con
// clave primaria id y un GSI por email.
type DynamoUserRepository struct {
	client dynamoAPI
	opts   DynamoTableOptions
}

func NewDynamoUserRepository(client *dynamodb.Client, opts DynamoTableOptions) *DynamoUserRepository {
	return &DynamoUserRepository{client: client, opts: opts}
}

// ScanFallback indica si las busquedas por external id usan Scan en lugar de un indice.
func (r *DynamoUserRepository) ScanFallback() bool {
	return r.opts.ExternalIDIndex == ""
}

func (r *DynamoUserRepository) Create(ctx context.Context, user domain.User) error {
	item, err := attributevalue.MarshalMap(toRecord(user))
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	guard := map[string]types.AttributeValue{
		"id":       &types.AttributeValueMemberS{Value: emailGuardPrefix + user.Email},
		"owner_id": &types.AttributeValueMemberS{Value: user.ID},
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.opts.Table),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(id)"),
			}},
			{Put: &types.Put{
				TableName:           aws.String(r.opts.Table),
				Item:                guard,
				ConditionExpression: aws.String("attribute_not_exists(id)"),
			}},
		},
	})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) && guardConflict(canceled) {
			return ErrEmailTaken
		}
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

func guardConflict(e *types.TransactionCanceledException) bool {
	for _, reason := range e.CancellationReasons {
		if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
			return true
		}
	}
	return false
}

// Update reemplaza el item completo. El email es inmutable en este backend:
// la condicion exige que coincida con el guardado.
func (r *DynamoUserRepository) Update(ctx context.Context, user domain.User) error {
	item, err := attributevalue.MarshalMap(toRecord(user))
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.opts.Table),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(id) AND email = :email"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: user.Email},
		},
	})
	if err != nil {
		var cond *types.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return ErrNotFound
		}
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

func (r *DynamoUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	item, err := r.getItem(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	return decodeUser(item)
}

// GetByEmail consulta el GSI y, si no encuentra nada, confirma con una lectura
// fuerte del item guardia. El GSI puede ir por detras de una alta reciente.
func (r *DynamoUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	user, err := r.queryIndex(ctx, r.opts.EmailIndex, "email", email)
	if !errors.Is(err, ErrNotFound) {
		return user, err
	}

	guard, err := r.getItem(ctx, emailGuardPrefix+email)
	if err != nil {
		return domain.User{}, err
	}
	owner, ok := guard["owner_id"].(*types.AttributeValueMemberS)
	if !ok || owner.Value == "" {
		return domain.User{}, ErrNotFound
	}
	return r.GetByID(ctx, owner.Value)
}

func (r *DynamoUserRepository) getItem(ctx context.Context, id string) (map[string]types.AttributeValue, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.opts.Table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	return out.Item, nil
}

func (r *DynamoUserRepository) GetByExternalID(ctx context.Context, externalID string) (domain.User, error) {
	if !r.ScanFallback() {
		return r.queryIndex(ctx, r.opts.ExternalIDIndex, "google_id", externalID)
	}
	return r.scanByExternalID(ctx, externalID)
}

func (r *DynamoUserRepository) queryIndex(ctx context.Context, index, attr, value string) (domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.opts.Table),
		IndexName:              aws.String(index),
		KeyConditionExpression: aws.String("#k = :v"),
		ExpressionAttributeNames: map[string]string{
			"#k": attr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: value},
		},
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("query %s: %w", index, err)
	}
	if len(out.Items) == 0 {
		return domain.User{}, ErrNotFound
	}
	return decodeUser(out.Items[0])
}

// scanByExternalID recorre la tabla completa pagina por pagina. Su costo crece
// con el tamaño del directorio; solo se usa si no hay indice configurado.
func (r *DynamoUserRepository) scanByExternalID(ctx context.Context, externalID string) (domain.User, error) {
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(r.opts.Table),
			FilterExpression: aws.String("google_id = :v"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":v": &types.AttributeValueMemberS{Value: externalID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return domain.User{}, fmt.Errorf("scan users: %w", err)
		}
		if len(out.Items) > 0 {
			return decodeUser(out.Items[0])
		}
		if len(out.LastEvaluatedKey) == 0 {
			return domain.User{}, ErrNotFound
		}
		startKey = out.LastEvaluatedKey
	}
}

func decodeUser(item map[string]types.AttributeValue) (domain.User, error) {
	var rec userRecord
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return domain.User{}, fmt.Errorf("decode user: %w", err)
	}
	return rec.toDomain(), nil
}
