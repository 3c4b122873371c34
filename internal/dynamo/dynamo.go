// Package dynamo construye el cliente DynamoDB y prepara la tabla de usuarios.
package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ClientOptions agrupa region, perfil y endpoint (DynamoDB Local, LocalStack).
type ClientOptions struct {
	Region   string
	Profile  string
	Endpoint string
}

// NewClient carga la configuración AWS por defecto y aplica el endpoint si existe.
func NewClient(ctx context.Context, opts ClientOptions) (*dynamodb.Client, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(opts.Region),
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(opts.Profile))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	}), nil
}

// TableAPI es lo que necesita EnsureUsersTable del cliente.
type TableAPI interface {
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// TableSpec describe la tabla de usuarios.
type TableSpec struct {
	Name            string
	EmailIndex      string
	ExternalIDIndex string
}

// EnsureUsersTable crea la tabla si no existe. Devuelve true si la creó.
func EnsureUsersTable(ctx context.Context, api TableAPI, spec TableSpec) (bool, error) {
	_, err := api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(spec.Name)})
	if err == nil {
		return false, nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return false, fmt.Errorf("describe table: %w", err)
	}

	if _, err := api.CreateTable(ctx, usersTableInput(spec)); err != nil {
		return false, fmt.Errorf("create table: %w", err)
	}
	return true, nil
}

func usersTableInput(spec TableSpec) *dynamodb.CreateTableInput {
	attrs := []types.AttributeDefinition{
		{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
		{AttributeName: aws.String("email"), AttributeType: types.ScalarAttributeTypeS},
	}
	indexes := []types.GlobalSecondaryIndex{gsi(spec.EmailIndex, "email")}
	if spec.ExternalIDIndex != "" {
		attrs = append(attrs, types.AttributeDefinition{
			AttributeName: aws.String("google_id"), AttributeType: types.ScalarAttributeTypeS,
		})
		indexes = append(indexes, gsi(spec.ExternalIDIndex, "google_id"))
	}

	return &dynamodb.CreateTableInput{
		TableName: aws.String(spec.Name),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions:   attrs,
		GlobalSecondaryIndexes: indexes,
		BillingMode:            types.BillingModePayPerRequest,
	}
}

func gsi(name, attr string) types.GlobalSecondaryIndex {
	return types.GlobalSecondaryIndex{
		IndexName: aws.String(name),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attr), KeyType: types.KeyTypeHash},
		},
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}
