package database

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoParams holds the connection settings of the document-store
// backend.  Endpoint is only set for DynamoDB Local; static credentials are
// optional and the default AWS chain is used when they are empty.
type DynamoParams struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// OpenDynamo builds a DynamoDB client.  No request is sent; callers verify
// reachability through the store's Ping.
func OpenDynamo(ctx context.Context, p DynamoParams) (*dynamodb.Client, error) {
	region := p.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if p.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(p.AccessKeyID, p.SecretAccessKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if p.Endpoint != "" {
			o.BaseEndpoint = aws.String(p.Endpoint)
		}
	}), nil
}
