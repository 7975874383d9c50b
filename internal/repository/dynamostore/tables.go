package dynamostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/iliyamo/space-reservation/internal/model"
)

type tableSpec struct {
	name    string
	hash    types.AttributeDefinition
	rng     *types.AttributeDefinition
	indexes map[string]types.AttributeDefinition
}

func attrDef(name string, t types.ScalarAttributeType) types.AttributeDefinition {
	return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: t}
}

func tableSpecs() []tableSpec {
	id := attrDef("id", types.ScalarAttributeTypeN)
	resourceID := attrDef("resource_id", types.ScalarAttributeTypeN)
	responsibleRUT := attrDef("responsible_rut", types.ScalarAttributeTypeS)
	return []tableSpec{
		{name: tableZones, hash: id},
		{name: tableSpaces, hash: id, indexes: map[string]types.AttributeDefinition{
			indexZone: attrDef("zone_id", types.ScalarAttributeTypeN),
		}},
		{name: tableReservations, hash: id},
		{name: tableReservationSlots, hash: attrDef("space_date", types.ScalarAttributeTypeS), rng: &id},
		{name: tableUsers, hash: attrDef("rut", types.ScalarAttributeTypeS)},
		{name: tableResponsibles, hash: attrDef("rut", types.ScalarAttributeTypeS)},
		{name: tableZoneResponsibles, hash: attrDef("zone_id", types.ScalarAttributeTypeN), rng: &responsibleRUT, indexes: map[string]types.AttributeDefinition{
			indexResponsible: responsibleRUT,
		}},
		{name: tableResources, hash: id},
		{name: tableSpaceResources, hash: attrDef("space_id", types.ScalarAttributeTypeN), rng: &resourceID},
		{name: tableActivityTypes, hash: id},
		{name: tableStatuses, hash: id},
		{name: tableCounters, hash: attrDef("name", types.ScalarAttributeTypeS)},
	}
}

func (t tableSpec) input(prefix string) *dynamodb.CreateTableInput {
	in := &dynamodb.CreateTableInput{
		TableName:            aws.String(prefix + t.name),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{t.hash},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: t.hash.AttributeName, KeyType: types.KeyTypeHash},
		},
	}
	if t.rng != nil {
		in.AttributeDefinitions = append(in.AttributeDefinitions, *t.rng)
		in.KeySchema = append(in.KeySchema, types.KeySchemaElement{AttributeName: t.rng.AttributeName, KeyType: types.KeyTypeRange})
	}
	for name, def := range t.indexes {
		if !defined(in.AttributeDefinitions, def) {
			in.AttributeDefinitions = append(in.AttributeDefinitions, def)
		}
		in.GlobalSecondaryIndexes = append(in.GlobalSecondaryIndexes, types.GlobalSecondaryIndex{
			IndexName:  aws.String(name),
			KeySchema:  []types.KeySchemaElement{{AttributeName: def.AttributeName, KeyType: types.KeyTypeHash}},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		})
	}
	return in
}

func defined(defs []types.AttributeDefinition, def types.AttributeDefinition) bool {
	for _, d := range defs {
		if aws.ToString(d.AttributeName) == aws.ToString(def.AttributeName) {
			return true
		}
	}
	return false
}

// EnsureTables creates the missing tables with their indexes, waits for
// them to become active and seeds the statuses table.  It is safe to run
// repeatedly.
func (s *Store) EnsureTables(ctx context.Context, wait time.Duration) error {
	var created []string
	for _, spec := range tableSpecs() {
		_, err := s.api.CreateTable(ctx, spec.input(s.prefix))
		var inUse *types.ResourceInUseException
		switch {
		case errors.As(err, &inUse):
		case err != nil:
			return fmt.Errorf("create table %s: %w", s.prefix+spec.name, err)
		default:
			created = append(created, s.prefix+spec.name)
		}
	}

	waiter := dynamodb.NewTableExistsWaiter(s.api, func(o *dynamodb.TableExistsWaiterOptions) {
		o.MinDelay = time.Second
		o.MaxDelay = 5 * time.Second
	})
	for _, name := range created {
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)}, wait); err != nil {
			return fmt.Errorf("wait for table %s: %w", name, err)
		}
	}
	return s.seedStatuses(ctx)
}

func (s *Store) seedStatuses(ctx context.Context) error {
	for _, st := range model.DefaultStatuses() {
		if err := s.put(ctx, tableStatuses, toStatusItem(st), "", nil); err != nil {
			return fmt.Errorf("seed status %d: %w", st.ID, err)
		}
	}
	return nil
}
