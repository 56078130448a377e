package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/PatrikBaldon/RegiFarm-sub000/internal/domain/models"
	"github.com/PatrikBaldon/RegiFarm-sub000/internal/service/settlement"
)

// ErrReportNotFound signals a lookup for a report id that was never stored.
var ErrReportNotFound = errors.New("mongodb: settlement report not found")

// Collection names, one per snapshot input plus the report output and the
// invoice-utilization side table.
const (
	collBatches      = "batches"
	collLinks        = "animal_batch_links"
	collAnimals      = "animals"
	collContracts    = "contracts"
	collMovements    = "financial_movements"
	collDeaths       = "death_records"
	collInvoices     = "invoices"
	collUtilizations = "invoice_utilizations"
	collReports      = "settlement_reports"
)

// MongoDBRepository implements settlement.Repository on MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
}

// NewMongoDBRepository connects and pings the deployment.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		dbName: dbName,
	}, nil
}

func (r *MongoDBRepository) db() *mongo.Database {
	return r.client.Database(r.dbName)
}

// LoadSnapshot materializes every collection the engine reads, scoped to one
// farm. The whole movement history is loaded, not just the requested range:
// batch tallies and advance proration need to see earlier exits and deaths
// to know whether a batch is fully accounted.
func (r *MongoDBRepository) LoadSnapshot(ctx context.Context, farmID string, from, to time.Time) (*settlement.Snapshot, error) {
	scope := bson.M{"farm_id": farmID}
	snap := &settlement.Snapshot{FarmID: farmID}

	if err := r.loadAll(ctx, collBatches, scope, &snap.Batches); err != nil {
		return nil, err
	}
	if err := r.loadAll(ctx, collLinks, scope, &snap.Links); err != nil {
		return nil, err
	}
	if err := r.loadAll(ctx, collAnimals, scope, &snap.Animals); err != nil {
		return nil, err
	}
	if err := r.loadAll(ctx, collContracts, scope, &snap.Contracts); err != nil {
		return nil, err
	}
	if err := r.loadAll(ctx, collMovements, scope, &snap.Movements); err != nil {
		return nil, err
	}
	if err := r.loadAll(ctx, collDeaths, scope, &snap.Deaths); err != nil {
		return nil, err
	}
	if err := r.loadAll(ctx, collInvoices, scope, &snap.Invoices); err != nil {
		return nil, err
	}
	if err := r.loadAll(ctx, collUtilizations, scope, &snap.Utilizations); err != nil {
		return nil, err
	}

	return snap, nil
}

func (r *MongoDBRepository) loadAll(ctx context.Context, coll string, filter bson.M, out any) error {
	cursor, err := r.db().Collection(coll).Find(ctx, filter)
	if err != nil {
		return fmt.Errorf("query %s: %w", coll, err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", coll, err)
	}
	return nil
}

// SaveReportWithUtilizations stores the report and the utilization rows it
// consumed inside one transaction, so a concurrent run can never observe the
// report without the consumed balances (or the other way around).
func (r *MongoDBRepository) SaveReportWithUtilizations(ctx context.Context, report *models.SettlementReport, rows []models.InvoiceUtilization) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start mongodb session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		if _, err := r.db().Collection(collReports).InsertOne(sc, report); err != nil {
			return nil, fmt.Errorf("insert settlement report: %w", err)
		}
		for _, row := range rows {
			if _, err := r.db().Collection(collUtilizations).InsertOne(sc, row); err != nil {
				return nil, fmt.Errorf("insert invoice utilization: %w", err)
			}
		}
		return nil, nil
	})
	return err
}

// FindReport fetches a stored report by id.
func (r *MongoDBRepository) FindReport(ctx context.Context, id string) (*models.SettlementReport, error) {
	var report models.SettlementReport
	err := r.db().Collection(collReports).FindOne(ctx, bson.M{"_id": id}).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find settlement report: %w", err)
	}
	return &report, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
