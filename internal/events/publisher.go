package events

import (
	"context"
	"time"

	"github.com/rxreturn/rxreturn-backend/pkg/logger"
	"github.com/rxreturn/rxreturn-backend/pkg/messaging"
)

// Publisher publishes domain events. All methods are best-effort: failures
// are logged, never returned, and a nil Publisher is a no-op so tests and
// broker-less deployments can pass nil.
type Publisher struct {
	packages  *messaging.Publisher
	returns   *messaging.Publisher
	catalog   *messaging.Publisher
	inventory *messaging.Publisher
	logger    *logger.Logger
}

// NewPublisher creates a publisher over the given RabbitMQ connection
func NewPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*Publisher, error) {
	packages, err := messaging.NewPublisher(rmq, messaging.ExchangePackageEvents, "api-server", log)
	if err != nil {
		return nil, err
	}
	returns, err := messaging.NewPublisher(rmq, messaging.ExchangeReturnEvents, "api-server", log)
	if err != nil {
		return nil, err
	}
	catalog, err := messaging.NewPublisher(rmq, messaging.ExchangeCatalogEvents, "api-server", log)
	if err != nil {
		return nil, err
	}
	inventory, err := messaging.NewPublisher(rmq, messaging.ExchangeInventoryEvents, "api-server", log)
	if err != nil {
		return nil, err
	}

	return &Publisher{
		packages:  packages,
		returns:   returns,
		catalog:   catalog,
		inventory: inventory,
		logger:    log,
	}, nil
}

// PublishPackageCreated publishes a package created event
func (p *Publisher) PublishPackageCreated(ctx context.Context, packageID, packageNumber, pharmacyID, distributorID string, totalItems int, estimatedValue string) {
	if p == nil {
		return
	}
	data := messaging.PackageCreatedEvent{
		PackageID:      packageID,
		PackageNumber:  packageNumber,
		PharmacyID:     pharmacyID,
		DistributorID:  distributorID,
		TotalItems:     totalItems,
		EstimatedValue: estimatedValue,
	}
	if err := p.packages.Publish(ctx, messaging.EventPackageCreated, data); err != nil {
		p.logger.Error().Err(err).Str("package_id", packageID).Msg("failed to publish package created event")
	}
}

// PublishPackageDelivered publishes a package delivered event
func (p *Publisher) PublishPackageDelivered(ctx context.Context, packageID, pharmacyID string, deliveryDate time.Time, receivedBy string) {
	if p == nil {
		return
	}
	data := messaging.PackageDeliveredEvent{
		PackageID:    packageID,
		PharmacyID:   pharmacyID,
		DeliveryDate: deliveryDate.Format(time.RFC3339),
		ReceivedBy:   receivedBy,
	}
	if err := p.packages.Publish(ctx, messaging.EventPackageDelivered, data); err != nil {
		p.logger.Error().Err(err).Str("package_id", packageID).Msg("failed to publish package delivered event")
	}
}

// PublishPackageReopened publishes a package reopened event
func (p *Publisher) PublishPackageReopened(ctx context.Context, packageID, pharmacyID string) {
	if p == nil {
		return
	}
	data := map[string]string{"package_id": packageID, "pharmacy_id": pharmacyID}
	if err := p.packages.Publish(ctx, messaging.EventPackageReopened, data); err != nil {
		p.logger.Error().Err(err).Str("package_id", packageID).Msg("failed to publish package reopened event")
	}
}

// PublishPackageDeleted publishes a package deleted event
func (p *Publisher) PublishPackageDeleted(ctx context.Context, packageID, pharmacyID string) {
	if p == nil {
		return
	}
	data := map[string]string{"package_id": packageID, "pharmacy_id": pharmacyID}
	if err := p.packages.Publish(ctx, messaging.EventPackageDeleted, data); err != nil {
		p.logger.Error().Err(err).Str("package_id", packageID).Msg("failed to publish package deleted event")
	}
}

// PublishReturnStatusChanged publishes a return status change event
func (p *Publisher) PublishReturnStatusChanged(ctx context.Context, returnID, pharmacyID, oldStatus, newStatus string) {
	if p == nil {
		return
	}
	data := messaging.ReturnStatusChangedEvent{
		ReturnID:   returnID,
		PharmacyID: pharmacyID,
		OldStatus:  oldStatus,
		NewStatus:  newStatus,
	}
	if err := p.returns.Publish(ctx, messaging.EventReturnStatusChanged, data); err != nil {
		p.logger.Error().Err(err).Str("return_id", returnID).Msg("failed to publish return status event")
	}
}

// PublishReturnCreated publishes a return created event
func (p *Publisher) PublishReturnCreated(ctx context.Context, returnID, pharmacyID string, itemCount int, totalEstimatedCredit string) {
	if p == nil {
		return
	}
	data := messaging.ReturnCreatedEvent{
		ReturnID:             returnID,
		PharmacyID:           pharmacyID,
		ItemCount:            itemCount,
		TotalEstimatedCredit: totalEstimatedCredit,
	}
	if err := p.returns.Publish(ctx, messaging.EventReturnCreated, data); err != nil {
		p.logger.Error().Err(err).Str("return_id", returnID).Msg("failed to publish return created event")
	}
}

// PublishItemExpiring publishes an inventory item expiring event
func (p *Publisher) PublishItemExpiring(ctx context.Context, itemID, pharmacyID, ndcCode string, expirationDate time.Time, quantity int) {
	if p == nil {
		return
	}
	data := messaging.ItemExpiringEvent{
		ItemID:         itemID,
		PharmacyID:     pharmacyID,
		NDC:            ndcCode,
		ExpirationDate: expirationDate.Format("2006-01-02"),
		Quantity:       quantity,
	}
	if err := p.inventory.Publish(ctx, messaging.EventItemExpiring, data); err != nil {
		p.logger.Error().Err(err).Str("item_id", itemID).Msg("failed to publish item expiring event")
	}
}

// PublishReportImported publishes a report imported event
func (p *Publisher) PublishReportImported(ctx context.Context, distributorID string, recordCount int, reportDate time.Time) {
	if p == nil {
		return
	}
	data := messaging.ReportImportedEvent{
		DistributorID: distributorID,
		RecordCount:   recordCount,
		ReportDate:    reportDate.Format("2006-01-02"),
	}
	if err := p.catalog.Publish(ctx, messaging.EventReportImported, data); err != nil {
		p.logger.Error().Err(err).Str("distributor_id", distributorID).Msg("failed to publish report imported event")
	}
}
