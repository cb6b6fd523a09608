package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Package events
	EventPackageCreated   = "package.created"
	EventPackageDelivered = "package.delivered"
	EventPackageReopened  = "package.reopened"
	EventPackageDeleted   = "package.deleted"

	// Return events
	EventReturnCreated       = "return.created"
	EventReturnStatusChanged = "return.status.changed"

	// Catalog events
	EventReportImported = "report.imported"

	// Inventory events
	EventItemExpiring = "inventory.item.expiring"
)

// Exchange names
const (
	ExchangeReturnEvents    = "return.events"
	ExchangePackageEvents   = "package.events"
	ExchangeCatalogEvents   = "catalog.events"
	ExchangeInventoryEvents = "inventory.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// PackageCreatedEvent is published when a custom package is created
type PackageCreatedEvent struct {
	PackageID      string `json:"package_id"`
	PackageNumber  string `json:"package_number"`
	PharmacyID     string `json:"pharmacy_id"`
	DistributorID  string `json:"distributor_id"`
	TotalItems     int    `json:"total_items"`
	EstimatedValue string `json:"estimated_value"`
}

// PackageDeliveredEvent is published when a package is marked delivered
type PackageDeliveredEvent struct {
	PackageID    string `json:"package_id"`
	PharmacyID   string `json:"pharmacy_id"`
	DeliveryDate string `json:"delivery_date"`
	ReceivedBy   string `json:"received_by"`
}

// ReturnStatusChangedEvent is published when a return changes status
type ReturnStatusChangedEvent struct {
	ReturnID   string `json:"return_id"`
	PharmacyID string `json:"pharmacy_id"`
	OldStatus  string `json:"old_status"`
	NewStatus  string `json:"new_status"`
}

// ReportImportedEvent is published after a return-report bulk import
type ReportImportedEvent struct {
	DistributorID string `json:"distributor_id"`
	RecordCount   int    `json:"record_count"`
	ReportDate    string `json:"report_date"`
}

// ReturnCreatedEvent is published when a pharmacy creates a return
type ReturnCreatedEvent struct {
	ReturnID             string `json:"return_id"`
	PharmacyID           string `json:"pharmacy_id"`
	ItemCount            int    `json:"item_count"`
	TotalEstimatedCredit string `json:"total_estimated_credit"`
}

// ItemExpiringEvent is published when an inventory item enters the
// expiring-soon window
type ItemExpiringEvent struct {
	ItemID         string `json:"item_id"`
	PharmacyID     string `json:"pharmacy_id"`
	NDC            string `json:"ndc"`
	ExpirationDate string `json:"expiration_date"`
	Quantity       int    `json:"quantity"`
}
