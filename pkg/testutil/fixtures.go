package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// PharmacyFixture represents test pharmacy account data
type PharmacyFixture struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	DEANumber    string
	Status       string
	CreatedAt    time.Time
}

// ProductFixture represents test product data
type ProductFixture struct {
	ID                  string
	NDC                 string
	ProprietaryName     string
	WACUnitPrice        float64
	ReturnWindowDays    int
	BaseCreditPct       float64
	DestructionRequired bool
}

// DistributorFixture represents test reverse distributor data
type DistributorFixture struct {
	ID       string
	Name     string
	IsActive bool
}

// ReportRecordFixture represents test return report data
type ReportRecordFixture struct {
	ID            string
	DistributorID string
	NDC           string
	UnitType      string
	PricePerUnit  float64
	ReportDate    time.Time
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Pharmacy creates a pharmacy fixture with defaults
func (f *FixtureFactory) Pharmacy(opts ...func(*PharmacyFixture)) PharmacyFixture {
	seq := f.nextSeq()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)

	pharmacy := PharmacyFixture{
		ID:           uuid.New().String(),
		Name:         fmt.Sprintf("Test Pharmacy %d", seq),
		Email:        fmt.Sprintf("pharmacy%d@test.rxreturn.com", seq),
		PasswordHash: string(hash),
		Role:         "pharmacy",
		DEANumber:    fmt.Sprintf("AB%07d", seq),
		Status:       "active",
		CreatedAt:    time.Now(),
	}

	for _, opt := range opts {
		opt(&pharmacy)
	}
	return pharmacy
}

// WithEmail sets the pharmacy email
func WithEmail(email string) func(*PharmacyFixture) {
	return func(p *PharmacyFixture) {
		p.Email = email
	}
}

// WithStatus sets the pharmacy status
func WithStatus(status string) func(*PharmacyFixture) {
	return func(p *PharmacyFixture) {
		p.Status = status
	}
}

// WithRole sets the pharmacy role
func WithRole(role string) func(*PharmacyFixture) {
	return func(p *PharmacyFixture) {
		p.Role = role
	}
}

// Product creates a product fixture with defaults
func (f *FixtureFactory) Product(opts ...func(*ProductFixture)) ProductFixture {
	seq := f.nextSeq()

	product := ProductFixture{
		ID:               uuid.New().String(),
		NDC:              fmt.Sprintf("%05d-1234-01", seq),
		ProprietaryName:  fmt.Sprintf("Test Drug %d", seq),
		WACUnitPrice:     9.99,
		ReturnWindowDays: 365,
		BaseCreditPct:    80,
	}

	for _, opt := range opts {
		opt(&product)
	}
	return product
}

// WithNDC sets the product NDC
func WithNDC(ndc string) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.NDC = ndc
	}
}

// WithWAC sets the product WAC unit price
func WithWAC(price float64) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.WACUnitPrice = price
	}
}

// Distributor creates a distributor fixture with defaults
func (f *FixtureFactory) Distributor(opts ...func(*DistributorFixture)) DistributorFixture {
	seq := f.nextSeq()

	distributor := DistributorFixture{
		ID:       uuid.New().String(),
		Name:     fmt.Sprintf("Reverse Distributor %d", seq),
		IsActive: true,
	}

	for _, opt := range opts {
		opt(&distributor)
	}
	return distributor
}

// ReportRecord creates a report record fixture with defaults
func (f *FixtureFactory) ReportRecord(distributorID, ndc string, opts ...func(*ReportRecordFixture)) ReportRecordFixture {
	record := ReportRecordFixture{
		ID:            uuid.New().String(),
		DistributorID: distributorID,
		NDC:           ndc,
		UnitType:      "full",
		PricePerUnit:  10,
		ReportDate:    time.Now().AddDate(0, -1, 0),
	}

	for _, opt := range opts {
		opt(&record)
	}
	return record
}

// WithUnitType sets the report record unit type
func WithUnitType(unitType string) func(*ReportRecordFixture) {
	return func(r *ReportRecordFixture) {
		r.UnitType = unitType
	}
}

// WithPrice sets the report record price per unit
func WithPrice(price float64) func(*ReportRecordFixture) {
	return func(r *ReportRecordFixture) {
		r.PricePerUnit = price
	}
}

// WithReportDate sets the report record report date
func WithReportDate(date time.Time) func(*ReportRecordFixture) {
	return func(r *ReportRecordFixture) {
		r.ReportDate = date
	}
}
