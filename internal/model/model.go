// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// Tokens collects issued access tokens.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// User represents an account. Any user may both list and purchase.
type User struct {
	ID        uuid.UUID // PK
	Email     string    // unique, lower-cased
	Name      string
	PwdHash   []byte // Argon2id(password, SaltAuth)
	SaltAuth  []byte // per-user auth salt
	CreatedAt time.Time
}

// Availability is the single discriminant replacing the isAvailable/isReserved/isSold triple.
type Availability string

const (
	Available       Availability = "AVAILABLE"
	Reserved        Availability = "RESERVED"
	PendingPurchase Availability = "PENDING_PURCHASE"
	Sold            Availability = "SOLD"
)

// Valid reports whether a is one of the declared states.
func (a Availability) Valid() bool {
	switch a {
	case Available, Reserved, PendingPurchase, Sold:
		return true
	}
	return false
}

// Flags returns the legacy boolean view of the state.
func (a Availability) Flags() (isAvailable, isReserved, isSold bool) {
	return a == Available, a == Reserved, a == Sold
}

// Condition describes the physical condition of a listed item.
type Condition string

const (
	ConditionNew     Condition = "NEW"
	ConditionLikeNew Condition = "LIKE_NEW"
	ConditionGood    Condition = "GOOD"
	ConditionFair    Condition = "FAIR"
	ConditionPoor    Condition = "POOR"
)

// Valid reports whether c is a known condition.
func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// Product is a single physical listing.
type Product struct {
	ID           uuid.UUID
	SellerID     uuid.UUID // immutable after creation
	ScanCode     string    // unique, independent of ID
	Name         string
	Description  string
	Price        decimal.Decimal
	Currency     string
	Category     string // optional
	Condition    Condition
	ImageURL     string // optional
	Availability Availability
	Version      int64 // bumped on every write
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewProduct is the seller's listing intent.
type NewProduct struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Currency    string
	Category    string
	Condition   Condition
	ImageURL    string
}

// ProductPatch carries optional detail changes; nil fields are left untouched.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *string
	Condition   *Condition
	ImageURL    *string
}

// ProductFilter narrows the public listing of available products.
type ProductFilter struct {
	Category  string
	Condition Condition
	SellerID  uuid.UUID
	MaxPrice  *decimal.Decimal
	Page      PageQuery
}

// PurchaseStatus is the lifecycle of a purchase record.
type PurchaseStatus string

const (
	StatusPending   PurchaseStatus = "PENDING"
	StatusCompleted PurchaseStatus = "COMPLETED"
	StatusCancelled PurchaseStatus = "CANCELLED"
	StatusRefunded  PurchaseStatus = "REFUNDED"
)

// Valid reports whether s is a known status.
func (s PurchaseStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// PaymentMethod is recorded as metadata only; payment happens face to face.
type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "CASH"
	PaymentCard  PaymentMethod = "CARD"
	PaymentPix   PaymentMethod = "PIX"
	PaymentOther PaymentMethod = "OTHER"
)

// Valid reports whether m is a known method. The empty method means "not recorded".
func (m PaymentMethod) Valid() bool {
	switch m {
	case "", PaymentCash, PaymentCard, PaymentPix, PaymentOther:
		return true
	}
	return false
}

// Purchase links a buyer, a seller and a product at a snapshotted price.
type Purchase struct {
	ID            uuid.UUID
	ProductID     uuid.UUID
	BuyerID       uuid.UUID
	SellerID      uuid.UUID       // copied from the product at creation
	Price         decimal.Decimal // snapshot, never updated
	Currency      string          // snapshot, never updated
	PaymentMethod PaymentMethod
	Notes         string
	Status        PurchaseStatus
	PurchasedAt   time.Time
	UpdatedAt     time.Time
}

// NewPurchase is a buyer's purchase intent.
type NewPurchase struct {
	ProductID     uuid.UUID
	PaymentMethod PaymentMethod
	Notes         string
}

// PurchaseQuery selects a page of purchases, optionally by status.
type PurchaseQuery struct {
	Page   PageQuery
	Status PurchaseStatus // empty means any
}

// ScanResult is what a buyer sees after scanning a label.
type ScanResult struct {
	Product Product
	Seller  User
}

// Label is the payload printed on a product tag. ProductURL resolves through the scanner too.
type Label struct {
	ProductID  uuid.UUID
	Code       string
	ProductURL string
}
