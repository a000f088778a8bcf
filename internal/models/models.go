package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentCard
}

const (
	StockOut = "Out of Stock"
	StockLow = "Low Stock"
	StockIn  = "In Stock"

	LowStockThreshold = 10
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"      json:"id"`
	OwnerID      uuid.UUID `gorm:"type:uuid;index;not null"  json:"owner_id"`
	Role         string    `gorm:"not null"                  json:"role"`
	Name         string    `gorm:"not null"                  json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	CreatedAt    time.Time `                                 json:"created_at"`
}

// BeforeCreate makes an owner its own scope.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.OwnerID == uuid.Nil && u.Role == "owner" {
		u.OwnerID = u.ID
	}
	return nil
}

type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"  json:"id"`
	Token     string    `gorm:"uniqueIndex;not null"  json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	JTI       string    `gorm:"uniqueIndex;not null"  json:"jti"`
	ExpiresAt int64     `gorm:"not null"              json:"expires_at"`
	Revoked   bool      `gorm:"default:false"         json:"revoked"`
	CreatedAt time.Time `                             json:"created_at"`
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type Product struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"              json:"id"`
	OwnerID   uuid.UUID       `gorm:"type:uuid;index;not null"          json:"owner_id"`
	Name      string          `gorm:"not null"                          json:"name"`
	Category  string          `gorm:"index;not null;default:''"         json:"category"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null"       json:"price"`
	Quantity  int             `gorm:"not null;default:0"                json:"quantity"`
	ImageURL  string          `gorm:"not null;default:''"               json:"image_url"`
	CreatedAt time.Time       `                                         json:"created_at"`
	UpdatedAt time.Time       `                                         json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p Product) StockStatus() string {
	return StockStatus(p.Quantity)
}

func StockStatus(quantity int) string {
	switch {
	case quantity <= 0:
		return StockOut
	case quantity < LowStockThreshold:
		return StockLow
	default:
		return StockIn
	}
}

type Order struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"             json:"id"`
	CheckoutID    uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"   json:"checkout_id"`
	OwnerID       uuid.UUID       `gorm:"type:uuid;index;not null"         json:"owner_id"`
	OwnerEmail    string          `gorm:"not null;default:''"              json:"owner_email"`
	TellerID      uuid.UUID       `gorm:"type:uuid;index;not null"         json:"teller_id"`
	TellerName    string          `gorm:"not null;default:''"              json:"teller_name"`
	PaymentMethod PaymentMethod   `gorm:"not null"                         json:"payment_method"`
	Subtotal      decimal.Decimal `gorm:"type:numeric(12,2);not null"      json:"subtotal"`
	CardFee       decimal.Decimal `gorm:"type:numeric(12,2);not null"      json:"card_fee"`
	Total         decimal.Decimal `gorm:"type:numeric(12,2);not null"      json:"total"`
	CashGiven     decimal.Decimal `gorm:"type:numeric(12,2);not null"      json:"cash_given"`
	ChangeDue     decimal.Decimal `gorm:"type:numeric(12,2);not null"      json:"change_due"`
	Lines         []OrderLine     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"lines"`
	CreatedAt     time.Time       `gorm:"index"                            json:"created_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type OrderLine struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"           json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null"       json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"             json:"product_id"`
	Name      string          `gorm:"not null"                       json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null"    json:"price"`
	Quantity  int             `gorm:"not null"                       json:"quantity"`
	LineTotal decimal.Decimal `gorm:"type:numeric(12,2);not null"    json:"line_total"`
}

func (l *OrderLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

func All() []any {
	return []any{&User{}, &RefreshToken{}, &Product{}, &Order{}, &OrderLine{}}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
