package repository

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Store-level error taxonomy. Services add their own business errors on top.
var (
	ErrNotFound          = errors.New("record not found")
	ErrConflict          = errors.New("duplicate record")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Repositories marketplace repository set
type Repositories struct {
	Supply       *SupplyRepository
	Traceability *TraceabilityRepository
	Product      *ProductRepository
	Order        *OrderRepository
	Payment      *PaymentRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Supply:       NewSupplyRepository(db),
		Traceability: NewTraceabilityRepository(db),
		Product:      NewProductRepository(db),
		Order:        NewOrderRepository(db),
		Payment:      NewPaymentRepository(db),
	}
}

// NewOrderNumber returns ORD-{YYYYMMDD}-{6 uppercase hex}. The suffix space
// is 16^6; the order_number unique index catches the residual collision and
// the caller retries with a fresh suffix.
func NewOrderNumber() string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken;
		// fall back to a time-derived suffix rather than aborting the order.
		return fmt.Sprintf("ORD-%s-%06X", time.Now().Format("20060102"), time.Now().UnixNano()&0xFFFFFF)
	}
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), strings.ToUpper(hex.EncodeToString(buf)))
}

// translateErr maps gorm errors onto the repository taxonomy.
func translateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return err
	}
}
