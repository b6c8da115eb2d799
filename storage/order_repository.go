package storage

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"order-management-api/lifecycle"
	"order-management-api/models"
)

// OrderRepository implements lifecycle.Repository on gorm. The unique index
// on orders.payment_ref is the authoritative uniqueness guard; duplicate-key
// failures surface as conflict-kinded lifecycle errors.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// Fallback for drivers that do not translate constraint failures.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *OrderRepository) Insert(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		if isDuplicateKey(err) {
			return lifecycle.Conflict("Order already exists for this payment")
		}
		return err
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) FindByPaymentRef(ctx context.Context, ref string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").
		Where("payment_ref = ?", ref).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) FindAll(ctx context.Context, f lifecycle.Filter) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Preload("Items")
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.RestaurantID != 0 {
		query = query.Where("restaurant_id = ?", f.RestaurantID)
	}

	var orders []models.Order
	if err := query.Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepository) FindByCustomer(ctx context.Context, customerRef string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("Items").
		Where("customer_ref = ?", customerRef).
		Order("created_at desc").Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepository) FindByRestaurant(ctx context.Context, restaurantID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("Items").
		Where("restaurant_id = ?", restaurantID).
		Order("created_at desc").Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return lifecycle.NotFound("Order not found")
	}
	return nil
}

// UpdatePaymentAndStatus sets the payment reference and status as one atomic
// row update. The guard chain is re-checked inside the transaction so the
// read-check-write sequence is serialized per order even when the manager's
// fast-path checks raced with a concurrent bind.
func (r *OrderRepository) UpdatePaymentAndStatus(ctx context.Context, id uint, ref string, status models.OrderStatus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return lifecycle.NotFound("Order not found")
			}
			return err
		}

		if order.PaymentRef != nil && *order.PaymentRef == ref && order.Status == status {
			return nil
		}
		if order.PaymentRef != nil && *order.PaymentRef != ref {
			return lifecycle.Conflict("Order already processed")
		}
		if order.Status.Processed() {
			return lifecycle.Conflict("Order already processed")
		}

		err := tx.Model(&models.Order{}).Where("id = ?", id).
			Updates(map[string]any{"payment_ref": ref, "status": status}).Error
		if err != nil {
			if isDuplicateKey(err) {
				return lifecycle.Conflict("Payment reference already used by another order")
			}
			return err
		}
		return nil
	})
}

// Ping probes storage connectivity for the health endpoints
func (r *OrderRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
