package storage

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"order-management-api/lifecycle"
	"order-management-api/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	// A pooled second connection would see its own empty :memory: database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newOrder(customerRef string, restaurantID uint, paymentRef string) *models.Order {
	o := &models.Order{
		CustomerRef:     customerRef,
		RestaurantID:    restaurantID,
		DeliveryAddress: "12 Baker Street",
		Status:          models.StatusPending,
		Items: []models.OrderItem{
			{ItemID: "margherita", Quantity: 1, UnitPrice: 9.5},
		},
	}
	if paymentRef != "" {
		o.PaymentRef = &paymentRef
	}
	return o
}

func TestInsertEnforcesPaymentRefUniqueness(t *testing.T) {
	repo := NewOrderRepository(testDB(t))
	ctx := context.Background()

	if err := repo.Insert(ctx, newOrder("cust-1", 7, "PAY1")); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := repo.Insert(ctx, newOrder("cust-2", 7, "PAY1"))
	if !lifecycle.IsConflict(err) {
		t.Errorf("err = %v, want conflict", err)
	}
}

func TestInsertAllowsManyUnsetPaymentRefs(t *testing.T) {
	repo := NewOrderRepository(testDB(t))
	ctx := context.Background()

	if err := repo.Insert(ctx, newOrder("cust-1", 7, "")); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := repo.Insert(ctx, newOrder("cust-2", 7, "")); err != nil {
		t.Fatalf("second insert: %v", err)
	}
}

func TestFindByID(t *testing.T) {
	repo := NewOrderRepository(testDB(t))
	ctx := context.Background()

	order := newOrder("cust-1", 7, "")
	if err := repo.Insert(ctx, order); err != nil {
		t.Fatal(err)
	}

	got, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got == nil || got.ID != order.ID {
		t.Fatalf("got %v, want order %d", got, order.ID)
	}
	if len(got.Items) != 1 || got.Items[0].ItemID != "margherita" {
		t.Errorf("items not loaded: %+v", got.Items)
	}

	missing, err := repo.FindByID(ctx, 404)
	if err != nil || missing != nil {
		t.Errorf("missing order: got %v, %v; want nil, nil", missing, err)
	}
}

func TestFindByPaymentRef(t *testing.T) {
	repo := NewOrderRepository(testDB(t))
	ctx := context.Background()

	order := newOrder("cust-1", 7, "PAY1")
	if err := repo.Insert(ctx, order); err != nil {
		t.Fatal(err)
	}

	got, err := repo.FindByPaymentRef(ctx, "PAY1")
	if err != nil || got == nil || got.ID != order.ID {
		t.Errorf("FindByPaymentRef = %v, %v", got, err)
	}

	none, err := repo.FindByPaymentRef(ctx, "PAY2")
	if err != nil || none != nil {
		t.Errorf("unknown ref: got %v, %v; want nil, nil", none, err)
	}
}

func TestFindAllFilters(t *testing.T) {
	repo := NewOrderRepository(testDB(t))
	ctx := context.Background()

	a := newOrder("cust-1", 7, "")
	b := newOrder("cust-2", 9, "")
	for _, o := range []*models.Order{a, b} {
		if err := repo.Insert(ctx, o); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.UpdateStatus(ctx, b.ID, models.StatusConfirmed); err != nil {
		t.Fatal(err)
	}

	all, err := repo.FindAll(ctx, lifecycle.Filter{})
	if err != nil || len(all) != 2 {
		t.Fatalf("FindAll = %d orders, %v; want 2", len(all), err)
	}

	confirmed, err := repo.FindAll(ctx, lifecycle.Filter{Status: models.StatusConfirmed})
	if err != nil || len(confirmed) != 1 || confirmed[0].ID != b.ID {
		t.Errorf("status filter = %v, %v", confirmed, err)
	}

	byRestaurant, err := repo.FindAll(ctx, lifecycle.Filter{RestaurantID: 7})
	if err != nil || len(byRestaurant) != 1 || byRestaurant[0].ID != a.ID {
		t.Errorf("restaurant filter = %v, %v", byRestaurant, err)
	}
}

func TestFindByCustomerAndRestaurant(t *testing.T) {
	repo := NewOrderRepository(testDB(t))
	ctx := context.Background()

	a := newOrder("cust-1", 7, "")
	b := newOrder("cust-2", 9, "")
	for _, o := range []*models.Order{a, b} {
		if err := repo.Insert(ctx, o); err != nil {
			t.Fatal(err)
		}
	}

	mine, err := repo.FindByCustomer(ctx, "cust-1")
	if err != nil || len(mine) != 1 || mine[0].ID != a.ID {
		t.Errorf("FindByCustomer = %v, %v", mine, err)
	}

	rest, err := repo.FindByRestaurant(ctx, 9)
	if err != nil || len(rest) != 1 || rest[0].ID != b.ID {
		t.Errorf("FindByRestaurant = %v, %v", rest, err)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	repo := NewOrderRepository(testDB(t))

	err := repo.UpdateStatus(context.Background(), 404, models.StatusConfirmed)
	if !lifecycle.IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestUpdatePaymentAndStatus(t *testing.T) {
	repo := NewOrderRepository(testDB(t))
	ctx := context.Background()

	order := newOrder("cust-1", 7, "")
	if err := repo.Insert(ctx, order); err != nil {
		t.Fatal(err)
	}

	if err := repo.UpdatePaymentAndStatus(ctx, order.ID, "PAY1", models.StatusConfirmed); err != nil {
		t.Fatalf("bind: %v", err)
	}

	got, _ := repo.FindByID(ctx, order.ID)
	if got.PaymentRef == nil || *got.PaymentRef != "PAY1" || got.Status != models.StatusConfirmed {
		t.Fatalf("order after bind: %+v", got)
	}

	// Identical replay is a no-op, not a conflict.
	if err := repo.UpdatePaymentAndStatus(ctx, order.ID, "PAY1", models.StatusConfirmed); err != nil {
		t.Errorf("replay: %v", err)
	}

	// A different reference against a bound order is rejected in-transaction.
	err := repo.UpdatePaymentAndStatus(ctx, order.ID, "PAY2", models.StatusConfirmed)
	if !lifecycle.IsConflict(err) {
		t.Errorf("different ref: err = %v, want conflict", err)
	}
}

func TestUpdatePaymentAndStatusGuardsProcessedOrders(t *testing.T) {
	repo := NewOrderRepository(testDB(t))
	ctx := context.Background()

	order := newOrder("cust-1", 7, "")
	if err := repo.Insert(ctx, order); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateStatus(ctx, order.ID, models.StatusDelivered); err != nil {
		t.Fatal(err)
	}

	err := repo.UpdatePaymentAndStatus(ctx, order.ID, "PAY1", models.StatusConfirmed)
	if !lifecycle.IsConflict(err) {
		t.Errorf("err = %v, want conflict", err)
	}
}

func TestUpdatePaymentAndStatusNotFound(t *testing.T) {
	repo := NewOrderRepository(testDB(t))

	err := repo.UpdatePaymentAndStatus(context.Background(), 404, "PAY1", models.StatusConfirmed)
	if !lifecycle.IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestPing(t *testing.T) {
	repo := NewOrderRepository(testDB(t))
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
