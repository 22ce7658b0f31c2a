// Command stress_test fires concurrent place-order requests at one
// product and verifies that exactly the available stock is sold.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agrimart/agrimart/internal/adapter/storage"
	"github.com/agrimart/agrimart/internal/config"
	"github.com/agrimart/agrimart/internal/core/domain"
	"github.com/agrimart/agrimart/internal/core/service"
)

const (
	initialStock  = 20
	totalRequests = 50
)

func main() {
	cfg := config.FromEnv()
	ctx := context.Background()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("failed to open mysql: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	if err := storage.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	catalog := storage.NewMySQLCatalog(db)
	orders := storage.NewMySQLOrders(db)
	orderService := service.NewOrderService(catalog, orders, nil, nil, service.RoleAuthorizer{}, nil, nil)

	// Test product
	now := time.Now().UTC()
	product := &domain.Product{
		ID:        "stress-" + uuid.NewString(),
		Name:      "Stress Test Seed Pack",
		Price:     decimal.NewFromInt(100),
		Stock:     initialStock,
		Category:  "Seeds",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := catalog.CreateProduct(ctx, product); err != nil {
		log.Fatalf("failed to create product: %v", err)
	}

	var successCount atomic.Int32
	var failCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()

			_, err := orderService.PlaceOrder(ctx,
				fmt.Sprintf("user-%d", userID),
				[]service.CartLine{{ProductID: product.ID, Quantity: 1}},
				domain.ShippingAddress{}, "cash-on-delivery", "")
			if err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == int32(initialStock) && fail == int32(totalRequests-initialStock) {
		fmt.Printf("PASS: Exactly %d orders succeeded, %d failed\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d fail, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, fail)
	}

	final, err := catalog.GetProduct(ctx, product.ID)
	if err != nil || final == nil {
		log.Fatalf("failed to read back product: %v", err)
	}
	fmt.Printf("Final Stock: %d\n", final.Stock)

	if final.Stock == 0 {
		fmt.Println("PASS: Stock depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected stock 0, got %d\n", final.Stock)
	}
}
