// Command seed resets the product catalog to the sample data set and
// ensures an admin account exists. Intended for dev and demo setups.
package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/agrimart/agrimart/internal/adapter/storage"
	"github.com/agrimart/agrimart/internal/config"
	"github.com/agrimart/agrimart/internal/core/domain"
)

var sampleProducts = []domain.Product{
	{
		Name:        "Organic Pesticide",
		Description: "Natural and effective pesticide for organic farming",
		Price:       decimal.NewFromInt(299),
		Category:    "Pest Control",
		Stock:       50,
	},
	{
		Name:        "Soil Testing Kit",
		Description: "Complete kit for testing soil pH and nutrients",
		Price:       decimal.NewFromInt(499),
		Category:    "Soil Health",
		Stock:       30,
	},
	{
		Name:        "Smart Irrigation System",
		Description: "Automated irrigation system with moisture sensors",
		Price:       decimal.NewFromInt(2999),
		Category:    "Irrigation",
		Stock:       15,
	},
	{
		Name:        "Neem Oil Concentrate",
		Description: "Cold-pressed neem oil for fungal and insect control",
		Price:       decimal.NewFromInt(199),
		Category:    "Disease Control",
		Stock:       100,
	},
}

func main() {
	cfg := config.FromEnv()
	ctx := context.Background()

	adminEmail := os.Getenv("AGRIMART_ADMIN_EMAIL")
	adminPassword := os.Getenv("AGRIMART_ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Fatal("AGRIMART_ADMIN_EMAIL and AGRIMART_ADMIN_PASSWORD are required")
	}

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

	// Reset catalog
	if _, err := db.ExecContext(ctx, `DELETE FROM products`); err != nil {
		log.Fatalf("failed to clear products: %v", err)
	}

	catalog := storage.NewMySQLCatalog(db)
	now := time.Now().UTC()
	for _, p := range sampleProducts {
		p.ID = uuid.NewString()
		p.CreatedAt = now
		p.UpdatedAt = now
		if err := catalog.CreateProduct(ctx, &p); err != nil {
			log.Fatalf("failed to insert product %s: %v", p.Name, err)
		}
		log.Printf("created product %s (%s)", p.Name, p.ID)
	}

	// Admin account, created once
	users := storage.NewMySQLUsers(db)
	existing, err := users.GetUserByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("failed to look up admin: %v", err)
	}
	if existing != nil {
		log.Printf("admin %s already exists", adminEmail)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash admin password: %v", err)
	}
	admin := &domain.User{
		ID:           uuid.NewString(),
		Name:         "Administrator",
		Email:        adminEmail,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.CreateUser(ctx, admin); err != nil {
		log.Fatalf("failed to create admin: %v", err)
	}
	log.Printf("created admin %s", adminEmail)
}
