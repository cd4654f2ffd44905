package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/harumi-id/backend-parfum/internal/app"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := app.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	orgID := seedOrganization(ctx, pool)
	log.Printf("Using Org ID: %s", orgID)

	outletID := seedOutlets(ctx, pool, orgID)
	seedUsers(ctx, pool, orgID, outletID)
	aromaIDs := seedAromas(ctx, pool, orgID)
	seedBottleSizes(ctx, pool, orgID)
	seedRecipes(ctx, pool, orgID, aromaIDs)
	seedProducts(ctx, pool, orgID, aromaIDs)
	seedPromotions(ctx, pool, orgID)

	log.Println("Seeding completed successfully!")
}

func seedOrganization(ctx context.Context, pool *pgxpool.Pool) string {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM organizations WHERE slug = 'harumi'").Scan(&id)
	if err == nil {
		return id
	}

	log.Println("Organization 'harumi' not found, creating...")
	id = uuid.NewString()
	err = pool.QueryRow(ctx, `
		INSERT INTO organizations (id, name, slug)
		VALUES ($1, 'Harumi Parfum', 'harumi')
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
		RETURNING id;
	`, id).Scan(&id)
	if err != nil {
		log.Fatalf("Failed to create organization: %v", err)
	}
	return id
}

func seedOutlets(ctx context.Context, pool *pgxpool.Pool, orgID string) string {
	outlets := []struct {
		Name    string
		Address string
		Phone   string
	}{
		{"Harumi Senayan", "Senayan City Lt. 2, Jakarta Selatan", "021-5550123"},
		{"Harumi Bandung", "Jl. Riau No. 45, Bandung", "022-4200456"},
	}

	fmt.Println("Seeding Outlets...")
	var firstID string
	for _, o := range outlets {
		var id string
		err := pool.QueryRow(ctx, `SELECT id FROM outlets WHERE org_id = $1 AND name = $2`, orgID, o.Name).Scan(&id)
		if err != nil {
			id = uuid.NewString()
			_, err = pool.Exec(ctx, `
				INSERT INTO outlets (id, org_id, name, address, phone)
				VALUES ($1, $2, $3, $4, $5);
			`, id, orgID, o.Name, o.Address, o.Phone)
			if err != nil {
				log.Printf("Failed to seed outlet %s: %v", o.Name, err)
				continue
			}
		}
		if firstID == "" {
			firstID = id
		}
	}
	return firstID
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, orgID, outletID string) {
	users := []struct {
		Name string
		Role string
		PIN  string
	}{
		{"Ayu Maharani", "owner", "190384"},
		{"Budi Santoso", "cashier", "112233"},
		{"Siti Aminah", "cashier", "445566"},
		{"Rizky Ramadhan", "cashier", "778899"},
	}

	fmt.Println("Seeding Users...")
	for _, u := range users {
		hash, err := app.HashPassword(u.PIN)
		if err != nil {
			log.Printf("Failed to hash PIN for %s: %v", u.Name, err)
			continue
		}
		_, err = pool.Exec(ctx, `
			INSERT INTO users (id, org_id, outlet_id, name, role, pin_hash)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (org_id, name) DO NOTHING;
		`, uuid.NewString(), orgID, outletID, u.Name, u.Role, hash)
		if err != nil {
			log.Printf("Failed to seed user %s: %v", u.Name, err)
		}
	}
}

func seedAromas(ctx context.Context, pool *pgxpool.Pool, orgID string) map[string]string {
	aromas := []struct {
		Name   string
		Family string
	}{
		{"Sandalwood Supreme", "woody"},
		{"Ocean Breeze", "fresh"},
		{"Vanilla Musk", "oriental"},
		{"Jasmine Night", "floral"},
		{"Citrus Burst", "fresh"},
		{"Amber Oud", "oriental"},
		{"Green Tea", "fresh"},
		{"Black Cherry", "fruity"},
	}

	fmt.Println("Seeding Aromas...")
	ids := make(map[string]string)
	for _, a := range aromas {
		_, err := pool.Exec(ctx, `
			INSERT INTO aromas (id, org_id, name, family)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (org_id, name) DO UPDATE SET family = EXCLUDED.family;
		`, uuid.NewString(), orgID, a.Name, a.Family)
		if err != nil {
			log.Printf("Failed to upsert aroma %s: %v", a.Name, err)
		}

		var id string
		if err := pool.QueryRow(ctx, "SELECT id FROM aromas WHERE org_id = $1 AND name = $2", orgID, a.Name).Scan(&id); err != nil {
			log.Printf("Failed to get ID for aroma %s: %v", a.Name, err)
			continue
		}
		ids[a.Name] = id
	}
	return ids
}

func seedBottleSizes(ctx context.Context, pool *pgxpool.Pool, orgID string) {
	sizes := []struct {
		SizeML int
		Label  string
	}{
		{30, "Travel 30ml"},
		{50, "Classic 50ml"},
		{100, "Grande 100ml"},
	}

	fmt.Println("Seeding Bottle Sizes...")
	for _, s := range sizes {
		_, err := pool.Exec(ctx, `
			INSERT INTO bottle_sizes (org_id, size_ml, label)
			VALUES ($1, $2, $3)
			ON CONFLICT (org_id, size_ml) DO UPDATE SET label = EXCLUDED.label;
		`, orgID, s.SizeML, s.Label)
		if err != nil {
			log.Printf("Failed to seed bottle size %dml: %v", s.SizeML, err)
		}
	}
}

func seedRecipes(ctx context.Context, pool *pgxpool.Pool, orgID string, aromaIDs map[string]string) {
	recipes := []struct {
		Aroma     string
		SizeML    int
		BasePrice int64
		EssenceML int
	}{
		{"Sandalwood Supreme", 30, 10000, 9},
		{"Sandalwood Supreme", 50, 15000, 15},
		{"Sandalwood Supreme", 100, 28000, 30},
		{"Ocean Breeze", 30, 9000, 9},
		{"Ocean Breeze", 50, 13500, 15},
		{"Vanilla Musk", 50, 14000, 15},
		{"Vanilla Musk", 100, 26000, 30},
		{"Jasmine Night", 50, 16000, 15},
		{"Citrus Burst", 30, 8500, 9},
		{"Citrus Burst", 50, 12500, 15},
		{"Amber Oud", 50, 22000, 18},
		{"Amber Oud", 100, 40000, 36},
		{"Green Tea", 50, 12000, 15},
		{"Black Cherry", 50, 13000, 15},
	}

	fmt.Println("Seeding Recipes...")
	for _, r := range recipes {
		aromaID, ok := aromaIDs[r.Aroma]
		if !ok {
			log.Printf("Missing aroma ID for %s", r.Aroma)
			continue
		}
		_, err := pool.Exec(ctx, `
			INSERT INTO recipes (org_id, aroma_id, bottle_size_ml, base_price, standard_essence_ml)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (org_id, aroma_id, bottle_size_ml) DO UPDATE SET
				base_price = EXCLUDED.base_price,
				standard_essence_ml = EXCLUDED.standard_essence_ml;
		`, orgID, aromaID, r.SizeML, r.BasePrice, r.EssenceML)
		if err != nil {
			log.Printf("Failed to seed recipe %s %dml: %v", r.Aroma, r.SizeML, err)
		}
	}
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, orgID string, aromaIDs map[string]string) {
	products := []struct {
		Name   string
		Slug   string
		Aroma  string
		SizeML int
		Price  int64
		Stock  int
	}{
		{"Sandalwood Supreme 50ml", "sandalwood-supreme-50ml", "Sandalwood Supreme", 50, 85000, 40},
		{"Sandalwood Supreme 100ml", "sandalwood-supreme-100ml", "Sandalwood Supreme", 100, 150000, 25},
		{"Ocean Breeze 50ml", "ocean-breeze-50ml", "Ocean Breeze", 50, 75000, 60},
		{"Vanilla Musk 50ml", "vanilla-musk-50ml", "Vanilla Musk", 50, 80000, 50},
		{"Jasmine Night 50ml", "jasmine-night-50ml", "Jasmine Night", 50, 90000, 30},
		{"Citrus Burst 30ml", "citrus-burst-30ml", "Citrus Burst", 30, 55000, 80},
		{"Amber Oud 100ml", "amber-oud-100ml", "Amber Oud", 100, 220000, 15},
		{"Green Tea 50ml", "green-tea-50ml", "Green Tea", 50, 70000, 45},
		{"Black Cherry 50ml", "black-cherry-50ml", "Black Cherry", 50, 78000, 35},
		{"Empty Bottle 30ml", "empty-bottle-30ml", "", 30, 15000, 200},
		{"Empty Bottle 50ml", "empty-bottle-50ml", "", 50, 20000, 200},
		{"Empty Bottle 100ml", "empty-bottle-100ml", "", 100, 30000, 120},
		{"Tester Strip Pack", "tester-strip-pack", "", 0, 10000, 500},
	}

	fmt.Println("Seeding Products...")
	for _, p := range products {
		var aromaID *string
		if p.Aroma != "" {
			id, ok := aromaIDs[p.Aroma]
			if !ok {
				log.Printf("Missing aroma ID for %s", p.Aroma)
				continue
			}
			aromaID = &id
		}
		_, err := pool.Exec(ctx, `
			INSERT INTO products (id, org_id, name, slug, aroma_id, size_ml, price, stock)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (org_id, slug) DO UPDATE SET
				price = EXCLUDED.price,
				stock = EXCLUDED.stock,
				aroma_id = EXCLUDED.aroma_id;
		`, uuid.NewString(), orgID, p.Name, p.Slug, aromaID, p.SizeML, p.Price, p.Stock)
		if err != nil {
			log.Printf("Failed to seed product %s: %v", p.Name, err)
		}
	}
}

func seedPromotions(ctx context.Context, pool *pgxpool.Pool, orgID string) {
	fmt.Println("Seeding Promotions...")

	_, err := pool.Exec(ctx, `
		INSERT INTO promotions (id, org_id, code, name, kind, value_bps, starts_at, ends_at)
		VALUES ($1, $2, 'GAJIAN10', 'Payday 10% Off', 'percentage', 1000, NOW(), NOW() + INTERVAL '1 year')
		ON CONFLICT (org_id, code) DO NOTHING;
	`, uuid.NewString(), orgID)
	if err != nil {
		log.Printf("Failed to seed promotion GAJIAN10: %v", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO promotions (id, org_id, code, name, kind, value, starts_at, ends_at)
		VALUES ($1, $2, 'HEMAT15K', 'Potongan 15 Ribu', 'fixed_amount', 15000, NOW(), NOW() + INTERVAL '1 year')
		ON CONFLICT (org_id, code) DO NOTHING;
	`, uuid.NewString(), orgID)
	if err != nil {
		log.Printf("Failed to seed promotion HEMAT15K: %v", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO promotions (id, org_id, code, name, kind, free_product_id, starts_at, ends_at)
		SELECT $1, $2, 'BELI1GRATIS1', 'Beli 1 Gratis Tester', 'bogo', p.id, NOW(), NOW() + INTERVAL '1 year'
		FROM products p
		WHERE p.org_id = $2 AND p.slug = 'tester-strip-pack'
		ON CONFLICT (org_id, code) DO NOTHING;
	`, uuid.NewString(), orgID)
	if err != nil {
		log.Printf("Failed to seed promotion BELI1GRATIS1: %v", err)
	}
}
