package repository

import (
	"context"
	"fmt"
	"time"

	"wms-storefront/internal/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// SeedProducts returns the demo catalog
func SeedProducts() []domain.Product {
	return []domain.Product{
		{
			ID:           "1",
			Name:         "Wireless Bluetooth Earbuds",
			Description:  "High-quality wireless earbuds with noise cancellation and long battery life. Perfect for workouts and daily use.",
			Price:        decimal.NewFromInt(349),
			Stock:        42,
			Category:     "Electronics",
			Image:        "https://images.pexels.com/photos/3780681/pexels-photo-3780681.jpeg?auto=compress&cs=tinysrgb&w=650",
			IsReturnable: true,
			Featured:     boolPtr(true),
			CreatedAt:    mustTime("2023-07-15T10:00:00Z"),
			UpdatedAt:    mustTime("2024-02-20T15:30:00Z"),
		},
		{
			ID:           "2",
			Name:         "Smart LED Desk Lamp",
			Description:  "Adjustable brightness and color temperature. Features USB charging port and touch controls.",
			Price:        decimal.NewFromInt(159),
			Stock:        28,
			Category:     "Electronics",
			Image:        "https://images.pexels.com/photos/1112598/pexels-photo-1112598.jpeg?auto=compress&cs=tinysrgb&w=650",
			IsReturnable: true,
			Discount:     intPtr(10),
			CreatedAt:    mustTime("2023-08-05T14:20:00Z"),
			UpdatedAt:    mustTime("2024-01-18T09:15:00Z"),
		},
		{
			ID:           "3",
			Name:         "Ergonomic Office Chair",
			Description:  "Premium office chair with lumbar support, adjustable height, and breathable mesh back.",
			Price:        decimal.NewFromInt(599),
			Stock:        15,
			Category:     "Furniture",
			Image:        "https://images.pexels.com/photos/1957478/pexels-photo-1957478.jpeg?auto=compress&cs=tinysrgb&w=650",
			IsReturnable: true,
			Featured:     boolPtr(true),
			Discount:     intPtr(15),
			CreatedAt:    mustTime("2023-06-28T11:45:00Z"),
			UpdatedAt:    mustTime("2024-02-10T13:20:00Z"),
		},
		{
			ID:           "4",
			Name:         "Stainless Steel Water Bottle",
			Description:  "Double-walled insulated bottle keeps drinks hot or cold. BPA-free and leak-proof design.",
			Price:        decimal.NewFromInt(89),
			Stock:        50,
			Category:     "Kitchen",
			Image:        "https://images.pexels.com/photos/1188649/pexels-photo-1188649.jpeg?auto=compress&cs=tinysrgb&w=650",
			IsReturnable: true,
			CreatedAt:    mustTime("2023-09-12T08:30:00Z"),
			UpdatedAt:    mustTime("2024-01-05T16:45:00Z"),
		},
		{
			ID:           "5",
			Name:         "Wireless Charging Pad",
			Description:  "Fast wireless charging for compatible devices. Sleek design with LED indicator.",
			Price:        decimal.NewFromInt(129),
			Stock:        35,
			Category:     "Electronics",
			Image:        "https://images.pexels.com/photos/4526407/pexels-photo-4526407.jpeg?auto=compress&cs=tinysrgb&w=650",
			IsReturnable: true,
			Discount:     intPtr(5),
			CreatedAt:    mustTime("2023-10-03T13:15:00Z"),
			UpdatedAt:    mustTime("2024-03-01T10:10:00Z"),
		},
		{
			ID:           "6",
			Name:         "Premium Cotton T-Shirt",
			Description:  "Soft, comfortable cotton t-shirt with a modern fit. Available in multiple colors.",
			Price:        decimal.NewFromInt(79),
			Stock:        100,
			Category:     "Clothing",
			Image:        "https://images.pexels.com/photos/5698853/pexels-photo-5698853.jpeg?auto=compress&cs=tinysrgb&w=650",
			IsReturnable: true,
			CreatedAt:    mustTime("2023-11-20T09:40:00Z"),
			UpdatedAt:    mustTime("2024-02-15T11:55:00Z"),
		},
		{
			ID:           "7",
			Name:         "Portable Bluetooth Speaker",
			Description:  "Waterproof speaker with rich bass and 360° sound. 20-hour battery life.",
			Price:        decimal.NewFromInt(249),
			Stock:        25,
			Category:     "Electronics",
			Image:        "https://images.pexels.com/photos/1279107/pexels-photo-1279107.jpeg?auto=compress&cs=tinysrgb&w=650",
			IsReturnable: true,
			Featured:     boolPtr(true),
			CreatedAt:    mustTime("2023-07-30T16:20:00Z"),
			UpdatedAt:    mustTime("2024-01-25T12:35:00Z"),
		},
		{
			ID:           "8",
			Name:         "Bamboo Cutting Board Set",
			Description:  "Eco-friendly cutting board set with juice groove. Antibacterial and durable.",
			Price:        decimal.NewFromInt(129),
			Stock:        40,
			Category:     "Kitchen",
			Image:        "https://images.pexels.com/photos/5677796/pexels-photo-5677796.jpeg?auto=compress&cs=tinysrgb&w=650",
			IsReturnable: false,
			CreatedAt:    mustTime("2023-08-18T10:50:00Z"),
			UpdatedAt:    mustTime("2024-02-05T14:25:00Z"),
		},
		{
			ID:           "9",
			Name:         "Smart Fitness Watch",
			Description:  "Track your workouts, heart rate, sleep, and more. Water-resistant with a long battery life.",
			Price:        decimal.NewFromInt(299),
			Stock:        30,
			Category:     "Electronics",
			Image:        "https://images.pexels.com/photos/437037/pexels-photo-437037.jpeg?auto=compress&cs=tinysrgb&w=650",
			IsReturnable: true,
			Discount:     intPtr(10),
			CreatedAt:    mustTime("2023-09-25T12:10:00Z"),
			UpdatedAt:    mustTime("2024-01-30T09:50:00Z"),
		},
		{
			ID:           "10",
			Name:         "Yoga Mat with Carrying Strap",
			Description:  "Non-slip, eco-friendly yoga mat with alignment marks. Includes carrying strap.",
			Price:        decimal.NewFromInt(119),
			Stock:        45,
			Category:     "Sports",
			Image:        "https://images.pexels.com/photos/4498362/pexels-photo-4498362.jpeg?auto=compress&cs=tinysrgb&w=650",
			IsReturnable: false,
			CreatedAt:    mustTime("2023-10-15T15:05:00Z"),
			UpdatedAt:    mustTime("2024-03-05T13:40:00Z"),
		},
		{
			ID:           "11",
			Name:         "Cordless Drill Set",
			Description:  "Powerful cordless drill with lithium-ion battery. Includes various drill bits and carry case.",
			Price:        decimal.NewFromInt(399),
			Stock:        20,
			Category:     "Tools",
			Image:        "https://images.pexels.com/photos/1215176/pexels-photo-1215176.jpeg?auto=compress&cs=tinysrgb&w=650",
			IsReturnable: true,
			Featured:     boolPtr(true),
			Discount:     intPtr(15),
			CreatedAt:    mustTime("2023-11-08T11:25:00Z"),
			UpdatedAt:    mustTime("2024-02-12T16:15:00Z"),
		},
		{
			ID:           "12",
			Name:         "Scented Soy Candle",
			Description:  "Hand-poured soy candle with natural essential oils. Long burning time and eco-friendly.",
			Price:        decimal.NewFromInt(69),
			Stock:        60,
			Category:     "Home",
			Image:        "https://images.pexels.com/photos/3466899/pexels-photo-3466899.jpeg?auto=compress&cs=tinysrgb&w=650",
			IsReturnable: false,
			CreatedAt:    mustTime("2023-12-01T14:40:00Z"),
			UpdatedAt:    mustTime("2024-01-20T10:30:00Z"),
		},
	}
}

// SeedCatalog inserts the demo catalog when repo holds no products yet
func SeedCatalog(ctx context.Context, repo ProductRepository) (int, error) {
	existing, err := repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list products: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	products := SeedProducts()
	for i := range products {
		if err := repo.Create(ctx, &products[i]); err != nil {
			return i, fmt.Errorf("failed to seed product %s: %w", products[i].ID, err)
		}
	}
	return len(products), nil
}

// SeedUsers returns the demo accounts with bcrypt hashed passwords
func SeedUsers(cost int) ([]domain.User, error) {
	accounts := []struct {
		user     domain.User
		password string
	}{
		{
			user: domain.User{
				ID:     "1",
				Name:   "Admin User",
				Email:  "admin@example.com",
				Role:   domain.RoleAdmin,
				Avatar: "https://images.pexels.com/photos/220453/pexels-photo-220453.jpeg?auto=compress&cs=tinysrgb&w=150",
			},
			password: "admin123",
		},
		{
			user: domain.User{
				ID:     "2",
				Name:   "Test User",
				Email:  "user@example.com",
				Role:   domain.RoleUser,
				Avatar: "https://images.pexels.com/photos/1674752/pexels-photo-1674752.jpeg?auto=compress&cs=tinysrgb&w=150",
			},
			password: "user123",
		},
	}

	users := make([]domain.User, 0, len(accounts))
	for _, a := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.password), cost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %w", a.user.Email, err)
		}
		user := a.user
		user.PasswordHash = string(hash)
		users = append(users, user)
	}
	return users, nil
}

func boolPtr(v bool) *bool { return &v }

func intPtr(v int) *int { return &v }

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}
