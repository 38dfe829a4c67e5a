package seeders

import (
	"context"
	"errors"
	"time"

	"proshift/constants"
	"proshift/database"
	"proshift/logger"
	"proshift/models/rider"
	"proshift/models/user"
)

// DemoAccount is one user seeded for local development
type DemoAccount struct {
	Email string
	Name  string
	Role  string
}

var DemoAccounts = []DemoAccount{
	{Email: "admin@proshift.local", Name: "ProShift Admin", Role: constants.RoleAdmin},
	{Email: "rider@proshift.local", Name: "Demo Rider", Role: constants.RoleRider},
	{Email: "customer@proshift.local", Name: "Demo Customer", Role: constants.RoleUser},
}

// Result counts what a seeding run inserted
type Result struct {
	Inserted int
	Skipped  int
	Failed   int
}

// SeedDemoData inserts the demo accounts, plus an approved rider profile for
// every rider account, skipping whatever already exists.
func SeedDemoData(ctx context.Context, store database.Store, at time.Time) (Result, error) {
	logger.Printf("🔍 Checking demo accounts...")
	var res Result

	for _, acc := range DemoAccounts {
		_, err := store.FindUserByEmail(ctx, acc.Email)
		switch {
		case err == nil:
			res.Skipped++
		case errors.Is(err, database.ErrNotFound):
			if _, err := store.InsertUser(ctx, &user.User{
				Email:     acc.Email,
				Name:      acc.Name,
				Role:      acc.Role,
				CreatedAt: at,
				LastLogin: at,
			}); err != nil {
				logger.Printf("❌ Failed to seed user %s: %v", acc.Email, err)
				res.Failed++
				continue
			}
			logger.Printf("✅ Added: %s (%s)", acc.Email, acc.Role)
			res.Inserted++
		default:
			return res, err
		}

		if acc.Role == constants.RoleRider {
			if err := seedRiderProfile(ctx, store, acc, at, &res); err != nil {
				return res, err
			}
		}
	}

	logger.Printf("🎉 Seeding completed! inserted %d, skipped %d, failed %d", res.Inserted, res.Skipped, res.Failed)
	return res, nil
}

func seedRiderProfile(ctx context.Context, store database.Store, acc DemoAccount, at time.Time, res *Result) error {
	_, err := store.FindRiderByEmail(ctx, acc.Email)
	if err == nil {
		res.Skipped++
		return nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return err
	}

	approved := at
	_, err = store.InsertRider(ctx, &rider.Rider{
		Name:             acc.Name,
		Email:            acc.Email,
		Age:              25,
		Phone:            "01700000000",
		NID:              "0000000000",
		Region:           "Dhaka",
		District:         "Dhaka",
		BikeBrand:        "Honda",
		BikeRegistration: "DHAKA-METRO-HA-00-0000",
		Status:           constants.RiderActive,
		WorkStatus:       constants.WorkAvailable,
		CreatedAt:        at,
		ApprovedAt:       &approved,
	})
	if err != nil {
		logger.Printf("❌ Failed to seed rider profile %s: %v", acc.Email, err)
		res.Failed++
		return nil
	}
	logger.Printf("✅ Added rider profile: %s", acc.Email)
	res.Inserted++
	return nil
}
