package entity

import "gorm.io/gorm"

// AutoMigrate creates all marketplace tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// identities
		&User{},
		&FarmerProfile{},
		&SHGProfile{},
		&ConsumerProfile{},

		// supply chain
		&Supply{},
		&TraceabilityRecord{},
		&Product{},

		// purchasing
		&Order{},
		&OrderItem{},
		&OrderStatusHistory{},

		// money
		&Payment{},
	)
}
