package config

import (
	"log"

	"p9e.in/fuelnet/models"
)

// SeedFuelTypes creates the standard fuel grades if none exist yet.
func SeedFuelTypes() {
	var count int64
	DB.Model(&models.FuelType{}).Count(&count)
	if count > 0 {
		return
	}

	octane := func(n int) *int { return &n }
	fuelTypes := []models.FuelType{
		{Name: "Petrol AI-92", Code: "AI-92", Unit: "liter", Octane: octane(92), IsActive: true},
		{Name: "Petrol AI-95", Code: "AI-95", Unit: "liter", Octane: octane(95), IsActive: true},
		{Name: "Petrol AI-98", Code: "AI-98", Unit: "liter", Octane: octane(98), IsActive: true},
		{Name: "Diesel", Code: "DT", Unit: "liter", IsActive: true},
		{Name: "Liquefied Gas", Code: "GAS", Unit: "liter", IsActive: true},
	}
	if err := DB.Create(&fuelTypes).Error; err != nil {
		log.Printf("Warning: fuel type seeding failed: %v", err)
		return
	}
	log.Printf("Seeded %d fuel types", len(fuelTypes))
}
