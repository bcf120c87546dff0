package repository

import "gorm.io/gorm"

// Repositories 仓储集合
type Repositories struct {
	User        *UserRepository
	Customer    *CustomerRepository
	Vehicle     *VehicleRepository
	Warranty    *WarrantyRepository
	Warehouse   *WarehouseRepository
	Component   *ComponentRepository
	Stock       *StockRepository
	Reservation *ReservationRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Customer:    NewCustomerRepository(db),
		Vehicle:     NewVehicleRepository(db),
		Warranty:    NewWarrantyRepository(db),
		Warehouse:   NewWarehouseRepository(db),
		Component:   NewComponentRepository(db),
		Stock:       NewStockRepository(db),
		Reservation: NewReservationRepository(db),
	}
}
