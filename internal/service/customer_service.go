package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/entity"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/repository"
	"gorm.io/gorm"
)

// CustomerService 车主与车辆登记
type CustomerService struct {
	customers *repository.CustomerRepository
	vehicles  *repository.VehicleRepository
}

func NewCustomerService(customers *repository.CustomerRepository, vehicles *repository.VehicleRepository) *CustomerService {
	return &CustomerService{customers: customers, vehicles: vehicles}
}

type CreateCustomerRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Email   string `json:"email" binding:"omitempty,email"`
	Address string `json:"address"`
}

func (s *CustomerService) CreateCustomer(ctx context.Context, req CreateCustomerRequest, actor Identity) (*entity.Customer, error) {
	if _, err := s.customers.GetByPhone(ctx, req.Phone); err == nil {
		return nil, fmt.Errorf("%w: phone %s", ErrDuplicate, req.Phone)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	c := &entity.Customer{
		Name:            req.Name,
		Phone:           req.Phone,
		Email:           req.Email,
		Address:         req.Address,
		ServiceCenterID: actor.ServiceCenterID,
	}
	if err := s.customers.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, id string) (*entity.Customer, error) {
	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: customer %s", ErrNotFound, id)
		}
		return nil, err
	}
	return c, nil
}

func (s *CustomerService) ListCustomers(ctx context.Context, keyword string, page, limit int, actor Identity) ([]entity.Customer, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.customers.List(ctx, repository.CustomerListParams{
		ServiceCenterID: actor.scope(),
		Keyword:         keyword,
		Page:            page,
		Limit:           limit,
	})
}

type CreateVehicleRequest struct {
	VIN               string     `json:"vin" binding:"required,min=11,max=17"`
	Model             string     `json:"model" binding:"required"`
	Year              int        `json:"year"`
	Color             string     `json:"color"`
	OwnerID           string     `json:"ownerId" binding:"required,uuid"`
	WarrantyStartDate *time.Time `json:"warrantyStartDate"`
	WarrantyEndDate   *time.Time `json:"warrantyEndDate"`
}

func (s *CustomerService) CreateVehicle(ctx context.Context, req CreateVehicleRequest) (*entity.Vehicle, error) {
	if _, err := s.customers.GetByID(ctx, req.OwnerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: owner %s", ErrNotFound, req.OwnerID)
		}
		return nil, err
	}
	if _, err := s.vehicles.GetByVIN(ctx, req.VIN); err == nil {
		return nil, fmt.Errorf("%w: vin %s", ErrDuplicate, req.VIN)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	v := &entity.Vehicle{
		VIN:               req.VIN,
		Model:             req.Model,
		Year:              req.Year,
		Color:             req.Color,
		OwnerID:           req.OwnerID,
		WarrantyStartDate: req.WarrantyStartDate,
		WarrantyEndDate:   req.WarrantyEndDate,
	}
	if err := s.vehicles.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *CustomerService) GetVehicle(ctx context.Context, id string) (*entity.Vehicle, error) {
	v, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: vehicle %s", ErrNotFound, id)
		}
		return nil, err
	}
	return v, nil
}

func (s *CustomerService) GetVehicleByVIN(ctx context.Context, vin string) (*entity.Vehicle, error) {
	v, err := s.vehicles.GetByVIN(ctx, vin)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: vin %s", ErrNotFound, vin)
		}
		return nil, err
	}
	return v, nil
}

func (s *CustomerService) ListVehicles(ctx context.Context, ownerID, model, keyword string, page, limit int) ([]entity.Vehicle, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.vehicles.List(ctx, repository.VehicleListParams{
		OwnerID: ownerID,
		Model:   model,
		Keyword: keyword,
		Page:    page,
		Limit:   limit,
	})
}
