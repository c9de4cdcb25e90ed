// Package partner holds the customer use cases of the admin API.
package partner

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storehub/backend/internal/domain/partner"
	"github.com/storehub/backend/internal/domain/shared"
)

// CustomerService handles customer-related business operations
type CustomerService struct {
	customerRepo partner.CustomerRepository
	logger       *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo partner.CustomerRepository, logger *zap.Logger) *CustomerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{customerRepo: customerRepo, logger: logger}
}

// Create creates a customer. Email, when given, must be unique in the organization.
func (s *CustomerService) Create(ctx context.Context, organizationID uuid.UUID, req CreateCustomerRequest) (*CustomerResponse, error) {
	customer, err := partner.NewCustomer(organizationID, req.Name, req.Email, req.Phone, req.Document)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, organizationID, customer.Email, nil); err != nil {
		return nil, err
	}
	if req.Address != nil {
		customer.SetAddress(req.Address.toDomain())
	}
	if req.Notes != "" {
		customer.SetNotes(req.Notes)
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	s.logger.Info("Customer created",
		zap.String("organization_id", organizationID.String()),
		zap.String("customer_id", customer.ID.String()))

	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// GetByID retrieves a customer
func (s *CustomerService) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// List returns a page of customers matching the filter's search on name, email or document
func (s *CustomerService) List(ctx context.Context, organizationID uuid.UUID, f CustomerListFilter) (*shared.Paginated[CustomerResponse], error) {
	filter := f.toShared()
	customers, total, err := s.customerRepo.FindAllForTenant(ctx, organizationID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]CustomerResponse, len(customers))
	for i := range customers {
		items[i] = ToCustomerResponse(&customers[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Update replaces a customer's contact fields
func (s *CustomerService) Update(ctx context.Context, organizationID, id uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, organizationID, id)
	if err != nil {
		return nil, err
	}
	if err := customer.Update(req.Name, req.Email, req.Phone, req.Document); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, organizationID, customer.Email, &customer.ID); err != nil {
		return nil, err
	}
	if req.Address != nil {
		customer.SetAddress(req.Address.toDomain())
	}
	if req.Notes != nil {
		customer.SetNotes(*req.Notes)
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// Delete removes a customer
func (s *CustomerService) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	if err := s.customerRepo.DeleteForTenant(ctx, organizationID, id); err != nil {
		return err
	}
	s.logger.Info("Customer deleted",
		zap.String("organization_id", organizationID.String()),
		zap.String("customer_id", id.String()))
	return nil
}

func (s *CustomerService) ensureEmailFree(ctx context.Context, organizationID uuid.UUID, email string, excludeID *uuid.UUID) error {
	if email == "" {
		return nil
	}
	exists, err := s.customerRepo.ExistsByEmail(ctx, organizationID, email, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.ErrAlreadyExists.WithMessage("A customer with email %s already exists", email)
	}
	return nil
}
