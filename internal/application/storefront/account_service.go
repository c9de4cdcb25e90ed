package storefront

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appshared "github.com/storehub/backend/internal/application/shared"
	apptrade "github.com/storehub/backend/internal/application/trade"
	"github.com/storehub/backend/internal/domain/identity"
	"github.com/storehub/backend/internal/domain/partner"
	"github.com/storehub/backend/internal/domain/shared"
	"github.com/storehub/backend/internal/domain/storefront"
	"github.com/storehub/backend/internal/infrastructure/auth"
)

// OrderLister lists sales; satisfied by the trade SaleService
type OrderLister interface {
	List(ctx context.Context, organizationID uuid.UUID, f apptrade.SaleListFilter) (*shared.Paginated[apptrade.SaleResponse], error)
}

// AccountService manages shopper accounts on a storefront
type AccountService struct {
	txScope      appshared.TransactionScope
	loader       storeLoader
	catalogUsers storefront.CatalogUserRepository
	customers    partner.CustomerRepository
	orders       OrderLister
	jwt          *auth.JWTService
	logger       *zap.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(
	txScope appshared.TransactionScope,
	orgs identity.OrganizationRepository,
	settings storefront.CatalogSettingsRepository,
	catalogUsers storefront.CatalogUserRepository,
	customers partner.CustomerRepository,
	orders OrderLister,
	jwt *auth.JWTService,
	logger *zap.Logger,
) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		txScope:      txScope,
		loader:       storeLoader{orgs: orgs, settings: settings},
		catalogUsers: catalogUsers,
		customers:    customers,
		orders:       orders,
		jwt:          jwt,
		logger:       logger,
	}
}

// SignUp creates a shopper account. A customer already registered by staff
// with the same email is linked instead of duplicated.
func (s *AccountService) SignUp(ctx context.Context, slug string, req SignUpRequest) (*AuthResult, error) {
	st, err := s.loader.load(ctx, slug)
	if err != nil {
		return nil, err
	}
	orgID := st.org.ID
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user *storefront.CatalogUser
	var customer *partner.Customer
	err = s.txScope.Execute(ctx, func(repos appshared.Repositories) error {
		exists, err := repos.CatalogUsers().ExistsByEmail(ctx, orgID, email)
		if err != nil {
			return err
		}
		if exists {
			return shared.ErrAlreadyExists.WithMessage("An account with this email already exists")
		}

		customer, err = repos.Customers().FindByEmail(ctx, orgID, email)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			customer, err = partner.NewCustomer(orgID, req.Name, email, req.Phone, req.Document)
			if err != nil {
				return err
			}
			if err := repos.Customers().Save(ctx, customer); err != nil {
				return err
			}
		case err != nil:
			return err
		}

		user, err = storefront.NewCatalogUser(orgID, customer.ID, req.Name, email, req.Password)
		if err != nil {
			return err
		}
		user.RecordLogin()
		return repos.CatalogUsers().Save(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Shopper signed up",
		zap.String("organization_id", orgID.String()),
		zap.String("catalog_user_id", user.ID.String()))
	return s.issue(user, customer)
}

// Login authenticates a shopper of the storefront behind slug
func (s *AccountService) Login(ctx context.Context, slug string, req LoginRequest) (*AuthResult, error) {
	st, err := s.loader.load(ctx, slug)
	if err != nil {
		return nil, err
	}
	invalid := shared.ErrUnauthorized.WithMessage("Invalid email or password")

	user, err := s.catalogUsers.FindByEmail(ctx, st.org.ID, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if !user.VerifyPassword(req.Password) {
		return nil, invalid
	}
	user.RecordLogin()
	if err := s.catalogUsers.Save(ctx, user); err != nil {
		return nil, err
	}
	customer, err := s.customers.FindByIDForTenant(ctx, st.org.ID, user.CustomerID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	return s.issue(user, customer)
}

// Me returns the shopper's account on the storefront behind slug
func (s *AccountService) Me(ctx context.Context, slug string, shopper Shopper) (*AccountInfo, error) {
	if err := s.authorize(ctx, slug, shopper); err != nil {
		return nil, err
	}
	user, err := s.catalogUsers.FindByID(ctx, shopper.OrganizationID, shopper.CatalogUserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthorized.WithMessage("Account no longer exists")
		}
		return nil, err
	}
	customer, err := s.customers.FindByIDForTenant(ctx, shopper.OrganizationID, user.CustomerID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	info := toAccountInfo(user, customer)
	return &info, nil
}

// MyOrders lists the shopper's sales, newest first
func (s *AccountService) MyOrders(ctx context.Context, slug string, shopper Shopper, f OrdersFilter) (*shared.Paginated[apptrade.SaleResponse], error) {
	if err := s.authorize(ctx, slug, shopper); err != nil {
		return nil, err
	}
	return s.orders.List(ctx, shopper.OrganizationID, apptrade.SaleListFilter{
		CustomerID: shopper.CustomerID.String(),
		Page:       f.Page,
		PageSize:   f.PageSize,
	})
}

// authorize rejects a shopper token issued by another store
func (s *AccountService) authorize(ctx context.Context, slug string, shopper Shopper) error {
	st, err := s.loader.load(ctx, slug)
	if err != nil {
		return err
	}
	if shopper.OrganizationID != st.org.ID {
		return shared.ErrForbidden.WithMessage("This account belongs to another store")
	}
	return nil
}

func (s *AccountService) issue(user *storefront.CatalogUser, customer *partner.Customer) (*AuthResult, error) {
	token, err := s.jwt.GenerateCatalogToken(auth.CatalogTokenInput{
		TenantID:      user.OrganizationID,
		CatalogUserID: user.ID,
		CustomerID:    user.CustomerID,
		Email:         user.Email,
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Account: toAccountInfo(user, customer)}, nil
}
