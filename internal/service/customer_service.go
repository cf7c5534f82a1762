package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"pizzeria-service/internal/models"
	"pizzeria-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const minPasswordLen = 6

type RegisterInput struct {
	NationalID string
	Name       string
	Surname    string
	Email      string
	Phone      string
	Address    string
	Password   string
	IsAdmin    bool
}

type UpdateCustomerInput struct {
	Name    *string
	Surname *string
	Phone   *string
	Address *string
}

type LoginResult struct {
	Customer    *models.Customer
	AccessToken string
	ExpiresAt   time.Time
}

type CustomerService interface {
	Register(ctx context.Context, in RegisterInput) (*models.Customer, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Authenticate(ctx context.Context, token string) (*Claims, error)
	EnsureAdmin(ctx context.Context, email, password string) error

	Get(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, limit, offset int) ([]models.Customer, int64, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateCustomerInput) (*models.Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type customerService struct {
	customers repository.CustomerRepo
	hasher    PasswordHasher
	tokens    TokenProvider
	accessTTL time.Duration
	log       *zap.Logger
}

func NewCustomerService(customers repository.CustomerRepo, hasher PasswordHasher, tokens TokenProvider, accessTTL time.Duration, log *zap.Logger) CustomerService {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &customerService{
		customers: customers,
		hasher:    hasher,
		tokens:    tokens,
		accessTTL: accessTTL,
		log:       log,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegister(in RegisterInput) error {
	if strings.TrimSpace(in.NationalID) == "" {
		return invalidArgument("national id is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return invalidArgument("name is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return invalidArgument("email is invalid")
	}
	if len(in.Password) < minPasswordLen {
		return invalidArgument("password must be at least 6 characters")
	}
	return nil
}

func (s *customerService) Register(ctx context.Context, in RegisterInput) (*models.Customer, error) {
	in.Email = normalizeEmail(in.Email)
	in.NationalID = strings.TrimSpace(in.NationalID)
	if err := validateRegister(in); err != nil {
		return nil, err
	}

	exists, err := s.customers.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, storageErr("check email", err)
	}
	if exists {
		return nil, ErrEmailExists
	}
	byNID, err := s.customers.GetByNationalID(ctx, in.NationalID)
	if err != nil {
		return nil, storageErr("check national id", err)
	}
	if byNID != nil {
		return nil, ErrNationalIDExists
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	c := &models.Customer{
		NationalID: in.NationalID,
		Name:       strings.TrimSpace(in.Name),
		Surname:    strings.TrimSpace(in.Surname),
		Email:      in.Email,
		Phone:      strings.TrimSpace(in.Phone),
		Address:    strings.TrimSpace(in.Address),
		Password:   hash,
		IsAdmin:    in.IsAdmin,
	}
	if err := s.customers.Create(ctx, c); err != nil {
		// гонка двух регистраций: проверки выше прошли у обеих
		if errors.Is(err, repository.ErrDuplicate) {
			if strings.Contains(repository.ConstraintName(err), "national_id") {
				return nil, ErrNationalIDExists
			}
			return nil, ErrEmailExists
		}
		return nil, storageErr("create customer", err)
	}

	s.log.Info("customer registered", zap.String("customer_id", c.ID.String()), zap.Bool("admin", c.IsAdmin))
	return c, nil
}

func (s *customerService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	c, err := s.customers.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, storageErr("get customer by email", err)
	}
	if c == nil || !s.hasher.Compare(c.Password, password) {
		return nil, ErrInvalidCredentials
	}

	token, exp, err := s.tokens.SignAccess(ctx, c.ID, c.IsAdmin, s.accessTTL)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Customer: c, AccessToken: token, ExpiresAt: exp}, nil
}

func (s *customerService) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.tokens.ParseAndValidateAccess(ctx, token)
	if err != nil {
		s.log.Debug("access token rejected", zap.Error(err))
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// EnsureAdmin создаёт администратора при первом запуске, если его ещё нет.
func (s *customerService) EnsureAdmin(ctx context.Context, email, password string) error {
	exists, err := s.customers.ExistsByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return storageErr("check admin", err)
	}
	if exists {
		return nil
	}
	_, err = s.Register(ctx, RegisterInput{
		NationalID: "admin:" + normalizeEmail(email),
		Name:       "Administrator",
		Email:      email,
		Password:   password,
		IsAdmin:    true,
	})
	return err
}

func (s *customerService) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("get customer", err)
	}
	if c == nil {
		return nil, ErrCustomerNotFound
	}
	return c, nil
}

func (s *customerService) List(ctx context.Context, limit, offset int) ([]models.Customer, int64, error) {
	list, total, err := s.customers.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, storageErr("list customers", err)
	}
	return list, total, nil
}

func (s *customerService) Update(ctx context.Context, id uuid.UUID, in UpdateCustomerInput) (*models.Customer, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalidArgument("name cannot be empty")
		}
		c.Name = name
	}
	if in.Surname != nil {
		c.Surname = strings.TrimSpace(*in.Surname)
	}
	if in.Phone != nil {
		c.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		c.Address = strings.TrimSpace(*in.Address)
	}
	if err := s.customers.UpdateContact(ctx, c); err != nil {
		return nil, storageErr("update customer", err)
	}
	return c, nil
}

func (s *customerService) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.customers.Delete(ctx, id)
	if err != nil {
		return storageErr("delete customer", err)
	}
	if !ok {
		return ErrCustomerNotFound
	}
	s.log.Info("customer deleted with orders", zap.String("customer_id", id.String()))
	return nil
}
