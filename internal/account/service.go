package account

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yanizio/peneus/internal/apperr"
	"github.com/yanizio/peneus/internal/database"
	"github.com/yanizio/peneus/internal/entity"
	"github.com/yanizio/peneus/internal/role"
)

const minPasswordLen = 8

var errBadCredentials = apperr.Unauthorized("Invalid email address or password.")

// Service manages accounts over one database.
type Service struct {
	db    database.Database
	store *entity.Store
	log   *zap.SugaredLogger
	valid *validator.Validate
	cost  int
	now   func() time.Time
}

// NewService binds a Service to db.
func NewService(db database.Database, log *zap.SugaredLogger) *Service {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Service{
		db:    db,
		store: entity.NewStore(db, log),
		log:   log,
		valid: validator.New(),
		cost:  bcrypt.DefaultCost,
		now:   time.Now,
	}
}

// View returns the account view for id, or nil.
func (s *Service) View(ctx context.Context, id int64) *View {
	if id <= 0 {
		return nil
	}
	return entity.FindByID[View](ctx, s.store, id)
}

// FindByEmail matches case-insensitively on the trimmed address.
func (s *Service) FindByEmail(ctx context.Context, email string) *Account {
	return entity.FindFirst[Account](ctx, s.store, entity.Query{
		Where:    "email = :email",
		Bindings: map[string]any{"email": normaliseEmail(email)},
	})
}

// Register creates an activated account.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (*Account, error) {
	email = normaliseEmail(email)
	displayName = strings.TrimSpace(displayName)

	if err := s.valid.Var(email, "required,email"); err != nil {
		return nil, apperr.InvalidInput("Invalid email address.")
	}
	if len(password) < minPasswordLen {
		return nil, apperr.InvalidInput("Password must be at least %d characters.", minPasswordLen)
	}
	if displayName == "" {
		return nil, apperr.InvalidInput("Display name is required.")
	}
	if s.FindByEmail(ctx, email) != nil {
		return nil, apperr.Conflict("Email address is already registered.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, http.StatusInternalServerError, "Could not hash password.")
	}

	activated := s.now()
	a := &Account{
		Email:         email,
		PasswordHash:  string(hash),
		DisplayName:   displayName,
		TimeActivated: &activated,
	}
	if !s.store.Save(ctx, a) {
		return nil, apperr.Internal("Could not create account.")
	}
	s.log.Infow("account registered", "account", a.ID)
	return a, nil
}

// Authenticate checks the credentials and stamps the login time.  Unknown
// addresses and wrong passwords fail identically.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	a := s.FindByEmail(ctx, email)
	if a == nil {
		return nil, errBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return nil, errBadCredentials
	}

	login := s.now()
	a.TimeLastLogin = &login
	if !s.store.Save(ctx, a) {
		s.log.Warnw("could not record login time", "account", a.ID)
	}
	return a, nil
}

// Grant gives the account r, replacing any existing grants.
func (s *Service) Grant(ctx context.Context, accountID int64, r role.Role) error {
	return s.db.Transaction(ctx, func(tx database.Executor) error {
		st := s.store.WithExecutor(tx)
		if err := DeleteRoles(ctx, st, &Account{Base: entity.Base{ID: accountID}}); err != nil {
			return err
		}
		if r == role.None {
			return nil
		}
		if !st.Save(ctx, &AccountRole{AccountID: accountID, Role: int64(r)}) {
			return apperr.Internal("Could not grant role.")
		}
		return nil
	})
}

// Delete removes a together with its role grants, atomically.
func (s *Service) Delete(ctx context.Context, a *Account) error {
	id := a.ID
	if id == 0 {
		return apperr.NotFound("Account not found.")
	}
	err := s.db.Transaction(ctx, func(tx database.Executor) error {
		st := s.store.WithExecutor(tx)
		if err := DeleteRoles(ctx, st, a); err != nil {
			return err
		}
		if !st.Delete(ctx, a) {
			return apperr.Internal("Could not delete account %d.", id)
		}
		return nil
	})
	if err != nil {
		a.ID = id
	}
	return err
}

// DeleteRoles removes every role grant of the account e.  It runs before
// the account row goes away, inside the caller's transaction.
func DeleteRoles(ctx context.Context, st *entity.Store, e entity.Entity) error {
	id := entity.IDOf(e)
	roles := entity.Find[AccountRole](ctx, st, entity.Query{
		Where:    "accountId = :accountId",
		Bindings: map[string]any{"accountId": id},
	})
	for _, r := range roles {
		if !st.Delete(ctx, r) {
			return apperr.Internal("Could not delete role %d of account %d.", r.ID, id)
		}
	}
	return nil
}

func normaliseEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
