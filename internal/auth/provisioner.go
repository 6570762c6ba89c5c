package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"

	"github.com/information-sharing-networks/dbc-connect/internal/database"
	"github.com/information-sharing-networks/dbc-connect/internal/identity"
	"github.com/information-sharing-networks/dbc-connect/internal/logger"
	"github.com/information-sharing-networks/dbc-connect/internal/session"
)

// AccountStore is the subset of the account queries used at login
type AccountStore interface {
	GetAccountByName(ctx context.Context, name string) (database.Account, error)
	CreateAccount(ctx context.Context, arg database.CreateAccountParams) (database.Account, error)
}

// Provisioner signs users in with an identity token, creating the remote customer and the
// local account on first login.
type Provisioner struct {
	validator  *Validator
	accounts   AccountStore
	customers  identity.CustomerProvisioner
	bcryptCost int

	// first logins for the same business number are collapsed
	group singleflight.Group
}

func NewProvisioner(validator *Validator, accounts AccountStore, customers identity.CustomerProvisioner) *Provisioner {
	return &Provisioner{
		validator:  validator,
		accounts:   accounts,
		customers:  customers,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// Login validates the token and returns the session state for the user.
// Nothing is written locally or remotely when the token is rejected.
// The returned state has no id or lifetime yet, see session.Store.Create.
func (p *Provisioner) Login(ctx context.Context, raw string) (*session.State, error) {
	reqLogger := logger.ContextRequestLogger(ctx)

	claims, err := p.validator.Parse(ctx, raw)
	if err != nil {
		return nil, err
	}

	logger.ContextWithLogAttrs(ctx, slog.String("abn", claims.ABN))

	account, err := p.resolveAccount(ctx, claims)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(claims.ABN)); err != nil {
		return nil, newAuthError(CodeAuthenticationFailed, "account credentials do not match the token", err)
	}

	canonical, err := claims.Canonical()
	if err != nil {
		return nil, newAuthError(CodeTokenMalformed, "token claims could not be canonicalized", err)
	}

	reqLogger.Info("user signed in",
		slog.String("abn", claims.ABN),
		slog.String("customer_id", account.CustomerID))

	return &session.State{
		AccountID:  account.ID,
		ABN:        claims.ABN,
		Token:      raw,
		Claims:     canonical,
		UserURN:    claims.UserURN(),
		CustomerID: account.CustomerID,
	}, nil
}

// resolveAccount returns the account named after the business number, provisioning it when absent
func (p *Provisioner) resolveAccount(ctx context.Context, claims *Claims) (database.Account, error) {
	account, err := p.accounts.GetAccountByName(ctx, claims.ABN)
	if err == nil {
		return account, nil
	}
	if !database.IsNotFound(err) {
		return database.Account{}, newAuthError(CodeProvisioningFailed, "failed to read account", err)
	}

	v, err, _ := p.group.Do(claims.ABN, func() (any, error) {
		return p.provision(ctx, claims)
	})
	if err != nil {
		return database.Account{}, err
	}
	return v.(database.Account), nil
}

func (p *Provisioner) provision(ctx context.Context, claims *Claims) (database.Account, error) {
	reqLogger := logger.ContextRequestLogger(ctx)

	// another caller may have finished provisioning while this one waited.
	// The customer is only created once the account is known to be absent.
	account, err := p.accounts.GetAccountByName(ctx, claims.ABN)
	if err == nil {
		return account, nil
	}
	if !database.IsNotFound(err) {
		return database.Account{}, newAuthError(CodeProvisioningFailed, "failed to read account", err)
	}

	customer, err := p.customers.CreateCustomer(ctx, claims.PartyIDs)
	if err != nil {
		return database.Account{}, newAuthError(CodeProvisioningFailed, "failed to create customer", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(claims.ABN), p.bcryptCost)
	if err != nil {
		return database.Account{}, newAuthError(CodeProvisioningFailed, "failed to hash account password", err)
	}

	account, err = p.accounts.CreateAccount(ctx, database.CreateAccountParams{
		Name:       claims.ABN,
		Email:      claims.ABN,
		CustomerID: customer.UUID,
		Password:   string(hash),
	})
	if err == nil {
		reqLogger.Info("account provisioned",
			slog.String("abn", claims.ABN),
			slog.String("customer_id", customer.UUID))
		return account, nil
	}

	if !database.IsUniqueViolation(err) && !errors.Is(err, database.ErrAccountExists) {
		return database.Account{}, newAuthError(CodeProvisioningFailed, "failed to create account", err)
	}

	// another process created the account first
	reqLogger.Warn("account created concurrently - using existing account",
		slog.String("abn", claims.ABN),
		slog.String("unused_customer_id", customer.UUID))

	account, err = p.accounts.GetAccountByName(ctx, claims.ABN)
	if err != nil {
		return database.Account{}, newAuthError(CodeProvisioningFailed, fmt.Sprintf("failed to read account %s", claims.ABN), err)
	}
	return account, nil
}
