package service

import (
	"context"
	"strings"

	"github.com/swing-terminal/backend/internal/db"
	"github.com/swing-terminal/backend/internal/model"
)

type CredentialStore interface {
	ListCredentials(ctx context.Context, userID int64) ([]model.APICredential, error)
	GetActiveCredential(ctx context.Context, userID int64) (*model.APICredential, error)
	InsertActiveCredential(ctx context.Context, userID int64, appID, appSecret, redirectURL string) (*model.APICredential, error)
	ActivateCredential(ctx context.Context, userID, credentialID int64) error
	DeactivateCredential(ctx context.Context, userID, credentialID int64) error
	UpdateCredential(ctx context.Context, userID, credentialID int64, appID, appSecret, redirectURL string) error
	DeleteCredential(ctx context.Context, userID, credentialID int64) error
}

// CredentialService manages the user's Fyers app credentials and
// enforces the single-active-set invariant on every write.
type CredentialService struct {
	store  CredentialStore
	userID int64
}

func NewCredentialService(store CredentialStore, userID int64) *CredentialService {
	return &CredentialService{store: store, userID: userID}
}

func (s *CredentialService) List(ctx context.Context) ([]model.CredentialResponse, error) {
	creds, err := s.store.ListCredentials(ctx, s.userID)
	if err != nil {
		return nil, err
	}

	out := make([]model.CredentialResponse, 0, len(creds))
	for i := range creds {
		out = append(out, creds[i].Masked())
	}
	return out, nil
}

func (s *CredentialService) Active(ctx context.Context) (*model.CredentialResponse, error) {
	cred, err := s.store.GetActiveCredential(ctx, s.userID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	masked := cred.Masked()
	return &masked, nil
}

// Create stores a new credential set as the active one. Existing sets
// are deactivated, never deleted, in the same transaction.
func (s *CredentialService) Create(ctx context.Context, req model.CredentialRequest) (*model.CredentialResponse, error) {
	if err := validateCredentialRequest(req); err != nil {
		return nil, err
	}

	cred, err := s.store.InsertActiveCredential(ctx, s.userID, req.AppID, req.AppSecret, req.RedirectURL)
	if err != nil {
		return nil, err
	}
	masked := cred.Masked()
	return &masked, nil
}

func (s *CredentialService) Update(ctx context.Context, credentialID int64, req model.CredentialRequest) error {
	if err := validateCredentialRequest(req); err != nil {
		return err
	}

	err := s.store.UpdateCredential(ctx, s.userID, credentialID, req.AppID, req.AppSecret, req.RedirectURL)
	if db.IsNoRows(err) {
		return ErrNotFound
	}
	return err
}

func (s *CredentialService) Activate(ctx context.Context, credentialID int64) error {
	err := s.store.ActivateCredential(ctx, s.userID, credentialID)
	if db.IsNoRows(err) {
		return ErrNotFound
	}
	return err
}

func (s *CredentialService) Deactivate(ctx context.Context, credentialID int64) error {
	err := s.store.DeactivateCredential(ctx, s.userID, credentialID)
	if db.IsNoRows(err) {
		return ErrNotFound
	}
	return err
}

func (s *CredentialService) Delete(ctx context.Context, credentialID int64) error {
	err := s.store.DeleteCredential(ctx, s.userID, credentialID)
	if db.IsNoRows(err) {
		return ErrNotFound
	}
	return err
}

func validateCredentialRequest(req model.CredentialRequest) error {
	if strings.TrimSpace(req.AppID) == "" ||
		strings.TrimSpace(req.AppSecret) == "" ||
		strings.TrimSpace(req.RedirectURL) == "" {
		return ErrInvalidInput
	}
	return nil
}
