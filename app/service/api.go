package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-console/app/auth"
	"github.com/vibast-solutions/ms-go-console/app/dto"
	"github.com/vibast-solutions/ms-go-console/app/entity"
	"github.com/vibast-solutions/ms-go-console/app/repository"
	"github.com/vibast-solutions/ms-go-console/app/rpcerr"
	"github.com/vibast-solutions/ms-go-console/app/types"

	"github.com/sirupsen/logrus"
)

var (
	ErrAPINotFound        = rpcerr.NotFound("The API does not exist. Please try again or contact support")
	ErrAPIDeleteProtected = rpcerr.New(rpcerr.CodePreconditionFailed, "The API has delete protection enabled. Disable it before deleting the API")
)

type APIService interface {
	Create(ctx context.Context, caller *auth.Caller, req *types.CreateAPIRequest) (*dto.IDResult, error)
	List(ctx context.Context, caller *auth.Caller) ([]dto.API, error)
	Get(ctx context.Context, caller *auth.Caller, req *types.APIRequest) (*dto.API, error)
	UpdateName(ctx context.Context, caller *auth.Caller, req *types.UpdateAPINameRequest) error
	UpdateDeleteProtection(ctx context.Context, caller *auth.Caller, req *types.UpdateAPIDeleteProtectionRequest) error
	UpdateIPWhitelist(ctx context.Context, caller *auth.Caller, req *types.UpdateAPIIPWhitelistRequest) error
	Delete(ctx context.Context, caller *auth.Caller, req *types.APIRequest) error
}

type apiService struct {
	db *sql.DB
}

func NewAPIService(db *sql.DB) APIService {
	return &apiService{db: db}
}

func (s *apiService) Create(ctx context.Context, caller *auth.Caller, req *types.CreateAPIRequest) (*dto.IDResult, error) {
	now := time.Now()
	keyAuth := &entity.KeyAuth{
		ID:          newID(prefixKeyAuth),
		WorkspaceID: caller.WorkspaceID,
		CreatedAt:   now,
	}
	api := &entity.API{
		ID:          newID(prefixAPI),
		WorkspaceID: caller.WorkspaceID,
		KeyAuthID:   keyAuth.ID,
		Name:        req.Name,
		IPWhitelist: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, rpcerr.Internal("create the API", err)
	}
	defer tx.Rollback()

	if err = repository.NewKeyAuthRepository(tx).Create(ctx, keyAuth); err != nil {
		return nil, rpcerr.Internal("create the API", err)
	}
	if err = repository.NewAPIRepository(tx).Create(ctx, api); err != nil {
		return nil, rpcerr.Internal("create the API", err)
	}
	if err = insertAuditLogs(ctx, tx, caller, caller.WorkspaceID, auditEntry{
		Event:       "api.create",
		Description: "Created " + api.ID,
		Targets: []entity.AuditLogTarget{
			target("api", api.ID, api.Name),
			target("keyAuth", keyAuth.ID, ""),
		},
	}); err != nil {
		return nil, rpcerr.Internal("create the API", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, rpcerr.Internal("create the API", err)
	}

	logrus.WithFields(logrus.Fields{
		"workspace_id": caller.WorkspaceID,
		"api_id":       api.ID,
	}).Info("API created")
	return &dto.IDResult{ID: api.ID}, nil
}

func (s *apiService) List(ctx context.Context, caller *auth.Caller) ([]dto.API, error) {
	apis, err := repository.NewAPIRepository(s.db).ListByWorkspace(ctx, caller.WorkspaceID)
	if err != nil {
		return nil, rpcerr.Internal("load the APIs", err)
	}
	return dto.NewAPIs(apis), nil
}

func (s *apiService) Get(ctx context.Context, caller *auth.Caller, req *types.APIRequest) (*dto.API, error) {
	api, err := s.find(ctx, s.db, caller.WorkspaceID, req.APIID)
	if err != nil {
		return nil, err
	}
	view := dto.NewAPI(api)
	return &view, nil
}

func (s *apiService) UpdateName(ctx context.Context, caller *auth.Caller, req *types.UpdateAPINameRequest) error {
	return s.update(ctx, caller, req.APIID, "update the API name", func(api *entity.API) auditEntry {
		previous := api.Name
		api.Name = req.Name
		return auditEntry{
			Event:       "api.update",
			Description: "Changed " + api.ID + " name from " + previous + " to " + req.Name,
		}
	})
}

func (s *apiService) UpdateDeleteProtection(ctx context.Context, caller *auth.Caller, req *types.UpdateAPIDeleteProtectionRequest) error {
	enabled := *req.Enabled
	return s.update(ctx, caller, req.APIID, "update the delete protection", func(api *entity.API) auditEntry {
		api.DeleteProtection = enabled
		state := "Disabled"
		if enabled {
			state = "Enabled"
		}
		return auditEntry{
			Event:       "api.update",
			Description: state + " delete protection for " + api.ID,
		}
	})
}

func (s *apiService) UpdateIPWhitelist(ctx context.Context, caller *auth.Caller, req *types.UpdateAPIIPWhitelistRequest) error {
	return s.update(ctx, caller, req.APIID, "update the IP whitelist", func(api *entity.API) auditEntry {
		api.IPWhitelist = req.IPWhitelist
		description := "Removed the IP whitelist from " + api.ID
		if len(req.IPWhitelist) > 0 {
			description = "Changed the IP whitelist of " + api.ID + " to " + strings.Join(req.IPWhitelist, ", ")
		}
		return auditEntry{Event: "api.update", Description: description}
	})
}

// Delete soft-deletes the API together with its keyspace and every key in it.
func (s *apiService) Delete(ctx context.Context, caller *auth.Caller, req *types.APIRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rpcerr.Internal("delete the API", err)
	}
	defer tx.Rollback()

	api, err := s.find(ctx, tx, caller.WorkspaceID, req.APIID)
	if err != nil {
		return err
	}
	if api.DeleteProtection {
		return ErrAPIDeleteProtected
	}

	keys, err := repository.NewKeyRepository(tx).ListByKeyAuth(ctx, caller.WorkspaceID, api.KeyAuthID)
	if err != nil {
		return rpcerr.Internal("delete the API", err)
	}

	now := time.Now()
	if err = repository.NewAPIRepository(tx).SoftDelete(ctx, caller.WorkspaceID, api.ID, now); err != nil {
		return rpcerr.Internal("delete the API", err)
	}
	if err = repository.NewKeyAuthRepository(tx).SoftDelete(ctx, api.KeyAuthID, now); err != nil {
		return rpcerr.Internal("delete the API", err)
	}
	if err = repository.NewKeyRepository(tx).SoftDeleteByKeyAuth(ctx, api.KeyAuthID, now); err != nil {
		return rpcerr.Internal("delete the API", err)
	}

	entries := make([]auditEntry, 0, len(keys)+1)
	entries = append(entries, auditEntry{
		Event:       "api.delete",
		Description: "Deleted " + api.ID,
		Targets:     []entity.AuditLogTarget{target("api", api.ID, api.Name)},
	})
	for _, key := range keys {
		entries = append(entries, auditEntry{
			Event:       "key.delete",
			Description: "Deleted " + key.ID + " as part of the " + api.ID + " deletion",
			Targets: []entity.AuditLogTarget{
				target("api", api.ID, api.Name),
				target("key", key.ID, key.Name.String),
			},
		})
	}
	if err = insertAuditLogs(ctx, tx, caller, caller.WorkspaceID, entries...); err != nil {
		return rpcerr.Internal("delete the API", err)
	}

	if err = tx.Commit(); err != nil {
		return rpcerr.Internal("delete the API", err)
	}

	logrus.WithFields(logrus.Fields{
		"workspace_id": caller.WorkspaceID,
		"api_id":       api.ID,
		"keys":         len(keys),
	}).Info("API deleted")
	return nil
}

func (s *apiService) update(ctx context.Context, caller *auth.Caller, apiID, action string, mutate func(api *entity.API) auditEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rpcerr.Internal(action, err)
	}
	defer tx.Rollback()

	api, err := s.find(ctx, tx, caller.WorkspaceID, apiID)
	if err != nil {
		return err
	}

	entry := mutate(api)
	entry.Targets = []entity.AuditLogTarget{target("api", api.ID, api.Name)}
	api.UpdatedAt = time.Now()

	if err = repository.NewAPIRepository(tx).Update(ctx, api); err != nil {
		return rpcerr.Internal(action, err)
	}
	if err = insertAuditLogs(ctx, tx, caller, caller.WorkspaceID, entry); err != nil {
		return rpcerr.Internal(action, err)
	}
	if err = tx.Commit(); err != nil {
		return rpcerr.Internal(action, err)
	}
	return nil
}

func (s *apiService) find(ctx context.Context, db repository.DBTX, workspaceID, apiID string) (*entity.API, error) {
	api, err := repository.NewAPIRepository(db).FindByID(ctx, workspaceID, apiID)
	if err != nil {
		return nil, rpcerr.Internal("load the API", err)
	}
	if api == nil {
		return nil, ErrAPINotFound
	}
	return api, nil
}
