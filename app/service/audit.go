package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-console/app/auth"
	"github.com/vibast-solutions/ms-go-console/app/dto"
	"github.com/vibast-solutions/ms-go-console/app/entity"
	"github.com/vibast-solutions/ms-go-console/app/repository"
	"github.com/vibast-solutions/ms-go-console/app/rpcerr"
	"github.com/vibast-solutions/ms-go-console/app/types"
)

// auditEntry is written in the same transaction as the mutation it records.
type auditEntry struct {
	Event       string
	Description string
	Targets     []entity.AuditLogTarget
}

func target(kind, id, name string) entity.AuditLogTarget {
	t := entity.AuditLogTarget{Type: kind, ID: id}
	if name != "" {
		t.Name = sql.NullString{String: name, Valid: true}
	}
	return t
}

func insertAuditLogs(ctx context.Context, db repository.DBTX, caller *auth.Caller, workspaceID string, entries ...auditEntry) error {
	repo := repository.NewAuditLogRepository(db)
	now := time.Now()
	for _, entry := range entries {
		log := &entity.AuditLog{
			ID:          newID(prefixAuditLog),
			WorkspaceID: workspaceID,
			Bucket:      entity.AuditBucketDashboard,
			Event:       entry.Event,
			Time:        now.UnixMilli(),
			Display:     entry.Description,
			RemoteIP:    optionalString(caller.RemoteIP),
			UserAgent:   optionalString(caller.UserAgent),
			ActorType:   caller.ActorType,
			ActorID:     caller.ActorID,
			ActorName:   optionalString(caller.ActorName),
			CreatedAt:   now,
			Targets:     entry.Targets,
		}
		if err := repo.Insert(ctx, log); err != nil {
			return err
		}
	}
	return nil
}

type AuditService interface {
	List(ctx context.Context, caller *auth.Caller, req *types.ListAuditLogsRequest) (*dto.AuditLogPage, error)
}

type auditService struct {
	db *sql.DB
}

func NewAuditService(db *sql.DB) AuditService {
	return &auditService{db: db}
}

func (s *auditService) List(ctx context.Context, caller *auth.Caller, req *types.ListAuditLogsRequest) (*dto.AuditLogPage, error) {
	bucket := req.Bucket
	if bucket == "" {
		bucket = entity.AuditBucketDashboard
	}
	limit := req.Limit
	if limit <= 0 || limit > types.MaxAuditLimit {
		limit = types.DefaultAuditLimit
	}

	filter := repository.AuditFilter{
		WorkspaceID: caller.WorkspaceID,
		Bucket:      bucket,
		Events:      req.Events,
		Users:       req.Users,
		Limit:       limit,
	}
	if req.Cursor != nil {
		filter.BeforeTime = req.Cursor.Time
		filter.BeforeID = req.Cursor.ID
	}

	logs, err := repository.NewAuditLogRepository(s.db).List(ctx, filter)
	if err != nil {
		return nil, rpcerr.Internal("load the audit logs", err)
	}

	page := &dto.AuditLogPage{Logs: dto.NewAuditLogs(logs)}
	if len(logs) == limit {
		last := logs[len(logs)-1]
		page.NextCursor = &dto.AuditCursor{Time: last.Time, ID: last.ID}
	}
	return page, nil
}

func optionalString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func optionalStringPtr(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return optionalString(*value)
}

// asRPCError keeps domain errors and wraps anything else as an internal failure.
func asRPCError(action string, err error) error {
	var rpcErr *rpcerr.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return rpcerr.Internal(action, err)
}
