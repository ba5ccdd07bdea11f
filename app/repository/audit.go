package repository

import (
	"context"
	"strings"

	"github.com/vibast-solutions/ms-go-console/app/entity"
)

// AuditFilter narrows an audit log listing. BeforeTime and BeforeID form an
// exclusive cursor over the (time, id) ordering.
type AuditFilter struct {
	WorkspaceID string
	Bucket      string
	Events      []string
	Users       []string
	BeforeTime  int64
	BeforeID    string
	Limit       int
}

type AuditLogRepository struct {
	db DBTX
}

func NewAuditLogRepository(db DBTX) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Insert(ctx context.Context, log *entity.AuditLog) error {
	query := `
		INSERT INTO audit_log (id, workspace_id, bucket, event, time, display, remote_ip, user_agent,
			actor_type, actor_id, actor_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.WorkspaceID,
		log.Bucket,
		log.Event,
		log.Time,
		log.Display,
		log.RemoteIP,
		log.UserAgent,
		log.ActorType,
		log.ActorID,
		log.ActorName,
		log.CreatedAt,
	); err != nil {
		return err
	}

	if len(log.Targets) == 0 {
		return nil
	}

	values := make([]string, 0, len(log.Targets))
	args := make([]interface{}, 0, len(log.Targets)*6)
	for _, target := range log.Targets {
		values = append(values, "(?, ?, ?, ?, ?, ?)")
		args = append(args, log.ID, log.WorkspaceID, target.Type, target.ID, target.Name, log.CreatedAt)
	}
	targetQuery := `INSERT INTO audit_log_target (audit_log_id, workspace_id, type, id, name, created_at) VALUES ` +
		strings.Join(values, ", ")
	_, err := r.db.ExecContext(ctx, targetQuery, args...)
	return err
}

// List returns logs newest first with their targets attached.
func (r *AuditLogRepository) List(ctx context.Context, filter AuditFilter) ([]*entity.AuditLog, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, workspace_id, bucket, event, time, display, remote_ip, user_agent,
		actor_type, actor_id, actor_name, created_at
		FROM audit_log WHERE workspace_id = ? AND bucket = ?`)
	args := []interface{}{filter.WorkspaceID, filter.Bucket}

	if len(filter.Events) > 0 {
		sb.WriteString(` AND event IN (` + placeholders(len(filter.Events)) + `)`)
		args = append(args, stringArgs(filter.Events)...)
	}
	if len(filter.Users) > 0 {
		sb.WriteString(` AND actor_id IN (` + placeholders(len(filter.Users)) + `)`)
		args = append(args, stringArgs(filter.Users)...)
	}
	if filter.BeforeTime > 0 {
		sb.WriteString(` AND (time < ? OR (time = ? AND id < ?))`)
		args = append(args, filter.BeforeTime, filter.BeforeTime, filter.BeforeID)
	}
	sb.WriteString(` ORDER BY time DESC, id DESC LIMIT ?`)
	args = append(args, filter.Limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]*entity.AuditLog, 0)
	byID := make(map[string]*entity.AuditLog)
	for rows.Next() {
		log := &entity.AuditLog{}
		if err := rows.Scan(
			&log.ID,
			&log.WorkspaceID,
			&log.Bucket,
			&log.Event,
			&log.Time,
			&log.Display,
			&log.RemoteIP,
			&log.UserAgent,
			&log.ActorType,
			&log.ActorID,
			&log.ActorName,
			&log.CreatedAt,
		); err != nil {
			return nil, err
		}
		log.Targets = make([]entity.AuditLogTarget, 0)
		logs = append(logs, log)
		byID[log.ID] = log
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return logs, nil
	}

	ids := make([]string, 0, len(logs))
	for _, log := range logs {
		ids = append(ids, log.ID)
	}
	targetQuery := `SELECT audit_log_id, type, id, name FROM audit_log_target
		WHERE audit_log_id IN (` + placeholders(len(ids)) + `)`
	targetRows, err := r.db.QueryContext(ctx, targetQuery, stringArgs(ids)...)
	if err != nil {
		return nil, err
	}
	defer targetRows.Close()

	for targetRows.Next() {
		var target entity.AuditLogTarget
		if err := targetRows.Scan(&target.AuditLogID, &target.Type, &target.ID, &target.Name); err != nil {
			return nil, err
		}
		if log, ok := byID[target.AuditLogID]; ok {
			log.Targets = append(log.Targets, target)
		}
	}
	return logs, targetRows.Err()
}
