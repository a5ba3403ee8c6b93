package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mohitkumar/autoflow/logger"
	"github.com/mohitkumar/autoflow/model"
	"github.com/mohitkumar/autoflow/persistence"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

var _ persistence.Storage = new(postgresStorage)

type Config struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

type workflowRow struct {
	Id             string       `db:"id"`
	Name           string       `db:"name"`
	Description    string       `db:"description"`
	WorkspaceId    string       `db:"workspace_id"`
	CreatedBy      string       `db:"created_by"`
	IsActive       bool         `db:"is_active"`
	Triggers       []byte       `db:"triggers"`
	Conditions     []byte       `db:"conditions"`
	Actions        []byte       `db:"actions"`
	ExecutionCount int64        `db:"execution_count"`
	LastExecuted   sql.NullTime `db:"last_executed"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
}

type eventRow struct {
	Id         string    `db:"id"`
	WorkflowId string    `db:"workflow_id"`
	Type       string    `db:"event_type"`
	Data       []byte    `db:"event_data"`
	CreatedAt  time.Time `db:"created_at"`
}

const workflowColumns = `id, name, description, workspace_id, created_by, is_active, triggers, conditions, actions,
	execution_count, last_executed, created_at, updated_at`

type postgresStorage struct {
	db *sqlx.DB
}

func NewPostgresStorage(ctx context.Context, conf Config) (*postgresStorage, error) {
	db, err := sqlx.Open("postgres", conf.DSN)
	if err != nil {
		return nil, err
	}
	if conf.MaxOpenConns > 0 {
		db.SetMaxOpenConns(conf.MaxOpenConns)
	}
	if conf.MaxIdleConns > 0 {
		db.SetMaxIdleConns(conf.MaxIdleConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	if err := Apply(ctx, db.DB); err != nil {
		db.Close()
		return nil, err
	}
	return NewPostgresStorageWithDB(db), nil
}

func NewPostgresStorageWithDB(db *sqlx.DB) *postgresStorage {
	return &postgresStorage{db: db}
}

func toRow(wf *model.Workflow) (*workflowRow, error) {
	triggers, err := json.Marshal(nonNil(wf.Triggers))
	if err != nil {
		return nil, err
	}
	conditions, err := json.Marshal(nonNil(wf.Conditions))
	if err != nil {
		return nil, err
	}
	actions, err := json.Marshal(nonNil(wf.Actions))
	if err != nil {
		return nil, err
	}
	row := &workflowRow{
		Id:             wf.Id,
		Name:           wf.Name,
		Description:    wf.Description,
		WorkspaceId:    wf.WorkspaceId,
		CreatedBy:      wf.CreatedBy,
		IsActive:       wf.Active(),
		Triggers:       triggers,
		Conditions:     conditions,
		Actions:        actions,
		ExecutionCount: wf.ExecutionCount,
		CreatedAt:      wf.CreatedAt,
		UpdatedAt:      wf.UpdatedAt,
	}
	if wf.LastExecuted != nil {
		row.LastExecuted = sql.NullTime{Time: *wf.LastExecuted, Valid: true}
	}
	return row, nil
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}

func (r *workflowRow) toWorkflow() (*model.Workflow, error) {
	wf := &model.Workflow{
		Id:             r.Id,
		Name:           r.Name,
		Description:    r.Description,
		WorkspaceId:    r.WorkspaceId,
		CreatedBy:      r.CreatedBy,
		ExecutionCount: r.ExecutionCount,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	wf.SetActive(r.IsActive)
	if err := json.Unmarshal(r.Triggers, &wf.Triggers); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(r.Conditions, &wf.Conditions); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(r.Actions, &wf.Actions); err != nil {
		return nil, err
	}
	if r.LastExecuted.Valid {
		t := r.LastExecuted.Time
		wf.LastExecuted = &t
	}
	return wf, nil
}

func storageError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return persistence.ErrAlreadyExists
	}
	return persistence.StorageLayerError{Message: err.Error()}
}

func (s *postgresStorage) SaveWorkflow(ctx context.Context, wf *model.Workflow) error {
	row, err := toRow(wf)
	if err != nil {
		return err
	}
	_, err = s.db.NamedExecContext(ctx, `INSERT INTO workflows (`+workflowColumns+`)
		VALUES (:id, :name, :description, :workspace_id, :created_by, :is_active, :triggers, :conditions, :actions,
		:execution_count, :last_executed, :created_at, :updated_at)`, row)
	if err != nil {
		logger.Error("error in saving workflow", zap.String("workflow", wf.Id), zap.Error(err))
		return storageError(err)
	}
	return nil
}

func (s *postgresStorage) UpdateWorkflow(ctx context.Context, wf *model.Workflow) error {
	row, err := toRow(wf)
	if err != nil {
		return err
	}
	res, err := s.db.NamedExecContext(ctx, `UPDATE workflows SET name = :name, description = :description,
		workspace_id = :workspace_id, is_active = :is_active, triggers = :triggers, conditions = :conditions,
		actions = :actions, updated_at = :updated_at WHERE id = :id`, row)
	if err != nil {
		return storageError(err)
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storageError(err)
	}
	if n == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (s *postgresStorage) GetWorkflow(ctx context.Context, id string) (*model.Workflow, error) {
	var row workflowRow
	err := s.db.GetContext(ctx, &row, `SELECT `+workflowColumns+` FROM workflows WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrNotFound
		}
		return nil, storageError(err)
	}
	return row.toWorkflow()
}

func (s *postgresStorage) DeleteWorkflow(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return storageError(err)
	}
	return checkAffected(res)
}

func (s *postgresStorage) ListWorkflows(ctx context.Context, workspaceId string) ([]*model.Workflow, error) {
	var rows []workflowRow
	err := s.db.SelectContext(ctx, &rows, `SELECT `+workflowColumns+` FROM workflows
		WHERE workspace_id = $1 ORDER BY created_at DESC`, workspaceId)
	if err != nil {
		return nil, storageError(err)
	}
	res := make([]*model.Workflow, 0, len(rows))
	for i := range rows {
		wf, err := rows[i].toWorkflow()
		if err != nil {
			return nil, err
		}
		res = append(res, wf)
	}
	return res, nil
}

// IncrementExecution relies on the database to serialize concurrent
// increments of the same row.
func (s *postgresStorage) IncrementExecution(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE workflows SET execution_count = execution_count + 1,
		last_executed = $2 WHERE id = $1`, id, at)
	if err != nil {
		logger.Error("error in updating execution count", zap.String("workflow", id), zap.Error(err))
		return storageError(err)
	}
	return checkAffected(res)
}

func (s *postgresStorage) AppendEvent(ctx context.Context, event *model.ExecutionEvent) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO workflow_events (id, workflow_id, event_type, event_data, created_at)
		VALUES ($1, $2, $3, $4, $5)`, event.Id, event.WorkflowId, string(event.Type), data, event.Timestamp)
	if err != nil {
		return storageError(err)
	}
	return nil
}

func (s *postgresStorage) ListEvents(ctx context.Context, workflowId string, limit int) ([]*model.ExecutionEvent, error) {
	var lim sql.NullInt64
	if limit > 0 {
		lim = sql.NullInt64{Int64: int64(limit), Valid: true}
	}
	var rows []eventRow
	err := s.db.SelectContext(ctx, &rows, `SELECT id, workflow_id, event_type, event_data, created_at
		FROM workflow_events WHERE workflow_id = $1 ORDER BY seq DESC LIMIT $2`, workflowId, lim)
	if err != nil {
		return nil, storageError(err)
	}
	res := make([]*model.ExecutionEvent, 0, len(rows))
	for _, row := range rows {
		ev := &model.ExecutionEvent{
			Id:         row.Id,
			WorkflowId: row.WorkflowId,
			Type:       model.EventType(row.Type),
			Timestamp:  row.CreatedAt,
		}
		if len(row.Data) > 0 {
			if err := json.Unmarshal(row.Data, &ev.Data); err != nil {
				return nil, err
			}
		}
		res = append(res, ev)
	}
	return res, nil
}

func (s *postgresStorage) Close() error {
	return s.db.Close()
}
