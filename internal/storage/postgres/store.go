package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	interfaces "github.com/sheikh-saqib/mock-banking-ledger/internal/interfaces"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/models"
)

const schema = `CREATE TABLE IF NOT EXISTS documents (
	seq BIGSERIAL,
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	data JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
)`

const uniqueViolation = "23505"

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresDocumentStore keeps every collection in one jsonb backed table.
type PostgresDocumentStore struct {
	db   *sql.DB
	q    queryer
	inTx bool
}

func NewPostgresDocumentStore(db *sql.DB) *PostgresDocumentStore {
	return &PostgresDocumentStore{
		db: db,
		q:  db,
	}
}

// Open connects with the lib/pq driver and checks the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the documents table if it does not exist.
func (p *PostgresDocumentStore) Migrate(ctx context.Context) error {
	if _, err := p.q.ExecContext(ctx, schema); err != nil {
		return remoteError("migrate", err)
	}
	return nil
}

func (p *PostgresDocumentStore) ListDocuments(ctx context.Context, collection string, filters ...models.Filter) (models.DocumentList, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, data, created_at, updated_at FROM documents WHERE collection = $1`)
	args := []any{collection}

	for _, f := range filters {
		if f.Field == models.IDField {
			args = append(args, f.Value)
			fmt.Fprintf(&sb, ` AND id = $%d`, len(args))
			continue
		}
		args = append(args, f.Field, f.Value)
		fmt.Fprintf(&sb, ` AND data->>$%d = $%d`, len(args)-1, len(args))
	}
	sb.WriteString(` ORDER BY seq`)

	rows, err := p.q.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return models.DocumentList{}, remoteError("listDocuments", err)
	}
	defer rows.Close()

	result := models.DocumentList{Documents: []models.Document{}}
	for rows.Next() {
		doc := models.Document{Collection: collection}
		var data []byte
		if err := rows.Scan(&doc.ID, &data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return models.DocumentList{}, remoteError("listDocuments", err)
		}
		if doc.Fields, err = decodeFields(data); err != nil {
			return models.DocumentList{}, err
		}
		result.Documents = append(result.Documents, doc)
	}
	if err := rows.Err(); err != nil {
		return models.DocumentList{}, remoteError("listDocuments", err)
	}

	result.Total = len(result.Documents)
	return result, nil
}

// GetDocument reads one document. Inside RunInTransaction the row is locked
// until the transaction ends, so a read-modify-write cannot lose an update
// made by another process.
func (p *PostgresDocumentStore) GetDocument(ctx context.Context, collection, id string) (models.Document, error) {
	query := `SELECT id, data, created_at, updated_at FROM documents WHERE collection = $1 AND id = $2`
	if p.inTx {
		query += ` FOR UPDATE`
	}

	doc := models.Document{Collection: collection}
	var data []byte
	err := p.q.QueryRowContext(ctx, query, collection, id).Scan(&doc.ID, &data, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, fmt.Errorf("%s/%s: %w", collection, id, models.ErrDocumentNotFound)
	}
	if err != nil {
		return models.Document{}, remoteError("getDocument", err)
	}

	if doc.Fields, err = decodeFields(data); err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

func (p *PostgresDocumentStore) CreateDocument(ctx context.Context, collection, id string, fields map[string]any) (models.Document, error) {
	const query = `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
	RETURNING created_at, updated_at`

	if id == "" {
		id = uuid.New().String()
	}
	if fields == nil {
		fields = map[string]any{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return models.Document{}, fmt.Errorf("encode %s document: %w", collection, err)
	}

	doc := models.Document{ID: id, Collection: collection}
	err = p.q.QueryRowContext(ctx, query, collection, id, string(data)).Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.Document{}, fmt.Errorf("%s/%s: %w", collection, id, models.ErrDocumentConflict)
		}
		return models.Document{}, remoteError("createDocument", err)
	}

	// echo back what was stored so callers see the same shapes as on read
	if doc.Fields, err = decodeFields(data); err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

func (p *PostgresDocumentStore) UpdateDocument(ctx context.Context, collection, id string, fields map[string]any) (models.Document, error) {
	const query = `UPDATE documents SET data = data || $3::jsonb, updated_at = now()
	WHERE collection = $1 AND id = $2
	RETURNING id, data, created_at, updated_at`

	patch, err := json.Marshal(fields)
	if err != nil {
		return models.Document{}, fmt.Errorf("encode %s patch: %w", collection, err)
	}

	doc := models.Document{Collection: collection}
	var data []byte
	err = p.q.QueryRowContext(ctx, query, collection, id, string(patch)).Scan(&doc.ID, &data, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, fmt.Errorf("%s/%s: %w", collection, id, models.ErrDocumentNotFound)
	}
	if err != nil {
		return models.Document{}, remoteError("updateDocument", err)
	}

	if doc.Fields, err = decodeFields(data); err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

func (p *PostgresDocumentStore) DeleteDocument(ctx context.Context, collection, id string) error {
	const query = `DELETE FROM documents WHERE collection = $1 AND id = $2`

	res, err := p.q.ExecContext(ctx, query, collection, id)
	if err != nil {
		return remoteError("deleteDocument", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return remoteError("deleteDocument", err)
	}
	if n == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, models.ErrDocumentNotFound)
	}
	return nil
}

// RunInTransaction commits every write made through tx together, or none of them.
func (p *PostgresDocumentStore) RunInTransaction(ctx context.Context, fn func(tx interfaces.DocumentStore) error) (err error) {
	if p.inTx {
		return fn(p)
	}

	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return remoteError("beginTransaction", err)
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	err = fn(&PostgresDocumentStore{db: p.db, q: dbTx, inTx: true})
	if err != nil {
		return err
	}

	if err = dbTx.Commit(); err != nil {
		return remoteError("commitTransaction", err)
	}
	return nil
}

func decodeFields(data []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(data) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return fields, nil
}

func remoteError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	rerr := &models.RemoteError{Op: op, Type: "postgres", Err: err}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		rerr.Code = string(pqErr.Code)
	}
	return rerr
}

var _ interfaces.TransactionalStore = (*PostgresDocumentStore)(nil)
