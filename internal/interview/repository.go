package interview

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "interview-workers/internal/common/errors"
	"interview-workers/internal/models"

	"github.com/lib/pq"
)

// ApplicationRef identifies an application either by primary key or by the
// candidate and the public vacancy uuid, the pair the UI works with.
type ApplicationRef struct {
	ID          int64  `json:"applicationId,omitempty"`
	CandidateID int64  `json:"candidateId,omitempty"`
	VacancyUUID string `json:"vacancyUuid,omitempty"`
}

func (r ApplicationRef) Validate() error {
	if r.ID > 0 {
		return nil
	}
	if r.CandidateID <= 0 || r.VacancyUUID == "" {
		return apperrors.NewValidationError("applicationId or candidateId + vacancyUuid is required")
	}
	return nil
}

func (r ApplicationRef) String() string {
	if r.ID > 0 {
		return fmt.Sprintf("application %d", r.ID)
	}
	return fmt.Sprintf("candidate %d / vacancy %s", r.CandidateID, r.VacancyUUID)
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const selectApplication = `
	SELECT va.id, va.vaga_id, va.candidato_id, COALESCE(va.breakdown, ''), va.updated_at,
	       c.nome, c.email, COALESCE(c.telefone, ''),
	       v.uuid, v.titulo, COALESCE(e.nome, '')
	FROM vaga_avaliacao va
	JOIN candidato c ON c.id = va.candidato_id
	JOIN vaga v ON v.id = va.vaga_id
	LEFT JOIN empresa e ON e.id = v.empresa_id`

// Repository reads and writes vaga_avaliacao rows.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) DB() *sql.DB {
	return r.db
}

// Get loads an application without locking it.
func (r *Repository) Get(ctx context.Context, ref ApplicationRef) (*models.Application, error) {
	return r.find(ctx, r.db, ref, false)
}

// Lock loads an application and holds its row lock until tx ends.
func (r *Repository) Lock(ctx context.Context, tx *sql.Tx, ref ApplicationRef) (*models.Application, error) {
	return r.find(ctx, tx, ref, true)
}

func (r *Repository) find(ctx context.Context, q queryer, ref ApplicationRef, forUpdate bool) (*models.Application, error) {
	query := selectApplication
	var args []interface{}
	if ref.ID > 0 {
		query += ` WHERE va.id = $1`
		args = []interface{}{ref.ID}
	} else {
		query += ` WHERE va.candidato_id = $1 AND v.uuid = $2`
		args = []interface{}{ref.CandidateID, ref.VacancyUUID}
	}
	if forUpdate {
		query += ` FOR UPDATE OF va`
	}

	var app models.Application
	err := q.QueryRowContext(ctx, query, args...).Scan(
		&app.ID, &app.VacancyID, &app.CandidateID, &app.Breakdown, &app.UpdatedAt,
		&app.Candidate.Name, &app.Candidate.Email, &app.Candidate.Phone,
		&app.Vacancy.UUID, &app.Vacancy.Title, &app.Vacancy.CompanyName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewApplicationNotFoundError(ref.String())
	}
	if err != nil {
		return nil, wrapQueryError("load application", err)
	}
	app.Candidate.ID = app.CandidateID
	app.Vacancy.ID = app.VacancyID
	return &app, nil
}

// SaveBreakdown writes the encoded document back.
func (r *Repository) SaveBreakdown(ctx context.Context, tx *sql.Tx, id int64, breakdown string, now time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE vaga_avaliacao SET breakdown = $1, updated_at = $2 WHERE id = $3`,
		breakdown, now, id,
	)
	if err != nil {
		return wrapQueryError("save breakdown", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapQueryError("save breakdown", err)
	}
	if n == 0 {
		return apperrors.NewApplicationNotFoundError(fmt.Sprintf("application %d", id))
	}
	return nil
}

// ListCandidates returns ids greater than afterID whose breakdown text
// contains every pattern and none of the excluded ones. It is a coarse
// prefilter; callers re-check each row under its lock.
func (r *Repository) ListCandidates(ctx context.Context, patterns, exclude []string, afterID int64, limit int) ([]int64, error) {
	if exclude == nil {
		exclude = []string{}
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM vaga_avaliacao
		 WHERE breakdown LIKE ALL($1::text[])
		   AND NOT (breakdown LIKE ANY($2::text[]))
		   AND id > $3
		 ORDER BY id
		 LIMIT $4`,
		pq.Array(patterns), pq.Array(exclude), afterID, limit,
	)
	if err != nil {
		return nil, wrapQueryError("list sweep candidates", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, wrapQueryError("scan sweep candidate", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryError("list sweep candidates", err)
	}
	return ids, nil
}

func wrapQueryError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewQueryTimeoutError(op, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "08" {
		return apperrors.NewDatabaseConnectionFailedError(err)
	}
	return apperrors.NewQueryExecutionFailedError(op, err)
}
