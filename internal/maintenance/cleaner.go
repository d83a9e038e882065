// Package maintenance repairs junction rows left behind by deleted
// vacancies and installs the cascade constraints that prevent them.
package maintenance

import (
	"context"
	"database/sql"
	"fmt"

	"interview-workers/internal/common/database"
	apperrors "interview-workers/internal/common/errors"
	"interview-workers/internal/common/logger"
	"interview-workers/internal/common/metrics"
)

// JunctionTables reference vaga(id) through vaga_id.
var JunctionTables = []string{"vaga_area", "vaga_soft_skill", "vaga_favorita"}

// TableCount is the number of orphans found (and removed unless dry run)
// in one table.
type TableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

type OrphanReport struct {
	DryRun bool         `json:"dryRun"`
	Tables []TableCount `json:"tables"`
	Total  int64        `json:"total"`
}

type CascadeReport struct {
	Added    []string `json:"added"`
	Present  []string `json:"present"`
	Replaced []string `json:"replaced,omitempty"`
}

type Cleaner struct {
	db     *sql.DB
	logger logger.Logger
	tables []string
}

func NewCleaner(db *sql.DB, log logger.Logger) *Cleaner {
	return &Cleaner{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "maintenance"}),
		tables: JunctionTables,
	}
}

// DeleteOrphans removes junction rows whose vacancy no longer exists. With
// dryRun it only counts them. All tables are handled in one transaction.
func (c *Cleaner) DeleteOrphans(ctx context.Context, dryRun bool) (*OrphanReport, error) {
	report := &OrphanReport{DryRun: dryRun}

	err := database.InTx(ctx, c.db, nil, func(tx *sql.Tx) error {
		for _, table := range c.tables {
			n, err := c.orphans(ctx, tx, table, dryRun)
			if err != nil {
				return err
			}
			report.Tables = append(report.Tables, TableCount{Table: table, Rows: n})
			report.Total += n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !dryRun {
		for _, tc := range report.Tables {
			metrics.OrphansDeleted.WithLabelValues(tc.Table).Add(float64(tc.Rows))
		}
	}
	c.logger.Info("orphan cleanup finished", map[string]interface{}{
		"dryRun": dryRun,
		"total":  report.Total,
		"tables": report.Tables,
	})
	return report, nil
}

func (c *Cleaner) orphans(ctx context.Context, tx *sql.Tx, table string, dryRun bool) (int64, error) {
	where := fmt.Sprintf(`NOT EXISTS (SELECT 1 FROM vaga v WHERE v.id = %s.vaga_id)`, table)

	if dryRun {
		var n int64
		err := tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, table, where)).Scan(&n)
		if err != nil {
			return 0, apperrors.NewQueryExecutionFailedError("count orphans in "+table, err)
		}
		return n, nil
	}

	res, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s`, table, where))
	if err != nil {
		return 0, apperrors.NewQueryExecutionFailedError("delete orphans in "+table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperrors.NewQueryExecutionFailedError("delete orphans in "+table, err)
	}
	return n, nil
}

// EnforceCascades makes every foreign key from a junction table to vaga
// ON DELETE CASCADE. Foreign keys with any other delete rule are dropped,
// since they would still block the vacancy delete, and the cascade one is
// added when missing. Safe to run repeatedly. Orphans must be removed first
// or the constraint fails to validate.
func (c *Cleaner) EnforceCascades(ctx context.Context) (*CascadeReport, error) {
	report := &CascadeReport{}

	err := database.InTx(ctx, c.db, nil, func(tx *sql.Tx) error {
		for _, table := range c.tables {
			fks, err := vagaForeignKeys(ctx, tx, table)
			if err != nil {
				return apperrors.NewQueryExecutionFailedError("inspect constraints of "+table, err)
			}

			hasCascade := false
			for _, fk := range fks {
				if fk.deleteRule == cascadeRule {
					hasCascade = true
					report.Present = append(report.Present, fk.name)
					continue
				}
				if _, err := tx.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s DROP CONSTRAINT %s`, table, fk.name)); err != nil {
					return apperrors.NewQueryExecutionFailedError("drop restrictive key on "+table, err)
				}
				report.Replaced = append(report.Replaced, fk.name)
			}
			if hasCascade {
				continue
			}

			name := constraintName(table)
			_, err = tx.ExecContext(ctx, fmt.Sprintf(
				`ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (vaga_id) REFERENCES vaga(id) ON DELETE CASCADE`,
				table, name,
			))
			if err != nil {
				return apperrors.NewQueryExecutionFailedError("add cascade to "+table, err)
			}
			report.Added = append(report.Added, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("cascade constraints checked", map[string]interface{}{
		"added":    report.Added,
		"present":  report.Present,
		"replaced": report.Replaced,
	})
	return report, nil
}

// pg_constraint.confdeltype for ON DELETE CASCADE
const cascadeRule = "c"

type foreignKey struct {
	name       string
	deleteRule string
}

func vagaForeignKeys(ctx context.Context, tx *sql.Tx, table string) ([]foreignKey, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT conname, confdeltype FROM pg_constraint
		 WHERE contype = 'f' AND conrelid = $1::regclass AND confrelid = 'vaga'::regclass
		 ORDER BY conname`,
		table,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []foreignKey
	for rows.Next() {
		var fk foreignKey
		if err := rows.Scan(&fk.name, &fk.deleteRule); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

func constraintName(table string) string {
	return table + "_vaga_id_fkey_cascade"
}
