// Package schema maps the logical users fields onto whatever columns the
// live users table actually has, so one set of queries serves deployments
// whose column names drifted over time.
package schema

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// ColumnSource lists the physical column names of a table.
type ColumnSource interface {
	Columns(ctx context.Context, table string) ([]string, error)
}

const catalogReadTimeout = 10 * time.Second

// Resolver caches the Mapping of one table for the life of the process.
type Resolver struct {
	source  ColumnSource
	table   string
	current atomic.Pointer[Mapping]
	group   singleflight.Group
}

func NewResolver(source ColumnSource, table string) *Resolver {
	return &Resolver{source: source, table: table}
}

// Resolve returns the cached mapping, reading the catalog on first use and
// again whenever the cached mapping lacks an email column (the table may
// have gained it since). Concurrent callers share one catalog read. A
// mapping without id or username yields a ConfigError.
func (r *Resolver) Resolve(ctx context.Context) (*Mapping, error) {
	m := r.current.Load()
	if m == nil || !m.Has(Email) {
		v, err, _ := r.group.Do(r.table, func() (interface{}, error) {
			// Shared by every waiter, so the first caller's cancellation must not end it.
			readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), catalogReadTimeout)
			defer cancel()
			return r.load(readCtx)
		})
		if err != nil {
			return nil, err
		}
		m = v.(*Mapping)
	}
	if err := m.Require(ID, Username); err != nil {
		return nil, err
	}
	return m, nil
}

// Invalidate drops the cached mapping; the next Resolve reads the catalog.
func (r *Resolver) Invalidate() {
	r.current.Store(nil)
}

func (r *Resolver) load(ctx context.Context) (*Mapping, error) {
	cols, err := r.source.Columns(ctx, r.table)
	if err != nil {
		return nil, fmt.Errorf("reading %s table columns: %w", r.table, err)
	}
	m := Build(r.table, cols)
	r.current.Store(m)
	log.Printf("schema: resolved %d columns of %s (email present: %t)", len(cols), r.table, m.Has(Email))
	return m, nil
}

// GormSource reads column names through a gorm connection: the
// information_schema catalog on postgres, the migrator elsewhere.
type GormSource struct {
	DB *gorm.DB
}

func (s GormSource) Columns(ctx context.Context, table string) ([]string, error) {
	db := s.DB.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		var cols []string
		err := db.Raw(`SELECT column_name FROM information_schema.columns
			WHERE table_schema = CURRENT_SCHEMA() AND table_name = ?
			ORDER BY ordinal_position`, table).Scan(&cols).Error
		return cols, err
	}

	if !db.Migrator().HasTable(table) {
		return nil, nil
	}
	types, err := db.Migrator().ColumnTypes(table)
	if err != nil {
		return nil, err
	}
	cols := make([]string, len(types))
	for i, t := range types {
		cols[i] = t.Name()
	}
	return cols, nil
}
