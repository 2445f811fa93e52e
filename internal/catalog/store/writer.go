package store

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/catalog/query"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"gorm.io/gorm"
)

var _ catalog.Writer = (*Writer)(nil)

// Writer replaces the whole catalog inside one transaction. It is the only
// writer of catalog tables.
type Writer struct {
	client  *db.Client
	logg    *logger.Logger
	metrics *metrics.CatalogMetrics
	now     func() time.Time

	savepoints bool
}

func NewWriter(client *db.Client, logg *logger.Logger, m *metrics.CatalogMetrics) *Writer {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Writer{
		client:     client,
		logg:       logg,
		metrics:    m,
		now:        time.Now,
		savepoints: query.DialectFor(client.Dialect()) == query.Postgres,
	}
}

// ReplaceData deletes every catalog row and inserts products as they are
// produced. Any error, from the sequence or the store, rolls everything
// back so readers keep seeing the previous snapshot.
func (w *Writer) ReplaceData(ctx context.Context, products iter.Seq2[catalog.Product, error], ranks catalog.SalesRanks) (catalog.ReplaceStats, error) {
	var stats catalog.ReplaceStats

	err := w.client.WithTx(ctx, func(tx *gorm.DB) error {
		for _, table := range tablesChildFirst {
			if err := w.exec(ctx, tx, "clear_"+table, query.Statement{SQL: "DELETE FROM " + table}); err != nil {
				return err
			}
		}

		seenCategories := make(map[string]struct{})
		for product, err := range products {
			if err != nil {
				return err
			}
			if err := product.Validate(); err != nil {
				return err
			}
			if err := w.insertProduct(ctx, tx, product, ranks.Rank(product.ID), seenCategories, &stats); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		w.logg.Error(ctx, "catalog replace rolled back", err)
		return catalog.ReplaceStats{}, err
	}

	w.metrics.ObserveReplace(stats.Products, stats.Categories, w.now())
	w.logg.Info(w.logg.WithFields(ctx, map[string]any{
		"products":   stats.Products,
		"categories": stats.Categories,
		"colors":     stats.Colors,
	}), "catalog replaced")
	return stats, nil
}

func (w *Writer) insertProduct(ctx context.Context, tx *gorm.DB, p catalog.Product, rank int64, seenCategories map[string]struct{}, stats *catalog.ReplaceStats) error {
	record, err := productToRecord(p, rank)
	if err != nil {
		return err
	}
	if err := w.create(ctx, tx, "insert_product", "product", &record); err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeUpstreamData, err, fmt.Sprintf("duplicate product id %s", p.ID))
		}
		return err
	}
	stats.Products++

	colors := make([]colorRecord, 0, len(p.Colors))
	seenColors := make(map[string]struct{}, len(p.Colors))
	for _, c := range p.Colors {
		if _, dup := seenColors[c.Color]; dup || c.Color == "" {
			continue
		}
		seenColors[c.Color] = struct{}{}
		colors = append(colors, colorRecord{Color: c.Color, ProductID: p.ID})
	}
	if len(colors) > 0 {
		if err := w.create(ctx, tx, "insert_colors", "color", &colors); err != nil {
			return err
		}
		stats.Colors += len(colors)
	}

	links := make([]productCategoryRecord, 0, len(p.Categories))
	linked := make(map[string]struct{}, len(p.Categories))
	for _, c := range p.Categories {
		if _, dup := linked[c.ID]; dup {
			continue
		}
		linked[c.ID] = struct{}{}

		if _, ok := seenCategories[c.ID]; !ok {
			if err := w.create(ctx, tx, "insert_category", "category", &categoryRecord{ID: c.ID, Title: c.Title}); err != nil {
				return err
			}
			seenCategories[c.ID] = struct{}{}
			stats.Categories++
		}
		links = append(links, productCategoryRecord{ProductID: p.ID, CategoryID: c.ID, Position: len(links)})
	}
	if len(links) > 0 {
		if err := w.create(ctx, tx, "insert_product_categories", "product_category", &links); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) exec(ctx context.Context, tx *gorm.DB, op string, stmt query.Statement) error {
	return w.run(ctx, tx, op, stmt, func(db *gorm.DB) error {
		return db.Exec(stmt.SQL, stmt.Args...).Error
	})
}

func (w *Writer) create(ctx context.Context, tx *gorm.DB, op, table string, value any) error {
	stmt := query.Statement{SQL: "INSERT INTO " + table, Args: []any{value}}
	return w.run(ctx, tx, op, stmt, func(db *gorm.DB) error {
		return db.Table(table).Create(value).Error
	})
}

// run executes one statement of the replace transaction under the busy
// retry policy. Postgres aborts the whole transaction on a failed statement,
// so there each attempt is fenced by a savepoint that a busy failure rolls
// back to.
func (w *Writer) run(ctx context.Context, tx *gorm.DB, op string, stmt query.Statement, fn func(*gorm.DB) error) error {
	return runStatement(ctx, w.client, w.logg, op, stmt, func(ctx context.Context) error {
		conn := tx.WithContext(ctx)
		if !w.savepoints {
			return fn(conn)
		}
		if err := conn.SavePoint(op).Error; err != nil {
			return err
		}
		err := fn(conn)
		if err != nil && db.IsBusy(err) {
			if rbErr := conn.RollbackTo(op).Error; rbErr != nil {
				return rbErr
			}
		}
		return err
	})
}
