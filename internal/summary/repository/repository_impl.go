package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/backoffice/internal/summary/domain"
	"github.com/smallbiznis/backoffice/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

func Provide(conn *gorm.DB) domain.Repository {
	return &repository{db: conn}
}

func preloadItems(tx *gorm.DB) *gorm.DB {
	return tx.Order("position ASC").Order("id ASC")
}

// ListDocuments returns the orders of the period that the branch owns or has
// at least one line paid to it.
func (r *repository) ListDocuments(ctx context.Context, query domain.DocumentQuery) ([]domain.Document, error) {
	branch := strings.ToLower(strings.TrimSpace(query.Branch))

	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("kind = ?", query.Kind).
		Where("doc_date BETWEEN ? AND ?", query.Start, query.End).
		Where(
			`LOWER(branch_code) = ? OR id IN (
				SELECT order_id FROM finance_order_items
				WHERE LOWER(pay_to_branch) = ? AND deleted = ?
			)`,
			branch, branch, false,
		).
		Order("doc_date ASC").
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, len(orders))
	for i := range orders {
		docs = append(docs, orders[i].ToDocument())
	}
	return docs, nil
}

func (r *repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}
		if len(order.Items) == 0 {
			return nil
		}
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
		}
		return tx.Create(&order.Items).Error
	})
}

func (r *repository) FindOrder(ctx context.Context, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("id = ?", id).
		First(&order).Error
	if db.IsNotFound(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	stmt := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("LOWER(branch_code) = ?", strings.ToLower(strings.TrimSpace(filter.Branch)))
	if filter.Kind != "" {
		stmt = stmt.Where("kind = ?", filter.Kind)
	}
	if filter.AfterID != 0 {
		stmt = stmt.Where("id > ?", filter.AfterID)
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}

	var orders []domain.Order
	if err := stmt.Order("id ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) SoftDeleteOrder(ctx context.Context, id snowflake.ID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Order{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
