package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/backoffice/internal/clock"
	obsmetrics "github.com/smallbiznis/backoffice/internal/observability/metrics"
	"github.com/smallbiznis/backoffice/internal/summary/domain"
	"github.com/smallbiznis/backoffice/internal/summary/engine"
	taxonomydomain "github.com/smallbiznis/backoffice/internal/taxonomy/domain"
	"github.com/smallbiznis/backoffice/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type OrderParams struct {
	fx.In

	Log     *zap.Logger
	Clock   clock.Clock
	GenID   *snowflake.Node
	Repo    domain.Repository
	Options engine.Options
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type OrderService struct {
	log     *zap.Logger
	clock   clock.Clock
	genID   *snowflake.Node
	repo    domain.Repository
	loc     *time.Location
	metrics *obsmetrics.Metrics
}

func NewOrderService(p OrderParams) domain.OrderService {
	return &OrderService{
		log:     p.Log.Named("order.service"),
		clock:   p.Clock,
		genID:   p.GenID,
		repo:    p.Repo,
		loc:     p.Options.Location,
		metrics: p.Metrics,
	}
}

func (s *OrderService) Create(ctx context.Context, req domain.CreateOrderRequest) (*domain.Document, error) {
	kind, err := taxonomydomain.ParseKind(req.Kind)
	if err != nil {
		return nil, err
	}

	branch := strings.TrimSpace(req.BranchCode)
	if branch == "" {
		return nil, domain.ErrInvalidBranch
	}

	day, ok := engine.ResolveDay(req.Date, s.loc)
	if !ok {
		return nil, domain.ErrInvalidDate
	}

	if len(req.Items) == 0 {
		return nil, domain.ErrInvalidItems
	}

	now := s.clock.Now()
	order := domain.Order{
		ID:          s.genID.Generate(),
		Kind:        kind,
		BranchCode:  branch,
		DocDate:     time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
		Category:    strings.TrimSpace(req.Category),
		SubCategory: strings.TrimSpace(req.SubCategory),
		Type:        domain.NormalizeDocumentType(domain.DocumentType(req.Type)),
		PaymentType: strings.TrimSpace(req.PaymentType),
		Metadata:    datatypes.JSONMap(req.Metadata),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if order.Metadata == nil {
		order.Metadata = datatypes.JSONMap{}
	}

	order.Items = make([]domain.OrderItem, 0, len(req.Items))
	for i, item := range req.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ID:             s.genID.Generate(),
			OrderID:        order.ID,
			Position:       i,
			Amount:         item.Amount,
			TaxTreatment:   domain.NormalizeTaxTreatment(domain.TaxTreatment(item.TaxTreatment)),
			Vat:            item.Vat,
			WithholdingTax: item.WithholdingTax,
			PayToBranch:    strings.TrimSpace(item.PayToBranch),
			CategoryID:     strings.TrimSpace(item.CategoryID),
			AccountNameID:  strings.TrimSpace(item.AccountNameID),
			Battery:        item.Battery,
			Tire:           item.Tire,
			GPS:            item.GPS,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	if err := s.repo.CreateOrder(ctx, &order); err != nil {
		s.log.Error("failed to create order", zap.Error(err), zap.String("branch", branch))
		return nil, err
	}
	s.metrics.RecordOrderCreated(ctx, string(kind))
	s.log.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("kind", string(kind)),
		zap.String("branch", branch),
		zap.Int("items", len(order.Items)),
	)

	doc := order.ToDocument()
	return &doc, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*domain.Document, error) {
	orderID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	doc := order.ToDocument()
	return &doc, nil
}

func (s *OrderService) List(ctx context.Context, req domain.ListOrdersRequest) (*domain.ListOrdersResponse, error) {
	branch := strings.TrimSpace(req.Branch)
	if branch == "" {
		return nil, domain.ErrInvalidBranch
	}

	filter := domain.OrderFilter{Branch: branch}
	if strings.TrimSpace(req.Kind) != "" {
		kind, err := taxonomydomain.ParseKind(req.Kind)
		if err != nil {
			return nil, err
		}
		filter.Kind = kind
	}

	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return nil, domain.ErrInvalidPageToken
		}
		afterID, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, domain.ErrInvalidPageToken
		}
		filter.AfterID = afterID
	}

	limit := req.Limit()
	filter.Limit = limit + 1

	orders, err := s.repo.ListOrders(ctx, filter)
	if err != nil {
		return nil, err
	}

	orders, pageInfo := pagination.Page(orders, limit, func(o domain.Order) string {
		return o.ID.String()
	})

	resp := &domain.ListOrdersResponse{
		Orders:   make([]domain.Document, 0, len(orders)),
		PageInfo: pageInfo,
	}
	for i := range orders {
		resp.Orders = append(resp.Orders, orders[i].ToDocument())
	}
	return resp, nil
}

func (s *OrderService) Delete(ctx context.Context, id string) error {
	orderID, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDeleteOrder(ctx, orderID); err != nil {
		return err
	}
	s.log.Info("order deleted", zap.String("order_id", orderID.String()))
	return nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
