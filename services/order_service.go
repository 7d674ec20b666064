package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zemen-restaurant/zemen-backend/apperrors"
	"github.com/zemen-restaurant/zemen-backend/cache"
	"github.com/zemen-restaurant/zemen-backend/events"
	"github.com/zemen-restaurant/zemen-backend/models"
	"github.com/zemen-restaurant/zemen-backend/payloads"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	idempotencyPrefix = "idem:order:submit:"
	idempotencyTTL    = 24 * time.Hour
)

// OrderFilter narrows the admin order list. Empty fields match everything.
type OrderFilter struct {
	Status    string
	OrderType string
}

type OrderService struct {
	db     *gorm.DB
	cache  cache.Store
	events events.Publisher
	log    *logrus.Logger
}

func NewOrderService(db *gorm.DB, store cache.Store, publisher events.Publisher, log *logrus.Logger) *OrderService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &OrderService{db: db, cache: store, events: publisher, log: log}
}

// SubmitOrder stores the order and its items in one transaction and returns
// the stored order with items. A repeated idempotency key returns the order
// created the first time, provided the payload is the same one.
func (s *OrderService) SubmitOrder(ctx context.Context, order models.Order, items []models.OrderItem, idempotencyKey string) (*models.Order, error) {
	var fingerprint string
	if idempotencyKey != "" {
		fingerprint = orderFingerprint(order, items)
		existing, ok, err := s.replay(ctx, idempotencyKey, fingerprint)
		if err != nil {
			return nil, err
		}
		if ok {
			return existing, nil
		}
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, apperrors.Internal(fmt.Errorf("begin transaction: %w", tx.Error))
	}

	order.ID = 0
	order.Items = nil
	if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, apperrors.Internal(fmt.Errorf("failed to create order: %w", err))
	}

	for i := range items {
		items[i].ID = 0
		items[i].OrderID = order.ID
		if err := tx.Create(&items[i]).Error; err != nil {
			tx.Rollback()
			return nil, apperrors.Internal(fmt.Errorf("failed to create order item %d: %w", i, err))
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to commit order: %w", err))
	}

	created, err := s.GetOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	if idempotencyKey != "" {
		value := strconv.FormatUint(uint64(created.ID), 10) + ":" + fingerprint
		if err := s.cache.Set(ctx, idempotencyPrefix+idempotencyKey, value, idempotencyTTL); err != nil {
			s.log.WithError(err).WithField("order_id", created.ID).Warn("Failed to store idempotency key")
		}
	}

	s.log.WithFields(logrus.Fields{
		"order_id":   created.ID,
		"order_type": created.OrderType,
		"items":      len(created.Items),
	}).Info("Order submitted")

	s.events.Publish(ctx, events.New(events.OrderCreated, orderKey(created.ID), payloads.NewOrderResponse(*created)))
	return created, nil
}

// replay looks up an order already created for the idempotency key. A key
// stored for a different payload is a conflict. Cache failures are logged and
// treated as a miss.
func (s *OrderService) replay(ctx context.Context, key, fingerprint string) (*models.Order, bool, error) {
	value, ok, err := s.cache.Get(ctx, idempotencyPrefix+key)
	if err != nil {
		s.log.WithError(err).Warn("Failed to read idempotency key")
		return nil, false, nil
	}
	if !ok {
		return nil, false, nil
	}

	rawID, stored, found := strings.Cut(value, ":")
	if !found {
		return nil, false, nil
	}
	if stored != fingerprint {
		s.log.WithField("idempotency_key", key).Warn("Idempotency key reused with a different order")
		return nil, false, apperrors.ErrIdempotencyKeyReused
	}

	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		return nil, false, nil
	}
	order, err := s.GetOrder(ctx, uint(id))
	if err != nil {
		return nil, false, nil
	}

	s.log.WithField("order_id", order.ID).Info("Replaying order for repeated idempotency key")
	return order, true, nil
}

type fingerprintItem struct {
	Name     string `json:"n"`
	Quantity int    `json:"q"`
	Price    string `json:"p"`
}

type fingerprintOrder struct {
	Name           string            `json:"name"`
	Phone          string            `json:"phone"`
	SpecialRequest string            `json:"special_request"`
	OrderType      models.OrderType  `json:"order_type"`
	Street         string            `json:"street"`
	City           string            `json:"city"`
	State          string            `json:"state"`
	Zip            string            `json:"zip"`
	TotalPrice     string            `json:"total_price"`
	PaymentMethod  string            `json:"payment_method"`
	Items          []fingerprintItem `json:"items"`
}

// orderFingerprint hashes the validated order so an idempotency key can be
// tied to the payload it was first used with.
func orderFingerprint(order models.Order, items []models.OrderItem) string {
	fp := fingerprintOrder{
		Name:           order.Name,
		Phone:          order.Phone,
		SpecialRequest: order.SpecialRequest,
		OrderType:      order.OrderType,
		Street:         order.Street,
		City:           order.City,
		State:          order.State,
		Zip:            order.Zip,
		TotalPrice:     order.TotalPrice.StringFixed(2),
		PaymentMethod:  order.PaymentMethod,
		Items:          make([]fingerprintItem, 0, len(items)),
	}
	for _, it := range items {
		fp.Items = append(fp.Items, fingerprintItem{Name: it.ItemName, Quantity: it.Quantity, Price: it.PricePerItem.StringFixed(2)})
	}

	data, _ := json.Marshal(fp)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Items", orderItemsByID).First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Order")
	}
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to get order: %w", err))
	}
	return &order, nil
}

// ListOrders returns orders newest first, each with its items.
func (s *OrderService) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := s.db.WithContext(ctx).Preload("Items", orderItemsByID)

	if filter.Status != "" {
		if !models.OrderStatus(filter.Status).IsValid() {
			return nil, apperrors.ErrInvalidStatus
		}
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderType != "" {
		if !models.OrderType(filter.OrderType).IsValid() {
			return nil, apperrors.ErrInvalidOrderType
		}
		query = query.Where("order_type = ?", filter.OrderType)
	}

	orders := make([]models.Order, 0)
	if err := query.Order("created_at DESC").Order("id DESC").Find(&orders).Error; err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list orders: %w", err))
	}
	return orders, nil
}

// UpdateOrderStatus checks that the order exists before looking at the
// requested status.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uint, req payloads.OrderStatusRequest) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	status, err := req.Validate()
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(order).Update("status", status).Error; err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to update order status: %w", err))
	}
	order.Status = status

	s.log.WithFields(logrus.Fields{"order_id": order.ID, "status": status}).Info("Order status updated")
	s.events.Publish(ctx, events.New(events.OrderStatusChanged, orderKey(order.ID), payloads.NewOrderResponse(*order)))
	return order, nil
}

func orderItemsByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

func orderKey(id uint) string {
	return "order-" + strconv.FormatUint(uint64(id), 10)
}
