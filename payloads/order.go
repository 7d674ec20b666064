package payloads

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/zemen-restaurant/zemen-backend/apperrors"
	"github.com/zemen-restaurant/zemen-backend/models"
)

const (
	minZipLength = 5

	// Amounts are checked against these before any rescaling so a huge
	// exponent cannot force a huge big.Int.
	minAmountExponent = -12
	maxAmountExponent = 8
	maxAmountBits     = 128
)

var (
	maxTotalPrice = decimal.RequireFromString("999999.99") // decimal(8,2)
	maxItemPrice  = decimal.RequireFromString("9999.99")   // decimal(6,2)
)

type SubmitOrderRequest struct {
	Name                string           `json:"name" validate:"required,max=100"`
	Phone               string           `json:"phone" validate:"required,max=20"`
	SpecialRequest      *string          `json:"special_request"`
	OrderType           string           `json:"order_type"`
	Street              string           `json:"street" validate:"max=255"`
	City                string           `json:"city" validate:"max=100"`
	State               string           `json:"state" validate:"max=50"`
	Zip                 string           `json:"zip" validate:"max=20"`
	TotalPrice          *decimal.Decimal `json:"total_price"`
	PickupPaymentMethod string           `json:"pickup_payment_method"`
	Items               []OrderItemInput `json:"items"`
}

type OrderItemInput struct {
	Name     string           `json:"name"`
	Quantity *int             `json:"quantity"`
	Price    *decimal.Decimal `json:"price"`
}

// Validate checks the payload and builds the unsaved order and its items.
// Rules run in a fixed order and the first failure is returned.
func (r *SubmitOrderRequest) Validate() (models.Order, []models.OrderItem, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	if err := validateStruct(r); err != nil {
		return models.Order{}, nil, err
	}

	orderType := models.OrderType(r.OrderType)
	if !orderType.IsValid() {
		return models.Order{}, nil, apperrors.ErrInvalidOrderType
	}

	if orderType == models.OrderTypeDelivery {
		if blank(r.Street) || blank(r.City) || blank(r.State) || blank(r.Zip) {
			return models.Order{}, nil, apperrors.ErrInvalidAddress
		}
		if utf8.RuneCountInString(r.Zip) < minZipLength {
			return models.Order{}, nil, apperrors.ErrInvalidAddress.WithMessage("Zip code must be at least %d characters.", minZipLength)
		}
	}

	if r.TotalPrice == nil {
		return models.Order{}, nil, apperrors.ErrInvalidTotalPrice.WithMessage("total_price is required")
	}
	if !validAmount(*r.TotalPrice, maxTotalPrice) {
		return models.Order{}, nil, apperrors.ErrInvalidTotalPrice
	}

	items := make([]models.OrderItem, 0, len(r.Items))
	for i, in := range r.Items {
		item, err := in.toModel(i)
		if err != nil {
			return models.Order{}, nil, err
		}
		items = append(items, item)
	}

	if err := validate.Var(r.PickupPaymentMethod, "omitempty,oneof=store online"); err != nil {
		return models.Order{}, nil, apperrors.ErrInvalidField.WithMessage("pickup_payment_method must be one of: store online")
	}

	order := models.Order{
		Name:          r.Name,
		Phone:         r.Phone,
		OrderType:     orderType,
		Street:        r.Street,
		City:          r.City,
		State:         r.State,
		Zip:           r.Zip,
		PaymentMethod: r.PickupPaymentMethod,
		TotalPrice:    r.TotalPrice.Round(2),
		Status:        models.OrderStatusPending,
	}
	if r.SpecialRequest != nil {
		order.SpecialRequest = *r.SpecialRequest
	}
	return order, items, nil
}

func (in OrderItemInput) toModel(index int) (models.OrderItem, error) {
	if blank(in.Name) {
		return models.OrderItem{}, apperrors.ErrInvalidItem.WithMessage("item %d: name is required", index)
	}
	if utf8.RuneCountInString(in.Name) > 100 {
		return models.OrderItem{}, apperrors.ErrInvalidItem.WithMessage("item %d: name must be at most 100 characters", index)
	}
	if in.Quantity == nil || *in.Quantity <= 0 {
		return models.OrderItem{}, apperrors.ErrInvalidItem.WithMessage("item %d: quantity must be greater than 0", index)
	}
	if in.Price == nil || !validAmount(*in.Price, maxItemPrice) {
		return models.OrderItem{}, apperrors.ErrInvalidItem.WithMessage("item %d: price must be a non-negative amount with at most 2 decimal places", index)
	}
	return models.OrderItem{
		ItemName:     in.Name,
		Quantity:     *in.Quantity,
		PricePerItem: in.Price.Round(2),
	}, nil
}

type OrderStatusRequest struct {
	Status *string `json:"status"`
}

func (r *OrderStatusRequest) Validate() (models.OrderStatus, error) {
	if r.Status == nil || !models.OrderStatus(*r.Status).IsValid() {
		return "", apperrors.ErrInvalidStatus
	}
	return models.OrderStatus(*r.Status), nil
}

type OrderItemResponse struct {
	ItemName     string `json:"item_name"`
	Quantity     int    `json:"quantity"`
	PricePerItem string `json:"price_per_item"`
}

type OrderResponse struct {
	ID              uint                `json:"id"`
	Name            string              `json:"name"`
	Phone           string              `json:"phone"`
	SpecialRequest  string              `json:"special_request"`
	TotalPrice      string              `json:"total_price"`
	OrderType       string              `json:"order_type"`
	Street          string              `json:"street"`
	City            string              `json:"city"`
	State           string              `json:"state"`
	Zip             string              `json:"zip"`
	DeliveryAddress *string             `json:"delivery_address"`
	PaymentMethod   string              `json:"payment_method,omitempty"`
	Status          string              `json:"status"`
	CreatedAt       time.Time           `json:"created_at"`
	Items           []OrderItemResponse `json:"items"`
}

func NewOrderResponse(o models.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ItemName:     it.ItemName,
			Quantity:     it.Quantity,
			PricePerItem: it.PricePerItem.StringFixed(2),
		})
	}

	return OrderResponse{
		ID:              o.ID,
		Name:            o.Name,
		Phone:           o.Phone,
		SpecialRequest:  o.SpecialRequest,
		TotalPrice:      o.TotalPrice.StringFixed(2),
		OrderType:       string(o.OrderType),
		Street:          o.Street,
		City:            o.City,
		State:           o.State,
		Zip:             o.Zip,
		DeliveryAddress: o.DeliveryAddress(),
		PaymentMethod:   o.PaymentMethod,
		Status:          string(o.Status),
		CreatedAt:       o.CreatedAt,
		Items:           items,
	}
}

func NewOrderListResponse(orders []models.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewOrderResponse(o))
	}
	return out
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func validAmount(d, max decimal.Decimal) bool {
	if exp := d.Exponent(); exp < minAmountExponent || exp > maxAmountExponent {
		return false
	}
	if d.Coefficient().BitLen() > maxAmountBits {
		return false
	}
	return !d.IsNegative() && d.Equal(d.Round(2)) && d.LessThanOrEqual(max)
}
