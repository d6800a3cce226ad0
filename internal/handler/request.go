package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/xenking/digital-hub/internal/domain/cart"
)

const maxBodySize = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	if err := v.RegisterValidation("servicetype", func(fl validator.FieldLevel) bool {
		return cart.ServiceType(fl.Field().String()).Valid()
	}); err != nil {
		panic(err)
	}
	return v
}

// requestError is a client error with optional per-field messages.
type requestError struct {
	msg    string
	fields map[string]string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// decodeJSON reads a single JSON object from the body into dst and validates
// it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return decodeBody(w, r, dst, false)
}

// decodeOptionalJSON is decodeJSON that treats an empty body as an empty
// object.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return decodeBody(w, r, dst, true)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	defer func() {
		_, _ = io.Copy(io.Discard, body)
	}()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if !(optional && errors.Is(err, io.EOF)) {
			return badRequest("invalid request body: %s", err)
		}
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return badRequest("validation failed: %s", err)
	}
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = validationMessage(fe)
	}
	return &requestError{msg: "validation failed", fields: fields}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "servicetype":
		return "is not a known service type"
	}
	return "is invalid"
}

// parseServiceType validates a serviceType path parameter.
func parseServiceType(s string) (cart.ServiceType, error) {
	st := cart.ServiceType(s)
	if !st.Valid() {
		return "", badRequest("unknown service type %q", s)
	}
	return st, nil
}

func requireNonNegative(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return &requestError{
			msg:    "validation failed",
			fields: map[string]string{field: "must be at least 0"},
		}
	}
	return nil
}

type listingRequest struct {
	ID       string `json:"id" validate:"required,max=128"`
	Name     string `json:"name" validate:"required,max=256"`
	ImageURL string `json:"imageUrl" validate:"omitempty,max=2048"`
}

// listing carries no price; helpers that take one from the client set it.
func (l listingRequest) listing() cart.Listing {
	return cart.Listing{ID: l.ID, Name: l.Name, ImageURL: l.ImageURL}
}

type addItemRequest struct {
	listingRequest
	ServiceType string          `json:"serviceType" validate:"required,servicetype"`
	Price       decimal.Decimal `json:"price"`
	Qty         int             `json:"qty" validate:"gte=0"`
	Details     cart.Details    `json:"details"`
}

func (req addItemRequest) item() cart.Item {
	return cart.Item{
		ID:          req.ID,
		ServiceType: cart.ServiceType(req.ServiceType),
		Name:        req.Name,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Qty:         req.Qty,
		Details:     req.Details,
	}
}

type restaurantRequest struct {
	MenuItemID string                  `json:"menuItemId" validate:"required,max=128"`
	Qty        int                     `json:"qty" validate:"gte=0"`
	Details    *cart.RestaurantDetails `json:"details"`
}

type gameRequest struct {
	listingRequest
	Duration    int    `json:"duration" validate:"min=1"`
	SessionType string `json:"sessionType" validate:"required,max=64"`
}

type printRequest struct {
	listingRequest
	FileName     string            `json:"fileName" validate:"required,max=512"`
	FileSize     int64             `json:"fileSize" validate:"gte=0"`
	NumPages     int               `json:"numPages" validate:"min=1"`
	PrintOptions cart.PrintOptions `json:"printOptions"`
}

func (req printRequest) details() cart.PrintJobDetails {
	return cart.PrintJobDetails{
		FileName:     req.FileName,
		FileSize:     req.FileSize,
		NumPages:     req.NumPages,
		PrintOptions: req.PrintOptions,
	}
}

type productRequest struct {
	listingRequest
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category" validate:"required,max=128"`
	Brand    string          `json:"brand" validate:"max=128"`
	Size     string          `json:"size" validate:"max=64"`
	Color    string          `json:"color" validate:"max=64"`
	Stock    int             `json:"stock" validate:"gte=0"`
}

func (req productRequest) details() cart.ProductDetails {
	return cart.ProductDetails{
		Category: req.Category,
		Brand:    req.Brand,
		Size:     req.Size,
		Color:    req.Color,
		Stock:    req.Stock,
	}
}

type deliveryRequest struct {
	listingRequest
	PickupAddress     string  `json:"pickupAddress" validate:"required,max=512"`
	DeliveryAddress   string  `json:"deliveryAddress" validate:"required,max=512"`
	PackageSize       string  `json:"packageSize" validate:"required,oneof=small medium large"`
	VehicleType       string  `json:"vehicleType" validate:"required,oneof=bike car van"`
	EstimatedDistance float64 `json:"estimatedDistance" validate:"gte=0"`
}

func (req deliveryRequest) details() cart.DeliveryDetails {
	return cart.DeliveryDetails{
		PickupAddress:     req.PickupAddress,
		DeliveryAddress:   req.DeliveryAddress,
		PackageSize:       req.PackageSize,
		VehicleType:       req.VehicleType,
		EstimatedDistance: req.EstimatedDistance,
	}
}

type streamingRequest struct {
	listingRequest
	Type       string `json:"type" validate:"required,max=64"`
	Title      string `json:"title" validate:"max=256"`
	Duration   int    `json:"duration" validate:"gte=0"`
	AccessType string `json:"accessType" validate:"required,oneof=single subscription"`
	ContentID  string `json:"contentId" validate:"max=128"`
}

func (req streamingRequest) details() cart.StreamingDetails {
	return cart.StreamingDetails{
		Type:       req.Type,
		Title:      req.Title,
		Duration:   req.Duration,
		AccessType: req.AccessType,
		ContentID:  req.ContentID,
	}
}

type downloadRequest struct {
	listingRequest
	FileType      string   `json:"fileType" validate:"required,max=64"`
	FileSize      int64    `json:"fileSize" validate:"gte=0"`
	DownloadLinks []string `json:"downloadLinks" validate:"dive,url"`
	ExpiresAt     string   `json:"expiresAt" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

func (req downloadRequest) details() cart.DownloadDetails {
	return cart.DownloadDetails{
		FileType:      req.FileType,
		FileSize:      req.FileSize,
		DownloadLinks: req.DownloadLinks,
		ExpiresAt:     req.ExpiresAt,
	}
}

type updateQuantityRequest struct {
	Qty *int `json:"qty" validate:"required"`
}

type verifyPaymentRequest struct {
	OrderID  string `json:"orderId" validate:"required,max=128"`
	Verified *bool  `json:"verified" validate:"required"`
	Notes    string `json:"notes" validate:"max=1000"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed preparing ready out-for-delivery delivered cancelled"`
}

type placeOrderRequest struct {
	Total *decimal.Decimal `json:"total"`
}
