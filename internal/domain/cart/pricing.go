package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Listing is what a service catalog knows about a purchasable unit before it
// becomes a cart line. Price is ignored by helpers that derive their own.
type Listing struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	ImageURL string
}

// Session types for game bookings.
const (
	SessionCasual     = "casual"
	SessionTournament = "tournament"
	SessionPractice   = "practice"
)

// RestaurantDetails describes a food or drink line.
type RestaurantDetails struct {
	Category            string `json:"category"`
	PreparationTime     int    `json:"preparationTime,omitempty"`
	SpecialInstructions string `json:"specialInstructions,omitempty"`
}

// GameSessionDetails describes a booked console session.
type GameSessionDetails struct {
	SessionType  string `json:"sessionType"`
	Duration     int    `json:"duration"`
	OpponentType string `json:"opponentType"`
	GameVersion  string `json:"gameVersion"`
}

// PrintOptions controls how a print job is produced.
type PrintOptions struct {
	Color   bool   `json:"color"`
	Duplex  bool   `json:"duplex"`
	Binding string `json:"binding"`
}

// PrintJobDetails describes an uploaded document to print.
type PrintJobDetails struct {
	FileName     string       `json:"fileName"`
	FileSize     int64        `json:"fileSize"`
	NumPages     int          `json:"numPages"`
	PrintOptions PrintOptions `json:"printOptions"`
}

// ProductDetails describes a shop product.
type ProductDetails struct {
	Category string `json:"category"`
	Brand    string `json:"brand"`
	Size     string `json:"size,omitempty"`
	Color    string `json:"color,omitempty"`
	Stock    int    `json:"stock"`
}

// DeliveryDetails describes a courier booking.
type DeliveryDetails struct {
	PickupAddress     string  `json:"pickupAddress"`
	DeliveryAddress   string  `json:"deliveryAddress"`
	PackageSize       string  `json:"packageSize"`
	VehicleType       string  `json:"vehicleType"`
	EstimatedDistance float64 `json:"estimatedDistance"`
}

// StreamingDetails describes streamed content access.
type StreamingDetails struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Duration   int    `json:"duration"`
	AccessType string `json:"accessType"`
	ContentID  string `json:"contentId,omitempty"`
}

// DownloadDetails describes a purchasable download.
type DownloadDetails struct {
	FileType      string   `json:"fileType"`
	FileSize      int64    `json:"fileSize"`
	DownloadLinks []string `json:"downloadLinks"`
	ExpiresAt     string   `json:"expiresAt,omitempty"`
}

var (
	fifty        = decimal.NewFromInt(50)
	hundred      = decimal.NewFromInt(100)
	colorFactor  = decimal.RequireFromString("1.5")
	carFactor    = decimal.RequireFromString("1.5")
	vanFactor    = decimal.NewFromInt(2)
	defaultPrice = decimal.NewFromInt(1000)
)

// GameSessionPrice returns the price of a session of the given type and
// length in minutes.
func GameSessionPrice(sessionType string, duration int) decimal.Decimal {
	switch sessionType {
	case SessionTournament, SessionPractice:
		return decimal.NewFromInt(500)
	case SessionCasual:
		switch {
		case duration >= 120:
			return decimal.NewFromInt(3500)
		case duration >= 60:
			return decimal.NewFromInt(2000)
		default:
			return decimal.NewFromInt(1000)
		}
	default:
		return defaultPrice
	}
}

// PrintJobPrice returns 100 per page, 150 per page in color. The result is
// not rounded.
func PrintJobPrice(numPages int, color bool) decimal.Decimal {
	price := decimal.NewFromInt(int64(numPages)).Mul(hundred)
	if color {
		price = price.Mul(colorFactor)
	}
	return price
}

// DeliveryPrice returns the courier fare rounded to a whole unit.
func DeliveryPrice(packageSize, vehicleType string, distance float64) decimal.Decimal {
	var base decimal.Decimal
	switch packageSize {
	case "small":
		base = decimal.NewFromInt(500)
	case "medium":
		base = decimal.NewFromInt(800)
	default:
		base = decimal.NewFromInt(1200)
	}

	multiplier := decimal.NewFromInt(1)
	switch vehicleType {
	case "car":
		multiplier = carFactor
	case "van":
		multiplier = vanFactor
	}

	fare := base.Add(decimal.NewFromFloat(distance).Mul(fifty))
	return fare.Mul(multiplier).Round(0)
}

// StreamingPrice returns 2000 for subscriptions and 500 for single access.
func StreamingPrice(accessType string) decimal.Decimal {
	if accessType == "subscription" {
		return decimal.NewFromInt(2000)
	}
	return decimal.NewFromInt(500)
}

// DownloadPrice returns the price of a download by file type.
func DownloadPrice(fileType string) decimal.Decimal {
	switch fileType {
	case "software":
		return decimal.NewFromInt(1500)
	case "movie":
		return decimal.NewFromInt(500)
	default:
		return decimal.NewFromInt(200)
	}
}

// AddRestaurantItem adds qty of a menu item at its catalog price. Without
// details the line is tagged with its name as category.
func (c *Cart) AddRestaurantItem(l Listing, qty int, details *RestaurantDetails) {
	d := Details{"category": l.Name}
	if details != nil {
		d = toDetails(details)
	}
	c.Add(l.item(ServiceRestaurant, l.Price, qty, d))
}

// AddGameSession books one session priced by type and duration.
func (c *Cart) AddGameSession(l Listing, duration int, sessionType string) {
	c.Add(l.item(ServiceGame, GameSessionPrice(sessionType, duration), 1, toDetails(GameSessionDetails{
		SessionType:  sessionType,
		Duration:     duration,
		OpponentType: "random",
		GameVersion:  "FC26",
	})))
}

// AddPrintJob adds one print job priced by page count and color.
func (c *Cart) AddPrintJob(l Listing, job PrintJobDetails) {
	price := PrintJobPrice(job.NumPages, job.PrintOptions.Color)
	c.Add(l.item(ServicePrint, price, 1, toDetails(job)))
}

// AddProduct adds one shop product at the listing price.
func (c *Cart) AddProduct(l Listing, p ProductDetails) {
	c.Add(l.item(ServiceEcommerce, l.Price, 1, toDetails(p)))
}

// AddDelivery adds one courier booking priced by size, distance and vehicle.
func (c *Cart) AddDelivery(l Listing, d DeliveryDetails) {
	price := DeliveryPrice(d.PackageSize, d.VehicleType, d.EstimatedDistance)
	c.Add(l.item(ServiceLogistics, price, 1, toDetails(d)))
}

// AddStreamingContent adds one streaming access priced by access type.
func (c *Cart) AddStreamingContent(l Listing, s StreamingDetails) {
	c.Add(l.item(ServiceStreaming, StreamingPrice(s.AccessType), 1, toDetails(s)))
}

// AddDownload adds one download priced by file type.
func (c *Cart) AddDownload(l Listing, d DownloadDetails) {
	c.Add(l.item(ServiceDownload, DownloadPrice(d.FileType), 1, toDetails(d)))
}

func (l Listing) item(st ServiceType, price decimal.Decimal, qty int, d Details) Item {
	return Item{
		ID:          l.ID,
		ServiceType: st,
		Name:        l.Name,
		Price:       price,
		ImageURL:    l.ImageURL,
		Qty:         qty,
		Details:     d,
	}
}

// toDetails flattens a typed details struct into the generic bag, in the same
// shape it takes after a trip through storage.
func toDetails(v any) Details {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var d Details
	if err := json.Unmarshal(b, &d); err != nil {
		return nil
	}
	return d
}
