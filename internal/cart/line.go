package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Product is the catalog record a line is built from.
type Product struct {
	ID       string          `validate:"required,max=128"`
	Name     string          `validate:"max=256"`
	Image    string          `validate:"max=2048"`
	Category string          `validate:"max=128"`
	Price    decimal.Decimal `validate:"gte=0"`
	Discount decimal.Decimal `validate:"gte=0"`
}

// Line is one distinct product held in the cart. Display fields are copied
// from the product when the line is created and never refreshed.
type Line struct {
	ProductID    string
	Name         string
	Image        string
	Category     string
	UnitPrice    decimal.Decimal
	UnitDiscount decimal.Decimal
	Quantity     int
}

func newLine(p Product) Line {
	return Line{
		ProductID:    p.ID,
		Name:         p.Name,
		Image:        p.Image,
		Category:     p.Category,
		UnitPrice:    p.Price,
		UnitDiscount: p.Discount,
		Quantity:     1,
	}
}

func (l Line) qty() decimal.Decimal { return decimal.NewFromInt(int64(l.Quantity)) }

// EffectivePrice is the per-unit price actually charged.
func (l Line) EffectivePrice() decimal.Decimal { return l.UnitPrice.Sub(l.UnitDiscount) }

func (l Line) ListTotal() decimal.Decimal     { return l.UnitPrice.Mul(l.qty()) }
func (l Line) DiscountTotal() decimal.Decimal { return l.UnitDiscount.Mul(l.qty()) }

// Total is the per-line display amount. It is never summed into the cart
// total; FinalTotal is derived from the aggregates only.
func (l Line) Total() decimal.Decimal { return l.EffectivePrice().Mul(l.qty()) }

type wireLine struct {
	ProductID    string      `json:"productId"`
	Quantity     int         `json:"quantity"`
	UnitPrice    json.Number `json:"unitPrice"`
	UnitDiscount json.Number `json:"unitDiscount,omitempty"`
	Name         string      `json:"name,omitempty"`
	Image        string      `json:"image,omitempty"`
	Category     string      `json:"category,omitempty"`
}

func (l Line) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireLine{
		ProductID:    l.ProductID,
		Quantity:     l.Quantity,
		UnitPrice:    number(l.UnitPrice),
		UnitDiscount: number(l.UnitDiscount),
		Name:         l.Name,
		Image:        l.Image,
		Category:     l.Category,
	})
}

func (l *Line) UnmarshalJSON(data []byte) error {
	var w wireLine
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	price, err := decimal.NewFromString(w.UnitPrice.String())
	if err != nil {
		return err
	}
	discount := decimal.Zero
	if w.UnitDiscount != "" {
		if discount, err = decimal.NewFromString(w.UnitDiscount.String()); err != nil {
			return err
		}
	}

	*l = Line{
		ProductID:    w.ProductID,
		Name:         w.Name,
		Image:        w.Image,
		Category:     w.Category,
		UnitPrice:    price,
		UnitDiscount: discount,
		Quantity:     w.Quantity,
	}
	return nil
}

// Summary holds the monetary figures derived from the current lines.
type Summary struct {
	Subtotal      decimal.Decimal
	TotalDiscount decimal.Decimal
	FinalTotal    decimal.Decimal
	ItemCount     int
	LineCount     int
}

func summarize(lines []Line) Summary {
	s := Summary{
		Subtotal:      decimal.Zero,
		TotalDiscount: decimal.Zero,
		LineCount:     len(lines),
	}
	for _, l := range lines {
		s.Subtotal = s.Subtotal.Add(l.ListTotal())
		s.TotalDiscount = s.TotalDiscount.Add(l.DiscountTotal())
		s.ItemCount += l.Quantity
	}
	s.FinalTotal = s.Subtotal.Sub(s.TotalDiscount)
	return s
}

func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Subtotal      json.Number `json:"subtotal"`
		TotalDiscount json.Number `json:"totalDiscount"`
		FinalTotal    json.Number `json:"finalTotal"`
		ItemCount     int         `json:"itemCount"`
		LineCount     int         `json:"lineCount"`
	}{
		Subtotal:      number(s.Subtotal),
		TotalDiscount: number(s.TotalDiscount),
		FinalTotal:    number(s.FinalTotal),
		ItemCount:     s.ItemCount,
		LineCount:     s.LineCount,
	})
}

func number(d decimal.Decimal) json.Number { return json.Number(d.String()) }
