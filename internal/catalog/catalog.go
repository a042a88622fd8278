// Package catalog содержит статический каталог товаров и промокодов витрины.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/mmeshcher/hydracity/internal/model"
)

// DefaultIcon используется для товара без иконки.
const DefaultIcon = "fas fa-star"

var (
	errBadPrice = errors.New("price must be a non-negative decimal")
	errBadRate  = errors.New("discount rate must be within [0, 1]")
)

// Catalog хранит неизменяемый набор товаров и промокодов.
type Catalog struct {
	products map[string]model.Product
	order    []string
	coupons  map[string]model.Coupon
}

// Default возвращает каталог, с которым витрина работает без файла конфигурации.
func Default() *Catalog {
	c, err := build(fileSchema{
		Products: []productEntry{
			{ID: "vip-bronze", Name: "VIP Bronze", Price: "25.00", Icon: "fas fa-medal", Description: "Bronze VIP package with basic perks"},
			{ID: "vip-gold", Name: "VIP Gold", Price: "50.00", Icon: "fas fa-crown", Description: "Gold VIP package with premium perks"},
			{ID: "vip-diamond", Name: "VIP Diamond", Price: "100.00", Icon: "fas fa-gem", Description: "Diamond VIP package with every perk"},
		},
		Coupons: []couponEntry{
			{Code: "HYDRA10", Rate: "0.10", Description: "10% off"},
			{Code: "VIP20", Rate: "0.20", Description: "20% off"},
			{Code: "WELCOME15", Rate: "0.15", Description: "15% off for new players"},
			{Code: "BLACKFRIDAY", Rate: "0.30", Description: "30% off Black Friday"},
		},
	})
	if err != nil {
		panic(err)
	}
	return c
}

type productEntry struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Price       string `yaml:"price"`
	Icon        string `yaml:"icon"`
	Description string `yaml:"description"`
}

type couponEntry struct {
	Code        string `yaml:"code"`
	Rate        string `yaml:"rate"`
	Description string `yaml:"description"`
}

type fileSchema struct {
	Products []productEntry `yaml:"products"`
	Coupons  []couponEntry  `yaml:"coupons"`
}

// Load читает каталог из YAML-файла.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

// Parse разбирает каталог из YAML.
func Parse(raw []byte) (*Catalog, error) {
	var f fileSchema
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return build(f)
}

func build(f fileSchema) (*Catalog, error) {
	c := &Catalog{
		products: make(map[string]model.Product, len(f.Products)),
		coupons:  make(map[string]model.Coupon, len(f.Coupons)),
	}

	for _, p := range f.Products {
		if p.ID == "" {
			return nil, fmt.Errorf("product without id")
		}
		if _, dup := c.products[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product %q", p.ID)
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("product %q: %w", p.ID, errBadPrice)
		}
		icon := p.Icon
		if icon == "" {
			icon = DefaultIcon
		}
		c.products[p.ID] = model.Product{
			ID:          p.ID,
			Name:        p.Name,
			Price:       price,
			Icon:        icon,
			Description: p.Description,
		}
		c.order = append(c.order, p.ID)
	}

	for _, e := range f.Coupons {
		code := NormalizeCode(e.Code)
		if code == "" {
			return nil, fmt.Errorf("coupon without code")
		}
		rate, err := decimal.NewFromString(e.Rate)
		if err != nil || rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("coupon %q: %w", code, errBadRate)
		}
		c.coupons[code] = model.Coupon{Code: code, Rate: rate, Description: e.Description}
	}

	return c, nil
}

// NormalizeCode приводит промокод к виду, в котором он хранится в каталоге.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Product ищет товар по id.
func (c *Catalog) Product(id string) (model.Product, bool) {
	p, ok := c.products[id]
	return p, ok
}

// Products возвращает товары в порядке объявления.
func (c *Catalog) Products() []model.Product {
	out := make([]model.Product, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.products[id])
	}
	return out
}

// Coupon ищет промокод без учёта регистра и пробелов по краям.
func (c *Catalog) Coupon(code string) (model.Coupon, bool) {
	cp, ok := c.coupons[NormalizeCode(code)]
	return cp, ok
}

// Coupons возвращает промокоды, отсортированные по коду.
func (c *Catalog) Coupons() []model.Coupon {
	out := make([]model.Coupon, 0, len(c.coupons))
	for _, cp := range c.coupons {
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
