package core

import (
	"strings"
	"time"
)

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#6366f1"

type Category struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"-"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color"`
	Icon        string    `json:"icon,omitempty"`
	Active      bool      `json:"isActive"`
	Default     bool      `json:"isDefault"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// DefaultCategories is the starter set seeded for a new owner.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Продукты питания", Description: "Расходы на еду и напитки", Color: "#ff6b6b", Active: true, Default: true, Icon: "🍕"},
		{Name: "Транспорт", Description: "Расходы на транспорт", Color: "#4ecdc4", Active: true, Default: true, Icon: "🚗"},
		{Name: "Развлечения", Description: "Расходы на развлечения", Color: "#45b7d1", Active: true, Default: true, Icon: "🎬"},
		{Name: "Здоровье", Description: "Медицинские расходы", Color: "#96ceb4", Active: true, Default: true, Icon: "🏥"},
		{Name: "Зарплата", Description: "Доходы от работы", Color: "#feca57", Active: true, Default: true, Icon: "💰"},
		{Name: "Другое", Description: "Прочие расходы и доходы", Color: "#a55eea", Active: true, Default: true, Icon: "📦"},
	}
}
