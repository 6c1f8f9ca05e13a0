package models

// All lists every persisted model in dependency order.
func All() []any {
	return []any{
		&User{},
		&UserSeller{},
		&UserBuyer{},
		&Brand{},
		&Category{},
		&Product{},
		&Review{},
		&CartItem{},
		&Address{},
		&Order{},
		&OrderItem{},
	}
}
