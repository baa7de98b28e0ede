package enums

import "fmt"

// EntityKind is the closed set of tables the identity resolver can address.
// Each kind binds to its table at compile time, so no caller-supplied string
// ever reaches query text.
type EntityKind string

const (
	EntityUser     EntityKind = "user"
	EntityCategory EntityKind = "category"
	EntityProduct  EntityKind = "product"
	EntityOrder    EntityKind = "order"
	EntityPayment  EntityKind = "payment_intent"
	EntityCart     EntityKind = "cart"
)

var entityKindTables = map[EntityKind]string{
	EntityUser:     "users",
	EntityCategory: "categories",
	EntityProduct:  "products",
	EntityOrder:    "orders",
	EntityPayment:  "payment_intents",
	EntityCart:     "cart_records",
}

// String implements fmt.Stringer.
func (e EntityKind) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EntityKind.
func (e EntityKind) IsValid() bool {
	_, ok := entityKindTables[e]
	return ok
}

// Table returns the storage table backing the kind.
func (e EntityKind) Table() string {
	return entityKindTables[e]
}

// ParseEntityKind converts raw input into an EntityKind.
func ParseEntityKind(value string) (EntityKind, error) {
	kind := EntityKind(value)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid entity kind %q", value)
	}
	return kind, nil
}
