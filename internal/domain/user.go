package domain

import "context"

// User represents a registered user of the directory collaborator.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserRepository is the user directory consumed by the core.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
}

// Category classifies events.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CategoryRepository is the category directory consumed by the core.
type CategoryRepository interface {
	GetByID(ctx context.Context, id string) (*Category, error)
}

// LocationRepository stores event locations. Save is an idempotent upsert of
// a lat/lon pair and fills in the stored ID.
type LocationRepository interface {
	Save(ctx context.Context, loc *Location) error
}
