package api

import "time"

// User mirrors the public fields of the server's user model.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type Membership struct {
	UserID      string    `json:"userID"`
	HouseholdID string    `json:"householdID"`
	JoinedAt    time.Time `json:"joinedAt"`
	User        *User     `json:"user,omitempty"`
}

type Household struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Members   []Membership `json:"members,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

// ShoppingList carries its date as the server sends it, YYYY-MM-DD.
type ShoppingList struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Date        string    `json:"date"`
	HouseholdID string    `json:"householdID"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Item struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Category       *string   `json:"category,omitempty"`
	Amount         *string   `json:"amount,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
	Bought         bool      `json:"bought"`
	ShoppingListID string    `json:"shoppingListID"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ActivityEntry is one row of GET /households/:id/activity.
type ActivityEntry struct {
	ID           string                 `json:"id"`
	UserID       *string                `json:"userID,omitempty"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resourceType"`
	ResourceID   *string                `json:"resourceID,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
}

// AuthResponse is returned by POST /auth/register and POST /auth/login.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type LeaveResponse struct {
	Left             bool `json:"left"`
	HouseholdDeleted bool `json:"householdDeleted"`
}

type VersionInfo struct {
	Version     string `json:"version"`
	APIVersion  string `json:"apiVersion"`
	// Revocations is "redis" when logouts are shared between server instances.
	Revocations string `json:"revocations"`
}
