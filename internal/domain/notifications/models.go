package notifications

import "time"

type Notification struct {
	ID        string     `json:"id"`
	AccountID string     `json:"accountId"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	EntityID  string     `json:"entityId"`
	ReadAt    *time.Time `json:"readAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Notice is a notification about to be delivered.
type Notice struct {
	AccountID string
	Type      string
	Title     string
	Body      string
	EntityID  string
}

type ListResult struct {
	Items  []Notification `json:"items"`
	Total  int            `json:"total"`
	Unread int            `json:"unread"`
}
