// model/book.go
package model

import "time"

type Book struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Category        string    `json:"category"`
	Description     string    `json:"description"`
	TotalCopies     int64     `json:"total_copies"`
	AvailableCopies int64     `json:"available_copies"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Outstanding is the number of copies currently checked out.
func (b Book) Outstanding() int64 { return b.TotalCopies - b.AvailableCopies }
