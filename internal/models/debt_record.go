package models

import "time"

// DebtRecord is one unresolved technical-debt entry of the log applet.
type DebtRecord struct {
	ID      int64     `json:"id" bson:"id"`
	User    string    `json:"user" bson:"user"`
	Date    time.Time `json:"date" bson:"date"`
	Servers string    `json:"servers" bson:"servers"`
}

type PageRef struct {
	ID  string `json:"id" bson:"page_id"`
	URL string `json:"url" bson:"page_url"`
}
