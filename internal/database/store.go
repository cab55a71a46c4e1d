// Package database provides read-only listing tables for the feed loader.
package database

import (
	"context"
	"database/sql"
	"strings"

	"github.com/bryan-buckman/corvettetrader/internal/model"
)

// Store defines the interface for database operations.
// Both SQLite and PostgreSQL implementations satisfy this interface.
type Store interface {
	Close() error

	// DatabaseType returns the name of the database backend ("SQLite" or "PostgreSQL").
	DatabaseType() string

	// Listings returns every listing in table order.
	Listings(ctx context.Context) ([]model.Listing, error)
}

const listingColumns = "title, description, price, generation, part_type, city, province, image, contact, posted"

// scanListings reads rows selected with listingColumns. Generation is stored
// as comma-separated text.
func scanListings(rows *sql.Rows) ([]model.Listing, error) {
	var listings []model.Listing
	for rows.Next() {
		var (
			l          model.Listing
			generation sql.NullString
			posted     sql.NullString
			partType   sql.NullString
			city       sql.NullString
			province   sql.NullString
			image      sql.NullString
			contact    sql.NullString
		)
		if err := rows.Scan(&l.Title, &l.Description, &l.Price, &generation, &partType, &city, &province, &image, &contact, &posted); err != nil {
			return nil, err
		}
		l.Generation = splitTags(generation.String)
		l.PartType = partType.String
		l.City = city.String
		l.Province = province.String
		l.Image = image.String
		l.Contact = contact.String
		l.Posted, _ = model.ParseTimestamp(posted.String)
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func splitTags(s string) model.Tags {
	var tags model.Tags
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}
