package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alxtravel/travel-booking-api/internal/domain"
)

const listingColumns = `id, title, description, location, price_per_night, created_at, updated_at`

type ListingRepository struct {
	db *sql.DB
}

func NewListingRepository(db *sql.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO listings (title, description, location, price_per_night, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`,
		l.Title, l.Description, l.Location, l.PricePerNight, l.CreatedAt,
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *ListingRepository) GetByID(ctx context.Context, id int64) (*domain.Listing, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`, id,
	)
	l, err := scanListing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return l, nil
}

func (r *ListingRepository) List(ctx context.Context, limit, offset int) ([]domain.Listing, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		listings = append(listings, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return listings, nil
}

func (r *ListingRepository) Update(ctx context.Context, l *domain.Listing) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE listings SET title = $1, description = $2, location = $3, price_per_night = $4, updated_at = now()
		WHERE id = $5`,
		l.Title, l.Description, l.Location, l.PricePerNight, l.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	return requireRowsAffected(res, "Update")
}

func (r *ListingRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return requireRowsAffected(res, "Delete")
}

func scanListing(s scanner) (*domain.Listing, error) {
	var l domain.Listing
	err := s.Scan(
		&l.ID, &l.Title, &l.Description, &l.Location, &l.PricePerNight,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func requireRowsAffected(res sql.Result, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}
