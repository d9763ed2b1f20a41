package repository

// This file defines data access for the restaurants table. Owner writes
// lock the row and check ownership in the same transaction that changes it,
// so a concurrent delete cannot slip between the check and the write.
// rating and owner_id are nullable and surface as pointers on the model.

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

const restaurantColumns = "id, name, cuisine, location, rating, total_seats, owner_id, created_at, updated_at"

// RestaurantRepo encapsulates all database queries related to restaurants.
type RestaurantRepo struct {
	db *sql.DB
}

// NewRestaurantRepo returns a RestaurantRepo bound to db.
func NewRestaurantRepo(db *sql.DB) *RestaurantRepo { return &RestaurantRepo{db: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRestaurant reads one row selected with restaurantColumns.
func scanRestaurant(s rowScanner) (*model.Restaurant, error) {
	var (
		m      model.Restaurant
		rating sql.NullFloat64
		owner  sql.NullInt64
	)
	if err := s.Scan(&m.ID, &m.Name, &m.Cuisine, &m.Location, &rating, &m.TotalSeats, &owner, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	if rating.Valid {
		v := rating.Float64
		m.Rating = &v
	}
	if owner.Valid {
		v := uint64(owner.Int64)
		m.OwnerID = &v
	}
	return &m, nil
}

func (r *RestaurantRepo) list(ctx context.Context, query string, args ...any) ([]model.Restaurant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query restaurants")
	}
	defer rows.Close()

	out := make([]model.Restaurant, 0)
	for rows.Next() {
		m, err := scanRestaurant(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan restaurant")
		}
		out = append(out, *m)
	}
	return out, errors.Wrap(rows.Err(), "iterate restaurants")
}

// List returns every restaurant ordered by name.
func (r *RestaurantRepo) List(ctx context.Context) ([]model.Restaurant, error) {
	return r.list(ctx, "SELECT "+restaurantColumns+" FROM restaurants ORDER BY name ASC")
}

// Search matches q as a substring of name, cuisine or location.
func (r *RestaurantRepo) Search(ctx context.Context, q string) ([]model.Restaurant, error) {
	like := "%" + escapeLike(strings.TrimSpace(q)) + "%"
	return r.list(ctx,
		"SELECT "+restaurantColumns+" FROM restaurants WHERE name LIKE ? OR cuisine LIKE ? OR location LIKE ? ORDER BY name ASC",
		like, like, like)
}

// ListByOwner returns the restaurants owned by ownerID ordered by name.
func (r *RestaurantRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Restaurant, error) {
	return r.list(ctx, "SELECT "+restaurantColumns+" FROM restaurants WHERE owner_id = ? ORDER BY name ASC", ownerID)
}

// GetByID fetches a restaurant without locking. It returns
// ErrRestaurantNotFound if no row is found.
func (r *RestaurantRepo) GetByID(ctx context.Context, id uint64) (*model.Restaurant, error) {
	return getRestaurant(ctx, r.db, "SELECT "+restaurantColumns+" FROM restaurants WHERE id = ?", id)
}

// LockByIDTx reads a restaurant with an exclusive row lock held until tx
// ends. Admissions to any slot of the restaurant serialize on this lock.
func (r *RestaurantRepo) LockByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Restaurant, error) {
	return getRestaurant(ctx, tx, "SELECT "+restaurantColumns+" FROM restaurants WHERE id = ? FOR UPDATE", id)
}

func getRestaurant(ctx context.Context, q Queryer, query string, id uint64) (*model.Restaurant, error) {
	m, err := scanRestaurant(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRestaurantNotFound
		}
		return nil, errors.Wrapf(err, "get restaurant %d", id)
	}
	return m, nil
}

// Create inserts a restaurant and reloads it so defaults are populated.
func (r *RestaurantRepo) Create(ctx context.Context, m *model.Restaurant) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO restaurants (name, cuisine, location, rating, total_seats, owner_id) VALUES (?, ?, ?, ?, ?, ?)",
		m.Name, m.Cuisine, m.Location, m.Rating, m.TotalSeats, m.OwnerID)
	if err != nil {
		return errors.Wrap(markConstraint(err), "insert restaurant")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "restaurant id")
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*m = *created
	return nil
}

// RestaurantPatch lists the columns an update may change; nil fields are
// left untouched.
type RestaurantPatch struct {
	Name       *string
	Cuisine    *string
	Location   *string
	Rating     *float64 // 0 to 5
	TotalSeats *int     // at least 1; may drop below seats already booked
}

// Update applies patch to the restaurant owned by ownerID. It returns
// ErrRestaurantNotFound or ErrForbidden when the row is missing or owned by
// someone else. Lowering total_seats never touches existing reservations.
func (r *RestaurantRepo) Update(ctx context.Context, id, ownerID uint64, patch RestaurantPatch) (*model.Restaurant, error) {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Cuisine != nil {
		add("cuisine", *patch.Cuisine)
	}
	if patch.Location != nil {
		add("location", *patch.Location)
	}
	if patch.Rating != nil {
		add("rating", *patch.Rating)
	}
	if patch.TotalSeats != nil {
		add("total_seats", *patch.TotalSeats)
	}

	var updated *model.Restaurant
	err := withTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		cur, err := r.LockByIDTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if !cur.OwnedBy(ownerID) {
			return ErrForbidden
		}
		if len(sets) > 0 {
			q := "UPDATE restaurants SET " + strings.Join(sets, ", ") + " WHERE id = ?"
			if _, err := tx.ExecContext(ctx, q, append(args, id)...); err != nil {
				return errors.Wrap(markConstraint(err), "update restaurant")
			}
		}
		updated, err = getRestaurant(ctx, tx, "SELECT "+restaurantColumns+" FROM restaurants WHERE id = ?", id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a restaurant owned by ownerID; its reservations cascade.
func (r *RestaurantRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	return withTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		cur, err := r.LockByIDTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if !cur.OwnedBy(ownerID) {
			return ErrForbidden
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM restaurants WHERE id = ?", id); err != nil {
			return errors.Wrap(markConstraint(err), "delete restaurant")
		}
		return nil
	})
}

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
