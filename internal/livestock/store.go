package livestock

import (
	"context"
	"database/sql"
	"errors"
)

var ErrNotFound = errors.New("record not found")

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateAgent(ctx context.Context, a *Agent) error {
	const q = `
		INSERT INTO agents (name, phone, region, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, created_at, updated_at
	`
	return s.db.QueryRowContext(ctx, q, a.Name, a.Phone, a.Region, a.Notes).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (s *Store) GetAgent(ctx context.Context, id int64) (*Agent, error) {
	const q = `SELECT id, name, phone, region, notes, created_at, updated_at FROM agents WHERE id = $1`
	a := &Agent{}
	err := s.db.QueryRowContext(ctx, q, id).
		Scan(&a.ID, &a.Name, &a.Phone, &a.Region, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) ListAgents(ctx context.Context) ([]Agent, error) {
	const q = `SELECT id, name, phone, region, notes, created_at, updated_at FROM agents ORDER BY name`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Agent
	for rows.Next() {
		var a Agent
		if err := rows.Scan(&a.ID, &a.Name, &a.Phone, &a.Region, &a.Notes, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (s *Store) UpdateAgent(ctx context.Context, a *Agent) error {
	const q = `
		UPDATE agents SET name = $2, phone = $3, region = $4, notes = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := s.db.QueryRowContext(ctx, q, a.ID, a.Name, a.Phone, a.Region, a.Notes).Scan(&a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *Store) CreateSeller(ctx context.Context, sl *Seller) error {
	const q = `
		INSERT INTO sellers (name, phone, village, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, created_at, updated_at
	`
	return s.db.QueryRowContext(ctx, q, sl.Name, sl.Phone, sl.Village, sl.Notes).
		Scan(&sl.ID, &sl.CreatedAt, &sl.UpdatedAt)
}

func (s *Store) GetSeller(ctx context.Context, id int64) (*Seller, error) {
	const q = `SELECT id, name, phone, village, notes, created_at, updated_at FROM sellers WHERE id = $1`
	sl := &Seller{}
	err := s.db.QueryRowContext(ctx, q, id).
		Scan(&sl.ID, &sl.Name, &sl.Phone, &sl.Village, &sl.Notes, &sl.CreatedAt, &sl.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sl, nil
}

func (s *Store) ListSellers(ctx context.Context) ([]Seller, error) {
	const q = `SELECT id, name, phone, village, notes, created_at, updated_at FROM sellers ORDER BY name`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Seller
	for rows.Next() {
		var sl Seller
		if err := rows.Scan(&sl.ID, &sl.Name, &sl.Phone, &sl.Village, &sl.Notes, &sl.CreatedAt, &sl.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, sl)
	}
	return result, rows.Err()
}

func (s *Store) UpdateSeller(ctx context.Context, sl *Seller) error {
	const q = `
		UPDATE sellers SET name = $2, phone = $3, village = $4, notes = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := s.db.QueryRowContext(ctx, q, sl.ID, sl.Name, sl.Phone, sl.Village, sl.Notes).Scan(&sl.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *Store) CreateAnimal(ctx context.Context, a *Animal) error {
	const q = `
		INSERT INTO animals (tag_number, species, breed, weight_kg, price, seller_id, agent_id, photo_path, document_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		RETURNING id, created_at
	`
	return s.db.QueryRowContext(ctx, q,
		a.TagNumber, a.Species, a.Breed, a.WeightKg, a.Price,
		a.SellerID, a.AgentID, a.PhotoPath, a.DocumentPath).
		Scan(&a.ID, &a.CreatedAt)
}

func (s *Store) ListAnimals(ctx context.Context) ([]Animal, error) {
	const q = `
		SELECT id, tag_number, species, breed, weight_kg, price, seller_id, agent_id, photo_path, document_path, created_at
		FROM animals ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Animal
	for rows.Next() {
		var a Animal
		if err := rows.Scan(&a.ID, &a.TagNumber, &a.Species, &a.Breed, &a.WeightKg, &a.Price,
			&a.SellerID, &a.AgentID, &a.PhotoPath, &a.DocumentPath, &a.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (s *Store) CreatePayment(ctx context.Context, p *Payment) error {
	const q = `
		INSERT INTO payments (animal_id, agent_id, amount, method, receipt_path, paid_at, created_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id, paid_at, created_at
	`
	return s.db.QueryRowContext(ctx, q, p.AnimalID, p.AgentID, p.Amount, p.Method, p.ReceiptPath).
		Scan(&p.ID, &p.PaidAt, &p.CreatedAt)
}

func (s *Store) ListPayments(ctx context.Context) ([]Payment, error) {
	const q = `
		SELECT id, animal_id, agent_id, amount, method, receipt_path, paid_at, created_at
		FROM payments ORDER BY paid_at DESC
	`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.AnimalID, &p.AgentID, &p.Amount, &p.Method, &p.ReceiptPath, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
