package livestock

import "time"

type Agent struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Region    string    `json:"region"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Seller struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Village   string    `json:"village"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Animal struct {
	ID           int64     `json:"id"`
	TagNumber    string    `json:"tag_number"`
	Species      string    `json:"species"`
	Breed        string    `json:"breed"`
	WeightKg     float64   `json:"weight_kg"`
	Price        float64   `json:"price"`
	SellerID     *int64    `json:"seller_id,omitempty"`
	AgentID      *int64    `json:"agent_id,omitempty"`
	PhotoPath    string    `json:"photo_path,omitempty"`
	DocumentPath string    `json:"document_path,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Payment struct {
	ID          int64     `json:"id"`
	AnimalID    int64     `json:"animal_id"`
	AgentID     *int64    `json:"agent_id,omitempty"`
	Amount      float64   `json:"amount"`
	Method      string    `json:"method"`
	ReceiptPath string    `json:"receipt_path,omitempty"`
	PaidAt      time.Time `json:"paid_at"`
	CreatedAt   time.Time `json:"created_at"`
}
