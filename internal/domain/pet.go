package domain

import "time"

type PetKind string

const (
	PetDog    PetKind = "DOG"
	PetCat    PetKind = "CAT"
	PetBird   PetKind = "BIRD"
	PetRabbit PetKind = "RABBIT"
	PetExotic PetKind = "EXOTIC"
)

// Pet is a tagged variant: Kind discriminates which PetTraits fields are
// meaningful. The booking core only ever reads ID and OwnerID.
type Pet struct {
	ID        string `gorm:"primaryKey"`
	OwnerID   string `gorm:"index"`
	Name      string
	Kind      PetKind   `gorm:"index"`
	Traits    PetTraits `gorm:"serializer:json"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PetTraits holds the kind-specific payload. Fields outside the pet's kind
// stay zero: Breed/WeightKg for dogs and cats, Indoor for cats and rabbits,
// Species/Caged for birds and exotics.
type PetTraits struct {
	Breed    string  `json:"breed,omitempty"`
	WeightKg float64 `json:"weight_kg,omitempty"`
	Indoor   bool    `json:"indoor,omitempty"`
	Species  string  `json:"species,omitempty"`
	Caged    bool    `json:"caged,omitempty"`
}
