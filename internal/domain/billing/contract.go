package billing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
	"gorm.io/datatypes"
)

// ContractStatus is the lifecycle state of a contract
type ContractStatus string

const (
	ContractStatusOngoing  ContractStatus = "ongoing"
	ContractStatusCanceled ContractStatus = "canceled"
)

// IsValid checks if the status is a known value
func (s ContractStatus) IsValid() bool {
	return s == ContractStatusOngoing || s == ContractStatusCanceled
}

// ContractChange is one entry of a contract's change log
type ContractChange struct {
	Date        string `json:"date" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// Contract is a long running agreement with a customer
type Contract struct {
	shared.BaseEntity
	TeamID     uuid.UUID                           `gorm:"type:uuid;not null;index" json:"team_id"`
	CustomerID uuid.UUID                           `gorm:"type:uuid;not null;index" json:"customer_id"`
	AddressID  uuid.UUID                           `gorm:"type:uuid;not null" json:"address_id"`
	Type       string                              `gorm:"size:100" json:"type"`
	Serial     string                              `gorm:"size:100;not null" json:"serial"`
	Status     ContractStatus                      `gorm:"size:20;not null" json:"status"`
	Changes    datatypes.JSONSlice[ContractChange] `gorm:"type:jsonb" json:"changes"`
	Date       *string                             `gorm:"size:10" json:"date"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Address  *Address  `gorm:"foreignKey:AddressID" json:"address,omitempty"`
}

// TableName returns the table name for GORM
func (Contract) TableName() string {
	return "contracts"
}

// ContractInput is the payload accepted when creating a contract
type ContractInput struct {
	CustomerID uuid.UUID        `json:"customer_id" binding:"required"`
	AddressID  uuid.UUID        `json:"address_id" binding:"required"`
	Type       string           `json:"type" binding:"max=100"`
	Serial     string           `json:"serial" binding:"required,max=100"`
	Status     ContractStatus   `json:"status" binding:"required,oneof=ongoing canceled"`
	Changes    []ContractChange `json:"changes" binding:"omitempty,dive"`
	Date       *string          `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

// ContractUpdate is a partial change; nil fields keep their stored value.
// A present Changes list replaces the stored log.
type ContractUpdate struct {
	CustomerID *uuid.UUID        `json:"customer_id"`
	AddressID  *uuid.UUID        `json:"address_id"`
	Type       *string           `json:"type" binding:"omitempty,max=100"`
	Serial     *string           `json:"serial" binding:"omitempty,max=100"`
	Status     *ContractStatus   `json:"status" binding:"omitempty,oneof=ongoing canceled"`
	Changes    *[]ContractChange `json:"changes" binding:"omitempty,dive"`
	Date       *string           `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

// NewContract creates a contract from its creation payload
func NewContract(in ContractInput) (*Contract, error) {
	if in.CustomerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Contract must reference a customer")
	}
	if in.AddressID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ADDRESS", "Contract must reference an address")
	}
	serial := strings.TrimSpace(in.Serial)
	if serial == "" {
		return nil, shared.NewDomainError("INVALID_SERIAL", "Contract serial cannot be empty")
	}
	if !in.Status.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", "Contract status must be ongoing or canceled")
	}

	changes := in.Changes
	if changes == nil {
		changes = []ContractChange{}
	}
	return &Contract{
		BaseEntity: shared.NewBaseEntity(),
		CustomerID: in.CustomerID,
		AddressID:  in.AddressID,
		Type:       strings.TrimSpace(in.Type),
		Serial:     serial,
		Status:     in.Status,
		Changes:    datatypes.JSONSlice[ContractChange](changes),
		Date:       trimmed(in.Date),
	}, nil
}

// Apply applies the fields present in u
func (c *Contract) Apply(u ContractUpdate) error {
	if u.Serial != nil && strings.TrimSpace(*u.Serial) == "" {
		return shared.NewDomainError("INVALID_SERIAL", "Contract serial cannot be empty")
	}
	if u.Status != nil && !u.Status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Contract status must be ongoing or canceled")
	}
	if u.CustomerID != nil {
		if *u.CustomerID == uuid.Nil {
			return shared.NewDomainError("INVALID_CUSTOMER", "Contract must reference a customer")
		}
		c.CustomerID = *u.CustomerID
		c.Customer = nil
	}
	if u.AddressID != nil {
		if *u.AddressID == uuid.Nil {
			return shared.NewDomainError("INVALID_ADDRESS", "Contract must reference an address")
		}
		c.AddressID = *u.AddressID
		c.Address = nil
	}
	if u.Type != nil {
		c.Type = strings.TrimSpace(*u.Type)
	}
	if u.Serial != nil {
		c.Serial = strings.TrimSpace(*u.Serial)
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
	if u.Changes != nil {
		c.Changes = datatypes.JSONSlice[ContractChange](*u.Changes)
	}
	if u.Date != nil {
		c.Date = trimmed(u.Date)
	}
	c.Touch()
	return nil
}
