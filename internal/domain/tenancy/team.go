package tenancy

import (
	"regexp"
	"strings"

	"github.com/invoicer/backend/internal/domain/shared"
	"gorm.io/datatypes"
)

// MinPasswordLength is the minimum accepted password length on registration
const MinPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]{3,50}$`)

// Team is the tenant: the unit of data isolation. Every other record is
// owned by exactly one team, directly or through its parent.
type Team struct {
	shared.BaseEntity
	Name         string                      `gorm:"size:200;not null" json:"name"`
	Username     string                      `gorm:"size:50;not null;uniqueIndex" json:"username"`
	PasswordHash string                      `gorm:"size:255;not null" json:"-"`
	Company      string                      `gorm:"size:200" json:"company"`
	Address      string                      `gorm:"size:500" json:"address"`
	Zip          string                      `gorm:"size:20" json:"zip"`
	City         string                      `gorm:"size:100" json:"city"`
	Website      string                      `gorm:"size:500" json:"website"`
	Fields       datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"fields"`
	ImageKey     string                      `gorm:"size:500" json:"-"`
}

// TableName returns the table name for GORM
func (Team) TableName() string {
	return "teams"
}

// NewTeam creates a team from a registration. The password must already be
// hashed; use ValidatePassword on the clear text before hashing.
func NewTeam(name, username, passwordHash string) (*Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Team name cannot be empty")
	}
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, shared.NewDomainError("INVALID_PASSWORD", "Password hash cannot be empty")
	}

	return &Team{
		BaseEntity:   shared.NewBaseEntity(),
		Name:         name,
		Username:     username,
		PasswordHash: passwordHash,
		Fields:       datatypes.JSONSlice[string]{},
	}, nil
}

// ValidateUsername checks that a login name is alphanumeric and 3-50 characters long
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return shared.NewDomainError("INVALID_USERNAME", "Username must be 3-50 alphanumeric characters")
	}
	return nil
}

// ValidatePassword checks a clear text password before it is hashed
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	return nil
}

// ProfileUpdate carries a partial profile change. Nil fields are left untouched.
type ProfileUpdate struct {
	Name    *string   `json:"name" binding:"omitempty,min=1,max=200"`
	Company *string   `json:"company" binding:"omitempty,max=200"`
	Address *string   `json:"address" binding:"omitempty,max=500"`
	Zip     *string   `json:"zip" binding:"omitempty,max=20"`
	City    *string   `json:"city" binding:"omitempty,max=100"`
	Website *string   `json:"website" binding:"omitempty,max=500"`
	Fields  *[]string `json:"fields"`
}

// ApplyProfile applies the fields present in u
func (t *Team) ApplyProfile(u ProfileUpdate) error {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return shared.NewDomainError("INVALID_NAME", "Team name cannot be empty")
		}
		t.Name = name
	}
	if u.Company != nil {
		t.Company = *u.Company
	}
	if u.Address != nil {
		t.Address = *u.Address
	}
	if u.Zip != nil {
		t.Zip = *u.Zip
	}
	if u.City != nil {
		t.City = *u.City
	}
	if u.Website != nil {
		t.Website = *u.Website
	}
	if u.Fields != nil {
		t.Fields = datatypes.JSONSlice[string](*u.Fields)
	}
	t.Touch()
	return nil
}

// SetImage records where the profile image is stored
func (t *Team) SetImage(key string) {
	t.ImageKey = key
	t.Touch()
}

// HasImage reports whether a profile image was uploaded
func (t *Team) HasImage() bool {
	return t.ImageKey != ""
}

// Profile is the external view of a team. Credentials never leave the server.
type Profile struct {
	shared.BaseEntity
	Name     string   `json:"name"`
	Username string   `json:"username"`
	Company  string   `json:"company"`
	Address  string   `json:"address"`
	Zip      string   `json:"zip"`
	City     string   `json:"city"`
	Website  string   `json:"website"`
	Fields   []string `json:"fields"`
	HasImage bool     `json:"has_image"`
}

// ToProfile projects the team into its external view
func (t *Team) ToProfile() Profile {
	fields := []string(t.Fields)
	if fields == nil {
		fields = []string{}
	}
	return Profile{
		BaseEntity: t.BaseEntity,
		Name:       t.Name,
		Username:   t.Username,
		Company:    t.Company,
		Address:    t.Address,
		Zip:        t.Zip,
		City:       t.City,
		Website:    t.Website,
		Fields:     fields,
		HasImage:   t.HasImage(),
	}
}
