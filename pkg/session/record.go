package session

import (
	"encoding/json"
	"slices"
)

// AuthorizationLevel is the privilege tier granted by the backend.
type AuthorizationLevel int

const (
	LevelUnauthorized AuthorizationLevel = iota
	LevelCustomer
	LevelViewer
	LevelTutor
	LevelSecretary
	LevelManager
	LevelAdmin
)

var levelNames = [...]string{"unauthorized", "customer", "viewer", "tutor", "secretary", "manager", "admin"}

func (l AuthorizationLevel) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "unknown"
	}
	return levelNames[l]
}

// AccountType classifies the user account and selects the main layout.
type AccountType int

const (
	AccountParent AccountType = iota
	AccountUser
	AccountManager
	AccountTutor
	AccountSecretary
	AccountLead
	AccountGeneralWorker
	AccountSupplier
)

var accountNames = [...]string{"parent", "user", "manager", "tutor", "secretary", "lead", "general_worker", "supplier"}

func (a AccountType) String() string {
	if a < 0 || int(a) >= len(accountNames) {
		return "unknown"
	}
	return accountNames[a]
}

// Calendar is the backend's date representation.
type Calendar struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// PersonalData is the profile part of a user.
type PersonalData struct {
	ID             int64           `json:"id,omitempty"`
	FirstName      string          `json:"firstName,omitempty"`
	LastName       string          `json:"lastName,omitempty"`
	Passport       string          `json:"passport,omitempty"`
	Tel            string          `json:"tel,omitempty"`
	Pel            string          `json:"pel,omitempty"`
	Email          string          `json:"email,omitempty"`
	City           string          `json:"city,omitempty"`
	SMSPermitted   bool            `json:"smsPermited,omitempty"`
	EmailPermited  bool            `json:"emailPermited,omitempty"`
	Address        string          `json:"address,omitempty"`
	ZipCode        string          `json:"zipCode,omitempty"`
	Picture        json.RawMessage `json:"picture,omitempty"`
	NeighborhoodID int64           `json:"neighborhoodId,omitempty"`
	GroupID        int64           `json:"groupId,omitempty"`
	Gender         int             `json:"gender,omitempty"`
	RelationID     int64           `json:"relationId,omitempty"`
	BirthDayDate   *Calendar       `json:"birthDayDate,omitempty"`
	AccountType    AccountType     `json:"accountType,omitempty"`
	CreatedBy      int64           `json:"createdBy,omitempty"`
	CreatedOn      *Calendar       `json:"createdOn,omitempty"`
	Type           string          `json:"type,omitempty"`
}

// User is the profile returned by the backend profile endpoint.
type User struct {
	Type         string       `json:"type,omitempty"`
	PersonalData PersonalData `json:"personalData"`
}

// Record is the authenticated session held on the client.
type Record struct {
	AuthorizedUserID   int64              `json:"authorizedUserId"`
	User               *User              `json:"user,omitempty"`
	AuthorizationLevel AuthorizationLevel `json:"authorizationLevel"`
	Token              string             `json:"token"`
}

// IsAuthenticated reports whether the record carries a token.
func (r *Record) IsAuthenticated() bool {
	return r != nil && r.Token != ""
}

// HasProfile reports whether the user profile has been merged in.
func (r *Record) HasProfile() bool {
	return r != nil && r.User != nil
}

// AccountType returns the account classification of the profile, or
// AccountUser when the profile is missing.
func (r *Record) AccountType() AccountType {
	if !r.HasProfile() {
		return AccountUser
	}
	return r.User.PersonalData.AccountType
}

// WithUser returns a copy of the record with user merged in.
func (r *Record) WithUser(u *User) *Record {
	c := r.Clone()
	c.User = u.Clone()
	return c
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.User = r.User.Clone()
	return &c
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	pd := &c.PersonalData
	pd.Picture = slices.Clone(u.PersonalData.Picture)
	if u.PersonalData.BirthDayDate != nil {
		d := *u.PersonalData.BirthDayDate
		pd.BirthDayDate = &d
	}
	if u.PersonalData.CreatedOn != nil {
		d := *u.PersonalData.CreatedOn
		pd.CreatedOn = &d
	}
	return &c
}
