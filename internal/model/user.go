package model

// User is the signed-in account as returned by login, register and
// setup-user.
type User struct {
	Email                    string  `json:"email"`
	FullName                 string  `json:"fullName"`
	AccessToken              string  `json:"accessToken"`
	Currency                 string  `json:"currency"`
	LastTransactionsScanDate int64   `json:"lastTransactionsScanDate"`
	MonthlyBudget            float64 `json:"monthlyBudget"`
	InitialSetupDone         bool    `json:"initialSetupDone"`
}

// LoginRequest is the body of /api/users/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the body of /api/users/register.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	InviteKey string `json:"inviteKey" validate:"required"`
}

// Credentials are the credit-card site login details checked by
// test-cc-credentials.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	ID       string `json:"id" validate:"required"`
}

// SetupCategory is a category with the amount budgeted for it.
type SetupCategory struct {
	Category
	Budget float64 `json:"budget"`
}

// SetupRequest is the body of /api/users/setup-user.
type SetupRequest struct {
	CreditCardCredentials *Credentials    `json:"creditCardCredentials" validate:"required"`
	FullName              string          `json:"fullName" validate:"required"`
	Currency              string          `json:"currency" validate:"required"`
	Categories            []SetupCategory `json:"categories" validate:"min=1,dive"`
	Budget                int             `json:"budget" validate:"gt=0"`
}

// SetupData is the in-progress state of the account setup wizard. Category
// budgets are percentages of MonthlyBudget until the request is built.
type SetupData struct {
	ErrorMessage          *string         `json:"errorMessage"`
	CreditCardCredentials *Credentials    `json:"creditCardCredentials"`
	FullName              string          `json:"fullName"`
	Currency              string          `json:"currency"`
	Categories            []SetupCategory `json:"categories"`
	StepIndex             int             `json:"stepIndex"`
	MonthlyBudget         int             `json:"monthlyBudget"`
}

// InitialSetupData returns the wizard state of a fresh account.
func InitialSetupData() SetupData {
	return SetupData{
		StepIndex:  1,
		Categories: []SetupCategory{},
		Currency:   "₪",
	}
}
