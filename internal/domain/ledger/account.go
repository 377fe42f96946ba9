package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/openledger/backend/internal/domain/shared"
)

// AccountType classifies an account in the chart of accounts
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// IsValid checks if the account type is valid
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// IsBalanceSheet returns true for asset, liability and equity accounts
func (t AccountType) IsBalanceSheet() bool {
	return t == AccountTypeAsset || t == AccountTypeLiability || t == AccountTypeEquity
}

// BudgetControlMode decides how a budget overrun on the account is treated
type BudgetControlMode string

const (
	BudgetControlWarn  BudgetControlMode = "WARN"
	BudgetControlBlock BudgetControlMode = "BLOCK"
)

// DimensionRequirement expresses whether a dimension must, may or must not be
// supplied on a line for a given account
type DimensionRequirement string

const (
	DimensionRequired  DimensionRequirement = "REQUIRED"
	DimensionOptional  DimensionRequirement = "OPTIONAL"
	DimensionForbidden DimensionRequirement = "FORBIDDEN"
)

// Account is the read model of a chart-of-accounts entry as the posting engine
// sees it. Master-data CRUD lives outside this engine; the engine only reads
// activity, posting and control flags.
type Account struct {
	shared.TenantAggregateRoot
	Code              string            `gorm:"type:varchar(30);not null;uniqueIndex:idx_account_tenant_code,priority:2"`
	Name              string            `gorm:"type:varchar(200);not null"`
	Type              AccountType       `gorm:"type:varchar(15);not null;index"`
	Active            bool              `gorm:"not null;default:true"`
	AllowPosting      bool              `gorm:"not null;default:true"`
	ControlAccount    bool              `gorm:"not null;default:false"`
	BudgetRelevant    bool              `gorm:"not null;default:false"`
	BudgetControlMode BudgetControlMode `gorm:"type:varchar(10);not null;default:'WARN'"`
	RequireProject    bool              `gorm:"not null;default:false"`
	RequireFund       bool              `gorm:"not null;default:false"`
	RetainedEarnings  bool              `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Account) TableName() string {
	return "accounts"
}

// DepartmentRequirement derives the department rule from the account's type
// and control flag: control accounts never carry a department, profit-and-loss
// accounts always do, balance-sheet accounts may.
func (a *Account) DepartmentRequirement() DimensionRequirement {
	if a.ControlAccount {
		return DimensionForbidden
	}
	if a.Type == AccountTypeIncome || a.Type == AccountTypeExpense {
		return DimensionRequired
	}
	return DimensionOptional
}

// PostableInOpeningPeriod reports whether the account may appear on an
// OPENING-period journal: balance-sheet accounts and the designated retained
// earnings account only.
func (a *Account) PostableInOpeningPeriod() bool {
	return a.Type.IsBalanceSheet() || a.RetainedEarnings
}

// LegalEntity is an effective-dated posting dimension
type LegalEntity struct {
	shared.TenantAggregateRoot
	Code          string     `gorm:"type:varchar(30);not null;uniqueIndex:idx_legal_entity_tenant_code,priority:2"`
	Name          string     `gorm:"type:varchar(200);not null"`
	Active        bool       `gorm:"not null;default:true"`
	EffectiveFrom time.Time  `gorm:"type:date;not null"`
	EffectiveTo   *time.Time `gorm:"type:date"`
}

// TableName returns the table name for GORM
func (LegalEntity) TableName() string {
	return "legal_entities"
}

// EffectiveOn reports whether the legal entity is active and effective on the
// given date
func (le *LegalEntity) EffectiveOn(date time.Time) bool {
	if !le.Active {
		return false
	}
	d := date.Format("2006-01-02")
	if d < le.EffectiveFrom.Format("2006-01-02") {
		return false
	}
	if le.EffectiveTo != nil && d > le.EffectiveTo.Format("2006-01-02") {
		return false
	}
	return true
}

// Department is a posting dimension
type Department struct {
	shared.TenantAggregateRoot
	Code   string `gorm:"type:varchar(30);not null;uniqueIndex:idx_department_tenant_code,priority:2"`
	Name   string `gorm:"type:varchar(200);not null"`
	Active bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Department) TableName() string {
	return "departments"
}

// Project is a posting dimension. Restricted projects demand a fund on every
// line that references them.
type Project struct {
	shared.TenantAggregateRoot
	Code       string `gorm:"type:varchar(30);not null;uniqueIndex:idx_project_tenant_code,priority:2"`
	Name       string `gorm:"type:varchar(200);not null"`
	Active     bool   `gorm:"not null;default:true"`
	Restricted bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Project) TableName() string {
	return "projects"
}

// Fund is a posting dimension tied to a project; a line carrying the fund must
// reference that project.
type Fund struct {
	shared.TenantAggregateRoot
	Code      string    `gorm:"type:varchar(30);not null;uniqueIndex:idx_fund_tenant_code,priority:2"`
	Name      string    `gorm:"type:varchar(200);not null"`
	Active    bool      `gorm:"not null;default:true"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (Fund) TableName() string {
	return "funds"
}
