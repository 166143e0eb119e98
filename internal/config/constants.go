package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the catalog database
	DefaultDatabasePath = "./catalog.db"

	// DefaultDatabaseDriver selects SQLite unless DATABASE_DRIVER says otherwise
	DefaultDatabaseDriver = "sqlite"
)

// Loan window defaults, in weeks.
const (
	DefaultLoanMaxWeeks            = 4
	DefaultLoanDefaultRenewalWeeks = 3
)
