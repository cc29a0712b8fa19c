package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./librarian.db"

	// DefaultMaxOpenLoansPerReader caps how many unreturned books a reader may hold
	DefaultMaxOpenLoansPerReader = 3
)
