package index

// PropertyIndex defines the interface for index operations. Consumers
// should depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type PropertyIndex interface {
	UpsertDocument(d DocumentRow, properties []PropertyRow) error
	DeleteDocument(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	ListDocuments() ([]DocumentRow, error)
	SearchProperties(q string, limit int) ([]PropertyHit, error)
	SaveFunction(name, code string) error
	GetFunction(name string) (string, error)
	DeleteFunction(name string) error
	ListFunctions() ([]FunctionRow, error)
	Close() error
}

// Verify *DB satisfies PropertyIndex at compile time.
var _ PropertyIndex = (*DB)(nil)
