package interfaces

// Repository is the aggregated persistence interface. Each sub-repository
// isolates data per user; implementations must be safe for concurrent use.
type Repository interface {
	Session() SessionRepository
	Recall() RecallRepository
	Profile() ProfileRepository
	Index() IndexRepository

	// Close releases underlying resources
	Close() error
}
