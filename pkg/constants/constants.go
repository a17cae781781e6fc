package constants

const (
	AppName      = "medtrack"
	ServiceName  = "medtrack_backend"
	ConfigName   = "config"
	ConfigFormat = "yaml"
	EnvPrefix    = "MEDTRACK"

	// KeyPrefix namespaces every key the service writes to shared stores.
	KeyPrefix = "medtrack"

	// SubjectPrefix is the root of every event-bus subject.
	SubjectPrefix = "medtrack"
)

// Roles carried in tokens, sessions and authorization policies.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)
