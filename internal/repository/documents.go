package repository

// Document collections.
const (
	CollectionProfessors  = "professors"
	CollectionStudents    = "students"
	CollectionReschedules = "reschedules"
	CollectionAuditLogs   = "audit_logs"
)
