package domain

// Models lists every table owned by this service, in migration order.
func Models() []any {
	return []any{
		&User{},
		&Token{},
		&Question{},
		&Answer{},
		&TestAttempt{},
		&TestAttemptAnswer{},
		&OfflineSyncAttempt{},
		&DeviceLog{},
		&ActivityLog{},
	}
}
