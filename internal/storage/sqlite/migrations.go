package sqlite

// schemaVersion is stored in PRAGMA user_version.
const schemaVersion = 1

// migrate upgrades databases written before the stream index existed and
// records the schema version.
func (s *Storage) migrate() error {
	var version int
	if err := s.db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return err
	}

	if version >= schemaVersion {
		return nil
	}

	migration := `
	DROP INDEX IF EXISTS idx_log_entries_created;
	CREATE INDEX IF NOT EXISTS idx_log_entries_stream ON log_entries(stream, seq);
	PRAGMA user_version = 1;
	`

	_, err := s.db.Exec(migration)
	return err
}
