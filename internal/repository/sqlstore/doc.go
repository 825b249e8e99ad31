// Package sqlstore implements the service store interfaces on PostgreSQL or
// SQLite through gorm.
//
// Uniqueness is enforced by the schema: signals are unique per direction,
// handshakes per canonical pair, computed matches per pair key. Inserts use
// ON CONFLICT DO NOTHING and report a skipped row as database.ErrDuplicate.
// Handshake transitions are computed by model.Handshake and written with a
// compare-and-swap on a version column.
//
//	store, err := sqlstore.Open(sqlstore.DriverPostgres, dsn, logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
package sqlstore
