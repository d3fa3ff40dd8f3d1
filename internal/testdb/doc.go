// Package testdb provides helpers for tests that run against a real
// PostgreSQL database.
//
// Tests using GetTestDBWithT are skipped unless POLICYHUB_TEST_DB_URL or
// DATABASE_URL is set. The schema is migrated once per connection with the
// same embedded migrations the server uses, and WithTx gives each test a
// transaction that is rolled back when it returns:
//
//	db := testdb.GetTestDBWithT(t)
//	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//		stores := postgres.NewStores(tx)
//		// ...
//	})
package testdb
