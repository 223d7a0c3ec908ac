// Package sqlite stores goIdentity users and sessions in SQLite through the pure-Go
// modernc.org/sqlite driver. The schema is applied with embedded goose migrations.
//
//	st, err := sqlite.New(ctx, "identity.db")
//	engine, err := goIdentity.New().
//		WithUserStore(st.Users()).
//		WithSessionStore(st.Sessions()).
//		Build()
package sqlite
