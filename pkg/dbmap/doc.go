// Package dbmap turns named SQL templates into callable operations over
// database/sql, normalizing driver parameter-binding conventions.
//
// Queries live in configuration, not in Go code:
//
//	cfg := dbmap.MapSection{
//		"QUERIES": map[string]any{
//			"create_table": "CREATE TABLE users (name TEXT NOT NULL PRIMARY KEY, password TEXT NOT NULL)",
//			"create_user":  "INSERT INTO users(name, password) VALUES(${name}, ${password})",
//			"list_users":   "SELECT * FROM users ORDER BY name %(order)s",
//		},
//	}
//
//	db, _ := dbmap.FromConfig(cfg, handle, template.Qmark)
//	_, _ = db.Call(ctx, "create_table")
//	_, _ = db.Call(ctx, "create_user", dbmap.Named{"name": "bruce", "password": "iamthenight"})
//	rows, _ := db.Call(ctx, "list_users", dbmap.Named{"order": "ASC"})
//
// ${name} placeholders are rewritten into the driver's native binding
// syntax and never interpolated into the SQL text. %(name)s interpolations
// are substituted as raw text before parsing; they exist for structural
// fragments (sort order, table names) and are deliberately unsafe.
//
// Transact scopes calls inside a transaction that commits on success and
// rolls back on any error or panic escaping the scope:
//
//	err := db.Transact(ctx, func(tx *dbmap.Database) error {
//		if _, err := tx.Call(ctx, "create_user", "hal", "brightestday"); err != nil {
//			return err
//		}
//		_, err := tx.Call(ctx, "create_user", "hal", "darkestnight")
//		return err
//	})
package dbmap
