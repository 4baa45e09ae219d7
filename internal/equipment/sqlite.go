package equipment

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS weapons (
	name TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	speed REAL NOT NULL,
	min_damage REAL NOT NULL,
	max_damage REAL NOT NULL,
	skill_bonus INTEGER NOT NULL DEFAULT 0
)`

// Open loads every weapon from a read-only SQLite database into a DB.
// The connection is closed before returning; replicas only ever see the
// in-memory copy.
func Open(ctx context.Context, path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	defer conn.Close()

	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	rows, err := conn.QueryContext(ctx, `SELECT name, type, speed, min_damage, max_damage, skill_bonus FROM weapons ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query weapons: %w", err)
	}
	defer rows.Close()

	var weapons []Weapon
	for rows.Next() {
		var w Weapon
		var typ string
		if err := rows.Scan(&w.Name, &typ, &w.SpeedSeconds, &w.MinDamage, &w.MaxDamage, &w.SkillBonus); err != nil {
			return nil, fmt.Errorf("scan weapon: %w", err)
		}
		w.Type = WeaponType(typ)
		weapons = append(weapons, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read weapons: %w", err)
	}
	return NewDB(weapons)
}

// Seed creates the weapons table at path and replaces its contents.
func Seed(ctx context.Context, path string, weapons []Weapon) error {
	if _, err := NewDB(weapons); err != nil {
		return err
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer conn.Close()

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("pragma %s: %w", pragma, err)
		}
	}
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM weapons`); err != nil {
		return fmt.Errorf("clear weapons: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO weapons (name, type, speed, min_damage, max_damage, skill_bonus) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, w := range weapons {
		if _, err := stmt.ExecContext(ctx, w.Name, string(w.Type), w.SpeedSeconds, w.MinDamage, w.MaxDamage, w.SkillBonus); err != nil {
			return fmt.Errorf("insert %s: %w", w.Name, err)
		}
	}
	return tx.Commit()
}
