package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// schema is applied in order; later tables reference earlier ones.
var schema = []struct {
	table string
	ddl   string
}{
	{"colleges", `
CREATE TABLE IF NOT EXISTS colleges (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	departments TEXT NOT NULL,
	ambassador_name VARCHAR(255) NOT NULL DEFAULT '',
	ambassador_contact VARCHAR(20) NOT NULL DEFAULT '',
	is_active TINYINT(1) NOT NULL DEFAULT 1,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_college_name (name)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`},
	{"places", `
CREATE TABLE IF NOT EXISTS places (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	location VARCHAR(255) NOT NULL DEFAULT '',
	description TEXT NOT NULL,
	price DECIMAL(12,2) NOT NULL DEFAULT 0,
	is_active TINYINT(1) NOT NULL DEFAULT 1,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`},
	{"packages", `
CREATE TABLE IF NOT EXISTS packages (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	college_id BIGINT NOT NULL,
	name VARCHAR(255) NOT NULL,
	duration INT NOT NULL DEFAULT 1,
	price DECIMAL(12,2) NOT NULL DEFAULT 0,
	description TEXT NOT NULL,
	start_date DATE NOT NULL,
	max_participants INT NOT NULL DEFAULT 50,
	is_optional TINYINT(1) NOT NULL DEFAULT 0,
	is_active TINYINT(1) NOT NULL DEFAULT 1,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	KEY idx_package_college (college_id, is_active, is_optional)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`},
	{"package_places", `
CREATE TABLE IF NOT EXISTS package_places (
	package_id BIGINT NOT NULL,
	place_id BIGINT NOT NULL,
	position INT NOT NULL DEFAULT 0,
	PRIMARY KEY (package_id, place_id),
	KEY idx_package_places_place (place_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`},
	{"buses", `
CREATE TABLE IF NOT EXISTS buses (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	college_id BIGINT NOT NULL,
	bus_name VARCHAR(255) NOT NULL,
	bus_number VARCHAR(50) NOT NULL,
	capacity INT NOT NULL,
	booked_seats INT NOT NULL DEFAULT 0,
	is_active TINYINT(1) NOT NULL DEFAULT 1,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_bus_number (bus_number),
	KEY idx_bus_college (college_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`},
	{"users", `
CREATE TABLE IF NOT EXISTS users (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	full_name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL,
	mobile_number VARCHAR(20) NULL,
	gender VARCHAR(10) NOT NULL DEFAULT '',
	spu_id VARCHAR(50) NULL,
	age INT NOT NULL DEFAULT 0,
	roll_number VARCHAR(50) NULL,
	password_hash VARCHAR(255) NOT NULL,
	role VARCHAR(20) NOT NULL DEFAULT 'student',
	college_id BIGINT NULL,
	department VARCHAR(100) NOT NULL DEFAULT '',
	division VARCHAR(5) NOT NULL DEFAULT '',
	payment_status VARCHAR(20) NOT NULL DEFAULT 'pending',
	is_active TINYINT(1) NOT NULL DEFAULT 1,
	selected_package_id BIGINT NULL,
	package_selected_at DATETIME NULL,
	extra_places_selected_at DATETIME NULL,
	selected_bus_id BIGINT NULL,
	seat_number INT NULL,
	bus_selected_at DATETIME NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_user_email (email),
	UNIQUE KEY uniq_user_mobile (mobile_number),
	UNIQUE KEY uniq_user_spu (spu_id),
	UNIQUE KEY uniq_user_roll (roll_number),
	UNIQUE KEY uniq_user_bus_seat (selected_bus_id, seat_number),
	KEY idx_user_college (college_id),
	KEY idx_user_package (selected_package_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`},
	{"user_extra_places", `
CREATE TABLE IF NOT EXISTS user_extra_places (
	user_id BIGINT NOT NULL,
	place_id BIGINT NOT NULL,
	PRIMARY KEY (user_id, place_id),
	KEY idx_user_extra_place (place_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`},
}

// Tables lists the managed tables in creation order.
func Tables() []string {
	out := make([]string, 0, len(schema))
	for _, s := range schema {
		out = append(out, s.table)
	}
	return out
}

// EnsureSchema creates any missing table. Existing tables are left alone.
func EnsureSchema(ctx context.Context, conn *sql.DB) error {
	if conn == nil {
		return fmt.Errorf("db not available")
	}
	for _, s := range schema {
		if HasTable(conn, s.table) {
			continue
		}
		if _, err := conn.ExecContext(ctx, s.ddl); err != nil {
			return fmt.Errorf("create table %s: %w", s.table, err)
		}
		log.Printf("[SCHEMA] created table %s", s.table)
	}
	return nil
}
