package database

// MySQLSchema is the production schema.  Sponge names use a binary
// collation so uniqueness is case-sensitive.  Ledger quantities are DECIMAL
// so SUM() returns exact totals.
var MySQLSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		username      VARCHAR(50)  NOT NULL,
		email         VARCHAR(255) NULL,
		password_hash VARCHAR(255) NOT NULL,
		role          VARCHAR(16)  NOT NULL DEFAULT 'operator',
		is_active     TINYINT(1)   NOT NULL DEFAULT 1,
		last_login    DATETIME(6)  NULL,
		created_at    DATETIME(6)  NOT NULL,
		updated_at    DATETIME(6)  NOT NULL,
		UNIQUE KEY uq_users_username (username),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS sponges (
		id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name           VARCHAR(100) COLLATE utf8mb4_bin NOT NULL,
		density        DOUBLE       NOT NULL,
		hardness       VARCHAR(10)  NOT NULL,
		width          DOUBLE       NULL,
		height         DOUBLE       NULL,
		thickness      DOUBLE       NULL,
		unit           VARCHAR(8)   NOT NULL,
		critical_stock DECIMAL(14,3) NOT NULL DEFAULT 5,
		created_at     DATETIME(6)  NOT NULL,
		updated_at     DATETIME(6)  NOT NULL,
		UNIQUE KEY uq_sponges_name (name),
		UNIQUE KEY uq_sponges_variant (density, hardness, thickness)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS stocks (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		sponge_id  BIGINT UNSIGNED NOT NULL,
		quantity   DECIMAL(14,3) NOT NULL,
		type       VARCHAR(8)   NOT NULL,
		price      DECIMAL(12,2) NULL,
		note       VARCHAR(255) NULL,
		created_by BIGINT UNSIGNED NULL,
		date       DATETIME(6)  NOT NULL,
		created_at DATETIME(6)  NOT NULL,
		KEY idx_stocks_sponge (sponge_id, created_at),
		KEY idx_stocks_date (date),
		CONSTRAINT fk_stocks_sponge FOREIGN KEY (sponge_id) REFERENCES sponges (id) ON DELETE CASCADE,
		CONSTRAINT fk_stocks_user FOREIGN KEY (created_by) REFERENCES users (id) ON DELETE SET NULL,
		CONSTRAINT chk_stocks_quantity CHECK (quantity > 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		jti        CHAR(36)    NOT NULL,
		user_id    BIGINT UNSIGNED NOT NULL,
		expires_at DATETIME(6) NOT NULL,
		revoked    TINYINT(1)  NOT NULL DEFAULT 0,
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_refresh_tokens_jti (jti),
		KEY idx_refresh_tokens_user (user_id, revoked),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NULL,
		title      VARCHAR(200) NOT NULL,
		message    TEXT         NOT NULL,
		type       VARCHAR(10)  NOT NULL DEFAULT 'info',
		is_read    TINYINT(1)   NOT NULL DEFAULT 0,
		created_at DATETIME(6)  NOT NULL,
		read_at    DATETIME(6)  NULL,
		KEY idx_notifications_user (user_id, is_read),
		CONSTRAINT fk_notifications_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// SQLiteSchema mirrors MySQLSchema for the in-memory test database.
var SQLiteSchema = []string{
	`PRAGMA foreign_keys = ON`,
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT     NOT NULL UNIQUE,
		email         TEXT UNIQUE,
		password_hash TEXT     NOT NULL,
		role          TEXT     NOT NULL DEFAULT 'operator',
		is_active     INTEGER  NOT NULL DEFAULT 1,
		last_login    DATETIME,
		created_at    DATETIME NOT NULL,
		updated_at    DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sponges (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		name           TEXT     NOT NULL UNIQUE,
		density        REAL     NOT NULL,
		hardness       TEXT     NOT NULL,
		width          REAL,
		height         REAL,
		thickness      REAL,
		unit           TEXT     NOT NULL,
		critical_stock REAL     NOT NULL DEFAULT 5,
		created_at     DATETIME NOT NULL,
		updated_at     DATETIME NOT NULL,
		UNIQUE (density, hardness, thickness)
	)`,
	`CREATE TABLE IF NOT EXISTS stocks (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		sponge_id  INTEGER  NOT NULL REFERENCES sponges (id) ON DELETE CASCADE,
		quantity   REAL     NOT NULL CHECK (quantity > 0),
		type       TEXT     NOT NULL,
		price      REAL,
		note       TEXT,
		created_by INTEGER REFERENCES users (id) ON DELETE SET NULL,
		date       DATETIME NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stocks_sponge ON stocks (sponge_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_stocks_date ON stocks (date)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		jti        TEXT     NOT NULL UNIQUE,
		user_id    INTEGER  NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		expires_at DATETIME NOT NULL,
		revoked    INTEGER  NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER REFERENCES users (id) ON DELETE CASCADE,
		title      TEXT     NOT NULL,
		message    TEXT     NOT NULL,
		type       TEXT     NOT NULL DEFAULT 'info',
		is_read    INTEGER  NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		read_at    DATETIME
	)`,
}
