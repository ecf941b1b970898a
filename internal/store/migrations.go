package store

import (
	"fmt"
	"strings"

	"github.com/bemfst/portal/internal/model"
)

func (s *Store) migrate() error {
	var migrations []string
	switch s.driver {
	case DriverPostgres:
		migrations = postgresMigrations
	case DriverMySQL:
		migrations = mysqlMigrations
	case DriverSQLServer:
		migrations = sqlserverMigrations
	default:
		migrations = sqliteMigrations
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			// Re-running an index creation on MySQL reports a duplicate key name.
			if strings.Contains(err.Error(), "Duplicate key name") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS activity_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		entity_type TEXT,
		entity_id INTEGER,
		entity_title TEXT,
		actor TEXT NOT NULL DEFAULT 'admin',
		ip_address TEXT,
		metadata TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_logs_created_at ON activity_logs(created_at)`,

	`CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		slug TEXT UNIQUE NOT NULL,
		excerpt TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'news',
		status TEXT NOT NULL DEFAULT 'draft',
		author TEXT NOT NULL DEFAULT '',
		featured_image TEXT,
		meta_title TEXT NOT NULL DEFAULT '',
		meta_description TEXT NOT NULL DEFAULT '',
		published_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		deleted_at DATETIME
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at)`,

	`CREATE TABLE IF NOT EXISTS periods (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		year_start INTEGER NOT NULL,
		year_end INTEGER NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 0,
		description TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS organizations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		social_media TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`INSERT INTO organizations (name, description, address, email, phone)
		SELECT '` + model.DefaultOrganizationName + `', '', '', '', ''
		WHERE NOT EXISTS (SELECT 1 FROM organizations)`,
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS activity_logs (
		id BIGSERIAL PRIMARY KEY,
		action VARCHAR(100) NOT NULL,
		entity_type VARCHAR(50),
		entity_id BIGINT,
		entity_title VARCHAR(255),
		actor VARCHAR(100) NOT NULL DEFAULT 'admin',
		ip_address VARCHAR(64),
		metadata TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_logs_created_at ON activity_logs(created_at)`,

	`CREATE TABLE IF NOT EXISTS posts (
		id BIGSERIAL PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		slug VARCHAR(255) UNIQUE NOT NULL,
		excerpt TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		category VARCHAR(20) NOT NULL DEFAULT 'news',
		status VARCHAR(20) NOT NULL DEFAULT 'draft',
		author VARCHAR(100) NOT NULL DEFAULT '',
		featured_image VARCHAR(255),
		meta_title VARCHAR(255) NOT NULL DEFAULT '',
		meta_description TEXT NOT NULL DEFAULT '',
		published_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		deleted_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at)`,

	`CREATE TABLE IF NOT EXISTS periods (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		year_start INTEGER NOT NULL,
		year_end INTEGER NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT FALSE,
		description TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS organizations (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(50) NOT NULL DEFAULT '',
		social_media TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`INSERT INTO organizations (name, description, address, email, phone)
		SELECT '` + model.DefaultOrganizationName + `', '', '', '', ''
		WHERE NOT EXISTS (SELECT 1 FROM organizations)`,
}

var mysqlMigrations = []string{
	`CREATE TABLE IF NOT EXISTS activity_logs (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		action VARCHAR(100) NOT NULL,
		entity_type VARCHAR(50),
		entity_id BIGINT,
		entity_title VARCHAR(255),
		actor VARCHAR(100) NOT NULL DEFAULT 'admin',
		ip_address VARCHAR(64),
		metadata TEXT,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		INDEX idx_activity_logs_created_at (created_at)
	)`,

	`CREATE TABLE IF NOT EXISTS posts (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		slug VARCHAR(255) UNIQUE NOT NULL,
		excerpt TEXT NOT NULL,
		content LONGTEXT NOT NULL,
		category VARCHAR(20) NOT NULL DEFAULT 'news',
		status VARCHAR(20) NOT NULL DEFAULT 'draft',
		author VARCHAR(100) NOT NULL DEFAULT '',
		featured_image VARCHAR(255),
		meta_title VARCHAR(255) NOT NULL DEFAULT '',
		meta_description TEXT NOT NULL,
		published_at DATETIME(6),
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		deleted_at DATETIME(6),
		INDEX idx_posts_created_at (created_at)
	)`,

	`CREATE TABLE IF NOT EXISTS periods (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		year_start INT NOT NULL,
		year_end INT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT FALSE,
		description TEXT,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)
	)`,

	`CREATE TABLE IF NOT EXISTS organizations (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		address TEXT NOT NULL,
		email VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(50) NOT NULL DEFAULT '',
		social_media TEXT,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)
	)`,
	`INSERT INTO organizations (name, description, address, email, phone)
		SELECT '` + model.DefaultOrganizationName + `', '', '', '', '' FROM DUAL
		WHERE NOT EXISTS (SELECT 1 FROM organizations)`,
}

// SQL Server has no IF NOT EXISTS for tables or indexes, so every statement
// checks the catalog first.
var sqlserverMigrations = []string{
	`IF OBJECT_ID(N'activity_logs', N'U') IS NULL
	CREATE TABLE activity_logs (
		id BIGINT IDENTITY(1,1) PRIMARY KEY,
		action NVARCHAR(100) NOT NULL,
		entity_type NVARCHAR(50),
		entity_id BIGINT,
		entity_title NVARCHAR(255),
		actor NVARCHAR(100) NOT NULL DEFAULT 'admin',
		ip_address NVARCHAR(64),
		metadata NVARCHAR(MAX),
		created_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME()
	)`,
	`IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = N'idx_activity_logs_created_at')
	CREATE INDEX idx_activity_logs_created_at ON activity_logs(created_at)`,

	`IF OBJECT_ID(N'posts', N'U') IS NULL
	CREATE TABLE posts (
		id BIGINT IDENTITY(1,1) PRIMARY KEY,
		title NVARCHAR(255) NOT NULL,
		slug NVARCHAR(255) NOT NULL UNIQUE,
		excerpt NVARCHAR(MAX) NOT NULL DEFAULT '',
		content NVARCHAR(MAX) NOT NULL,
		category NVARCHAR(20) NOT NULL DEFAULT 'news',
		status NVARCHAR(20) NOT NULL DEFAULT 'draft',
		author NVARCHAR(100) NOT NULL DEFAULT '',
		featured_image NVARCHAR(255),
		meta_title NVARCHAR(255) NOT NULL DEFAULT '',
		meta_description NVARCHAR(MAX) NOT NULL DEFAULT '',
		published_at DATETIME2,
		created_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME(),
		updated_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME(),
		deleted_at DATETIME2
	)`,
	`IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = N'idx_posts_created_at')
	CREATE INDEX idx_posts_created_at ON posts(created_at)`,

	`IF OBJECT_ID(N'periods', N'U') IS NULL
	CREATE TABLE periods (
		id BIGINT IDENTITY(1,1) PRIMARY KEY,
		name NVARCHAR(100) NOT NULL,
		year_start INT NOT NULL,
		year_end INT NOT NULL,
		is_active BIT NOT NULL DEFAULT 0,
		description NVARCHAR(MAX),
		created_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME(),
		updated_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME()
	)`,

	`IF OBJECT_ID(N'organizations', N'U') IS NULL
	CREATE TABLE organizations (
		id BIGINT IDENTITY(1,1) PRIMARY KEY,
		name NVARCHAR(255) NOT NULL,
		description NVARCHAR(MAX) NOT NULL DEFAULT '',
		address NVARCHAR(MAX) NOT NULL DEFAULT '',
		email NVARCHAR(255) NOT NULL DEFAULT '',
		phone NVARCHAR(50) NOT NULL DEFAULT '',
		social_media NVARCHAR(MAX),
		created_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME(),
		updated_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME()
	)`,
	`IF NOT EXISTS (SELECT 1 FROM organizations)
	INSERT INTO organizations (name, description, address, email, phone)
	VALUES (N'` + model.DefaultOrganizationName + `', '', '', '', '')`,
}
