package database

import (
	"database/sql"
	"fmt"

	"github.com/apex/log"
)

// Schema contains the database schema for users and uploaded reports
const Schema = `
CREATE DATABASE IF NOT EXISTS safestreet;
USE safestreet;

CREATE TABLE IF NOT EXISTS users (
    id VARCHAR(256) PRIMARY KEY,
    name VARCHAR(256) NOT NULL,
    email VARCHAR(256) NOT NULL,
    phone VARCHAR(64),
    occupation VARCHAR(256),
    password_hash VARCHAR(256) NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE KEY unique_email (email)
);

CREATE TABLE IF NOT EXISTS uploads (
    id VARCHAR(256) PRIMARY KEY,
    user_id VARCHAR(256) NOT NULL,
    image_url VARCHAR(512) NOT NULL,
    location TEXT NOT NULL,
    summary TEXT NOT NULL,
    latitude DOUBLE,
    longitude DOUBLE,
    status ENUM('Pending', 'Resolved') DEFAULT 'Pending',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_user_id (user_id),
    INDEX idx_status (status),
    INDEX idx_created_at (created_at)
);
`

// InitializeSchema creates the tables if they do not exist.
func InitializeSchema(db *sql.DB) error {
	log.Info("Initializing database schema...")
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}
