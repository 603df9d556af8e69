package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the statements that bring an empty database up to date.  Every
// statement is idempotent so Migrate can run on each boot.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name          VARCHAR(50)  NOT NULL,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role          ENUM('user','admin') NOT NULL DEFAULT 'user',
		created_at    DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at    DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS complaints (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		title       VARCHAR(100)  NOT NULL,
		description VARCHAR(1000) NOT NULL,
		category    VARCHAR(32)   NOT NULL,
		priority    ENUM('low','medium','high','urgent') NOT NULL DEFAULT 'medium',
		status      ENUM('pending','in-progress','resolved','closed') NOT NULL DEFAULT 'pending',
		user_id     BIGINT UNSIGNED NOT NULL,
		assigned_to BIGINT UNSIGNED NULL,
		resolution  VARCHAR(500) NULL,
		resolved_at DATETIME(3) NULL,
		created_at  DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at  DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
		KEY idx_complaints_user_status (user_id, status),
		KEY idx_complaints_category_priority (category, priority),
		CONSTRAINT fk_complaints_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
		CONSTRAINT fk_complaints_assignee FOREIGN KEY (assigned_to) REFERENCES users (id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS feedback (
		id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		rating       TINYINT UNSIGNED NOT NULL,
		comment      VARCHAR(500) NULL,
		user_id      BIGINT UNSIGNED NOT NULL,
		complaint_id BIGINT UNSIGNED NULL,
		created_at   DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at   DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
		KEY idx_feedback_user (user_id),
		KEY idx_feedback_rating (rating),
		CONSTRAINT chk_feedback_rating CHECK (rating BETWEEN 1 AND 5),
		CONSTRAINT fk_feedback_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
		CONSTRAINT fk_feedback_complaint FOREIGN KEY (complaint_id) REFERENCES complaints (id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the users, complaints and feedback tables if absent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}
