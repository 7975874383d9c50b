// Package database opens connections to the two supported backends and
// applies the relational schema.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLParams holds the connection settings of the relational backend.
type MySQLParams struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
}

// DSN builds the go-sql-driver DSN.  multiStatements is enabled so the
// migration files can hold more than one statement.
func (p MySQLParams) DSN() string {
	auth := p.User
	if p.Password != "" {
		auth = fmt.Sprintf("%s:%s", p.User, p.Password)
	}
	// parseTime=true -> DATE/DATETIME -> time.Time | loc=UTC keeps dates stable
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&multiStatements=true",
		auth, p.Host, p.Port, p.Name)
}

// OpenMySQL connects to MySQL and verifies the connection.
func OpenMySQL(p MySQLParams) (*sql.DB, error) {
	db, err := sql.Open("mysql", p.DSN())
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
