package database

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/go-sql-driver/mysql"
)

// tlsConfigName is the key the CA-backed TLS config is registered under
// in the MySQL driver.
const tlsConfigName = "catalog-ca"

// Options describes a MySQL connection.
type Options struct {
	User   string
	Pass   string
	Host   string
	Port   string
	Name   string
	CAPath string // PEM bundle; when set the connection requires TLS verified against it
}

// DSN builds the driver DSN.  parseTime maps DATETIME to time.Time, loc and
// time_zone keep both sides on UTC, and clientFoundRows makes UPDATE report
// matched rather than changed rows.
func (o Options) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = o.User
	cfg.Passwd = o.Pass
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(o.Host, o.Port)
	cfg.DBName = o.Name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true
	cfg.Params = map[string]string{"charset": "utf8mb4", "time_zone": "'+00:00'"}
	if o.CAPath != "" {
		cfg.TLSConfig = tlsConfigName
	}
	return cfg.FormatDSN()
}

// Open connects to MySQL and verifies the connection.
func Open(o Options) (*sql.DB, error) {
	if o.CAPath != "" {
		if err := registerCA(o.CAPath, o.Host); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("mysql", o.DSN())
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

func registerCA(path, host string) error {
	pem, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read database CA: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return fmt.Errorf("database CA %s contains no PEM certificates", path)
	}
	return mysql.RegisterTLSConfig(tlsConfigName, &tls.Config{
		RootCAs:    pool,
		ServerName: host,
		MinVersion: tls.VersionTLS12,
	})
}
