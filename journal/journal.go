package journal

import (
	"context"
	"encoding/json"
	"fmt"

	"httpecho/journal/models"

	"github.com/jackc/pgx"
	"github.com/pkg/errors"
)

const (
	DBHost = "127.0.0.1"
	DBPort = "5432"
	DBName = "http_echo"
)

const schema = `create table if not exists exchange (
	id          uuid primary key,
	worker      text not null,
	method      text not null,
	uri         text not null,
	header      json not null,
	status      integer not null,
	body_length integer not null,
	body        text not null,
	created_at  timestamptz not null default now()
)`

const insertExchange = `insert into exchange (id, worker, method, uri, header, status, body_length, body)
values ($1, $2, $3, $4, $5, $6, $7, $8)`

// Config describes how to reach the journal database.
type Config struct {
	Username string
	Password string
	DBName   string
	Host     string
	Port     string
}

// ConnString renders the config in libpq key/value form.
func (c Config) ConnString() string {
	host, port, name := c.Host, c.Port, c.DBName
	if host == "" {
		host = DBHost
	}
	if port == "" {
		port = DBPort
	}
	if name == "" {
		name = DBName
	}

	return fmt.Sprintf("user=%s dbname=%s password=%s host=%s port=%s sslmode=disable",
		c.Username,
		name,
		c.Password,
		host,
		port)
}

// Journal stores every served exchange in PostgreSQL.
type Journal struct {
	db *pgx.ConnPool
}

// Open connects to dsn (URL or key/value form) and makes sure the
// exchange table exists.
func Open(dsn string) (*Journal, error) {
	connConfig, err := pgx.ParseConnectionString(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "invalid journal connection string")
	}

	pool, err := pgx.NewConnPool(pgx.ConnPoolConfig{
		ConnConfig:     connConfig,
		MaxConnections: 10,
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect to journal database")
	}

	if _, err := pool.Exec(schema); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "create exchange table")
	}

	return &Journal{db: pool}, nil
}

// Record inserts one exchange.
func (j *Journal) Record(ctx context.Context, req models.Request, res models.Response) error {
	header, err := EncodeHeader(req.Headers)
	if err != nil {
		return err
	}

	_, err = j.db.ExecEx(ctx, insertExchange, nil,
		req.Id.String(),
		req.Worker,
		req.Method,
		req.URI,
		header,
		res.Status,
		len(res.Body),
		string(res.Body))
	if err != nil {
		return errors.Wrapf(err, "record exchange %s", req.Id)
	}

	return nil
}

func (j *Journal) Close() {
	j.db.Close()
}

// EncodeHeader serializes the header list as a JSON array of
// [name, value] pairs so that wire order survives the round trip.
func EncodeHeader(h models.Header) ([]byte, error) {
	pairs := make([][2]string, 0, len(h))
	for _, f := range h {
		pairs = append(pairs, [2]string{f.Name, f.Value})
	}

	b, err := json.Marshal(pairs)
	if err != nil {
		return nil, errors.Wrap(err, "encode header")
	}
	return b, nil
}
