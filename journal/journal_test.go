package journal

import (
	"context"
	"os"
	"testing"

	"httpecho/journal/models"

	"github.com/google/uuid"
)

func TestConnString(t *testing.T) {
	cases := []struct {
		cfg      Config
		expected string
	}{
		{
			Config{Username: "echo", Password: "secret"},
			"user=echo dbname=http_echo password=secret host=127.0.0.1 port=5432 sslmode=disable",
		},
		{
			Config{Username: "u", Password: "p", DBName: "db", Host: "db.local", Port: "6543"},
			"user=u dbname=db password=p host=db.local port=6543 sslmode=disable",
		},
	}

	for _, c := range cases {
		if got := c.cfg.ConnString(); got != c.expected {
			t.Errorf("expected %q, got %q", c.expected, got)
		}
	}
}

func TestHeaderKeepsOrder(t *testing.T) {
	h := models.Header{
		{Name: "X-B", Value: "2"},
		{Name: "X-A", Value: "1"},
		{Name: "X-B", Value: "3"},
	}

	b, err := EncodeHeader(h)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `[["X-B","2"],["X-A","1"],["X-B","3"]]` {
		t.Errorf("unexpected encoding %s", b)
	}
}

// TestRecordRoundTrip needs a reachable PostgreSQL, e.g.
// HTTPECHO_JOURNAL_DSN="user=echo password=echo dbname=http_echo host=127.0.0.1 sslmode=disable"
func TestRecordRoundTrip(t *testing.T) {
	dsn := os.Getenv("HTTPECHO_JOURNAL_DSN")
	if testing.Short() || dsn == "" {
		t.Skip("HTTPECHO_JOURNAL_DSN not set")
	}

	j, err := Open(dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	req := models.Request{
		Id:     uuid.New(),
		Worker: "worker-1",
		Method: "GET",
		URI:    "/hello?x=1",
		Headers: models.Header{
			{Name: "Host", Value: "localhost:8080"},
			{Name: "X-Test", Value: "abc"},
		},
	}
	res := models.NewTextResponse([]byte("Request Details:\n"))

	if err := j.Record(context.Background(), req, res); err != nil {
		t.Fatal(err)
	}
	defer j.db.Exec(`delete from exchange where id = $1`, req.Id.String())

	var (
		worker, method, uri, body string
		header                    []byte
		status, length            int32
	)
	err = j.db.QueryRow(`select worker, method, uri, header, status, body_length, body from exchange where id = $1`, req.Id.String()).
		Scan(&worker, &method, &uri, &header, &status, &length, &body)
	if err != nil {
		t.Fatal(err)
	}

	if worker != req.Worker || method != req.Method || uri != req.URI {
		t.Errorf("unexpected row %s %s %s", worker, method, uri)
	}
	if status != 200 || int(length) != len(res.Body) || body != string(res.Body) {
		t.Errorf("unexpected response columns %d %d %q", status, length, body)
	}

	expected, _ := EncodeHeader(req.Headers)
	if string(header) != string(expected) {
		t.Errorf("expected header %s, got %s", expected, header)
	}
}

func TestOpenRejectsBadDSN(t *testing.T) {
	if _, err := Open("postgres://%zz"); err == nil {
		t.Error("expected an error for an unparsable connection string")
	}
}
