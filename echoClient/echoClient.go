package echoClient

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const DefaultURL = "http://localhost:8080/hello"

// Client issues a single GET and renders the exchange to Out.
type Client struct {
	URL string
	// Header holds extra request headers; the default stack adds its own.
	Header http.Header
	HTTP   *http.Client
	Out    io.Writer
	Log    zerolog.Logger
}

func New(url string, out io.Writer, log zerolog.Logger) *Client {
	return &Client{
		URL:  url,
		HTTP: &http.Client{},
		Out:  out,
		Log:  log,
	}
}

// Run performs the exchange. A non-200 status is reported, not returned
// as an error; connection and transfer failures are.
func (c *Client) Run(ctx context.Context) (int, error) {
	status, err := c.do(ctx)
	if err != nil {
		fmt.Fprintf(c.Out, "Error during connection: %s\n", err)
		c.Log.Error().Err(err).Str("url", c.URL).Msg("request failed")
	}
	return status, err
}

func (c *Client) do(ctx context.Context) (int, error) {
	fmt.Fprintf(c.Out, "Connecting to: %s\n", c.URL)

	fmt.Fprintln(c.Out, "DEFAULT REQUEST HEADERS:")
	trace := &httptrace.ClientTrace{
		WroteHeaderField: func(key string, value []string) {
			fmt.Fprintf(c.Out, "%s: %s\n", key, strings.Join(value, ", "))
		},
	}

	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace), http.MethodGet, c.URL, nil)
	if err != nil {
		return 0, errors.Wrapf(err, "build request for %s", c.URL)
	}
	for key, values := range c.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	fmt.Fprintln(c.Out, "Sending GET request...")
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	fmt.Fprintf(c.Out, "Response Code: %d\n", resp.StatusCode)
	c.Log.Debug().Int("status", resp.StatusCode).Str("url", c.URL).Msg("response received")

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(c.Out, "GET request not successful. Response code: %d\n", resp.StatusCode)
		return resp.StatusCode, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, errors.Wrap(err, "read response body")
	}

	fmt.Fprintf(c.Out, "Response: \n%s\n", bodyLines(body))
	fmt.Fprintln(c.Out, "RESPONSE HEADERS:")
	printHeaders(c.Out, resp.Header)

	return resp.StatusCode, nil
}

// bodyLines terminates every body line with a newline.
func bodyLines(body []byte) string {
	var b strings.Builder
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 0, 4096), len(body)+1)
	for sc.Scan() {
		b.WriteString(sc.Text())
		b.WriteByte('\n')
	}
	return b.String()
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func printHeaders(w io.Writer, h http.Header) {
	keys := make([]string, 0, len(h))
	for key := range h {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Fprintf(w, "%s: %s\n", key, strings.Join(h[key], ", "))
	}
}
