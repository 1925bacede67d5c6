// Package catalog advertises tables on a shared presence catalog and lists
// the open ones. Registrations travel as UDP datagrams; listings are read
// from the catalog's HTTP /query.json endpoint.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"
)

var (
	// ErrRegister wraps every failure to send a registration.
	ErrRegister = errors.New("catalog: register failed")
	// ErrQuery wraps every failure to fetch the catalog.
	ErrQuery = errors.New("catalog: query failed")
)

// maxCatalogBytes bounds the catalog body we are willing to parse.
const maxCatalogBytes = 8 << 20

// Registration is the datagram announcing a table.
type Registration struct {
	Type       string `json:"type"`
	Owner      string `json:"owner"`
	Port       int    `json:"port"`
	NumClients int    `json:"num_clients"`
}

// Registrar publishes registrations.
type Registrar interface {
	Register(ctx context.Context, reg Registration) error
}

// UDPRegistrar sends registrations to a catalog over UDP.
type UDPRegistrar struct {
	addr string
}

// NewUDPRegistrar returns a registrar for the catalog at host:port.
func NewUDPRegistrar(addr string) *UDPRegistrar {
	return &UDPRegistrar{addr: addr}
}

// Register sends one datagram. Only local errors (resolution, a refused
// port) surface; UDP gives no delivery guarantee.
func (r *UDPRegistrar) Register(ctx context.Context, reg Registration) error {
	payload, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRegister, err)
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", r.addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRegister, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrRegister, err)
	}
	return nil
}

// Lobby is an open table found in the catalog.
type Lobby struct {
	Type          string
	Owner         string
	Address       string
	Port          int
	NumClients    int
	LastHeardFrom time.Time
}

// Addr returns the dialable host:port of the lobby.
func (l Lobby) Addr() string {
	return net.JoinHostPort(l.Address, strconv.Itoa(l.Port))
}

// Client reads the catalog over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the catalog at host:port. timeout bounds
// each query.
func NewClient(addr string, timeout time.Duration) *Client {
	return &Client{
		baseURL: "http://" + addr,
		http:    &http.Client{Timeout: timeout},
	}
}

// Filter selects which catalog entries are listed.
type Filter struct {
	EntryType  string
	MaxClients int
	// FreshWithin drops entries not heard from for longer.
	FreshWithin time.Duration
}

// Lobbies fetches the catalog and returns the open lobbies matching f, most
// recently heard first.
func (c *Client) Lobbies(ctx context.Context, f Filter) ([]Lobby, error) {
	endpoint, err := url.JoinPath(c.baseURL, "query.json")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %s", ErrQuery, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	entries, err := Parse(body)
	if err != nil {
		return nil, err
	}
	return Select(entries, f, time.Now()), nil
}

// rawEntry mirrors a catalog record. Numbers may arrive quoted.
type rawEntry struct {
	Type          *string      `json:"type"`
	Owner         *string      `json:"owner"`
	Address       *string      `json:"address"`
	Port          *json.Number `json:"port"`
	NumClients    *json.Number `json:"num_clients"`
	LastHeardFrom *json.Number `json:"lastheardfrom"`
}

// Parse decodes a catalog body. Records lacking any required key, or of the
// wrong shape, are skipped.
func Parse(body []byte) ([]Lobby, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	out := make([]Lobby, 0, len(records))
	for _, rec := range records {
		var e rawEntry
		if err := json.Unmarshal(rec, &e); err != nil {
			continue
		}
		if e.Type == nil || e.Owner == nil || e.Address == nil || e.Port == nil || e.NumClients == nil || e.LastHeardFrom == nil {
			continue
		}
		port, err1 := e.Port.Int64()
		n, err2 := e.NumClients.Int64()
		heard, err3 := e.LastHeardFrom.Float64()
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		sec, frac := int64(heard), heard-float64(int64(heard))
		out = append(out, Lobby{
			Type:          *e.Type,
			Owner:         *e.Owner,
			Address:       *e.Address,
			Port:          int(port),
			NumClients:    int(n),
			LastHeardFrom: time.Unix(sec, int64(frac*float64(time.Second))),
		})
	}
	return out, nil
}

// Select filters lobbies by type, freshness and capacity, keeps only the
// newest record per (address, port, owner) and sorts newest first.
func Select(lobbies []Lobby, f Filter, now time.Time) []Lobby {
	type key struct {
		addr  string
		port  int
		owner string
	}
	newest := make(map[key]Lobby)
	cutoff := now.Add(-f.FreshWithin)
	for _, l := range lobbies {
		if l.Type != f.EntryType || l.LastHeardFrom.Before(cutoff) || l.NumClients >= f.MaxClients {
			continue
		}
		k := key{l.Address, l.Port, l.Owner}
		if cur, ok := newest[k]; !ok || l.LastHeardFrom.After(cur.LastHeardFrom) {
			newest[k] = l
		}
	}

	out := make([]Lobby, 0, len(newest))
	for _, l := range newest {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastHeardFrom.Equal(out[j].LastHeardFrom) {
			return out[i].LastHeardFrom.After(out[j].LastHeardFrom)
		}
		return out[i].Addr() < out[j].Addr()
	})
	return out
}
