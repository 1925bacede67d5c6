package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUDPRegistrarSendsDatagram(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	reg := Registration{Type: "Tong-its", Owner: "ann", Port: 4242, NumClients: 1}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, NewUDPRegistrar(pc.LocalAddr().String()).Register(ctx, reg))

	buf := make([]byte, 1024)
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)

	var got Registration
	require.NoError(t, json.Unmarshal(buf[:n], &got))
	assert.Equal(t, reg, got)
	assert.Contains(t, string(buf[:n]), `"num_clients":1`)
}

func TestRegisterBadAddress(t *testing.T) {
	err := NewUDPRegistrar("not-an-address").Register(context.Background(), Registration{})
	assert.ErrorIs(t, err, ErrRegister)
}

func TestSelectFiltersDedupesAndSorts(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	f := Filter{EntryType: "Tong-its", MaxClients: 2, FreshWithin: time.Minute}
	in := []Lobby{
		{Type: "Tong-its", Owner: "ann", Address: "10.0.0.1", Port: 9000, NumClients: 0, LastHeardFrom: now.Add(-50 * time.Second)},
		{Type: "Tong-its", Owner: "ann", Address: "10.0.0.1", Port: 9000, NumClients: 1, LastHeardFrom: now.Add(-5 * time.Second)},
		{Type: "Tong-its", Owner: "bob", Address: "10.0.0.2", Port: 9001, NumClients: 1, LastHeardFrom: now.Add(-20 * time.Second)},
		{Type: "Tong-its", Owner: "old", Address: "10.0.0.3", Port: 9002, NumClients: 0, LastHeardFrom: now.Add(-2 * time.Minute)},
		{Type: "Tong-its", Owner: "full", Address: "10.0.0.4", Port: 9003, NumClients: 2, LastHeardFrom: now},
		{Type: "chess", Owner: "other", Address: "10.0.0.5", Port: 9004, NumClients: 0, LastHeardFrom: now},
	}

	got := Select(in, f, now)
	require.Len(t, got, 2)
	assert.Equal(t, "ann", got[0].Owner)
	assert.Equal(t, 1, got[0].NumClients, "newest record per lobby wins")
	assert.Equal(t, "bob", got[1].Owner)
	assert.Equal(t, "10.0.0.1:9000", got[0].Addr())
}

func TestParseSkipsIncompleteRecords(t *testing.T) {
	body := `[
		{"type":"Tong-its","owner":"ann","address":"10.0.0.1","port":9000,"num_clients":1,"lastheardfrom":1700000000.5},
		{"type":"Tong-its","owner":"bob","address":"10.0.0.2","port":"9001","num_clients":"0","lastheardfrom":1700000001},
		{"type":"Tong-its","owner":"nop","address":"10.0.0.3"},
		{"type":5},
		"junk"
	]`
	got, err := Parse([]byte(body))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 9001, got[1].Port)
	assert.Equal(t, int64(1700000000), got[0].LastHeardFrom.Unix())

	_, err = Parse([]byte(`{"not":"a list"}`))
	assert.ErrorIs(t, err, ErrQuery)
}

func TestClientLobbies(t *testing.T) {
	now := time.Now().Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query.json" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `[{"type":"Tong-its","owner":"ann","address":"127.0.0.1","port":9000,"num_clients":0,"lastheardfrom":%d}]`, now)
	}))
	defer srv.Close()

	c := NewClient(strings.TrimPrefix(srv.URL, "http://"), time.Second)
	got, err := c.Lobbies(context.Background(), Filter{EntryType: "Tong-its", MaxClients: 2, FreshWithin: time.Minute})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "127.0.0.1:9000", got[0].Addr())
}

func TestClientLobbiesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(strings.TrimPrefix(srv.URL, "http://"), time.Second)
	_, err := c.Lobbies(context.Background(), Filter{EntryType: "Tong-its", MaxClients: 2, FreshWithin: time.Minute})
	assert.ErrorIs(t, err, ErrQuery)
}
