package rpc

import (
	"bufio"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dreamware/colony/internal/colony"
)

func TestCodecRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	req := &GetShardTickRequest{Shard: colony.Shard{X: 12, Y: 24, Width: 100, Height: 50}}
	require.NoError(t, WriteMessage(&buf, req))

	msg, err := ReadMessage(bufio.NewReader(&buf))
	require.NoError(t, err)
	got, ok := msg.(*GetShardTickRequest)
	require.True(t, ok, "decoded %T", msg)
	require.Equal(t, req.Shard, got.Shard)
}

func TestCodecSequentialFrames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, &PingRequest{}))
	require.NoError(t, WriteMessage(&buf, &StartTickingRequest{}))

	r := bufio.NewReader(&buf)
	first, err := ReadMessage(r)
	require.NoError(t, err)
	require.IsType(t, &PingRequest{}, first)
	second, err := ReadMessage(r)
	require.NoError(t, err)
	require.IsType(t, &StartTickingRequest{}, second)
}

type echoHandler struct{}

func (echoHandler) Handle(_ context.Context, req Request) Response {
	switch r := req.(type) {
	case *PingRequest:
		return &PingResponse{}
	case *GetShardTickRequest:
		_ = r
		return &GetShardTickResponse{Status: StatusOK, Tick: 42}
	default:
		return &ErrorResponse{Message: "unhandled"}
	}
}

func TestClientServerExchange(t *testing.T) {
	log := zaptest.NewLogger(t)
	srv := NewServer(echoHandler{}, log)
	addr, err := srv.Listen("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(ctx)

	client := NewClient(log)
	defer client.Close()

	resp, err := client.Call(addr, &PingRequest{})
	require.NoError(t, err)
	require.IsType(t, &PingResponse{}, resp)

	// Second call reuses the pooled connection.
	resp, err = client.Call(addr, &GetShardTickRequest{Shard: colony.Shard{Width: 10, Height: 10}})
	require.NoError(t, err)
	tick, ok := resp.(*GetShardTickResponse)
	require.True(t, ok)
	require.Equal(t, StatusOK, tick.Status)
	require.Equal(t, uint64(42), tick.Tick)
}

func TestClientPeerError(t *testing.T) {
	log := zaptest.NewLogger(t)
	srv := NewServer(echoHandler{}, log)
	addr, err := srv.Listen("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(ctx)

	client := NewClient(log)
	defer client.Close()

	_, err = client.Call(addr, &ApplyEventRequest{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unhandled")
}

func TestClientDialFailure(t *testing.T) {
	client := NewClient(zaptest.NewLogger(t))
	defer client.Close()

	_, err := client.Call("127.0.0.1:1", &PingRequest{})
	require.Error(t, err)
}
