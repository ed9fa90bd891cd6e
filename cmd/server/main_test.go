package main

import (
    "context"
    "errors"
    "testing"

    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
)

func TestShutdownStopsServerBeforeHooks(t *testing.T) {
    var order []string
    stopServer := func(ctx context.Context) error {
        _, ok := ctx.Deadline()
        assert.True(t, ok, "server shutdown is bounded")
        order = append(order, "server")
        return errors.New("busy connections")
    }
    hooks := []func(){
        func() { order = append(order, "consumer") },
        func() { order = append(order, "redis") },
    }

    shutdown(zerolog.Nop(), stopServer, hooks)
    assert.Equal(t, []string{"server", "consumer", "redis"}, order, "hooks run even when the server reports an error")
}
