package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientSendAfterCloseIsDropped(t *testing.T) {
	client := &Client{Send: make(chan []byte, 1)}

	assert.True(t, client.trySend([]byte("one")))
	assert.False(t, client.trySend([]byte("two"))) // buffer full

	client.closeSend()
	client.closeSend() // idempotent

	// A send racing the close is dropped instead of panicking
	assert.False(t, client.trySend([]byte("three")))
}
