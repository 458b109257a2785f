package codec

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessagePool_GetPut(t *testing.T) {
	t.Parallel()

	msg := GetMessage()
	assert.NotNil(t, msg)

	msg.Type = "test"
	msg.Payload = []byte("data")
	PutMessage(msg)

	// Get again - should be reset
	msg2 := GetMessage()
	assert.NotNil(t, msg2)
	assert.Empty(t, msg2.Type)
	assert.Nil(t, msg2.Payload)
}

func TestMessagePool_PutNil(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		PutMessage(nil)
	})
}

func TestBufferPool_GetPut(t *testing.T) {
	t.Parallel()

	buf := GetBuffer()
	assert.NotNil(t, buf)
	assert.Equal(t, 0, buf.Len())

	buf.WriteString("test data")
	PutBuffer(buf)

	// Get again - should be reset
	buf2 := GetBuffer()
	assert.Equal(t, 0, buf2.Len())
}

func TestBufferPool_PutNil(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		PutBuffer(nil)
	})
}

func TestMessagePool_Concurrency(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	for range 100 {
		wg.Go(func() {
			msg := GetMessage()
			msg.Type = "concurrent"
			msg.Payload = []byte("test")
			PutMessage(msg)
		})
	}
	wg.Wait()
	// If we get here without panic, concurrency is safe
}

func TestBufferPool_CapacityPreserved(t *testing.T) {
	t.Parallel()

	buf := GetBuffer()
	buf.Write(make([]byte, 1024))
	capacity := buf.Cap()
	PutBuffer(buf)

	buf2 := GetBuffer()
	assert.GreaterOrEqual(t, buf2.Cap(), capacity)
	assert.Equal(t, 0, buf2.Len())
}
