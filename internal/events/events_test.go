package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_SubscribePublish(t *testing.T) {
	bus := NewBus()

	var got []*Event
	id := bus.Subscribe(ProductSaved, func(e *Event) { got = append(got, e) })
	bus.Subscribe(ProductDeleted, func(e *Event) { t.Fatal("wrong type delivered") })

	bus.Emit(ProductSaved, "products", &ProductData{Type: ProductSaved, ProductID: "p1"})
	require.Len(t, got, 1)
	assert.Equal(t, ProductSaved, got[0].Type)
	assert.Equal(t, "products", got[0].Module)
	assert.False(t, got[0].Timestamp.IsZero())
	assert.Equal(t, "p1", got[0].Data.(*ProductData).ProductID)

	bus.Unsubscribe(id)
	bus.Emit(ProductSaved, "products", &ProductData{Type: ProductSaved})
	assert.Len(t, got, 1)
	assert.Equal(t, 0, bus.Subscribers(ProductSaved))
	assert.Equal(t, 1, bus.Subscribers(ProductDeleted))
}

func TestBus_ConcurrentUse(t *testing.T) {
	bus := NewBus()
	var mu sync.Mutex
	count := 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := bus.Subscribe(ScheduleEdited, func(*Event) {
				mu.Lock()
				count++
				mu.Unlock()
			})
			bus.Emit(ScheduleEdited, "test", &ScheduleData{Type: ScheduleEdited})
			bus.Unsubscribe(id)
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, count, 20)
	assert.Equal(t, 0, bus.Subscribers(ScheduleEdited))
}

func TestManager_EmitLogsAndPublishes(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	bus := NewBus()
	manager := NewManager(bus, log)

	var received *Event
	bus.Subscribe(VariantSwitched, func(e *Event) { received = e })

	manager.Emit("products", &VariantSwitchedData{ProductID: "p1", From: "phoenix", To: "shark", DroppedKeys: []string{"memoryCoupon"}})

	require.NotNil(t, received)
	assert.Equal(t, VariantSwitched, received.Type)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "events", entry["service"])
	assert.Equal(t, string(VariantSwitched), entry["event_type"])
	assert.Equal(t, "products", entry["module"])
	assert.Equal(t, "shark", entry["data"].(map[string]any)["to"])
}

func TestManager_EmitError(t *testing.T) {
	bus := NewBus()
	manager := NewManager(bus, zerolog.Nop())

	var received *Event
	bus.Subscribe(ErrorOccurred, func(e *Event) { received = e })

	manager.EmitError("backup", errors.New("upload failed"), map[string]string{"bucket": "b"})

	require.NotNil(t, received)
	data := received.Data.(*ErrorEventData)
	assert.Equal(t, "upload failed", data.Error)
	assert.Equal(t, "b", data.Context["bucket"])
}

func TestEventData_Types(t *testing.T) {
	assert.Equal(t, ScheduleLoaded, (&ScheduleData{Type: ScheduleLoaded}).EventType())
	assert.Equal(t, ProductDeleted, (&ProductData{Type: ProductDeleted}).EventType())
	assert.Equal(t, BackupCompleted, (&BackupCompletedData{}).EventType())

	raw, err := json.Marshal(&ScheduleData{Type: ScheduleGenerated, ProductID: "p1", Periods: 4, State: "generated"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"product_id":"p1","periods":4,"state":"generated","locked":false}`, string(raw))
}
