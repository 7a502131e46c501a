// README: Audit pipeline tests against the sarama mock producer.
package audit

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gswash/internal/modules/order"
	"gswash/internal/types"
)

func TestOrderChangedPublishesEventJSON(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var ev auditEvent
		if err := json.Unmarshal(val, &ev); err != nil {
			return err
		}
		assert.Equal(t, "o1", ev.OrderID)
		assert.Equal(t, "c1", ev.CustomerID)
		assert.Equal(t, "pending", ev.FromStatus)
		assert.Equal(t, "assigned", ev.ToStatus)
		assert.Equal(t, "admin", ev.ActorType)
		assert.Equal(t, "adm-9", ev.ActorID)
		return nil
	})

	p := &Publisher{producer: producer, topic: "gswash.order-events", log: zap.NewNop()}
	actor := types.ID("adm-9")
	p.OrderChanged(order.Event{
		OrderID:    "o1",
		CustomerID: "c1",
		FromStatus: order.StatusPending,
		ToStatus:   order.StatusAssigned,
		ActorType:  "admin",
		ActorID:    &actor,
		CreatedAt:  time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
	})

	require.NoError(t, producer.Close())
}

func TestOrderChangedOmitsAbsentActor(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var raw map[string]interface{}
		if err := json.Unmarshal(val, &raw); err != nil {
			return err
		}
		_, present := raw["actor_id"]
		assert.False(t, present, "actor_id should be omitted when nil")
		return nil
	})

	p := &Publisher{producer: producer, topic: "t", log: zap.NewNop()}
	p.OrderChanged(order.Event{OrderID: "o2", CustomerID: "c1", ToStatus: order.StatusPending})

	require.NoError(t, producer.Close())
}

// TestOrderChangedDropsSendFailure: the order write already succeeded,
// so a broker failure is logged and dropped, never surfaced.
func TestOrderChangedDropsSendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(errors.New("broker down"))

	p := &Publisher{producer: producer, topic: "t", log: zap.NewNop()}
	p.OrderChanged(order.Event{OrderID: "o3", CustomerID: "c1", ToStatus: order.StatusCancelled})

	require.NoError(t, producer.Close())
}
