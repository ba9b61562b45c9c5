package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	userDomain "github.com/davicafu/hexafilter/internal/user/domain"
	sharedEvents "github.com/davicafu/hexafilter/shared/events"
)

type mockEvicter struct {
	mock.Mock
}

func (m *mockEvicter) EvictUser(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func envelope(t *testing.T, eventType string, data interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	payload, err := json.Marshal(sharedEvents.IntegrationEvent{
		ID: uuid.NewString(), Type: eventType, Timestamp: time.Now().UTC(), Data: raw,
	})
	require.NoError(t, err)
	return payload
}

func TestUserConsumer_EvictsOnUpdateAndDelete(t *testing.T) {
	// Arrange
	id := uuid.New()
	evicter := &mockEvicter{}
	evicter.On("EvictUser", mock.Anything, id).Return(nil).Twice()
	consumer := NewUserConsumer(evicter, zap.NewNop())
	ctx := context.Background()

	// Act
	consumer.HandleMessage(ctx, id.String(), envelope(t, userDomain.UserUpdated, userDomain.User{ID: id, FirstName: "Ana"}))
	consumer.HandleMessage(ctx, id.String(), envelope(t, userDomain.UserDeleted, userDomain.UserRef{ID: id}))

	// Assert
	evicter.AssertExpectations(t)
}

func TestUserConsumer_IgnoresOtherMessages(t *testing.T) {
	evicter := &mockEvicter{}
	consumer := NewUserConsumer(evicter, zap.NewNop())
	ctx := context.Background()

	consumer.HandleMessage(ctx, "", []byte("not json"))
	consumer.HandleMessage(ctx, "", envelope(t, userDomain.UserCreated, userDomain.User{ID: uuid.New()}))
	consumer.HandleMessage(ctx, "", envelope(t, "todo.created", map[string]string{}))
	consumer.HandleMessage(ctx, "", envelope(t, userDomain.UserDeleted, "bad payload"))

	evicter.AssertNotCalled(t, "EvictUser", mock.Anything, mock.Anything)
	assert.Empty(t, evicter.Calls)
}
