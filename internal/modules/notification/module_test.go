package notification_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/saransh1220/notify-relay/internal/modules/notification"
	"github.com/saransh1220/notify-relay/internal/modules/notification/application"
	"github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pushSpy struct{ jobs int }

func (p *pushSpy) Dispatch(context.Context, domain.PushJob) error {
	p.jobs++
	return nil
}

func TestNewModule(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db := sqlx.NewDb(sqlDB, "sqlmock")
	m := notification.NewModule(db, nil)
	defer m.Shutdown()
	require.NotNil(t, m)
	assert.NotNil(t, m.HTTPHandler())
	assert.NotNil(t, m.Service())
}

func TestModule_CreateDispatchesPush(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectExec("INSERT INTO user_notifications").WillReturnResult(sqlmock.NewResult(1, 1))

	push := &pushSpy{}
	m := notification.NewModule(sqlx.NewDb(sqlDB, "sqlmock"), nil, notification.WithPush(push))
	defer m.Shutdown()

	_, err = m.Service().Create(context.Background(), application.CreateInput{Type: "follow", RelatedID: "s1", ReceiverID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 1, push.jobs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestModule_ShutdownTwice(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	m := notification.NewModule(sqlx.NewDb(sqlDB, "sqlmock"), nil)
	m.Shutdown()
	assert.NotPanics(t, m.Shutdown)
}
