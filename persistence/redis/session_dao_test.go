package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/chatflowhq/chatflow/model"
	"github.com/chatflowhq/chatflow/util"
	"github.com/stretchr/testify/require"
)

func newTestBaseDao(t *testing.T) *baseDao {
	t.Helper()
	mr := miniredis.RunT(t)
	return newBaseDao(Config{
		Addrs:     []string{mr.Addr()},
		Namespace: "test",
	})
}

func TestSessionDao(t *testing.T) {
	for scenario, fn := range map[string]func(
		t *testing.T, dao *redisSessionDao,
	){
		"test save and get session":           testSaveGetSession,
		"test active session owns address":    testActiveSessionAddress,
		"test terminal session frees address": testTerminalSessionAddress,
		"test stale address index cleaned":    testStaleAddressIndex,
	} {
		t.Run(scenario, func(t *testing.T) {
			dao := NewRedisSessionDao(newTestBaseDao(t), util.NewJsonEncoderDecoder[model.Session]())
			fn(t, dao)
		})
	}
}

func testSaveGetSession(t *testing.T, dao *redisSessionDao) {
	session := &model.Session{
		Id:          "s1",
		FlowId:      "f1",
		Address:     "+15550001111",
		State:       model.SESSION_STATE_WAITING_REPLY,
		CurrentNode: "n2",
		Variables:   map[string]any{"name": "asha"},
	}
	require.NoError(t, dao.SaveSession(session))

	loaded, err := dao.GetSession("s1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, "n2", loaded.CurrentNode)
	require.Equal(t, model.SESSION_STATE_WAITING_REPLY, loaded.State)
	require.Equal(t, "asha", loaded.Variables["name"])

	missing, err := dao.GetSession("nope")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func testActiveSessionAddress(t *testing.T, dao *redisSessionDao) {
	session := &model.Session{
		Id:      "s1",
		Address: "+15550001111",
		State:   model.SESSION_STATE_RUNNING,
	}
	require.NoError(t, dao.SaveSession(session))

	active, err := dao.GetActiveSession("+15550001111")
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, "s1", active.Id)

	sessions, err := dao.ListActiveSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
}

func testTerminalSessionAddress(t *testing.T, dao *redisSessionDao) {
	session := &model.Session{
		Id:      "s1",
		Address: "+15550001111",
		State:   model.SESSION_STATE_RUNNING,
	}
	require.NoError(t, dao.SaveSession(session))

	session.State = model.SESSION_STATE_COMPLETED
	require.NoError(t, dao.SaveSession(session))

	active, err := dao.GetActiveSession("+15550001111")
	require.NoError(t, err)
	require.Nil(t, active)

	// the history row survives the release
	loaded, err := dao.GetSession("s1")
	require.NoError(t, err)
	require.Equal(t, model.SESSION_STATE_COMPLETED, loaded.State)
}

func testStaleAddressIndex(t *testing.T, dao *redisSessionDao) {
	// index pointing at a session that no longer exists
	require.NoError(t, dao.redisClient.HSet(context.Background(), dao.getNamespaceKey(ADDRESS_KEY),
		[]string{"+15550009999", "ghost"}).Err())

	active, err := dao.GetActiveSession("+15550009999")
	require.NoError(t, err)
	require.Nil(t, active)
}
