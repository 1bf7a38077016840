package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTerminalFrame(t *testing.T) {
	env, err := Decode([]byte(`{"type":"pty:exit","terminalId":"t1","exitCode":1}`))
	require.NoError(t, err)
	assert.Equal(t, TypePtyExit, env.Type)
	assert.Equal(t, "t1", env.TerminalID)

	var exit PtyExit
	require.NoError(t, env.Unmarshal(&exit))
	assert.Equal(t, 1, exit.ExitCode)
}

func TestDecodeRejectsMalformedAndUntagged(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"data":"no tag"}`))
	assert.Error(t, err)
}

func TestDecodeUnknownTypePassesThrough(t *testing.T) {
	env, err := Decode([]byte(`{"type":"cost:update","total":12}`))
	require.NoError(t, err)
	assert.Equal(t, Type("cost:update"), env.Type)
	assert.Empty(t, env.TerminalID)
}

func TestOutboundFramesCarryTypeTags(t *testing.T) {
	data, err := Marshal(NewPtySyncActive([]string{"t1", "t2"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"pty:sync-active","terminalIds":["t1","t2"]}`, string(data))

	data, err = Marshal(NewGroupCreate("g1", "workspace", 1700000000000))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"group:create","groupId":"g1","label":"workspace","createdAt":1700000000000}`, string(data))
}
